package board

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Session holds the active board selection. It replaces a process-wide
// variable: renderers receive a *Session and the choice is persisted
// through Storage so it survives restarts.
type Session struct {
	storage *Storage
	log     logrus.FieldLogger
}

func NewSession(storage *Storage, log logrus.FieldLogger) *Session {
	return &Session{storage: storage, log: log}
}

// View is what a renderer needs to draw one board.
type View struct {
	Boards   []string
	Active   string
	Columns  []Column
	Unlisted []Task
	Prefs    Preferences
}

// Resolve works out the active board for tasks, persisting the fallback
// when the stored selection no longer exists.
func (s *Session) Resolve(ctx context.Context, tasks []Task) (string, bool, error) {
	boards := DistinctBoards(tasks)
	previous, err := s.storage.ActiveBoard(ctx)
	if err != nil {
		return "", false, err
	}
	active, ok := ResolveActiveBoard(boards, previous)
	if ok && active != previous {
		if err := s.storage.SetActiveBoard(ctx, active); err != nil {
			return "", false, err
		}
		s.log.WithFields(logrus.Fields{"previous": previous, "active": active}).Debug("active board fell back")
	}
	return active, ok, nil
}

// Select makes name the active board.
func (s *Session) Select(ctx context.Context, name string) error {
	if err := s.storage.SetActiveBoard(ctx, name); err != nil {
		return err
	}
	s.log.WithField("board", name).Info("active board selected")
	return nil
}

// Build assembles the View for tasks.
func (s *Session) Build(ctx context.Context, tasks []Task) (View, error) {
	v := View{Boards: DistinctBoards(tasks)}
	prefs, err := s.storage.Preferences(ctx)
	if err != nil {
		return View{}, err
	}
	v.Prefs = prefs
	active, ok, err := s.Resolve(ctx, tasks)
	if err != nil {
		return View{}, err
	}
	if !ok {
		return v, nil
	}
	v.Active = active
	v.Columns = Columns(tasks, active)
	v.Unlisted = Unlisted(tasks, active)
	for _, t := range v.Unlisted {
		s.log.WithFields(logrus.Fields{"id": t.ID, "status": t.Status}).Warn("task status has no column")
	}
	return v, nil
}
