package web

import (
	"net/http"

	"github.com/gmllt/kban/internal/board"
)

// Page handlers never show an error to the user: failures are logged and
// the browser is sent back to the board unchanged.

type boardPage struct {
	board.View
	Statuses []board.Status
}

type editPage struct {
	Active   string
	Prefs    board.Preferences
	Task     board.Task
	Statuses []board.Status
}

func (s *server) index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := boardPage{Statuses: board.Statuses}
	tasks, err := s.Repo.ListAll(ctx)
	if err != nil {
		s.Log.WithError(err).Error("error fetching and displaying boards")
	} else if page.View, err = s.Session.Build(ctx, tasks); err != nil {
		s.Log.WithError(err).Error("error resolving active board")
		page.View = board.View{}
	}
	s.render(w, "board", page)
}

func (s *server) selectBoard(w http.ResponseWriter, r *http.Request) {
	name := r.PostFormValue("board")
	if name == "" {
		s.Log.Warn("board selection without a board name")
	} else if err := s.Session.Select(r.Context(), name); err != nil {
		s.Log.WithError(err).Error("error selecting board")
	}
	backToBoard(w, r)
}

func (s *server) createTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	draft := board.Task{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Status:      board.Status(r.PostFormValue("status")),
	}
	tasks, err := s.Repo.ListAll(ctx)
	if err != nil {
		s.Log.WithError(err).Error("error creating task")
		backToBoard(w, r)
		return
	}
	if active, ok, err := s.Session.Resolve(ctx, tasks); err != nil {
		s.Log.WithError(err).Error("error resolving active board")
	} else if ok {
		draft.Board = active
	}
	if _, err := s.Repo.Create(ctx, draft); err != nil {
		s.Log.WithError(err).Error("error creating task")
	}
	backToBoard(w, r)
}

func (s *server) editTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := taskID(r)
	if err != nil {
		s.Log.WithError(err).Error("error reading task id")
		backToBoard(w, r)
		return
	}
	task, err := s.Repo.Get(ctx, id)
	if err != nil {
		s.Log.WithError(err).WithField("id", id).Error("error opening task")
		backToBoard(w, r)
		return
	}
	page := editPage{Active: task.Board, Task: task, Statuses: board.Statuses}
	if page.Prefs, err = s.Storage.Preferences(ctx); err != nil {
		s.Log.WithError(err).Warn("error loading preferences")
	}
	s.render(w, "edit", page)
}

// saveTask patches only the fields present in the submitted form.
func (s *server) saveTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		s.Log.WithError(err).Error("error reading task id")
		backToBoard(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.Log.WithError(err).Error("error parsing task form")
		backToBoard(w, r)
		return
	}
	var p board.TaskPatch
	if _, ok := r.PostForm["title"]; ok {
		v := r.PostForm.Get("title")
		p.Title = &v
	}
	if _, ok := r.PostForm["description"]; ok {
		v := r.PostForm.Get("description")
		p.Description = &v
	}
	if _, ok := r.PostForm["status"]; ok {
		v := board.Status(r.PostForm.Get("status"))
		p.Status = &v
	}
	if _, err := s.Repo.Patch(r.Context(), id, p); err != nil {
		s.Log.WithError(err).WithField("id", id).Error("error saving task changes")
	}
	backToBoard(w, r)
}

func (s *server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		s.Log.WithError(err).Error("error reading task id")
		backToBoard(w, r)
		return
	}
	if err := s.Repo.Delete(r.Context(), id); err != nil {
		s.Log.WithError(err).WithField("id", id).Error("error deleting task")
	}
	backToBoard(w, r)
}

func (s *server) toggleTheme(w http.ResponseWriter, r *http.Request) {
	s.togglePreference(r, func(p *board.Preferences) { p.LightMode = !p.LightMode })
	backToBoard(w, r)
}

func (s *server) toggleSidebar(w http.ResponseWriter, r *http.Request) {
	s.togglePreference(r, func(p *board.Preferences) { p.ShowSideBar = !p.ShowSideBar })
	backToBoard(w, r)
}

func (s *server) togglePreference(r *http.Request, fn func(*board.Preferences)) {
	ctx := r.Context()
	p, err := s.Storage.Preferences(ctx)
	if err != nil {
		s.Log.WithError(err).Error("error loading preferences")
		return
	}
	fn(&p)
	if err := s.Storage.SetPreferences(ctx, p); err != nil {
		s.Log.WithError(err).Error("error saving preferences")
	}
}

func (s *server) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.Log.WithError(err).WithField("template", name).Error("error rendering page")
	}
}

func backToBoard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
