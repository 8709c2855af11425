package board

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Repository is the task CRUD layer. Every mutation loads the whole list,
// changes an in-memory copy and saves the whole list back. Operations are
// serialized so the read-modify-write cycle is atomic within the process.
type Repository struct {
	mu      sync.Mutex
	storage *Storage
	log     logrus.FieldLogger
}

func NewRepository(storage *Storage, log logrus.FieldLogger) *Repository {
	return &Repository{storage: storage, log: log}
}

// Create stores draft under a fresh id. Title, status and board are
// required; the draft's own id is ignored.
func (r *Repository) Create(ctx context.Context, draft Task) (Task, error) {
	if missing := missingFields(draft); len(missing) > 0 {
		return Task{}, fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.storage.LoadAll(ctx)
	if err != nil {
		return Task{}, err
	}
	id, err := r.storage.nextID(ctx, tasks)
	if err != nil {
		return Task{}, err
	}
	draft.ID = id
	tasks = append(tasks, draft)
	if err := r.storage.SaveAll(ctx, tasks); err != nil {
		return Task{}, err
	}
	r.log.WithFields(logrus.Fields{"id": id, "board": draft.Board, "status": draft.Status}).Info("task created")
	return draft, nil
}

// Patch merges the non-nil fields of p into task id.
func (r *Repository) Patch(ctx context.Context, id int, p TaskPatch) (Task, error) {
	return r.update(ctx, id, func(t *Task) error {
		p.apply(t)
		return nil
	})
}

// Put replaces every mutable field of task id with those of fields.
func (r *Repository) Put(ctx context.Context, id int, fields Task) (Task, error) {
	if missing := missingFields(fields); len(missing) > 0 {
		return Task{}, fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	return r.update(ctx, id, func(t *Task) error {
		fields.ID = t.ID
		*t = fields
		return nil
	})
}

func (r *Repository) update(ctx context.Context, id int, fn func(*Task) error) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.storage.LoadAll(ctx)
	if err != nil {
		return Task{}, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err := fn(&tasks[i]); err != nil {
		return Task{}, err
	}
	if err := r.storage.SaveAll(ctx, tasks); err != nil {
		return Task{}, err
	}
	r.log.WithField("id", id).Info("task updated")
	return tasks[i], nil
}

// Delete removes task id. Deleting an unknown id does nothing.
func (r *Repository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.storage.LoadAll(ctx)
	if err != nil {
		return err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		r.log.WithField("id", id).Debug("task not found for delete")
		return nil
	}
	tasks = append(tasks[:i], tasks[i+1:]...)
	if err := r.storage.SaveAll(ctx, tasks); err != nil {
		return err
	}
	r.log.WithField("id", id).Info("task deleted")
	return nil
}

func (r *Repository) ListAll(ctx context.Context) ([]Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.storage.LoadAll(ctx)
}

func (r *Repository) Get(ctx context.Context, id int) (Task, error) {
	tasks, err := r.ListAll(ctx)
	if err != nil {
		return Task{}, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return tasks[i], nil
}

func indexOf(tasks []Task, id int) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
