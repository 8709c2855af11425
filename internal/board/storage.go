package board

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/gmllt/kban/internal/kv"
)

// Keys of the persisted layout.
const (
	KeyTasks       = "tasks"
	KeyShowSideBar = "showSideBar"
	KeyLightMode   = "lightMode"
	KeyActiveBoard = "activeBoard"
	KeyNextID      = "id"
)

// Preferences are the cosmetic flags kept next to the task list.
type Preferences struct {
	ShowSideBar bool `json:"showSideBar"`
	LightMode   bool `json:"lightMode"`
}

// Storage reads and writes the serialized task list and the auxiliary keys
// of a kv.Store. The task list is always loaded and saved as a whole.
type Storage struct {
	store kv.Store
	seed  []Task
	log   logrus.FieldLogger
}

// NewStorage uses seed as the initial dataset. A nil seed means
// DefaultSeed.
func NewStorage(store kv.Store, seed []Task, log logrus.FieldLogger) *Storage {
	if seed == nil {
		seed = DefaultSeed()
	}
	return &Storage{store: store, seed: seed, log: log}
}

// LoadAll returns the persisted task list. When the tasks key has never
// been written, the store is seeded first.
func (s *Storage) LoadAll(ctx context.Context) ([]Task, error) {
	raw, ok, err := s.store.Get(ctx, KeyTasks)
	if err != nil {
		return nil, fmt.Errorf("error loading tasks: %w", err)
	}
	if !ok {
		return s.initialize(ctx)
	}
	var tasks []Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("%w: key %q: %v", ErrStorageCorrupt, KeyTasks, err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

func (s *Storage) initialize(ctx context.Context) ([]Task, error) {
	s.log.Info("no task data in store, loading initial data")
	tasks := append([]Task{}, s.seed...)
	if err := s.SaveAll(ctx, tasks); err != nil {
		return nil, err
	}
	if _, ok, err := s.store.Get(ctx, KeyShowSideBar); err != nil {
		return nil, fmt.Errorf("error loading %s: %w", KeyShowSideBar, err)
	} else if !ok {
		if err := s.store.Set(ctx, KeyShowSideBar, "true"); err != nil {
			return nil, fmt.Errorf("error saving %s: %w", KeyShowSideBar, err)
		}
	}
	s.log.WithField("tasks", len(tasks)).Info("initial data loaded")
	return tasks, nil
}

// ensureSeeded runs the first-use seeding without decoding the task list,
// so a corrupt list does not block access to the other keys.
func (s *Storage) ensureSeeded(ctx context.Context) error {
	_, ok, err := s.store.Get(ctx, KeyTasks)
	if err != nil {
		return fmt.Errorf("error loading tasks: %w", err)
	}
	if ok {
		return nil
	}
	_, err = s.initialize(ctx)
	return err
}

// SaveAll overwrites the persisted task list.
func (s *Storage) SaveAll(ctx context.Context, tasks []Task) error {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("error encoding tasks: %w", err)
	}
	if err := s.store.Set(ctx, KeyTasks, string(data)); err != nil {
		return fmt.Errorf("error saving tasks: %w", err)
	}
	return nil
}

// NextID returns an id no current task uses and advances the counter.
func (s *Storage) NextID(ctx context.Context) (int, error) {
	tasks, err := s.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	return s.nextID(ctx, tasks)
}

// nextID takes the larger of the stored counter and the highest existing
// id plus one, so ids never repeat after deletes.
func (s *Storage) nextID(ctx context.Context, tasks []Task) (int, error) {
	id := 1
	for _, t := range tasks {
		if t.ID >= id {
			id = t.ID + 1
		}
	}
	raw, ok, err := s.store.Get(ctx, KeyNextID)
	if err != nil {
		return 0, fmt.Errorf("error loading id counter: %w", err)
	}
	if ok {
		var counter *int
		if err := json.Unmarshal([]byte(raw), &counter); err != nil {
			return 0, fmt.Errorf("%w: key %q: %v", ErrStorageCorrupt, KeyNextID, err)
		}
		if counter != nil && *counter > id {
			id = *counter
		}
	}
	if err := s.store.Set(ctx, KeyNextID, strconv.Itoa(id+1)); err != nil {
		return 0, fmt.Errorf("error saving id counter: %w", err)
	}
	return id, nil
}

// ActiveBoard returns the last selected board name, or "" if none was
// ever selected.
func (s *Storage) ActiveBoard(ctx context.Context) (string, error) {
	raw, ok, err := s.store.Get(ctx, KeyActiveBoard)
	if err != nil {
		return "", fmt.Errorf("error loading active board: %w", err)
	}
	if !ok {
		return "", nil
	}
	var name *string
	if err := json.Unmarshal([]byte(raw), &name); err != nil {
		return "", fmt.Errorf("%w: key %q: %v", ErrStorageCorrupt, KeyActiveBoard, err)
	}
	if name == nil {
		return "", nil
	}
	return *name, nil
}

func (s *Storage) SetActiveBoard(ctx context.Context, name string) error {
	data, err := json.Marshal(name)
	if err != nil {
		return fmt.Errorf("error encoding active board: %w", err)
	}
	if err := s.store.Set(ctx, KeyActiveBoard, string(data)); err != nil {
		return fmt.Errorf("error saving active board: %w", err)
	}
	return nil
}

// Preferences reads both flags, seeding a new store first. An absent
// flag is false.
func (s *Storage) Preferences(ctx context.Context) (Preferences, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return Preferences{}, err
	}
	var p Preferences
	var err error
	if p.ShowSideBar, err = s.flag(ctx, KeyShowSideBar); err != nil {
		return Preferences{}, err
	}
	if p.LightMode, err = s.flag(ctx, KeyLightMode); err != nil {
		return Preferences{}, err
	}
	return p, nil
}

func (s *Storage) SetPreferences(ctx context.Context, p Preferences) error {
	if err := s.ensureSeeded(ctx); err != nil {
		return err
	}
	if err := s.store.Set(ctx, KeyShowSideBar, strconv.FormatBool(p.ShowSideBar)); err != nil {
		return fmt.Errorf("error saving %s: %w", KeyShowSideBar, err)
	}
	if err := s.store.Set(ctx, KeyLightMode, strconv.FormatBool(p.LightMode)); err != nil {
		return fmt.Errorf("error saving %s: %w", KeyLightMode, err)
	}
	return nil
}

func (s *Storage) flag(ctx context.Context, key string) (bool, error) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("error loading %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: key %q: %v", ErrStorageCorrupt, key, err)
	}
	return v, nil
}
