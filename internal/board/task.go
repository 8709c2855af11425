package board

import (
	"errors"
	"strings"
)

type Status string

const (
	StatusTodo  Status = "todo"
	StatusDoing Status = "doing"
	StatusDone  Status = "done"
)

// Statuses lists the column statuses in display order.
var Statuses = []Status{StatusTodo, StatusDoing, StatusDone}

// Valid reports whether s is one of the three column statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusDone:
		return true
	}
	return false
}

// Title is the column heading for s.
func (s Status) Title() string {
	return strings.ToUpper(string(s))
}

type Task struct {
	ID          int    `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Status      Status `json:"status" yaml:"status"`
	Board       string `json:"board" yaml:"board"`
}

// TaskPatch carries the fields of a partial update. Nil fields are left
// untouched.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
	Board       *string `json:"board,omitempty"`
}

func (p TaskPatch) apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Board != nil {
		t.Board = *p.Board
	}
}

// Empty reports whether the patch names no field at all.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Board == nil
}

var (
	ErrNotFound       = errors.New("task not found")
	ErrValidation     = errors.New("task validation failed")
	ErrStorageCorrupt = errors.New("stored data is corrupt")
)

func missingFields(t Task) []string {
	var missing []string
	if strings.TrimSpace(t.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(string(t.Status)) == "" {
		missing = append(missing, "status")
	}
	if strings.TrimSpace(t.Board) == "" {
		missing = append(missing, "board")
	}
	return missing
}
