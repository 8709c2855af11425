package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/gmllt/kban/internal/board"
)

type boardsResponse struct {
	Boards []string `json:"boards"`
	Active string   `json:"active"`
}

type selectBoardRequest struct {
	Board string `json:"board"`
}

func (s *server) apiListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.Repo.ListAll(r.Context())
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *server) apiCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var draft board.Task
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		s.Log.WithError(err).Warn("error decoding task")
		http.Error(w, "invalid task payload", http.StatusBadRequest)
		return
	}
	if draft.Board == "" {
		tasks, err := s.Repo.ListAll(ctx)
		if err != nil {
			s.apiError(w, err)
			return
		}
		active, ok, err := s.Session.Resolve(ctx, tasks)
		if err != nil {
			s.apiError(w, err)
			return
		}
		if ok {
			draft.Board = active
		}
	}
	created, err := s.Repo.Create(ctx, draft)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *server) apiGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.apiTaskID(w, r)
	if !ok {
		return
	}
	task, err := s.Repo.Get(r.Context(), id)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *server) apiPatchTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.apiTaskID(w, r)
	if !ok {
		return
	}
	var p board.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.Log.WithError(err).Warn("error decoding task patch")
		http.Error(w, "invalid patch payload", http.StatusBadRequest)
		return
	}
	task, err := s.Repo.Patch(r.Context(), id, p)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *server) apiPutTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.apiTaskID(w, r)
	if !ok {
		return
	}
	var fields board.Task
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		s.Log.WithError(err).Warn("error decoding task")
		http.Error(w, "invalid task payload", http.StatusBadRequest)
		return
	}
	task, err := s.Repo.Put(r.Context(), id, fields)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *server) apiDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.apiTaskID(w, r)
	if !ok {
		return
	}
	if err := s.Repo.Delete(r.Context(), id); err != nil {
		s.apiError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) apiBoards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tasks, err := s.Repo.ListAll(ctx)
	if err != nil {
		s.apiError(w, err)
		return
	}
	active, _, err := s.Session.Resolve(ctx, tasks)
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boardsResponse{Boards: board.DistinctBoards(tasks), Active: active})
}

func (s *server) apiSelectBoard(w http.ResponseWriter, r *http.Request) {
	var req selectBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Board == "" {
		http.Error(w, "board is required", http.StatusBadRequest)
		return
	}
	if err := s.Session.Select(r.Context(), req.Board); err != nil {
		s.apiError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) apiError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, board.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, board.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.Log.WithError(err).Error("task api request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// taskID reads the {id} route variable. The route only admits digits, so
// an error here means the id does not fit in an int.
func taskID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q: %w", mux.Vars(r)["id"], err)
	}
	return id, nil
}

// apiTaskID writes a 400 and reports false when the id cannot be parsed.
func (s *server) apiTaskID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := taskID(r)
	if err != nil {
		s.Log.WithError(err).Warn("rejecting task request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
