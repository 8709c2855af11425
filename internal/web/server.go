// Package web renders the board as HTML and exposes the task API.
package web

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/gmllt/kban/internal/board"
)

//go:embed templates/*.html
var templateFS embed.FS

// State is everything a handler touches. It is built once and passed to
// NewRouter; there are no package-level globals.
type State struct {
	Repo    *board.Repository
	Storage *board.Storage
	Session *board.Session
	Log     logrus.FieldLogger
}

type server struct {
	*State
	tmpl *template.Template
}

// NewRouter wires every page and API route to st.
func NewRouter(st *State) (*mux.Router, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	s := &server{State: st, tmpl: tmpl}

	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/", s.index).Methods(http.MethodGet)
	r.HandleFunc("/boards/select", s.selectBoard).Methods(http.MethodPost)
	r.HandleFunc("/tasks", s.createTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id:[0-9]+}/edit", s.editTask).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id:[0-9]+}", s.saveTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id:[0-9]+}/delete", s.deleteTask).Methods(http.MethodPost)
	r.HandleFunc("/prefs/theme", s.toggleTheme).Methods(http.MethodPost)
	r.HandleFunc("/prefs/sidebar", s.toggleSidebar).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tasks", s.apiListTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.apiCreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id:[0-9]+}", s.apiGetTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id:[0-9]+}", s.apiPatchTask).Methods(http.MethodPatch)
	api.HandleFunc("/tasks/{id:[0-9]+}", s.apiPutTask).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id:[0-9]+}", s.apiDeleteTask).Methods(http.MethodDelete)
	api.HandleFunc("/boards", s.apiBoards).Methods(http.MethodGet)
	api.HandleFunc("/boards/active", s.apiSelectBoard).Methods(http.MethodPut)

	return r, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.Log.WithFields(logrus.Fields{
			"request_id": uuid.NewString(),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		}).Info("request handled")
	})
}
