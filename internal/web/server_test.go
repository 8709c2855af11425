package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/gmllt/kban/internal/board"
	"github.com/gmllt/kban/internal/kv"
)

var testSeed = []board.Task{
	{ID: 1, Title: "Plan sprint", Description: "two weeks", Status: board.StatusTodo, Board: "Alpha"},
	{ID: 2, Title: "Ship release", Status: board.StatusDoing, Board: "Alpha"},
	{ID: 3, Title: "Stuck thing", Status: "blocked", Board: "Alpha"},
	{ID: 4, Title: "Write roadmap", Status: board.StatusDone, Board: "Beta"},
}

type fixture struct {
	router *mux.Router
	state  *State
	store  *kv.Memory
	hook   *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	store := kv.NewMemory()
	storage := board.NewStorage(store, testSeed, logger)
	st := &State{
		Repo:    board.NewRepository(storage, logger),
		Storage: storage,
		Session: board.NewSession(storage, logger),
		Log:     logger,
	}
	r, err := NewRouter(st)
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return &fixture{router: r, state: st, store: store, hook: hook}
}

func (f *fixture) do(t *testing.T, method, target, body, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) post(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	rec := f.do(t, http.MethodPost, target, form.Encode(), "application/x-www-form-urlencoded")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("POST %s: expected redirect to /, got %d %q", target, rec.Code, rec.Header().Get("Location"))
	}
	return rec
}

func (f *fixture) tasks(t *testing.T) []board.Task {
	t.Helper()
	tasks, err := f.state.Repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return tasks
}

func TestIndexRendersActiveBoard(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`<h1 id="header-board-name">Alpha</h1>`,
		`class="board-btn active" type="submit">Alpha</button>`,
		`class="board-btn" type="submit">Beta</button>`,
		`data-task-id="1" href="/tasks/1/edit">Plan sprint</a>`,
		`data-status="doing"`,
		`ALL BOARDS (2)`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, "Write roadmap") {
		t.Errorf("tasks of other boards must not be rendered")
	}
	if strings.Contains(body, "Stuck thing") {
		t.Errorf("task with unknown status must not be rendered in a column")
	}
}

func TestSelectBoard(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/boards/select", url.Values{"board": {"Beta"}})

	active, err := f.state.Storage.ActiveBoard(context.Background())
	if err != nil || active != "Beta" {
		t.Fatalf("active board = %q err=%v", active, err)
	}
	body := f.do(t, http.MethodGet, "/", "", "").Body.String()
	if !strings.Contains(body, `<h1 id="header-board-name">Beta</h1>`) || !strings.Contains(body, "Write roadmap") {
		t.Fatalf("Beta board not rendered: %s", body)
	}
}

func TestCreateTaskUsesActiveBoard(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/boards/select", url.Values{"board": {"Beta"}})
	f.post(t, "/tasks", url.Values{"title": {"New idea"}, "description": {"d"}, "status": {"todo"}})

	tasks := f.tasks(t)
	last := tasks[len(tasks)-1]
	want := board.Task{ID: 5, Title: "New idea", Description: "d", Status: board.StatusTodo, Board: "Beta"}
	if last != want {
		t.Fatalf("created %+v, want %+v", last, want)
	}
}

func TestCreateTaskValidationIsSilent(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/tasks", url.Values{"status": {"todo"}})
	if n := len(f.tasks(t)); n != len(testSeed) {
		t.Fatalf("expected no new task, have %d", n)
	}
	entry := f.hook.LastEntry()
	var found bool
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Message == "error creating task" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected logged validation failure, last entry %+v", entry)
	}
}

func TestEditFormIsPrepopulated(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/tasks/1/edit", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`value="Plan sprint"`,
		`>two weeks</textarea>`,
		`<option value="todo" selected>`,
		`action="/tasks/1/delete"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}

	rec = f.do(t, http.MethodGet, "/tasks/99/edit", "", "")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("missing task: expected redirect, got %d", rec.Code)
	}
}

func TestSaveTaskPatchesSubmittedFields(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/tasks/1", url.Values{"status": {"done"}})

	task, err := f.state.Repo.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := testSeed[0]
	want.Status = board.StatusDone
	if task != want {
		t.Fatalf("task = %+v, want %+v", task, want)
	}

	f.post(t, "/tasks/42", url.Values{"status": {"done"}})
	if n := len(f.tasks(t)); n != len(testSeed) {
		t.Fatalf("patching a missing task must not create one")
	}
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/tasks/4/delete", nil)
	f.post(t, "/tasks/4/delete", nil)

	for _, task := range f.tasks(t) {
		if task.ID == 4 {
			t.Fatalf("task 4 still present")
		}
	}
	if boards := board.DistinctBoards(f.tasks(t)); len(boards) != 1 || boards[0] != "Alpha" {
		t.Fatalf("Beta must vanish with its last task, boards = %v", boards)
	}
}

func TestPreferenceToggles(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/", "", "")
	f.post(t, "/prefs/theme", nil)
	f.post(t, "/prefs/sidebar", nil)

	p, err := f.state.Storage.Preferences(context.Background())
	if err != nil {
		t.Fatalf("preferences: %v", err)
	}
	if !p.LightMode || p.ShowSideBar {
		t.Fatalf("preferences = %+v", p)
	}
	body := f.do(t, http.MethodGet, "/", "", "").Body.String()
	if !strings.Contains(body, `<body class="light-mode">`) || !strings.Contains(body, `id="show-side-bar-btn"`) {
		t.Fatalf("toggles not reflected in page")
	}
}

func TestCorruptStoreRendersEmptyBoard(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Set(context.Background(), board.KeyTasks, "not json"); err != nil {
		t.Fatal(err)
	}
	rec := f.do(t, http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No boards yet.") {
		t.Fatalf("expected empty board")
	}
}

func TestAPITaskLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/tasks", `{"title":"X","status":"todo","board":"B1"}`, "application/json")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created board.Task
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID != 5 || created.Board != "B1" {
		t.Fatalf("created = %+v", created)
	}

	rec = f.do(t, http.MethodPatch, "/api/tasks/5", `{"description":"more"}`, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d", rec.Code)
	}
	var patched board.Task
	_ = json.NewDecoder(rec.Body).Decode(&patched)
	if patched.Title != "X" || patched.Description != "more" || patched.Status != board.StatusTodo {
		t.Fatalf("patched = %+v", patched)
	}

	rec = f.do(t, http.MethodPut, "/api/tasks/5", `{"title":"Y","status":"done","board":"B1"}`, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/tasks/5", "", "")
	var got board.Task
	_ = json.NewDecoder(rec.Body).Decode(&got)
	if got != (board.Task{ID: 5, Title: "Y", Status: board.StatusDone, Board: "B1"}) {
		t.Fatalf("got = %+v", got)
	}

	if rec = f.do(t, http.MethodDelete, "/api/tasks/5", "", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec = f.do(t, http.MethodDelete, "/api/tasks/5", "", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("repeated delete status = %d", rec.Code)
	}
	if rec = f.do(t, http.MethodPatch, "/api/tasks/5", `{"status":"done"}`, "application/json"); rec.Code != http.StatusNotFound {
		t.Fatalf("patch after delete status = %d", rec.Code)
	}
}

func TestAPIErrors(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		method, target, body string
		want                 int
	}{
		{http.MethodPost, "/api/tasks", `{"title":"","status":"todo","board":"B"}`, http.StatusBadRequest},
		{http.MethodPost, "/api/tasks", `{`, http.StatusBadRequest},
		{http.MethodGet, "/api/tasks/77", "", http.StatusNotFound},
		{http.MethodPatch, "/api/tasks/42", `{"status":"done"}`, http.StatusNotFound},
		{http.MethodPut, "/api/tasks/42", `{"title":"a","status":"done","board":"B"}`, http.StatusNotFound},
		{http.MethodPut, "/api/tasks/1", `{"title":"a"}`, http.StatusBadRequest},
		{http.MethodPut, "/api/boards/active", `{}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := f.do(t, tc.method, tc.target, tc.body, "application/json")
		if rec.Code != tc.want {
			t.Errorf("%s %s: status = %d, want %d", tc.method, tc.target, rec.Code, tc.want)
		}
	}

	if err := f.store.Set(context.Background(), board.KeyTasks, "[[["); err != nil {
		t.Fatal(err)
	}
	if rec := f.do(t, http.MethodGet, "/api/tasks", "", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("corrupt store status = %d", rec.Code)
	}
}

func TestOversizedTaskIDIsRejected(t *testing.T) {
	f := newFixture(t)
	const huge = "99999999999999999999"

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodPut, http.MethodDelete} {
		rec := f.do(t, method, "/api/tasks/"+huge, `{"title":"a","status":"done","board":"B"}`, "application/json")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s /api/tasks/%s: status = %d, want 400", method, huge, rec.Code)
		}
	}

	f.hook.Reset()
	rec := f.do(t, http.MethodGet, "/tasks/"+huge+"/edit", "", "")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("edit: status = %d, want 303", rec.Code)
	}
	logged := false
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Message == "error reading task id" {
			logged = true
		}
	}
	if !logged {
		t.Fatalf("expected the bad id to be logged")
	}

	f.post(t, "/tasks/"+huge, url.Values{"title": {"x"}})
	f.post(t, "/tasks/"+huge+"/delete", nil)
	if got := len(f.tasks(t)); got != 4 {
		t.Fatalf("tasks = %d, want the 4 fixture tasks untouched", got)
	}
}

func TestAPIBoards(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, http.MethodPut, "/api/boards/active", `{"board":"Beta"}`, "application/json"); rec.Code != http.StatusNoContent {
		t.Fatalf("select status = %d", rec.Code)
	}
	rec := f.do(t, http.MethodGet, "/api/boards", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp boardsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Active != "Beta" || len(resp.Boards) != 2 || resp.Boards[0] != "Alpha" {
		t.Fatalf("resp = %+v", resp)
	}

	rec = f.do(t, http.MethodPost, "/api/tasks", `{"title":"Defaulted","status":"doing"}`, "application/json")
	var created board.Task
	_ = json.NewDecoder(rec.Body).Decode(&created)
	if created.Board != "Beta" {
		t.Fatalf("board should default to the active board, got %q", created.Board)
	}
}
