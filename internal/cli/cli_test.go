package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/gmllt/kban/internal/kv"
)

func run(t *testing.T, storePath string, args ...string) (string, error) {
	t.Helper()
	dir := filepath.Dir(storePath)
	root, closeApp := newRootCmd("test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args,
		"--config", filepath.Join(dir, "missing.yml"),
		"--env-file=",
		"--store", "file",
		"--store-file", storePath,
	))
	err := execute(context.Background(), root, closeApp)
	return out.String(), err
}

func TestTasksListSeedsStore(t *testing.T) {
	store := filepath.Join(t.TempDir(), "kban.json")
	out, err := run(t, store, "tasks", "list", "--board", "Roadmap")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Sketch release plan") || strings.Contains(out, "Conquer React") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestTaskLifecycle(t *testing.T) {
	store := filepath.Join(t.TempDir(), "kban.json")

	out, err := run(t, store, "boards", "select", "Roadmap")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !strings.Contains(out, "Active board: Roadmap") {
		t.Fatalf("select output: %s", out)
	}

	out, err = run(t, store, "tasks", "add", "--title", "Write changelog")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Created task 11 on Roadmap") {
		t.Fatalf("add output: %s", out)
	}

	out, err = run(t, store, "tasks", "edit", "11", "--status", "done")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !strings.Contains(out, "Write changelog [done] on Roadmap") {
		t.Fatalf("edit output: %s", out)
	}

	out, err = run(t, store, "tasks", "list", "--status", "done", "--board", "Roadmap")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Write changelog") {
		t.Fatalf("list output: %s", out)
	}

	if _, err := run(t, store, "tasks", "rm", "11"); err != nil {
		t.Fatalf("rm: %v", err)
	}
	if _, err := run(t, store, "tasks", "edit", "11", "--title", "again"); err == nil || !strings.Contains(err.Error(), "task not found") {
		t.Fatalf("edit after rm: expected not found, got %v", err)
	}
}

func TestBoardsList(t *testing.T) {
	store := filepath.Join(t.TempDir(), "kban.json")
	out, err := run(t, store, "boards", "list")
	if err != nil {
		t.Fatalf("boards: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 boards, got:\n%s", out)
	}
	if lines[0] != "* Launch Career todo=4 doing=2 done=2" {
		t.Fatalf("first line = %q", lines[0])
	}
	if lines[1] != "  Roadmap todo=1 doing=1 done=0" {
		t.Fatalf("second line = %q", lines[1])
	}
}

func TestCommandErrors(t *testing.T) {
	store := filepath.Join(t.TempDir(), "kban.json")
	cases := [][]string{
		{"tasks", "add", "--status", "todo"},
		{"tasks", "edit", "1"},
		{"tasks", "edit", "abc", "--title", "x"},
		{"boards", "select", "Nowhere"},
	}
	for _, args := range cases {
		if _, err := run(t, store, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestPrefs(t *testing.T) {
	store := filepath.Join(t.TempDir(), "kban.json")
	out, err := run(t, store, "prefs", "--light-mode")
	if err != nil {
		t.Fatalf("prefs: %v", err)
	}
	if !strings.Contains(out, "lightMode=true showSideBar=true") {
		t.Fatalf("new store should report the seeded sidebar flag: %s", out)
	}
	out, _ = run(t, store, "prefs")
	if !strings.Contains(out, "lightMode=true showSideBar=true") {
		t.Fatalf("prefs not persisted: %s", out)
	}
}

func TestPrefsSetBeforeSeedingSurvive(t *testing.T) {
	store := filepath.Join(t.TempDir(), "kban.json")
	if _, err := run(t, store, "prefs", "--sidebar=false"); err != nil {
		t.Fatalf("prefs: %v", err)
	}
	if _, err := run(t, store, "tasks", "list"); err != nil {
		t.Fatalf("list: %v", err)
	}
	out, err := run(t, store, "prefs")
	if err != nil {
		t.Fatalf("prefs: %v", err)
	}
	if !strings.Contains(out, "showSideBar=false") {
		t.Fatalf("sidebar choice lost after the first task read: %s", out)
	}
}

type closeTracker struct {
	*kv.Memory
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestFailingCommandClosesStore(t *testing.T) {
	tracker := &closeTracker{Memory: kv.NewMemory()}
	prev := openStore
	openStore = func(context.Context, kv.Config, logrus.FieldLogger) (kv.Store, error) {
		return tracker, nil
	}
	t.Cleanup(func() { openStore = prev })

	store := filepath.Join(t.TempDir(), "kban.json")
	if _, err := run(t, store, "tasks", "edit", "999", "--title", "x"); err == nil {
		t.Fatalf("expected not found error")
	}
	if !tracker.closed {
		t.Fatalf("store left open after a failing command")
	}
}
