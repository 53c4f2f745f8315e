package hook

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestDispatcher_RunsMatchingHooks(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "calls.log")

	script := "INPUT=$(cat)\necho \"$INPUT\" >> \"" + out + "\"\necho '{\"success\":true}'\n"
	writeHook(t, dir, "six-only", script, "six_seven")

	m := NewManager(dir)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	d := NewDispatcher(m, NewExecutor(5000), 4)

	var mu sync.Mutex
	var runs int
	d.OnResult = func(h *Hook, resp *Response, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			t.Errorf("hook %s error: %v", h.Manifest.Name, err)
		}
		runs++
	}

	d.Dispatch(&Request{Label: "jawline", Previous: "neutral"})
	d.Dispatch(&Request{Label: "six_seven", Previous: "jawline"})
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	if runs != 1 {
		t.Fatalf("hook ran %d times, want 1", runs)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, `"label":"six_seven"`) || !strings.Contains(got, `"event":"switch"`) {
		t.Errorf("hook input = %s", got)
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, "slow", "sleep 1\necho '{\"success\":true}'\n")

	m := NewManager(dir)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	d := NewDispatcher(m, NewExecutor(5000), 1)
	defer d.Close()

	queued := 0
	for i := 0; i < 5; i++ {
		if d.Dispatch(&Request{Label: "jawline"}) {
			queued++
		}
	}

	// At most one is running and one waits in the queue
	if queued > 2 {
		t.Errorf("queued %d switches into a queue of 1", queued)
	}
	if queued == 0 {
		t.Error("expected at least one switch to be queued")
	}
}
