package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// collectHandler records handled paths.
type collectHandler struct {
	mu    sync.Mutex
	paths []string
}

func (c *collectHandler) handle(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
}

func (c *collectHandler) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.paths)
}

func (c *collectHandler) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func TestInboxWatcherPicksUpNewJobs(t *testing.T) {
	inbox := t.TempDir()
	h := &collectHandler{}

	w := NewInboxWatcher(inbox, h.handle)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(inbox, "job-1.json"), []byte("{}"), 0640); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inbox, "ignored.txt"), []byte("x"), 0640); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for h.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watcher: %v", err)
	}

	handled := h.snapshot()
	if len(handled) != 1 {
		t.Fatalf("expected 1 handled job, got %d (%v)", len(handled), handled)
	}
	if filepath.Base(handled[0]) != "job-1.json" {
		t.Errorf("expected job-1.json, got %s", handled[0])
	}
}

func TestPollWatcherScansInbox(t *testing.T) {
	inbox := t.TempDir()
	if err := os.WriteFile(filepath.Join(inbox, "job-1.json"), []byte("{}"), 0640); err != nil {
		t.Fatal(err)
	}

	h := &collectHandler{}
	w := NewPollWatcher(inbox, h.handle, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for h.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if h.count() != 1 {
		t.Fatalf("expected 1 handled job, got %d", h.count())
	}

	// Already-seen files are not re-handled.
	time.Sleep(100 * time.Millisecond)
	if h.count() != 1 {
		t.Errorf("expected no duplicate handling, got %d", h.count())
	}
}

func TestScanExisting(t *testing.T) {
	inbox := t.TempDir()
	if err := os.WriteFile(filepath.Join(inbox, "old.json"), []byte("{}"), 0640); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inbox, "partial.json.tmp"), []byte("{"), 0640); err != nil {
		t.Fatal(err)
	}

	h := &collectHandler{}
	if err := ScanExisting(inbox, h.handle); err != nil {
		t.Fatal(err)
	}
	if h.count() != 1 {
		t.Errorf("expected 1 existing job, got %d", h.count())
	}

	if err := ScanExisting(filepath.Join(inbox, "absent"), h.handle); err != nil {
		t.Errorf("expected missing inbox to be a no-op, got %v", err)
	}
}
