package daemon

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openfield/formgate/internal/gate"
	"github.com/openfield/formgate/internal/model"
	"github.com/openfield/formgate/internal/store"
)

// setupGate opens a throwaway store with one project and one on-disk form,
// and returns a validator wired to it.
func setupGate(t *testing.T) (*gate.Validator, *store.Store, string) {
	t.Helper()
	base := t.TempDir()

	st, err := store.Open(filepath.Join(base, "formgate.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	p, err := st.Projects.Add(ctx, model.Project{Name: "Demo"})
	if err != nil {
		t.Fatal(err)
	}

	formPath := filepath.Join(base, "forms", "hh.xml")
	if err := os.MkdirAll(filepath.Dir(formPath), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(formPath, []byte("<form/>"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Forms.Add(ctx, model.FormRecord{FormID: "hh", Path: formPath}); err != nil {
		t.Fatal(err)
	}

	v := gate.New(gate.Config{
		Projects:       st.Projects,
		Forms:          st.Forms,
		Instances:      st.Instances,
		Deleter:        st.Instances,
		CurrentProject: p.UUID,
	})
	return v, st, base
}

func setupDirs(t *testing.T) DirConfig {
	t.Helper()
	dirs := DefaultDirConfig(t.TempDir())
	if err := EnsureDirs(dirs); err != nil {
		t.Fatal(err)
	}
	return dirs
}

func writeJob(t *testing.T, dirs DirConfig, job Job) string {
	t.Helper()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(job)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dirs.Inbox, job.ID+".json")
	if err := os.WriteFile(path, data, 0640); err != nil {
		t.Fatal(err)
	}
	return path
}

func readResult(t *testing.T, dirs DirConfig, id string) Result {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dirs.Outbox, id+".json"))
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("parse result: %v", err)
	}
	return r
}

func TestProcessValidFormJob(t *testing.T) {
	v, _, _ := setupGate(t)
	dirs := setupDirs(t)
	p := NewProcessor(dirs, v)

	path := writeJob(t, dirs, Job{ID: "job-1", URI: "formgate://forms/1"})
	if err := p.Process(context.Background(), path); err != nil {
		t.Fatalf("process: %v", err)
	}

	r := readResult(t, dirs, "job-1")
	if r.Status != ResultOK {
		t.Fatalf("expected ok, got %s (%s: %s)", r.Status, r.ErrorKind, r.Error)
	}
	if r.Mode != gate.ModeEdit {
		t.Errorf("expected edit mode, got %s", r.Mode)
	}

	// Inbox and processing are both drained.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected job removed from inbox")
	}
	if _, err := os.Stat(filepath.Join(dirs.ProcessingDir(), "job-1.json")); !os.IsNotExist(err) {
		t.Error("expected processing file cleaned up")
	}
}

func TestProcessRejectedJob(t *testing.T) {
	v, _, _ := setupGate(t)
	dirs := setupDirs(t)
	p := NewProcessor(dirs, v)

	path := writeJob(t, dirs, Job{ID: "job-2", URI: "formgate://forms/99"})
	if err := p.Process(context.Background(), path); err != nil {
		t.Fatalf("process: %v", err)
	}

	r := readResult(t, dirs, "job-2")
	if r.Status != ResultRejected {
		t.Fatalf("expected rejected, got %s", r.Status)
	}
	if r.ErrorKind != gate.KindBadLocator {
		t.Errorf("expected bad_locator, got %s", r.ErrorKind)
	}
	if r.Message == "" {
		t.Error("expected a user-visible message")
	}
}

func TestProcessInvalidJSONWritesFailedResult(t *testing.T) {
	v, _, _ := setupGate(t)
	dirs := setupDirs(t)
	p := NewProcessor(dirs, v)

	path := filepath.Join(dirs.Inbox, "broken.json")
	if err := os.WriteFile(path, []byte("{nope"), 0640); err != nil {
		t.Fatal(err)
	}
	if err := p.Process(context.Background(), path); err != nil {
		t.Fatalf("process: %v", err)
	}

	r := readResult(t, dirs, "broken")
	if r.Status != ResultFailed {
		t.Errorf("expected failed, got %s", r.Status)
	}
}

func TestProcessRejectsSymlink(t *testing.T) {
	v, _, base := setupGate(t)
	dirs := setupDirs(t)
	p := NewProcessor(dirs, v)

	target := filepath.Join(base, "outside.json")
	if err := os.WriteFile(target, []byte(`{"id":"x","uri":"formgate://forms/1"}`), 0640); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dirs.Inbox, "link.json")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if err := p.Process(context.Background(), link); err == nil {
		t.Error("expected symlink rejection")
	}
}
