package gate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FlowState persists the "form filler already launched" flag across process
// recreation. Validation itself is never re-run from this state; the flag
// only guards against launching the downstream filler twice for the same
// flow.
type FlowState struct {
	path string

	mu       sync.Mutex
	launched bool
}

type flowStateFile struct {
	Launched   bool      `json:"launched"`
	LaunchedAt time.Time `json:"launched_at,omitempty"`
}

// NewFlowState creates a flow state persisted at the given path. An empty
// path keeps the state in memory only (no file is ever written).
func NewFlowState(path string) *FlowState {
	return &FlowState{path: path}
}

// Launched reports whether the filler was already launched for this flow,
// either during this process's lifetime or, when persisted, by a previous
// incarnation.
func (fs *FlowState) Launched() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.launched {
		return true
	}
	if fs.path == "" {
		return false
	}
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return false
	}
	var f flowStateFile
	if err := json.Unmarshal(data, &f); err != nil {
		return false
	}
	return f.Launched
}

// MarkLaunched records the launch. The write is atomic (tmp + rename).
func (fs *FlowState) MarkLaunched() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.path == "" {
		fs.launched = true
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(fs.path), 0750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(flowStateFile{
		Launched:   true,
		LaunchedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return err
	}
	fs.launched = true
	return nil
}
