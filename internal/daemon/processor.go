package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openfield/formgate/internal/gate"
	"github.com/openfield/formgate/internal/model"
)

// Processor runs inbox jobs through the entry gate.
type Processor struct {
	dirs DirConfig
	v    *gate.Validator
}

// NewProcessor creates a processor that validates with the given gate.
func NewProcessor(dirs DirConfig, v *gate.Validator) *Processor {
	return &Processor{dirs: dirs, v: v}
}

// Process handles a single job file through its full lifecycle:
// read → validate shape → move to processing → run the gate → write result.
func (p *Processor) Process(ctx context.Context, jobPath string) error {
	// Reject symlinks before reading: a symlinked inbox file could point
	// anywhere on the filesystem.
	fi, err := os.Lstat(jobPath)
	if err != nil {
		return fmt.Errorf("stat job file: %w", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("rejected symlink: %s", filepath.Base(jobPath))
	}

	data, err := os.ReadFile(jobPath)
	if err != nil {
		return fmt.Errorf("read job file: %w", err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		_ = os.Remove(jobPath)
		return p.writeFailedResult(fileID(jobPath), fmt.Sprintf("invalid JSON: %v", err))
	}

	if err := ValidateJob(&job); err != nil {
		_ = os.Remove(jobPath)
		return p.writeFailedResult(fileID(jobPath), fmt.Sprintf("validation failed: %v", err))
	}

	// Move to processing state. moveFile handles bind mounts (EXDEV).
	processingPath := filepath.Join(p.dirs.ProcessingDir(), job.ID+".json")
	if err := moveFile(jobPath, processingPath); err != nil {
		return fmt.Errorf("move to processing: %w", err)
	}

	result := p.runGate(ctx, &job)
	if err := p.writeResult(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	_ = os.Remove(processingPath)
	return nil
}

// runGate validates the job's locator and derives the edit mode.
func (p *Processor) runGate(ctx context.Context, job *Job) *Result {
	result := &Result{ID: job.ID, CompletedAt: time.Now().UTC()}

	loc, err := model.ParseLocator(job.URI)
	if err != nil {
		result.Status = ResultFailed
		result.Error = err.Error()
		return result
	}

	gateErr, err := p.v.Validate(ctx, loc)
	if err != nil {
		result.Status = ResultFailed
		result.Error = err.Error()
		return result
	}
	if gateErr != nil {
		result.Status = ResultRejected
		result.ErrorKind = gateErr.Kind
		result.Message = gateErr.Message
		return result
	}

	mode, err := p.v.EditMode(ctx, loc)
	if err != nil {
		result.Status = ResultFailed
		result.Error = err.Error()
		return result
	}

	result.Status = ResultOK
	result.Mode = mode
	return result
}

// writeResult writes a result to the outbox atomically (tmp + rename).
func (p *Processor) writeResult(result *Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	path := filepath.Join(p.dirs.Outbox, result.ID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return os.Rename(tmp, path)
}

// writeFailedResult records a job that could not be parsed or validated.
func (p *Processor) writeFailedResult(id, reason string) error {
	return p.writeResult(&Result{
		ID:          id,
		Status:      ResultFailed,
		Error:       reason,
		CompletedAt: time.Now().UTC(),
	})
}

// fileID derives a result id from a job filename when the job itself is
// unreadable.
func fileID(jobPath string) string {
	name := filepath.Base(jobPath)
	if ext := filepath.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}
	if name == "" || !validID.MatchString(name) {
		return "unknown"
	}
	return name
}
