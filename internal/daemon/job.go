// Package daemon implements the formgate inbox/outbox validation service.
// Validation jobs arrive as JSON files in the inbox directory, run through
// the entry gate one at a time, and results are written to the outbox
// directory.
package daemon

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/openfield/formgate/internal/gate"
)

// validID matches alphanumeric characters, dashes, and underscores only.
var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Job is one validation request dropped into the inbox.
type Job struct {
	ID        string            `json:"id"`
	URI       string            `json:"uri"`
	Action    string            `json:"action,omitempty"`
	Extras    map[string]string `json:"extras,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Result status values.
const (
	ResultOK       = "ok"       // validation passed, launch may proceed
	ResultRejected = "rejected" // a gate check failed
	ResultFailed   = "failed"   // malformed job or infrastructure failure
)

// Result is written to the outbox after processing a job.
type Result struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	ErrorKind   gate.Kind `json:"error_kind,omitempty"`
	Message     string    `json:"message,omitempty"`
	Mode        gate.Mode `json:"mode,omitempty"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// ValidateJob checks that a job has all required fields and safe values.
func ValidateJob(j *Job) error {
	if j.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if strings.Contains(j.ID, "..") {
		return fmt.Errorf("job ID must not contain '..'")
	}
	if !validID.MatchString(j.ID) {
		return fmt.Errorf("job ID contains invalid characters")
	}
	if j.URI == "" {
		return fmt.Errorf("job URI is required")
	}
	return nil
}
