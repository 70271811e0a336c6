package model

import "time"

// Project is one configured project. The UUID is the stable identifier used
// by locators and settings.
type Project struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// FormRecord is a blank form definition known to the forms store.
type FormRecord struct {
	ID      int64  `json:"id"`
	FormID  string `json:"form_id"`
	Version string `json:"version,omitempty"`
	Path    string `json:"path"`
	Deleted bool   `json:"deleted"`
}

// Instance status values.
const (
	StatusIncomplete = "incomplete"
	StatusComplete   = "complete"
)

// InstanceRecord is a filled (or partially filled) form instance.
type InstanceRecord struct {
	ID          int64  `json:"id"`
	FormID      string `json:"form_id"`
	FormVersion string `json:"form_version,omitempty"`
	Path        string `json:"path"`
	Status      string `json:"status"`
	Deleted     bool   `json:"deleted"`

	// CanEditWhenComplete is false for instances finalized with encryption:
	// once sealed, the submission body can no longer be opened for editing.
	CanEditWhenComplete bool `json:"can_edit_when_complete"`
}
