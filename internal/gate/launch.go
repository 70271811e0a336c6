package gate

import (
	"context"

	"github.com/openfield/formgate/internal/model"
)

// LaunchRequest is handed to the form filler once validation passes. It
// carries the original locator, action, and extras, annotated with the
// derived edit/view mode.
type LaunchRequest struct {
	Locator *model.Locator    `json:"-"`
	URI     string            `json:"uri"`
	Action  string            `json:"action,omitempty"`
	Extras  map[string]string `json:"extras,omitempty"`
	Mode    Mode              `json:"mode"`
}

// FillResult is what the form filler returns. It is forwarded verbatim.
type FillResult struct {
	Code int               `json:"code"`
	Data map[string]string `json:"data,omitempty"`
}

// FormFiller is the downstream form-filling collaborator.
type FormFiller interface {
	Fill(ctx context.Context, req LaunchRequest) (FillResult, error)
}
