package gate

import (
	"context"

	"github.com/openfield/formgate/internal/model"
)

// Mode is how the form-filling screen opens.
type Mode string

const (
	ModeEdit Mode = "edit"
	ModeView Mode = "view"
)

// EditMode decides whether the locator's target opens editable or
// view-only. This is a separate query from Validate, not part of the error
// chain: forms are always editable; a completed instance is editable only
// when the edit-after-complete policy allows it.
func (v *Validator) EditMode(ctx context.Context, loc *model.Locator) (Mode, error) {
	kind, ok := model.KindForType(v.resolver.TypeOf(loc))
	if !ok || kind == model.KindForm {
		return ModeEdit, nil
	}

	inst, err := v.instances.Get(ctx, loc.ID())
	if err != nil {
		return ModeEdit, err
	}
	if inst != nil && inst.Status == model.StatusComplete && !v.editCompleted {
		return ModeView, nil
	}
	return ModeEdit, nil
}
