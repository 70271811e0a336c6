package gate

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/openfield/formgate/internal/analytics"
	"github.com/openfield/formgate/internal/model"
)

// ProjectSource lists configured projects in a stable order.
type ProjectSource interface {
	GetAll(ctx context.Context) ([]model.Project, error)
}

// FormSource looks up blank forms.
type FormSource interface {
	Get(ctx context.Context, id int64) (*model.FormRecord, error)
	GetAllByFormIDAndVersion(ctx context.Context, formID, version string) ([]model.FormRecord, error)
}

// InstanceSource looks up instances.
type InstanceSource interface {
	Get(ctx context.Context, id int64) (*model.InstanceRecord, error)
}

// InstanceDeleter removes an instance and its dependent data.
type InstanceDeleter interface {
	Delete(ctx context.Context, id int64) error
}

// Config wires a Validator's collaborators.
type Config struct {
	Projects  ProjectSource
	Forms     FormSource
	Instances InstanceSource
	Deleter   InstanceDeleter
	Resolver  model.TypeResolver
	Sink      analytics.Sink

	// CurrentProject is the UUID of the caller's active project.
	CurrentProject string

	// EditCompletedForms mirrors the settings edit-after-complete policy.
	EditCompletedForms bool

	// Locale selects the message table for gate errors.
	Locale string
}

// Validator runs the ordered entry validation chain.
type Validator struct {
	projects  ProjectSource
	forms     FormSource
	instances InstanceSource
	deleter   InstanceDeleter
	resolver  model.TypeResolver
	sink      analytics.Sink

	currentProject string
	editCompleted  bool
	locale         string
}

// New creates a Validator. A nil Resolver falls back to the path resolver,
// a nil Sink to the no-op sink.
func New(cfg Config) *Validator {
	if cfg.Resolver == nil {
		cfg.Resolver = model.PathTypeResolver{}
	}
	if cfg.Sink == nil {
		cfg.Sink = analytics.Nop{}
	}
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}
	return &Validator{
		projects:       cfg.Projects,
		forms:          cfg.Forms,
		instances:      cfg.Instances,
		deleter:        cfg.Deleter,
		resolver:       cfg.Resolver,
		sink:           cfg.Sink,
		currentProject: cfg.CurrentProject,
		editCompleted:  cfg.EditCompletedForms,
		locale:         cfg.Locale,
	}
}

// check is one link in the validation chain. nil means pass.
type check func(ctx context.Context, loc *model.Locator) (*GateError, error)

// Validate runs the entry checks against a locator.
//
// Check order (must not be changed):
//  1. Configured — at least one project exists
//  2. Project match — locator's project (or first project) is the current one
//  3. Locator type — resolver returns a known content-type token
//  4. Existence — the record and its backing file exist; stale instances
//     are cleaned up here
//  5. Encryption — instances sealed on completion cannot be opened
//
// The first failing check wins; a nil GateError with nil error means the
// locator may be opened. A non-nil error is an infrastructure failure, not
// a verdict.
func (v *Validator) Validate(ctx context.Context, loc *model.Locator) (*GateError, error) {
	checks := []check{
		v.checkConfigured,
		v.checkProjectMatch,
		v.checkLocatorType,
		v.checkExistence,
		v.checkNotEncrypted,
	}
	for _, c := range checks {
		gateErr, err := c(ctx, loc)
		if err != nil {
			return nil, err
		}
		if gateErr != nil {
			return gateErr, nil
		}
	}
	return nil, nil
}

// Step 1: the app must have at least one configured project.
func (v *Validator) checkConfigured(ctx context.Context, _ *model.Locator) (*GateError, error) {
	projects, err := v.projects.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if len(projects) == 0 {
		return v.fail(KindAppNotConfigured), nil
	}
	return nil, nil
}

// Step 2: the locator must target the caller's current project. A locator
// without a projectId parameter falls back to the first configured project.
func (v *Validator) checkProjectMatch(ctx context.Context, loc *model.Locator) (*GateError, error) {
	target := loc.ProjectID()
	if target == "" {
		projects, err := v.projects.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		if len(projects) > 0 {
			target = projects[0].UUID
		}
	}
	if target != v.currentProject {
		return v.fail(KindWrongProject), nil
	}
	return nil, nil
}

// Step 3: the resolver must classify the locator as a form or an instance.
func (v *Validator) checkLocatorType(_ context.Context, loc *model.Locator) (*GateError, error) {
	if _, ok := model.KindForType(v.resolver.TypeOf(loc)); !ok {
		return v.fail(KindUnrecognizedLocator), nil
	}
	return nil, nil
}

// Step 4: the record the locator points at must exist, along with its
// backing file. An instance whose file vanished is deleted here — an
// explicit, logged cleanup, after which the terminal instance-deleted
// verdict is still surfaced.
func (v *Validator) checkExistence(ctx context.Context, loc *model.Locator) (*GateError, error) {
	kind, _ := model.KindForType(v.resolver.TypeOf(loc))

	if kind == model.KindForm {
		form, err := v.forms.Get(ctx, loc.ID())
		if err != nil {
			return nil, err
		}
		if form == nil || !fileExists(form.Path) {
			return v.fail(KindBadLocator), nil
		}
		return nil, nil
	}

	inst, err := v.instances.Get(ctx, loc.ID())
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return v.fail(KindBadLocator), nil
	}

	if !fileExists(inst.Path) {
		v.sink.Log(analytics.NewEvent("stale_instance_deleted", map[string]string{
			"instance_id": strconv.FormatInt(inst.ID, 10),
			"form_id":     inst.FormID,
		}))
		if err := v.deleter.Delete(ctx, inst.ID); err != nil {
			return nil, fmt.Errorf("delete stale instance %d: %w", inst.ID, err)
		}
		return v.fail(KindInstanceDeleted), nil
	}

	candidates, err := v.forms.GetAllByFormIDAndVersion(ctx, inst.FormID, inst.FormVersion)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return v.fail(KindParentFormMissing), nil
	}

	nonDeleted := 0
	for _, f := range candidates {
		if !f.Deleted {
			nonDeleted++
		}
	}
	if nonDeleted > 1 {
		return v.fail(KindMultipleCandidateForms), nil
	}
	return nil, nil
}

// Step 5: instances finalized with encryption cannot be reopened. Forms
// always pass.
func (v *Validator) checkNotEncrypted(ctx context.Context, loc *model.Locator) (*GateError, error) {
	kind, _ := model.KindForType(v.resolver.TypeOf(loc))
	if kind != model.KindInstance {
		return nil, nil
	}
	inst, err := v.instances.Get(ctx, loc.ID())
	if err != nil {
		return nil, err
	}
	if inst != nil && !inst.CanEditWhenComplete {
		return v.fail(KindEncryptedForm), nil
	}
	return nil, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
