package gate

import (
	"context"
	"errors"
	"sync"

	"github.com/openfield/formgate/internal/model"
)

// State is the caller-facing phase of a validation flow.
type State string

const (
	StateValidating State = "validating"
	StateError      State = "error"
	StateProceeding State = "proceeding"
)

// ErrAlreadyLaunched is returned by Launch when the flow's filler was
// already started, typically after process recreation.
var ErrAlreadyLaunched = errors.New("form filler already launched for this flow")

// Outcome is the single result of a validation run. Exactly one of Err,
// Failure, or Launch is set, matching the terminal state.
type Outcome struct {
	State State `json:"state"`

	// Err is the terminal user-visible verdict.
	Err *GateError `json:"error,omitempty"`

	// Failure is an infrastructure failure, not a verdict.
	Failure error `json:"-"`

	// Launch is set when State is StateProceeding.
	Launch *LaunchRequest `json:"launch,omitempty"`
}

// Runner executes one validation flow: a one-shot background run whose
// outcome is delivered exactly once.
type Runner struct {
	v    *Validator
	flow *FlowState

	once sync.Once
	ch   chan Outcome
}

// NewRunner creates a runner for a single flow. A nil flow state means the
// launch guard is in-memory only.
func NewRunner(v *Validator, flow *FlowState) *Runner {
	if flow == nil {
		flow = NewFlowState("")
	}
	return &Runner{
		v:    v,
		flow: flow,
		ch:   make(chan Outcome, 1),
	}
}

// Start dispatches validation on a worker goroutine. The first call starts
// the run; every call returns the same channel, which receives exactly one
// Outcome and is then closed. The buffer guarantees delivery completes even
// if the observer is gone by the time the run finishes.
func (r *Runner) Start(ctx context.Context, loc *model.Locator, action string, extras map[string]string) <-chan Outcome {
	r.once.Do(func() {
		go r.run(ctx, loc, action, extras)
	})
	return r.ch
}

func (r *Runner) run(ctx context.Context, loc *model.Locator, action string, extras map[string]string) {
	defer close(r.ch)

	gateErr, err := r.v.Validate(ctx, loc)
	if err != nil {
		r.ch <- Outcome{State: StateError, Failure: err}
		return
	}
	if gateErr != nil {
		r.ch <- Outcome{State: StateError, Err: gateErr}
		return
	}

	mode, err := r.v.EditMode(ctx, loc)
	if err != nil {
		r.ch <- Outcome{State: StateError, Failure: err}
		return
	}

	r.ch <- Outcome{
		State: StateProceeding,
		Launch: &LaunchRequest{
			Locator: loc,
			URI:     loc.URI(),
			Action:  action,
			Extras:  extras,
			Mode:    mode,
		},
	}
}

// Launch hands the request to the filler, guarded by the persisted launch
// flag, and forwards the filler's result verbatim.
func (r *Runner) Launch(ctx context.Context, filler FormFiller, req LaunchRequest) (FillResult, error) {
	if r.flow.Launched() {
		return FillResult{}, ErrAlreadyLaunched
	}
	if err := r.flow.MarkLaunched(); err != nil {
		return FillResult{}, err
	}
	return filler.Fill(ctx, req)
}
