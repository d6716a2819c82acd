package forms

import (
	"context"
	"fmt"
	"time"

	"github.com/solostudio/funnel-api/internal/notify"
	"github.com/solostudio/funnel-api/pkg/logging"
)

// State is the lifecycle phase of a form session.
type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// SubmitErrorMessage is the user-facing string shown when a dispatch fails.
const SubmitErrorMessage = "There was an error submitting your request. Please try again."

// DefaultResetDelay is how long a successful submission is shown before
// the session resets to a fresh draft.
const DefaultResetDelay = 2500 * time.Millisecond

// Sender dispatches the packaged notification request.
type Sender interface {
	Send(ctx context.Context, req notify.Request) error
}

// Engine drives one form session: a draft, a step cursor in [1, N] and
// the editing/submitting/succeeded/failed state machine. It is owned by
// a single request at a time and is not safe for concurrent use; the
// session store serializes access.
//
// Guarded operations fail silently: Advance with missing required
// fields and Submit away from the last step are no-ops, mirroring a UI
// that disables the control instead of raising.
type Engine struct {
	def        Definition
	draft      *Draft
	step       int
	state      State
	errMsg     string
	resetAt    time.Time
	resetDelay time.Duration
	dispatcher Sender
	logger     *logging.Logger
	now        func() time.Time
}

// NewEngine creates an engine at editing(1) with an empty draft.
// resetDelay <= 0 selects DefaultResetDelay.
func NewEngine(def Definition, dispatcher Sender, resetDelay time.Duration, logger *logging.Logger) *Engine {
	if resetDelay <= 0 {
		resetDelay = DefaultResetDelay
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		def:        def,
		draft:      NewDraft(),
		step:       1,
		state:      StateEditing,
		resetDelay: resetDelay,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Restore rehydrates engine state from a stored session.
func (e *Engine) Restore(fields map[string]string, step int, state State, errMsg string, resetAt time.Time) {
	e.draft = DraftFromFields(fields)
	if step < 1 {
		step = 1
	}
	if n := e.def.StepCount(); step > n {
		step = n
	}
	e.step = step
	switch state {
	case StateEditing, StateSubmitting, StateSucceeded, StateFailed:
		e.state = state
	default:
		e.state = StateEditing
	}
	// A session can only be stored mid-submit if the process died during
	// dispatch; treat it as editable again rather than wedged.
	if e.state == StateSubmitting {
		e.state = StateEditing
	}
	e.errMsg = errMsg
	e.resetAt = resetAt
}

// SetClock overrides the engine's time source. Tests use this to drive
// the success-reset deadline without sleeping.
func (e *Engine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Definition returns the form definition the engine runs.
func (e *Engine) Definition() Definition { return e.def }

// Step returns the 1-based cursor.
func (e *Engine) Step() int { return e.step }

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// ErrorMessage returns the user-facing error, set only in the failed state.
func (e *Engine) ErrorMessage() string { return e.errMsg }

// Draft exposes the session's draft.
func (e *Engine) Draft() *Draft { return e.draft }

// ResetAt returns the success-state deadline (zero unless succeeded).
func (e *Engine) ResetAt() time.Time { return e.resetAt }

// UpdateField merges one field into the draft. Editing a failed session
// returns it to the editing state so the user can fix and resubmit.
func (e *Engine) UpdateField(key, value string) {
	if e.state == StateSubmitting || e.state == StateSucceeded {
		return
	}
	if e.state == StateFailed {
		e.state = StateEditing
		e.errMsg = ""
	}
	e.draft.Set(key, value)
}

// StepComplete reports whether every required field of the given step
// is non-blank.
func (e *Engine) StepComplete(step int) bool {
	if step < 1 || step > e.def.StepCount() {
		return false
	}
	for _, key := range e.def.Steps[step-1].Required {
		if !e.draft.Filled(key) {
			return false
		}
	}
	return true
}

// CanAdvance reports whether Advance would move the cursor.
func (e *Engine) CanAdvance() bool {
	return e.state == StateEditing && e.step < e.def.StepCount() && e.StepComplete(e.step)
}

// Advance moves the cursor forward one step. It is a no-op when the
// current step's required fields are incomplete or the cursor is at N.
func (e *Engine) Advance() bool {
	if !e.CanAdvance() {
		return false
	}
	e.step++
	return true
}

// Retreat moves the cursor back one step, floored at 1.
func (e *Engine) Retreat() {
	if e.state != StateEditing && e.state != StateFailed {
		return
	}
	if e.step > 1 {
		e.step--
	}
}

// CanSubmit reports whether the session is at the last step with every
// step's required fields populated and no dispatch in flight.
func (e *Engine) CanSubmit() bool {
	if e.state != StateEditing && e.state != StateFailed {
		return false
	}
	if e.step != e.def.StepCount() {
		return false
	}
	for i := 1; i <= e.def.StepCount(); i++ {
		if !e.StepComplete(i) {
			return false
		}
	}
	return true
}

// Submit packages the draft into a notification request and dispatches
// it. Preconditions failing make it a silent no-op, including while a
// dispatch is already in flight, so a double-click cannot send twice.
// A dispatch failure moves the session to failed with the draft intact
// and returns the underlying error; success clears the draft and arms
// the reset deadline.
func (e *Engine) Submit(ctx context.Context) error {
	if !e.CanSubmit() {
		return nil
	}

	e.state = StateSubmitting
	e.errMsg = ""

	req := e.buildRequest()
	if err := e.dispatcher.Send(ctx, req); err != nil {
		e.state = StateFailed
		e.errMsg = SubmitErrorMessage
		e.logger.Error("form submission failed", "form_type", e.def.Type, "error", err)
		return fmt.Errorf("forms: submit %s: %w", e.def.Type, err)
	}

	e.state = StateSucceeded
	e.resetAt = e.now().Add(e.resetDelay)
	e.draft.Reset()
	e.logger.Info("form submitted", "form_type", e.def.Type)
	return nil
}

// Tick applies the success-reset deadline: once it passes, the session
// becomes a fresh editing(1) draft. The deadline lives as data so tests
// drive it with a fake clock instead of timers.
func (e *Engine) Tick(now time.Time) {
	if e.state != StateSucceeded || e.resetAt.IsZero() {
		return
	}
	if now.Before(e.resetAt) {
		return
	}
	e.draft.Reset()
	e.step = 1
	e.state = StateEditing
	e.errMsg = ""
	e.resetAt = time.Time{}
}

// buildRequest flattens the draft into an immutable notification
// request tagged with the form's discriminator.
func (e *Engine) buildRequest() notify.Request {
	snapshot := e.draft.Snapshot()
	name := snapshot[e.def.NameField]
	email := snapshot[e.def.EmailField]
	delete(snapshot, e.def.NameField)
	delete(snapshot, e.def.EmailField)
	return notify.Request{
		Name:     name,
		Email:    email,
		FormType: e.def.Type,
		Fields:   snapshot,
	}
}
