package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

const (
	textCodeInvalidTransition = "INVALID_ENROLLMENT_TRANSITION"
	textCodeTerminalState     = "TERMINAL_ENROLLMENT_STATE"
)

// ErrInvalidTransition is returned when a requested enrollment change is not allowed.
var ErrInvalidTransition = errors.New("invalid enrollment transition", errors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(errors.CodeBadRequest)

// ErrTerminalState is returned when attempting to move away from the enrolled state.
var ErrTerminalState = errors.New("enrollment state is terminal", errors.CategoryConflict).
	WithTextCode(textCodeTerminalState).
	WithCode(errors.CodeConflict)

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Principal *Principal
	From      EnrollmentStatus
	To        EnrollmentStatus
	At        time.Time
}

// TransitionHook is executed after a transition has been persisted.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// EnrollmentStateMachine defines lifecycle operations for the enrollment
// dimension of a principal.
type EnrollmentStateMachine interface {
	Confirm(ctx context.Context, principal *Principal) (*Principal, error)
	CurrentState(principal *Principal) EnrollmentStatus
}

// EnrollmentStore is the persistence the machine needs: an atomic flag
// flip that fails when the flag was already set.
type EnrollmentStore interface {
	ConfirmEnrollment(ctx context.Context, handle string) (*Principal, error)
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*enrollmentStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *enrollmentStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithTransitionHook appends a hook run after each persisted transition.
func WithTransitionHook(hook TransitionHook) StateMachineOption {
	return func(sm *enrollmentStateMachine) {
		if hook != nil {
			sm.hooks = append(sm.hooks, hook)
		}
	}
}

type enrollmentStateMachine struct {
	store  EnrollmentStore
	hooks  []TransitionHook
	logger Logger
	now    func() time.Time
}

// NewEnrollmentStateMachine builds the enrollment lifecycle:
// unenrolled -> pending_confirmation (secret issued at registration) ->
// enrolled (first valid code). Enrolled is terminal.
func NewEnrollmentStateMachine(store EnrollmentStore, opts ...StateMachineOption) EnrollmentStateMachine {
	sm := &enrollmentStateMachine{
		store:  store,
		logger: defLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}
	return sm
}

func (sm *enrollmentStateMachine) CurrentState(principal *Principal) EnrollmentStatus {
	if principal == nil {
		return EnrollmentUnenrolled
	}
	return principal.EnrollmentState()
}

// Confirm moves a pending principal to enrolled. Confirming twice is a
// conflict, never a silent success; the stored flag is untouched.
func (sm *enrollmentStateMachine) Confirm(ctx context.Context, principal *Principal) (*Principal, error) {
	if principal == nil {
		return nil, ErrPrincipalNotFound
	}

	from := principal.EnrollmentState()
	switch from {
	case EnrollmentPending:
		// the only legal path to enrolled
	case EnrollmentConfirmed:
		return nil, ErrEnrollmentConfirmed
	default:
		return nil, ErrInvalidTransition
	}

	updated, err := sm.store.ConfirmEnrollment(ctx, principal.Handle)
	if err != nil {
		return nil, err
	}

	tc := TransitionContext{
		Principal: updated,
		From:      from,
		To:        EnrollmentConfirmed,
		At:        sm.now(),
	}

	for _, hook := range sm.hooks {
		if err := hook(ctx, tc); err != nil {
			sm.logger.Error("enrollment transition hook failed", "error", err)
		}
	}

	return updated, nil
}
