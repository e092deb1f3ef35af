package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventRegistered          ActivityEventType = "auth.principal.registered"
	ActivityEventEnrollmentConfirmed ActivityEventType = "auth.enrollment.confirmed"
	ActivityEventLoginSuccess        ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure        ActivityEventType = "auth.login.failure"
	ActivityEventTOTPVerified        ActivityEventType = "auth.totp.verified"
	ActivityEventTOTPRejected        ActivityEventType = "auth.totp.rejected"
	ActivityEventTokenRefreshed      ActivityEventType = "auth.token.refreshed"
)

// ActivityEvent captures audit-friendly information about an action. The
// handle is the only principal reference carried; secrets, codes, and
// tokens never travel through the sink.
type ActivityEvent struct {
	EventType  ActivityEventType
	Handle     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
