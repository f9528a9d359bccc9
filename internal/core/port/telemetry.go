package port

import (
	"context"
	"time"
)

type Span interface {
	End()
	SetAttributes(attrs map[string]any)
	SetStatus(code string, message string)
	RecordError(err error)
}

// Telemetry lets the core emit spans and events without knowing the backend.
type Telemetry interface {
	StartRepositorySpan(ctx context.Context, operation string, entity string, attrs map[string]any) (context.Context, Span)
	StartServiceSpan(ctx context.Context, service string, operation string, userID int64, attrs map[string]any) (context.Context, Span)

	RecordRepositoryOperation(ctx context.Context, operation string, entity string, duration time.Duration, err error)
	RecordServiceOperation(ctx context.Context, service string, operation string, userID int64, duration time.Duration, err error)
	RecordBusinessEvent(ctx context.Context, event string, entity string, entityID int64, userID int64, metadata map[string]any)
	RecordError(ctx context.Context, operation string, err error, metadata map[string]any)
}
