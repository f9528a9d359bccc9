package telemetry

import (
	"context"
	"time"

	"taskapp/internal/core/port"
)

// NoOpProbe implements port.Telemetry with no operations. Used by tests and when telemetry is disabled.
type NoOpProbe struct{}

func NewNoOpProbe() port.Telemetry {
	return &NoOpProbe{}
}

type NoOpSpan struct{}

func (s *NoOpSpan) End()                                  {}
func (s *NoOpSpan) SetAttributes(attrs map[string]any)    {}
func (s *NoOpSpan) SetStatus(code string, message string) {}
func (s *NoOpSpan) RecordError(err error)                 {}

func (p *NoOpProbe) StartRepositorySpan(ctx context.Context, operation string, entity string, attrs map[string]any) (context.Context, port.Span) {
	return ctx, &NoOpSpan{}
}

func (p *NoOpProbe) StartServiceSpan(ctx context.Context, service string, operation string, userID int64, attrs map[string]any) (context.Context, port.Span) {
	return ctx, &NoOpSpan{}
}

func (p *NoOpProbe) RecordRepositoryOperation(ctx context.Context, operation string, entity string, duration time.Duration, err error) {
}

func (p *NoOpProbe) RecordServiceOperation(ctx context.Context, service string, operation string, userID int64, duration time.Duration, err error) {
}

func (p *NoOpProbe) RecordBusinessEvent(ctx context.Context, event string, entity string, entityID int64, userID int64, metadata map[string]any) {
}

func (p *NoOpProbe) RecordError(ctx context.Context, operation string, err error, metadata map[string]any) {
}
