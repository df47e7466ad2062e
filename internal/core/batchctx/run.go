// Package batchctx provides batch-run-scoped values extraction.
package batchctx

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunContext identifies one pipeline run for log correlation.
type RunContext struct {
	RunID   string
	JobDate time.Time
	Phase   string
}

type runContextKey struct{}

// WithRun adds RunContext to context.
func WithRun(ctx context.Context, run *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, run)
}

// GetRun returns RunContext from context.
func GetRun(ctx context.Context) *RunContext {
	if v, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return v
	}
	return nil
}

// WithPhase derives a context whose RunContext carries the current phase name.
// The parent RunContext is not mutated.
func WithPhase(ctx context.Context, phase string) context.Context {
	run := GetRun(ctx)
	if run == nil {
		return ctx
	}
	derived := *run
	derived.Phase = phase
	return WithRun(ctx, &derived)
}

// NewRunContext creates a RunContext with a generated run ID.
func NewRunContext(jobDate time.Time) *RunContext {
	return &RunContext{
		RunID:   uuid.New().String(),
		JobDate: jobDate,
	}
}
