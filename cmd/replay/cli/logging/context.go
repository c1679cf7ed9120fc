package logging

import (
	"context"
)

// Context keys for logging values.
// Using private types to avoid key collisions.
type contextKey int

const (
	sessionIDKey contextKey = iota
	operationKey
	componentKey
	turnKey
)

// WithSession adds a session ID to the context.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithOperation adds an operation name to the context.
// Operation names identify the engine action in flight (e.g., "undo", "redo", "switch").
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey, operation)
}

// WithComponent adds a component name to the context.
// Component names identify the subsystem generating logs (e.g., "parser", "engine", "branches").
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// WithTurn adds a turn index to the context.
func WithTurn(ctx context.Context, turn int) context.Context {
	return context.WithValue(ctx, turnKey, turn)
}

// SessionIDFromContext extracts the session ID from the context.
// Returns empty string if not set.
func SessionIDFromContext(ctx context.Context) string {
	if v := ctx.Value(sessionIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// OperationFromContext extracts the operation name from the context.
// Returns empty string if not set.
func OperationFromContext(ctx context.Context) string {
	if v := ctx.Value(operationKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ComponentFromContext extracts the component name from the context.
// Returns empty string if not set.
func ComponentFromContext(ctx context.Context) string {
	if v := ctx.Value(componentKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// TurnFromContext extracts the turn index from the context.
// Returns -1 if not set.
func TurnFromContext(ctx context.Context) int {
	if v := ctx.Value(turnKey); v != nil {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return -1
}
