// Package appctx carries request-scoped identity and tracing values.
package appctx

import (
	"context"
)

// Actor is the authenticated user performing an operation. UserID is the
// string form of the user's id, as carried in the JWT subject.
type Actor struct {
	UserID string
	Email  string
	Name   string
	Roles  []string
}

// HasRole reports whether the actor carries the given role.
func (a *Actor) HasRole(role string) bool {
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Trace carries request correlation identifiers.
type Trace struct {
	TraceID   string
	RequestID string
}

type actorKey struct{}
type traceKey struct{}

// WithActor stores the actor in context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor returns the actor from context, or nil.
func GetActor(ctx context.Context) *Actor {
	if a, ok := ctx.Value(actorKey{}).(*Actor); ok {
		return a
	}
	return nil
}

// ActorFrom returns the actor from context, or an empty role-less actor.
// Use when the caller needs safe field access regardless of authentication.
func ActorFrom(ctx context.Context) *Actor {
	if a := GetActor(ctx); a != nil {
		return a
	}
	return &Actor{}
}

// WithTrace stores trace identifiers in context.
func WithTrace(ctx context.Context, trace *Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

// GetTrace returns trace identifiers from context, or nil.
func GetTrace(ctx context.Context) *Trace {
	if t, ok := ctx.Value(traceKey{}).(*Trace); ok {
		return t
	}
	return nil
}
