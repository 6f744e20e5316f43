// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// ActorContext identifies who is performing the request. The identity comes
// from the bearer token subject; there is no user management in this service.
type ActorContext struct {
	Actor string // token subject, e.g. login or service name
	Email string
}

type actorContextKey struct{}

// WithActor adds ActorContext to context.
func WithActor(ctx context.Context, actor *ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns ActorContext from context.
func GetActor(ctx context.Context) *ActorContext {
	if v, ok := ctx.Value(actorContextKey{}).(*ActorContext); ok {
		return v
	}
	return nil
}

// GetActorID returns the actor identity from context or "system" when the
// call did not come through the HTTP layer (jobs, tests).
func GetActorID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil && a.Actor != "" {
		return a.Actor
	}
	return "system"
}
