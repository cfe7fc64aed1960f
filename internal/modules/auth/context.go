package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/georgemunganga/restaurant-pos/internal/modules/user"
)

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	UserID uuid.UUID
	Role   user.Role
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// ActorID returns the calling user's id, or uuid.Nil for system work such as
// event consumers.
func ActorID(ctx context.Context) uuid.UUID {
	if p, ok := PrincipalFrom(ctx); ok {
		return p.UserID
	}
	return uuid.Nil
}
