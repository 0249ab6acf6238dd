package auth

import "context"

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Email  string `json:"email,omitempty"`
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity attached to ctx, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}

// IdentityPtr is IdentityFrom for callers that model "anonymous" as nil.
func IdentityPtr(ctx context.Context) *Identity {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return nil
	}
	return &id
}
