package auth

import "context"

// Principal is the authenticated identity attached to a request after
// its token has been validated.
type Principal struct {
	// Subject is the username the token was issued to.
	Subject string `json:"subject"`

	// UserID is the stable identifier of the user.
	UserID string `json:"userId"`
}

type principalContextKey struct{}

// ContextWithPrincipal returns a copy of ctx carrying the principal.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal set by ContextWithPrincipal.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	return p, ok
}
