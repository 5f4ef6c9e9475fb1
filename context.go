package identity

import "context"

type principalIDContextKey struct{}
type principalRolesContextKey struct{}

// WithPrincipal attaches an authenticated principal id and its role claims to
// ctx. The guard middleware calls this after validating an access token;
// handlers read it back with PrincipalFromContext.
func WithPrincipal(ctx context.Context, principalID string, roles []string) context.Context {
	ctx = context.WithValue(ctx, principalIDContextKey{}, principalID)
	return context.WithValue(ctx, principalRolesContextKey{}, roles)
}

// PrincipalFromContext returns the authenticated principal id, or "" when the
// request was not authenticated.
func PrincipalFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(principalIDContextKey{}).(string)
	return id
}

// RolesFromContext returns the role claims carried by the validated access
// token. These reflect the principal's roles at issuance time, not now.
func RolesFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}

	roles, _ := ctx.Value(principalRolesContextKey{}).([]string)
	return roles
}

// HasRole reports whether the request's token claims include role.
func HasRole(ctx context.Context, role string) bool {
	for _, r := range RolesFromContext(ctx) {
		if r == role {
			return true
		}
	}
	return false
}
