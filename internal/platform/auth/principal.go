package auth

import "context"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleAreaLead Role = "AREA_LEAD"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAreaLead
}

// Principal is the authenticated staff member behind a request.
type Principal struct {
	UserID string
	Email  string
	Role   Role
	AreaID *string
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

type contextKey string

const principalKey contextKey = "principal"

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

func UserIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.UserID
}
