package authz

import (
	"context"
	"net/http"

	"github.com/stanstork/leadwatch-api/internal/models"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the verified caller, taken from the bearer token.
type Identity struct {
	UserID   string
	Role     models.UserRole
	Email    string
	FullName string
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// Scope is the salesman filter applied to reads and writes: empty for admins,
// the caller's own ID for salesmen.
func (i Identity) Scope() string {
	if i.IsAdmin() {
		return ""
	}
	return i.UserID
}

func (i Identity) User() models.User {
	return models.User{ID: i.UserID, Email: i.Email, FullName: i.FullName, Role: i.Role}
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	identity.Role = models.NormalizeRole(string(identity.Role))
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromRequest(r *http.Request) (Identity, bool) {
	identity, ok := r.Context().Value(identityKey).(Identity)
	if !ok || identity.UserID == "" || identity.Role == "" {
		return Identity{}, false
	}
	return identity, true
}

func RoleFromRequest(r *http.Request) (models.UserRole, bool) {
	identity, ok := IdentityFromRequest(r)
	if !ok {
		return "", false
	}
	return identity.Role, true
}
