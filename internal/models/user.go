package models

import "strings"

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleSalesman UserRole = "salesman"
)

func IsValidRole(role UserRole) bool {
	return role == RoleAdmin || role == RoleSalesman
}

// NormalizeRole lowercases and trims a role claim. Unknown values collapse to
// the empty role so callers can reject them.
func NormalizeRole(raw string) UserRole {
	role := UserRole(strings.ToLower(strings.TrimSpace(raw)))
	if !IsValidRole(role) {
		return ""
	}
	return role
}

type User struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

// DisplayName picks the most human label available for notification titles.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if email := strings.TrimSpace(u.Email); email != "" {
		return email
	}
	return u.ID
}
