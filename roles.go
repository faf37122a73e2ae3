package invite

import "strings"

// Role is the caller's role. The set is closed; use ParseRole to build one
// from untrusted input.
type Role string

const (
	// RoleAdmin manages users and invitations
	RoleAdmin Role = "ADMIN"
	// RoleManager manages invitations
	RoleManager Role = "MANAGER"
	// RoleAuthenticated is any registered user
	RoleAuthenticated Role = "AUTHENTICATED"
)

// IsValid checks if the role is one of the predefined roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAuthenticated:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleManager,
		RoleAuthenticated,
	}
}

// ParseRole matches roleStr exactly against the canonical role names.
// Substrings and unknown names such as "ANONYMOUS" are rejected.
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}

// NormalizeRole upper-cases and trims a stored role before it is parsed
func NormalizeRole(roleStr string) string {
	return strings.ToUpper(strings.TrimSpace(roleStr))
}

// AccessPolicy decides which roles may perform invitation operations
type AccessPolicy interface {
	CanInvite(role Role) bool
}

// AccessPolicyFunc adapts a function to the AccessPolicy interface.
type AccessPolicyFunc func(role Role) bool

// CanInvite implements AccessPolicy.
func (f AccessPolicyFunc) CanInvite(role Role) bool {
	if f == nil {
		return false
	}
	return f(role)
}

// DefaultAccessPolicy lets every known role invite
type DefaultAccessPolicy struct{}

// CanInvite implements AccessPolicy.
func (DefaultAccessPolicy) CanInvite(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleAuthenticated:
		return true
	default:
		return false
	}
}

// AllowRoles returns a policy that admits exactly the given roles
func AllowRoles(roles ...Role) AccessPolicy {
	allowed := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		if r.IsValid() {
			allowed[r] = struct{}{}
		}
	}
	return AccessPolicyFunc(func(role Role) bool {
		_, ok := allowed[role]
		return ok
	})
}
