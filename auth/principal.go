// Package auth identifies callers from bearer tokens and gates privileged
// operations on admin capability or resource ownership.
package auth

import "github.com/judyrop/restaurant-backend/apperr"

type Role int

const (
	RoleAnonymous Role = iota
	RoleUser
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleUser:
		return "user"
	default:
		return "anonymous"
	}
}

// Principal is the authenticated caller. The zero value is anonymous.
type Principal struct {
	UserID   uint
	Username string
	Admin    bool
}

func (p Principal) Role() Role {
	switch {
	case p.UserID == 0:
		return RoleAnonymous
	case p.Admin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Owns reports whether p is the owning user of a resource.
func (p Principal) Owns(ownerID uint) bool {
	return p.UserID != 0 && p.UserID == ownerID
}

// RequireUser rejects anonymous callers.
func RequireUser(p Principal) error {
	if p.Role() == RoleAnonymous {
		return apperr.Unauthorized("authentication required")
	}
	return nil
}

// RequireAdmin rejects callers without the admin capability.
func RequireAdmin(p Principal) error {
	switch p.Role() {
	case RoleAdmin:
		return nil
	case RoleAnonymous:
		return apperr.Unauthorized("authentication required")
	default:
		return apperr.Forbidden("admin privileges required")
	}
}

// RequireOwnerOrAdmin admits the owner of a resource and any admin.
func RequireOwnerOrAdmin(p Principal, ownerID uint) error {
	switch p.Role() {
	case RoleAdmin:
		return nil
	case RoleAnonymous:
		return apperr.Unauthorized("authentication required")
	}
	if !p.Owns(ownerID) {
		return apperr.Forbidden("not authorized to access this resource")
	}
	return nil
}
