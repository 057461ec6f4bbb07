// Package authz holds the side-effect free predicates that gate every mutating operation.
package authz

import (
	"github.com/anonto42/nano-blog/backend/internal/errs"
	"github.com/anonto42/nano-blog/backend/internal/models"
)

// CanModify reports whether the principal owns the entity.
func CanModify(principalID, ownerID uint) bool {
	return principalID == ownerID
}

// RequireNotBanned fails with a BannedUser error for banned principals.
func RequireNotBanned(p models.Principal) error {
	if p.Banned {
		return errs.Banned("banned users cannot perform this action")
	}
	return nil
}

// RequireAdmin fails with Forbidden unless role is ADMIN.
func RequireAdmin(role models.Role) error {
	if role != models.RoleAdmin {
		return errs.Forbidden("admin role required")
	}
	return nil
}

// RequireOwner combines CanModify with the Forbidden error used by ownership checks.
func RequireOwner(principalID, ownerID uint, entity string) error {
	if !CanModify(principalID, ownerID) {
		return errs.Forbidden("you can only modify your own " + entity)
	}
	return nil
}
