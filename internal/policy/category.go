package policy

import (
	"newsdesk/internal/auth"
	apperrors "newsdesk/internal/errors"
)

// CanManageCategory allows editors and admins to create, update and delete categories.
func CanManageCategory(id *auth.Identity) error {
	if id == nil {
		return apperrors.ErrUnauthenticated
	}
	if !id.Role.In(auth.RoleAdmin, auth.RoleEditor) {
		return apperrors.ErrForbidden
	}
	return nil
}
