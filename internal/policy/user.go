package policy

import (
	"newsdesk/internal/auth"
	apperrors "newsdesk/internal/errors"
)

// CanAdminister allows only admins to manage users and moderate every article.
func CanAdminister(id *auth.Identity) error {
	if id == nil {
		return apperrors.ErrUnauthenticated
	}
	if !id.Role.In(auth.RoleAdmin) {
		return apperrors.ErrForbidden
	}
	return nil
}
