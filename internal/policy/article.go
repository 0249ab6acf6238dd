// Package policy holds the authorization and visibility rules for articles
// and categories. Every check is pure and takes the caller identity
// explicitly; a nil identity is an anonymous caller.
package policy

import (
	"newsdesk/internal/auth"
	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/model"
)

var (
	articleWriters   = []auth.Role{auth.RoleReporter, auth.RoleEditor, auth.RoleAdmin}
	statusModerators = []auth.Role{auth.RoleEditor, auth.RoleAdmin}
)

func isGuest(id *auth.Identity) bool {
	return id == nil || !id.Role.IsStaff()
}

// ListVisibility decides the status restriction for an article listing.
// It returns restricted=false when the caller may see every status.
func ListVisibility(id *auth.Identity, authorFilter string, widen bool) (status model.ArticleStatus, restricted bool) {
	if !isGuest(id) {
		return "", false
	}
	if authorFilter != "" {
		if widen {
			return "", false
		}
		if id != nil && id.UserID == authorFilter {
			return "", false
		}
	}
	return model.ArticleStatusPublished, true
}

// CanViewArticle reports whether a single article lookup may return a.
func CanViewArticle(id *auth.Identity, a *model.Article) bool {
	if a == nil || a.IsDeleted() {
		return false
	}
	if isGuest(id) {
		return a.Status == model.ArticleStatusPublished
	}
	return true
}

// CanCreateArticle checks that the caller may write articles.
func CanCreateArticle(id *auth.Identity) error {
	if id == nil {
		return apperrors.ErrUnauthenticated
	}
	if !id.Role.In(articleWriters...) {
		return apperrors.ErrForbidden
	}
	return nil
}

// CanUpdateArticle checks that the caller may edit a. Reporters may only
// edit their own articles.
func CanUpdateArticle(id *auth.Identity, a *model.Article) error {
	if err := CanCreateArticle(id); err != nil {
		return err
	}
	if id.Role.In(auth.RoleReporter) && a.AuthorID != id.UserID {
		return apperrors.ErrNotOwner
	}
	return nil
}

// CanDeleteArticle checks a soft delete, or a hard delete when force is set.
func CanDeleteArticle(id *auth.Identity, a *model.Article, force bool) error {
	if err := CanUpdateArticle(id, a); err != nil {
		return err
	}
	if force {
		if !id.Role.In(auth.RoleAdmin) {
			return apperrors.ErrForceDeleteForbidden
		}
		return nil
	}
	if a.IsDeleted() {
		return apperrors.ErrAlreadyDeleted
	}
	return nil
}

// CanRestoreArticle checks that an admin restores a soft deleted article.
func CanRestoreArticle(id *auth.Identity, a *model.Article) error {
	if id == nil {
		return apperrors.ErrUnauthenticated
	}
	if !id.Role.In(auth.RoleAdmin) {
		return apperrors.ErrForbidden
	}
	if a == nil || !a.IsDeleted() {
		return apperrors.ErrArticleNotDeleted
	}
	return nil
}

// CanChangeStatus checks that an editor or admin moves an article to a known status.
func CanChangeStatus(id *auth.Identity, status model.ArticleStatus) error {
	if id == nil {
		return apperrors.ErrUnauthenticated
	}
	if !id.Role.In(statusModerators...) {
		return apperrors.ErrForbidden
	}
	return ValidateStatus(status)
}

// ValidateStatus rejects statuses outside the closed set.
func ValidateStatus(status model.ArticleStatus) error {
	if !status.Valid() {
		return apperrors.ErrInvalidStatus
	}
	return nil
}
