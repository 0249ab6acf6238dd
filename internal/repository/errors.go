// Package repository implements GORM persistence for users, articles and
// categories. Storage errors are translated into domain sentinels here so
// services never inspect gorm errors.
package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "newsdesk/internal/errors"
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Normalize clamps p to sane bounds.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Offset is the number of rows skipped before p.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// translate maps gorm errors onto domain errors. notFound is the sentinel for
// the entity being looked up and conflict the one for a duplicate key.
func translate(err error, notFound, conflict error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return conflict
	default:
		return fmt.Errorf("database: %w", err)
	}
}

func likePattern(s string) string {
	return "%" + s + "%"
}

func requireAffected(tx *gorm.DB, notFound error) error {
	if tx.Error != nil {
		return translate(tx.Error, notFound, apperrors.ErrConflict)
	}
	if tx.RowsAffected == 0 {
		return notFound
	}
	return nil
}
