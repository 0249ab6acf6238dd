package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"newsdesk/internal/auth"
	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/model"
	"newsdesk/internal/policy"
	"newsdesk/internal/repository"
)

// seeder creates the bootstrap data. Running it twice changes nothing.
type seeder struct {
	users      repository.UserRepository
	categories repository.CategoryRepository
	bcryptCost int
	logger     *zap.Logger
}

// admin ensures an active ADMIN account exists for email. An existing
// account is promoted and re-enabled; its password is left alone.
func (s *seeder) admin(ctx context.Context, name, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != auth.RoleAdmin {
			if err := s.users.UpdateRole(ctx, existing.ID, auth.RoleAdmin); err != nil {
				return fmt.Errorf("promote %s: %w", email, err)
			}
		}
		if !existing.IsActive {
			if err := s.users.SetActive(ctx, existing.ID, true); err != nil {
				return fmt.Errorf("enable %s: %w", email, err)
			}
		}
		s.logger.Info("admin already present", zap.String("email", email))
		return nil
	case !errors.Is(err, apperrors.ErrAccountNotFound):
		return fmt.Errorf("lookup %s: %w", email, err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("create %s: %w", email, err)
	}
	s.logger.Info("admin created", zap.String("email", email), zap.String("user_id", user.ID))
	return nil
}

// defaultCategories creates each named category whose slug is not taken yet.
func (s *seeder) defaultCategories(ctx context.Context, names []string) (int, error) {
	created := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		slug := policy.Slugify(name)
		if slug == "" {
			continue
		}

		_, err := s.categories.FindBySlug(ctx, slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperrors.ErrCategoryNotFound) {
			return created, fmt.Errorf("lookup category %s: %w", slug, err)
		}

		if err := s.categories.Create(ctx, &model.Category{Slug: slug, Name: name, IsActive: true}); err != nil {
			return created, fmt.Errorf("create category %s: %w", slug, err)
		}
		created++
	}
	return created, nil
}
