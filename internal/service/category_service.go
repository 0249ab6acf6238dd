package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"newsdesk/internal/auth"
	"newsdesk/internal/cache"
	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/model"
	"newsdesk/internal/policy"
	"newsdesk/internal/repository"
)

const (
	activeCategoriesKey = "categories:active"
	categorySlugDefault = "category"
)

// CategoryInput carries category fields. Nil fields are left unchanged on update.
type CategoryInput struct {
	Name        *string
	Description *string
}

// CategoryService exposes category operations.
type CategoryService interface {
	Create(ctx context.Context, id *auth.Identity, in CategoryInput) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Get(ctx context.Context, slugOrID string) (*model.Category, error)
	Update(ctx context.Context, id *auth.Identity, slugOrID string, in CategoryInput) (*model.Category, error)
	Delete(ctx context.Context, id *auth.Identity, slugOrID string) (*model.Category, error)
}

type categoryService struct {
	repo     repository.CategoryRepository
	cache    *cache.Client
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewCategoryService builds a CategoryService. The active list is cached in
// redis for cacheTTL; a nil cache disables caching.
func NewCategoryService(repo repository.CategoryRepository, cache *cache.Client, cacheTTL time.Duration, logger *zap.Logger) CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &categoryService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger, now: time.Now}
}

func (s *categoryService) invalidate(ctx context.Context) {
	_ = s.cache.Delete(ctx, activeCategoriesKey)
}

func (s *categoryService) find(ctx context.Context, slugOrID string) (*model.Category, error) {
	if isUUID(slugOrID) {
		category, err := s.repo.FindByID(ctx, slugOrID)
		if !errors.Is(err, apperrors.ErrCategoryNotFound) {
			return category, err
		}
	}
	return s.repo.FindBySlug(ctx, slugOrID)
}

func (s *categoryService) Create(ctx context.Context, id *auth.Identity, in CategoryInput) (*model.Category, error) {
	if err := policy.CanManageCategory(id); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.Validation("validation failed", map[string]string{"name": "is required"})
	}

	slug, err := policy.UniqueSlug(ctx, *in.Name, categorySlugDefault, "", s.repo.SlugExists, s.now)
	if err != nil {
		return nil, err
	}
	category := &model.Category{
		Slug:        slug,
		Name:        strings.TrimSpace(*in.Name),
		Description: in.Description,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return category, nil
}

// List returns active categories, served from cache when possible.
func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	var cached []model.Category
	if s.cache.GetJSON(ctx, activeCategoriesKey, &cached) {
		return cached, nil
	}

	categories, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, activeCategoriesKey, categories, s.cacheTTL); err != nil {
		s.logger.Warn("cache categories", zap.Error(err))
	}
	return categories, nil
}

// Get returns an active category.
func (s *categoryService) Get(ctx context.Context, slugOrID string) (*model.Category, error) {
	category, err := s.find(ctx, slugOrID)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, apperrors.ErrCategoryNotFound
	}
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id *auth.Identity, slugOrID string, in CategoryInput) (*model.Category, error) {
	if err := policy.CanManageCategory(id); err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.Validation("validation failed", map[string]string{"name": "must not be blank"})
	}
	category, err := s.Get(ctx, slugOrID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		slug, err := policy.UniqueSlug(ctx, name, categorySlugDefault, category.ID, s.repo.SlugExists, s.now)
		if err != nil {
			return nil, err
		}
		category.Name = name
		category.Slug = slug
	}
	if in.Description != nil {
		category.Description = in.Description
	}

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return category, nil
}

// Delete deactivates a category. Deactivation cannot be undone.
func (s *categoryService) Delete(ctx context.Context, id *auth.Identity, slugOrID string) (*model.Category, error) {
	if err := policy.CanManageCategory(id); err != nil {
		return nil, err
	}
	category, err := s.find(ctx, slugOrID)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, apperrors.ErrCategoryInactive
	}

	if err := s.repo.Deactivate(ctx, category.ID); err != nil {
		return nil, err
	}
	category.IsActive = false
	s.invalidate(ctx)
	s.logger.Info("category deactivated", zap.String("category_id", category.ID), zap.String("actor_id", id.UserID))
	return category, nil
}
