package repository

import (
	"context"

	"gorm.io/gorm"

	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/model"
)

// CategoryRepository defines category persistence operations.
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id string) (*model.Category, error)
	FindBySlug(ctx context.Context, slug string) (*model.Category, error)
	ListActive(ctx context.Context) ([]model.Category, error)
	Deactivate(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository builds a GORM-backed repository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return translate(r.db.WithContext(ctx).Create(category).Error, apperrors.ErrCategoryNotFound, apperrors.ErrConflict)
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	return translate(r.db.WithContext(ctx).Save(category).Error, apperrors.ErrCategoryNotFound, apperrors.ErrConflict)
}

// FindByID returns the category whether or not it is active.
func (r *categoryRepository) FindByID(ctx context.Context, id string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, translate(err, apperrors.ErrCategoryNotFound, apperrors.ErrConflict)
	}
	return &category, nil
}

// FindBySlug returns the category whether or not it is active.
func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, translate(err, apperrors.ErrCategoryNotFound, apperrors.ErrConflict)
	}
	return &category, nil
}

// ListActive returns active categories, newest first.
func (r *categoryRepository) ListActive(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at DESC").Find(&categories).Error
	if err != nil {
		return nil, translate(err, apperrors.ErrCategoryNotFound, apperrors.ErrConflict)
	}
	return categories, nil
}

// Deactivate is the category soft delete.
func (r *categoryRepository) Deactivate(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	return requireAffected(tx, apperrors.ErrCategoryInactive)
}

func (r *categoryRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Category{}).Where("slug = ?", slug)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, translate(err, apperrors.ErrCategoryNotFound, apperrors.ErrConflict)
	}
	return n > 0, nil
}
