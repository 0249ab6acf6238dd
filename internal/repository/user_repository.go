package repository

import (
	"context"

	"gorm.io/gorm"

	"newsdesk/internal/auth"
	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/model"
)

// UserFilter narrows a user listing.
type UserFilter struct {
	Page
	Search string
}

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, filter UserFilter) ([]model.User, int64, error)
	UpdateRole(ctx context.Context, id string, role auth.Role) error
	SetActive(ctx context.Context, id string, active bool) error
	RoleOf(ctx context.Context, id string) (auth.Role, bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error, apperrors.ErrAccountNotFound, apperrors.ErrEmailTaken)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err, apperrors.ErrAccountNotFound, apperrors.ErrConflict)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, apperrors.ErrAccountNotFound, apperrors.ErrConflict)
	}
	return &user, nil
}

func (r *userRepository) filtered(ctx context.Context, filter UserFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		q = q.Where("name LIKE ? OR email LIKE ?", pattern, pattern)
	}
	return q
}

// List returns one page of users, newest first, with the unpaged total.
func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]model.User, int64, error) {
	page := filter.Page.Normalize()

	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, translate(err, apperrors.ErrAccountNotFound, apperrors.ErrConflict)
	}

	var users []model.User
	err := r.filtered(ctx, filter).Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error
	if err != nil {
		return nil, 0, translate(err, apperrors.ErrAccountNotFound, apperrors.ErrConflict)
	}
	return users, total, nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id string, role auth.Role) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("role", role).Error
	return translate(err, apperrors.ErrAccountNotFound, apperrors.ErrConflict)
}

func (r *userRepository) SetActive(ctx context.Context, id string, active bool) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("is_active", active).Error
	return translate(err, apperrors.ErrAccountNotFound, apperrors.ErrConflict)
}

// RoleOf reads the current role and active flag for the authorizer.
func (r *userRepository) RoleOf(ctx context.Context, id string) (auth.Role, bool, error) {
	var user model.User
	err := r.db.WithContext(ctx).Select("id", "role", "is_active").Where("id = ?", id).First(&user).Error
	if err != nil {
		return "", false, translate(err, apperrors.ErrUserNotFound, apperrors.ErrConflict)
	}
	return user.Role, user.IsActive, nil
}
