package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"newsdesk/internal/auth"
	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/model"
	"newsdesk/internal/policy"
	"newsdesk/internal/repository"
)

// CreateUserInput is an admin account creation request.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UserList is one page of users.
type UserList struct {
	Users []model.User
	Total int64
	Page  int
	Limit int
}

// UserService exposes admin user management.
type UserService interface {
	Create(ctx context.Context, actor *auth.Identity, in CreateUserInput) (*model.User, error)
	List(ctx context.Context, actor *auth.Identity, page, limit int, search string) (*UserList, error)
	ChangeRole(ctx context.Context, actor *auth.Identity, userID, role string) (*model.User, error)
	ToggleActive(ctx context.Context, actor *auth.Identity, userID string) (*model.User, error)
}

type userService struct {
	repo       repository.UserRepository
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService builds a UserService.
func NewUserService(repo repository.UserRepository, bcryptCost int, logger *zap.Logger) UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &userService{repo: repo, bcryptCost: bcryptCost, logger: logger}
}

func parseRole(s string) (auth.Role, error) {
	role, err := auth.ParseRole(s)
	if err != nil {
		return "", apperrors.ErrInvalidRole
	}
	return role, nil
}

func (s *userService) Create(ctx context.Context, actor *auth.Identity, in CreateUserInput) (*model.User, error) {
	if err := policy.CanAdminister(actor); err != nil {
		return nil, err
	}
	role := auth.RoleUser
	if in.Role != "" {
		r, err := parseRole(in.Role)
		if err != nil {
			return nil, err
		}
		role = r
	}

	email := normalizeEmail(in.Email)
	if err := ensureEmailFree(ctx, s.repo, email); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", role.String()), zap.String("actor_id", actor.UserID))
	return user, nil
}

func (s *userService) List(ctx context.Context, actor *auth.Identity, page, limit int, search string) (*UserList, error) {
	if err := policy.CanAdminister(actor); err != nil {
		return nil, err
	}
	p := repository.Page{Page: page, Limit: limit}.Normalize()
	users, total, err := s.repo.List(ctx, repository.UserFilter{Page: p, Search: strings.TrimSpace(search)})
	if err != nil {
		return nil, err
	}
	return &UserList{Users: users, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

// ChangeRole takes effect on the user's next privileged request since the
// authorizer re-reads roles from storage.
func (s *userService) ChangeRole(ctx context.Context, actor *auth.Identity, userID, role string) (*model.User, error) {
	if err := policy.CanAdminister(actor); err != nil {
		return nil, err
	}
	newRole, err := parseRole(role)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRole(ctx, user.ID, newRole); err != nil {
		return nil, err
	}
	s.logger.Info("user role changed",
		zap.String("user_id", user.ID),
		zap.String("from", user.Role.String()),
		zap.String("to", newRole.String()),
		zap.String("actor_id", actor.UserID),
	)
	user.Role = newRole
	return user, nil
}

func (s *userService) ToggleActive(ctx context.Context, actor *auth.Identity, userID string) (*model.User, error) {
	if err := policy.CanAdminister(actor); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, user.ID, !user.IsActive); err != nil {
		return nil, err
	}
	user.IsActive = !user.IsActive
	return user, nil
}
