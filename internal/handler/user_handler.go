package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/model"
	"newsdesk/internal/service"
)

// UserHandler serves the admin user management endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a user handler.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// CreateUserRequest is the body of POST /admin/users.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role"`
}

// RoleRequest is the body of PATCH /admin/users/{userId}/role.
type RoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// UserResponse wraps a single user.
type UserResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// UserListResponse is one page of users.
type UserListResponse struct {
	Data       []model.User `json:"data"`
	Pagination Pagination   `json:"pagination"`
}

// CreateUser godoc
// @Summary Create a user
// @Description Role defaults to USER.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User"
// @Success 201 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.svc.Create(c.Request().Context(), identity(c), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, UserResponse{Message: "user created successfully", User: user})
}

// ListUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Param search query string false "Matches name or email"
// @Success 200 {object} UserListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	var page, limit int
	var search string
	err := echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("limit", &limit).
		String("search", &search).
		BindError()
	if err != nil {
		return apperrors.Validation("invalid query parameters", map[string]string{"query": err.Error()})
	}

	list, err := h.svc.List(c.Request().Context(), identity(c), page, limit, search)
	if err != nil {
		return err
	}
	users := list.Users
	if users == nil {
		users = []model.User{}
	}
	return c.JSON(http.StatusOK, UserListResponse{
		Data:       users,
		Pagination: newPagination(list.Page, list.Limit, list.Total),
	})
}

// ChangeRole godoc
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Param userId path string true "User id"
// @Param request body RoleRequest true "New role"
// @Success 200 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/users/{userId}/role [patch]
func (h *UserHandler) ChangeRole(c echo.Context) error {
	var req RoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.svc.ChangeRole(c.Request().Context(), identity(c), c.Param("userId"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, UserResponse{Message: "user role updated successfully", User: user})
}

// ToggleActive godoc
// @Summary Enable or disable a user
// @Tags admin
// @Produce json
// @Param userId path string true "User id"
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/users/{userId}/toggle [patch]
func (h *UserHandler) ToggleActive(c echo.Context) error {
	user, err := h.svc.ToggleActive(c.Request().Context(), identity(c), c.Param("userId"))
	if err != nil {
		return err
	}
	msg := "user deactivated"
	if user.IsActive {
		msg = "user activated"
	}
	return c.JSON(http.StatusOK, UserResponse{Message: msg, User: user})
}
