package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"newsdesk/internal/model"
	"newsdesk/internal/service"
)

// CategoryHandler serves category endpoints.
type CategoryHandler struct {
	svc service.CategoryService
}

// NewCategoryHandler creates a category handler.
func NewCategoryHandler(svc service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

// CreateCategoryRequest is the body of POST /categories.
type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=255"`
	Description *string `json:"description"`
}

// UpdateCategoryRequest is the body of PUT /categories/{slugOrId}.
type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description"`
}

// CategoryResponse wraps a single category.
type CategoryResponse struct {
	Message  string          `json:"message,omitempty"`
	Category *model.Category `json:"category"`
}

// CategoryListResponse lists active categories.
type CategoryListResponse struct {
	Data []model.Category `json:"data"`
}

// List godoc
// @Summary List active categories
// @Tags categories
// @Produce json
// @Success 200 {object} CategoryListResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /categories [get]
func (h *CategoryHandler) List(c echo.Context) error {
	categories, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return c.JSON(http.StatusOK, CategoryListResponse{Data: categories})
}

// Get godoc
// @Summary Get an active category
// @Tags categories
// @Produce json
// @Param slugOrId path string true "Category slug or id"
// @Success 200 {object} CategoryResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /categories/{slugOrId} [get]
func (h *CategoryHandler) Get(c echo.Context) error {
	category, err := h.svc.Get(c.Request().Context(), c.Param("slugOrId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CategoryResponse{Category: category})
}

// Create godoc
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Param request body CreateCategoryRequest true "Category"
// @Success 201 {object} CategoryResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /categories [post]
func (h *CategoryHandler) Create(c echo.Context) error {
	var req CreateCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	category, err := h.svc.Create(c.Request().Context(), identity(c), service.CategoryInput{
		Name:        &req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, CategoryResponse{Message: "category created successfully", Category: category})
}

// Update godoc
// @Summary Update a category
// @Description Renaming a category also changes its slug.
// @Tags categories
// @Accept json
// @Produce json
// @Param slugOrId path string true "Category slug or id"
// @Param request body UpdateCategoryRequest true "Fields to change"
// @Success 200 {object} CategoryResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /categories/{slugOrId} [put]
func (h *CategoryHandler) Update(c echo.Context) error {
	var req UpdateCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	category, err := h.svc.Update(c.Request().Context(), identity(c), c.Param("slugOrId"), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CategoryResponse{Message: "category updated successfully", Category: category})
}

// Delete godoc
// @Summary Deactivate a category
// @Tags categories
// @Produce json
// @Param slugOrId path string true "Category slug or id"
// @Success 200 {object} CategoryResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /categories/{slugOrId} [delete]
func (h *CategoryHandler) Delete(c echo.Context) error {
	category, err := h.svc.Delete(c.Request().Context(), identity(c), c.Param("slugOrId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CategoryResponse{Message: "category deactivated", Category: category})
}
