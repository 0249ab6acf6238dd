package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/model"
	"newsdesk/internal/service"
)

// ArticleHandler serves article endpoints, including the admin ones.
type ArticleHandler struct {
	svc service.ArticleService
}

// NewArticleHandler creates an article handler.
func NewArticleHandler(svc service.ArticleService) *ArticleHandler {
	return &ArticleHandler{svc: svc}
}

// CreateArticleRequest is the body of POST /articles.
type CreateArticleRequest struct {
	Title           string  `json:"title" validate:"required,max=255"`
	Content         string  `json:"content" validate:"required"`
	CategoryID      *string `json:"categoryId" validate:"omitempty,uuid"`
	CoverImage      *string `json:"coverImage" validate:"omitempty,max=1024"`
	MetaTitle       *string `json:"metaTitle" validate:"omitempty,max=60"`
	MetaDescription *string `json:"metaDescription" validate:"omitempty,max=160"`
}

// UpdateArticleRequest is the body of PUT /articles/{slugOrId}. Omitted fields are kept.
type UpdateArticleRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=255"`
	Content         *string `json:"content" validate:"omitempty,min=1"`
	CategoryID      *string `json:"categoryId" validate:"omitempty,uuid"`
	CoverImage      *string `json:"coverImage" validate:"omitempty,max=1024"`
	MetaTitle       *string `json:"metaTitle" validate:"omitempty,max=60"`
	MetaDescription *string `json:"metaDescription" validate:"omitempty,max=160"`
	Status          *string `json:"status" validate:"omitempty"`
}

// StatusRequest is the body of the status change endpoints.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ArticleResponse wraps a single article.
type ArticleResponse struct {
	Message string         `json:"message,omitempty"`
	Article *model.Article `json:"article,omitempty"`
}

// ArticleListResponse is one page of articles.
type ArticleListResponse struct {
	Data              []model.Article `json:"data"`
	Pagination        Pagination      `json:"pagination"`
	UpdatedTodayCount *int64          `json:"updated_today_count,omitempty"`
	DraftCount        *int64          `json:"draft_count,omitempty"`
}

func newArticleListResponse(list *service.ArticleList) ArticleListResponse {
	data := list.Articles
	if data == nil {
		data = []model.Article{}
	}
	return ArticleListResponse{
		Data:              data,
		Pagination:        newPagination(list.Page, list.Limit, list.Total),
		UpdatedTodayCount: list.UpdatedTodayCount,
		DraftCount:        list.DraftCount,
	}
}

// List godoc
// @Summary List articles
// @Description Guests only see published articles. Staff responses include today's update count and the draft count.
// @Tags articles
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Param search query string false "Matches title, content, meta fields, category and author name"
// @Param category query string false "Category name"
// @Param author query string false "Author name"
// @Param authorId query string false "Author id"
// @Param status query string false "DRAFT, PUBLISHED or ARCHIVED"
// @Param startDate query string false "Created at or after (YYYY-MM-DD or RFC 3339)"
// @Param endDate query string false "Created at or before (YYYY-MM-DD or RFC 3339)"
// @Success 200 {object} ArticleListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /articles [get]
func (h *ArticleHandler) List(c echo.Context) error {
	var q service.ArticleQuery
	err := echo.QueryParamsBinder(c).
		Int("page", &q.Page).
		Int("limit", &q.Limit).
		String("search", &q.Search).
		String("category", &q.Category).
		String("author", &q.Author).
		String("authorId", &q.AuthorID).
		String("status", &q.Status).
		BindError()
	if err != nil {
		return apperrors.Validation("invalid query parameters", map[string]string{"query": err.Error()})
	}
	if q.StartDate, err = parseDate("startDate", c.QueryParam("startDate"), false); err != nil {
		return err
	}
	if q.EndDate, err = parseDate("endDate", c.QueryParam("endDate"), true); err != nil {
		return err
	}

	list, err := h.svc.List(c.Request().Context(), identity(c), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newArticleListResponse(list))
}

// Get godoc
// @Summary Get an article by slug or id
// @Tags articles
// @Produce json
// @Param slugOrId path string true "Article slug or id"
// @Success 200 {object} ArticleResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /articles/{slugOrId} [get]
func (h *ArticleHandler) Get(c echo.Context) error {
	article, err := h.svc.Get(c.Request().Context(), identity(c), c.Param("slugOrId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ArticleResponse{Article: article})
}

// Create godoc
// @Summary Create an article
// @Description New articles start as DRAFT.
// @Tags articles
// @Accept json
// @Produce json
// @Param request body CreateArticleRequest true "Article"
// @Success 201 {object} ArticleResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /articles [post]
func (h *ArticleHandler) Create(c echo.Context) error {
	var req CreateArticleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	article, err := h.svc.Create(c.Request().Context(), identity(c), service.CreateArticleInput{
		Title:           req.Title,
		Content:         req.Content,
		CategoryID:      req.CategoryID,
		CoverImage:      req.CoverImage,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ArticleResponse{Message: "article created successfully", Article: article})
}

// Update godoc
// @Summary Update an article
// @Description Reporters may only edit their own articles. Changing status needs EDITOR or ADMIN.
// @Tags articles
// @Accept json
// @Produce json
// @Param slugOrId path string true "Article slug or id"
// @Param request body UpdateArticleRequest true "Fields to change"
// @Success 200 {object} ArticleResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /articles/{slugOrId} [put]
func (h *ArticleHandler) Update(c echo.Context) error {
	var req UpdateArticleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := service.UpdateArticleInput{
		Title:           req.Title,
		Content:         req.Content,
		CategoryID:      req.CategoryID,
		CoverImage:      req.CoverImage,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
	}
	if req.Status != nil {
		status := model.ArticleStatus(*req.Status)
		in.Status = &status
	}

	article, err := h.svc.Update(c.Request().Context(), identity(c), c.Param("slugOrId"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ArticleResponse{Message: "article updated successfully", Article: article})
}

// Delete godoc
// @Summary Delete an article
// @Description Soft deletes by default. force=true removes the article permanently and is ADMIN only.
// @Tags articles
// @Produce json
// @Param slugOrId path string true "Article slug or id"
// @Param force query bool false "Delete permanently"
// @Success 200 {object} ArticleResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /articles/{slugOrId} [delete]
func (h *ArticleHandler) Delete(c echo.Context) error {
	force, _ := strconv.ParseBool(c.QueryParam("force"))
	return h.delete(c, c.Param("slugOrId"), force)
}

func (h *ArticleHandler) delete(c echo.Context, slugOrID string, force bool) error {
	article, err := h.svc.Delete(c.Request().Context(), identity(c), slugOrID, force)
	if err != nil {
		return err
	}
	if force {
		return c.JSON(http.StatusOK, ArticleResponse{Message: "article permanently deleted"})
	}
	return c.JSON(http.StatusOK, ArticleResponse{Message: "article soft deleted", Article: article})
}

// Restore godoc
// @Summary Restore a soft deleted article
// @Tags articles
// @Produce json
// @Param slugOrId path string true "Article slug or id"
// @Success 200 {object} ArticleResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /articles/restore/{slugOrId} [patch]
func (h *ArticleHandler) Restore(c echo.Context) error {
	article, err := h.svc.Restore(c.Request().Context(), identity(c), c.Param("slugOrId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ArticleResponse{Message: "article restored successfully", Article: article})
}

// ChangeStatus godoc
// @Summary Change an article's status
// @Tags articles
// @Accept json
// @Produce json
// @Param id path string true "Article id"
// @Param request body StatusRequest true "New status"
// @Success 200 {object} ArticleResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /articles/status/{id} [patch]
func (h *ArticleHandler) ChangeStatus(c echo.Context) error {
	return h.changeStatus(c, c.Param("id"))
}

func (h *ArticleHandler) changeStatus(c echo.Context, articleID string) error {
	var req StatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	article, err := h.svc.ChangeStatus(c.Request().Context(), identity(c), articleID, model.ArticleStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ArticleResponse{Message: "article status updated", Article: article})
}

// AdminList godoc
// @Summary List articles of every status, including deleted ones
// @Tags admin
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Param search query string false "Search text"
// @Param deleted query string false "all (default), only or none"
// @Success 200 {object} ArticleListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/articles [get]
func (h *ArticleHandler) AdminList(c echo.Context) error {
	var q service.AdminArticleQuery
	err := echo.QueryParamsBinder(c).
		Int("page", &q.Page).
		Int("limit", &q.Limit).
		String("search", &q.Search).
		String("deleted", &q.Deleted).
		BindError()
	if err != nil {
		return apperrors.Validation("invalid query parameters", map[string]string{"query": err.Error()})
	}

	list, err := h.svc.AdminList(c.Request().Context(), identity(c), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newArticleListResponse(list))
}

// AdminChangeStatus godoc
// @Summary Change an article's status
// @Tags admin
// @Accept json
// @Produce json
// @Param articleId path string true "Article id"
// @Param request body StatusRequest true "New status"
// @Success 200 {object} ArticleResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/articles/{articleId}/status [patch]
func (h *ArticleHandler) AdminChangeStatus(c echo.Context) error {
	return h.changeStatus(c, c.Param("articleId"))
}

// AdminDelete godoc
// @Summary Permanently delete an article
// @Tags admin
// @Produce json
// @Param articleId path string true "Article id"
// @Success 200 {object} ArticleResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/articles/{articleId} [delete]
func (h *ArticleHandler) AdminDelete(c echo.Context) error {
	return h.delete(c, c.Param("articleId"), true)
}
