// Package handler exposes the services over HTTP. Handlers return domain
// errors unchanged; the router's error handler renders them.
package handler

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"newsdesk/internal/auth"
	apperrors "newsdesk/internal/errors"
)

// MessageResponse is returned by endpoints that only acknowledge an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// Pagination describes a page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func newPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// bindAndValidate decodes the request into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
	}
	return c.Validate(req)
}

func identity(c echo.Context) *auth.Identity {
	return auth.IdentityPtr(c.Request().Context())
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// parseDate accepts an RFC 3339 timestamp or a calendar date. A calendar
// date used as an upper bound covers the whole day.
func parseDate(field, value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for i, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if i == 1 && endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	return nil, apperrors.Validation("validation failed", map[string]string{
		field: "must be a date (YYYY-MM-DD) or RFC 3339 timestamp",
	})
}
