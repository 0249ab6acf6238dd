package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/auth"
	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/handler"
	"newsdesk/internal/metrics"
	mw "newsdesk/internal/middleware"
	"newsdesk/internal/model"
	"newsdesk/internal/service"
)

const accessCookie = "access_token"

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, token string) (*service.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, id *auth.Identity) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockArticleService struct{ mock.Mock }

func (m *MockArticleService) List(ctx context.Context, id *auth.Identity, q service.ArticleQuery) (*service.ArticleList, error) {
	args := m.Called(ctx, id, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ArticleList), args.Error(1)
}

func (m *MockArticleService) Get(ctx context.Context, id *auth.Identity, slugOrID string) (*model.Article, error) {
	args := m.Called(ctx, id, slugOrID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Article), args.Error(1)
}

func (m *MockArticleService) Create(ctx context.Context, id *auth.Identity, in service.CreateArticleInput) (*model.Article, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Article), args.Error(1)
}

func (m *MockArticleService) Update(ctx context.Context, id *auth.Identity, slugOrID string, in service.UpdateArticleInput) (*model.Article, error) {
	args := m.Called(ctx, id, slugOrID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Article), args.Error(1)
}

func (m *MockArticleService) Delete(ctx context.Context, id *auth.Identity, slugOrID string, force bool) (*model.Article, error) {
	args := m.Called(ctx, id, slugOrID, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Article), args.Error(1)
}

func (m *MockArticleService) Restore(ctx context.Context, id *auth.Identity, slugOrID string) (*model.Article, error) {
	args := m.Called(ctx, id, slugOrID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Article), args.Error(1)
}

func (m *MockArticleService) ChangeStatus(ctx context.Context, id *auth.Identity, articleID string, status model.ArticleStatus) (*model.Article, error) {
	args := m.Called(ctx, id, articleID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Article), args.Error(1)
}

func (m *MockArticleService) AdminList(ctx context.Context, id *auth.Identity, q service.AdminArticleQuery) (*service.ArticleList, error) {
	args := m.Called(ctx, id, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ArticleList), args.Error(1)
}

type stubRoles map[string]auth.Role

func (s stubRoles) RoleOf(_ context.Context, userID string) (auth.Role, bool, error) {
	role, ok := s[userID]
	if !ok {
		return "", false, apperrors.ErrUserNotFound
	}
	return role, true, nil
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

type testServer struct {
	e        *echo.Echo
	codec    *auth.TokenCodec
	auth     *MockAuthService
	articles *MockArticleService
}

func newTestServer(t *testing.T, roles stubRoles, pingErr error) *testServer {
	t.Helper()
	codec := auth.NewTokenCodec(auth.TokenConfig{Secret: "router-secret-0123456789", Issuer: "newsdesk", AccessTTL: time.Hour}, nil)
	s := &testServer{
		e:        echo.New(),
		codec:    codec,
		auth:     new(MockAuthService),
		articles: new(MockArticleService),
	}
	m := metrics.New()
	Register(s.e, Deps{
		Metrics:          m,
		Verifier:         codec,
		Authorizer:       mw.NewAuthorizer(roles, nil, m),
		AccessCookieName: accessCookie,
	}, Handlers{
		Auth:     handler.NewAuthHandler(s.auth, handler.CookieConfig{AccessName: accessCookie, RefreshName: "refresh_token"}),
		Article:  handler.NewArticleHandler(s.articles),
		Category: handler.NewCategoryHandler(nil),
		User:     handler.NewUserHandler(nil),
		Health:   handler.NewHealthHandler(stubPinger{err: pingErr}),
	})
	return s
}

func (s *testServer) do(t *testing.T, method, target, body, userID string, role auth.Role) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != "" {
		token, _, err := s.codec.Sign(auth.TokenPayload{UserID: userID, Role: role}, auth.TokenAccess)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: accessCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestMe_Anonymous(t *testing.T) {
	s := newTestServer(t, stubRoles{}, nil)
	s.auth.On("Me", mock.Anything, (*auth.Identity)(nil)).Return(nil, nil)

	rec := s.do(t, http.MethodGet, "/api/auth/me", "", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["access"])
	assert.Nil(t, body["user"])
}

func TestCreateArticle_Gates(t *testing.T) {
	roles := stubRoles{"u-1": auth.RoleUser, "r-1": auth.RoleReporter, "promoted": auth.RoleEditor}
	valid := `{"title":"Hello","content":"World"}`

	tests := []struct {
		name       string
		userID     string
		tokenRole  auth.Role
		body       string
		wantStatus int
		wantCode   string
	}{
		{"no session", "", "", valid, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"user role", "u-1", auth.RoleUser, valid, http.StatusForbidden, "FORBIDDEN"},
		{"deleted user", "gone", auth.RoleAdmin, valid, http.StatusUnauthorized, "USER_NOT_FOUND"},
		{"promoted since token was issued", "promoted", auth.RoleUser, valid, http.StatusCreated, ""},
		{"reporter", "r-1", auth.RoleReporter, valid, http.StatusCreated, ""},
		{"missing title", "r-1", auth.RoleReporter, `{"content":"World"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, roles, nil)
			s.articles.On("Create", mock.Anything, mock.Anything, service.CreateArticleInput{Title: "Hello", Content: "World"}).
				Return(&model.Article{ID: "a-1", Slug: "hello"}, nil)

			rec := s.do(t, http.MethodPost, "/api/articles", tt.body, tt.userID, tt.tokenRole)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decode(t, rec)["code"])
			}
		})
	}
}

func TestValidationErrorsUseJSONFieldNames(t *testing.T) {
	s := newTestServer(t, stubRoles{"r-1": auth.RoleReporter}, nil)

	rec := s.do(t, http.MethodPost, "/api/articles", `{"title":"T","content":"C","categoryId":"nope"}`, "r-1", auth.RoleReporter)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]interface{})
	assert.Equal(t, "must be a uuid", fields["categoryId"])
}

func TestListArticles_PaginationShape(t *testing.T) {
	s := newTestServer(t, stubRoles{}, nil)
	s.articles.On("List", mock.Anything, (*auth.Identity)(nil), mock.MatchedBy(func(q service.ArticleQuery) bool {
		return q.Page == 2 && q.Limit == 5 && q.StartDate != nil && q.EndDate != nil && q.EndDate.Hour() == 23
	})).Return(&service.ArticleList{Articles: []model.Article{{ID: "a-1"}}, Total: 11, Page: 2, Limit: 5}, nil)

	rec := s.do(t, http.MethodGet, "/api/articles?page=2&limit=5&startDate=2024-01-01&endDate=2024-01-31", "", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(3), pagination["total_pages"])
	assert.Len(t, body["data"], 1)
	assert.NotContains(t, body, "draft_count")
}

func TestListArticles_BadDate(t *testing.T) {
	s := newTestServer(t, stubRoles{}, nil)

	rec := s.do(t, http.MethodGet, "/api/articles?startDate=yesterday", "", "", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	s := newTestServer(t, stubRoles{"e-1": auth.RoleEditor}, nil)
	s.articles.On("Delete", mock.Anything, mock.Anything, "story", false).Return(nil, apperrors.ErrAlreadyDeleted)
	s.articles.On("Delete", mock.Anything, mock.Anything, "story", true).Return(nil, apperrors.ErrForceDeleteForbidden)
	s.articles.On("Get", mock.Anything, mock.Anything, "boom").Return(nil, errors.New("dial tcp: connection refused"))

	rec := s.do(t, http.MethodDelete, "/api/articles/story", "", "e-1", auth.RoleEditor)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ALREADY_DELETED", decode(t, rec)["code"])

	rec = s.do(t, http.MethodDelete, "/api/articles/story?force=true", "", "e-1", auth.RoleEditor)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/articles/boom", "", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestUnknownStatusReachesServiceAndRendersInvalidStatus(t *testing.T) {
	const articleID = "0d6f8a4e-3b1c-4d2e-9f0a-1b2c3d4e5f60"
	s := newTestServer(t, stubRoles{"e-1": auth.RoleEditor}, nil)
	s.articles.On("ChangeStatus", mock.Anything, mock.Anything, articleID, model.ArticleStatus("DELETED")).
		Return(nil, apperrors.ErrInvalidStatus)

	rec := s.do(t, http.MethodPatch, "/api/articles/status/"+articleID, `{"status":"DELETED"}`, "e-1", auth.RoleEditor)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_STATUS", decode(t, rec)["code"])
	s.articles.AssertExpectations(t)

	rec = s.do(t, http.MethodPatch, "/api/articles/status/"+articleID, `{}`, "e-1", auth.RoleEditor)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rec)["code"])
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t, stubRoles{"e-1": auth.RoleEditor}, nil)

	rec := s.do(t, http.MethodGet, "/api/admin/articles", "", "e-1", auth.RoleEditor)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/users", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminDeleteIsForced(t *testing.T) {
	s := newTestServer(t, stubRoles{"a-1": auth.RoleAdmin}, nil)
	s.articles.On("Delete", mock.Anything, mock.MatchedBy(func(id *auth.Identity) bool {
		return id.UserID == "a-1" && id.Role == auth.RoleAdmin
	}), "0d6f8a4e-3b1c-4d2e-9f0a-1b2c3d4e5f60", true).Return(nil, nil)

	rec := s.do(t, http.MethodDelete, "/api/admin/articles/0d6f8a4e-3b1c-4d2e-9f0a-1b2c3d4e5f60", "", "a-1", auth.RoleAdmin)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "article permanently deleted", decode(t, rec)["message"])
}

func TestLoginSetsCookies(t *testing.T) {
	s := newTestServer(t, stubRoles{}, nil)
	s.auth.On("Login", mock.Anything, "a@example.com", "password123").Return(&service.Session{
		AccessToken:      "access",
		AccessExpiresAt:  time.Now().Add(time.Hour),
		RefreshToken:     "refresh",
		RefreshExpiresAt: time.Now().Add(24 * time.Hour),
		User:             &model.User{ID: "u-1"},
	}, nil)

	rec := s.do(t, http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"password123"}`, "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, accessCookie)
	require.Contains(t, cookies, "refresh_token")
	assert.Equal(t, "access", cookies[accessCookie].Value)
	assert.True(t, cookies["refresh_token"].HttpOnly)
}

func TestLogoutClearsCookies(t *testing.T) {
	s := newTestServer(t, stubRoles{}, nil)
	s.auth.On("Logout", mock.Anything, "refresh").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "refresh"})
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		assert.Equal(t, "", c.Value)
		assert.True(t, c.MaxAge < 0)
	}
	s.auth.AssertExpectations(t)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, stubRoles{}, nil)
	rec := s.do(t, http.MethodGet, "/healthz", "", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/metrics", "", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")

	down := newTestServer(t, stubRoles{}, errors.New("db down"))
	rec = down.do(t, http.MethodGet, "/healthz", "", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRouteRendersJSON(t *testing.T) {
	s := newTestServer(t, stubRoles{}, nil)

	rec := s.do(t, http.MethodGet, "/api/nope", "", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec)["code"])
}
