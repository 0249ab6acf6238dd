package router

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"newsdesk/internal/auth"
	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/handler"
	"newsdesk/internal/metrics"
	mw "newsdesk/internal/middleware"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Auth     *handler.AuthHandler
	Article  *handler.ArticleHandler
	Category *handler.CategoryHandler
	User     *handler.UserHandler
	Health   *handler.HealthHandler
}

// Deps carries the collaborators the middleware chain needs.
type Deps struct {
	Logger           *zap.Logger
	Metrics          *metrics.Metrics
	Verifier         mw.TokenVerifier
	Authorizer       *mw.Authorizer
	AccessCookieName string
}

// Register wires routes and middleware.
func Register(e *echo.Echo, deps Deps, h Handlers) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler(logger)
	e.Validator = NewValidator()

	e.Use(middleware.RequestID())
	e.Use(mw.RequestLogger(logger))
	if deps.Metrics != nil {
		e.Use(deps.Metrics.Middleware())
	}
	e.Use(middleware.Recover())

	e.GET("/healthz", h.Health.Health)
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	session := mw.Session(deps.Verifier, mw.SessionConfig{
		CookieName: deps.AccessCookieName,
		Logger:     logger,
		Metrics:    deps.Metrics,
	})
	maybeSession := mw.Session(deps.Verifier, mw.SessionConfig{
		CookieName: deps.AccessCookieName,
		Optional:   true,
		Logger:     logger,
		Metrics:    deps.Metrics,
	})
	writers := deps.Authorizer.Require(auth.RoleReporter, auth.RoleEditor, auth.RoleAdmin)
	moderators := deps.Authorizer.Require(auth.RoleEditor, auth.RoleAdmin)
	admins := deps.Authorizer.Require(auth.RoleAdmin)

	api := e.Group("/api")

	// Auth
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/logout", h.Auth.Logout)
	api.GET("/auth/me", h.Auth.Me, maybeSession)

	// Articles
	api.GET("/articles", h.Article.List, maybeSession)
	api.GET("/articles/:slugOrId", h.Article.Get, maybeSession)
	api.POST("/articles", h.Article.Create, session, writers)
	api.PUT("/articles/:slugOrId", h.Article.Update, session, writers)
	api.DELETE("/articles/:slugOrId", h.Article.Delete, session, writers)
	api.PATCH("/articles/restore/:slugOrId", h.Article.Restore, session, moderators)
	api.PATCH("/articles/status/:id", h.Article.ChangeStatus, session, moderators)

	// Categories
	api.GET("/categories", h.Category.List)
	api.GET("/categories/:slugOrId", h.Category.Get)
	api.POST("/categories", h.Category.Create, session, moderators)
	api.PUT("/categories/:slugOrId", h.Category.Update, session, moderators)
	api.DELETE("/categories/:slugOrId", h.Category.Delete, session, moderators)

	// Admin
	admin := api.Group("/admin", session, admins)
	admin.GET("/users", h.User.ListUsers)
	admin.POST("/users", h.User.CreateUser)
	admin.PATCH("/users/:userId/role", h.User.ChangeRole)
	admin.PATCH("/users/:userId/toggle", h.User.ToggleActive)
	admin.GET("/articles", h.Article.AdminList)
	admin.PATCH("/articles/:articleId/status", h.Article.AdminChangeStatus)
	admin.DELETE("/articles/:articleId", h.Article.AdminDelete)
}

// ErrorHandler renders domain errors and echo errors as ErrorResponse bodies.
// Internal failures are logged and never expose their cause.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status int
			body   apperrors.ErrorResponse
			he     *echo.HTTPError
		)
		if errors.As(err, &he) {
			status = he.Code
			switch msg := he.Message.(type) {
			case apperrors.ErrorResponse:
				body = msg
			default:
				body = apperrors.ErrorResponse{Error: fmt.Sprint(msg), Code: statusCode(status)}
			}
		} else {
			httpErr := apperrors.MapErrorToHTTP(err)
			status = httpErr.StatusCode
			body = httpErr.ToErrorResponse()
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("route", c.Path()),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Warn("write error response", zap.Error(err))
		}
	}
}

func statusCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator builds a validator that reports fields by their JSON names.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	return apperrors.Validation("validation failed", fields)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid":
		return "must be a uuid"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}
