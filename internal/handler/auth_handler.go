package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"newsdesk/internal/model"
	"newsdesk/internal/service"
)

// CookieConfig controls the session cookies.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Secure      bool
	Domain      string
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	cookies     CookieConfig
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"required,min=2"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token for clients that do not keep cookies.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user,omitempty"`
}

// MeResponse reports the current session.
type MeResponse struct {
	Access bool        `json:"access"`
	User   *model.User `json:"user"`
}

func (h *AuthHandler) setCookie(c echo.Context, name, value string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookies.Domain,
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.cookies.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// refreshToken reads the refresh token from its cookie, falling back to the body.
func (h *AuthHandler) refreshToken(c echo.Context) string {
	if cookie, err := c.Cookie(h.cookies.RefreshName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	var req RefreshRequest
	_ = c.Bind(&req)
	return req.RefreshToken
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, AuthResponse{
		Message: "user registered successfully",
		User:    user,
	})
}

// Login godoc
// @Summary Login user
// @Description Sets the access and refresh token cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setCookie(c, h.cookies.AccessName, session.AccessToken, session.AccessExpiresAt)
	h.setCookie(c, h.cookies.RefreshName, session.RefreshToken, session.RefreshExpiresAt)
	return c.JSON(http.StatusOK, AuthResponse{
		Message: "logged in successfully",
		User:    session.User,
	})
}

// Refresh godoc
// @Summary Refresh access token
// @Description Reads the refresh token cookie, or refresh_token from the body, and sets a new access token cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest false "Refresh token"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	session, err := h.authService.Refresh(c.Request().Context(), h.refreshToken(c))
	if err != nil {
		return err
	}

	h.setCookie(c, h.cookies.AccessName, session.AccessToken, session.AccessExpiresAt)
	return c.JSON(http.StatusOK, AuthResponse{
		Message: "token refreshed",
		User:    session.User,
	})
}

// Logout godoc
// @Summary Logout user
// @Description Revokes the refresh token and clears both session cookies.
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), h.refreshToken(c)); err != nil {
		return err
	}

	h.clearCookie(c, h.cookies.AccessName)
	h.clearCookie(c, h.cookies.RefreshName)
	return c.JSON(http.StatusOK, MessageResponse{Message: "logged out successfully"})
}

// Me godoc
// @Summary Current session
// @Description Returns access=false and a null user for anonymous callers.
// @Tags auth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.authService.Me(c.Request().Context(), identity(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MeResponse{Access: user != nil, User: user})
}
