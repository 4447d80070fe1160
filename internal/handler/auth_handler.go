package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"scheduler/internal/auth"
	apperr "scheduler/internal/errors"
	"scheduler/internal/response"
	"scheduler/internal/service"
	"scheduler/internal/validation"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// AuthResponse carries a freshly issued token.
type AuthResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// Signup godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validation.Signup true "Registration data"
// @Success 200 {object} response.Success{data=AuthResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req validation.Signup
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Signup(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return response.OK(c, AuthResponse{Token: result.Token, Name: result.Name})
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validation.Login true "Login credentials"
// @Success 200 {object} response.Success{data=AuthResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req validation.Login
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return response.OK(c, AuthResponse{Token: result.Token, Name: result.Name})
}

// Me godoc
// @Summary Get the authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Success{data=model.User}
// @Failure 401 {object} errors.ErrorResponse
// @Router /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	return response.OK(c, user)
}

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code != http.StatusBadRequest {
			return err
		}
		return &apperr.Error{Kind: apperr.KindValidation, Message: "invalid request body", Err: err}
	}
	return c.Validate(req)
}
