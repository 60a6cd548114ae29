package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/jobboard/internal/middleware"
	"github.com/suteetoe/jobboard/internal/service"
	"github.com/suteetoe/jobboard/pkg/logger"
	"go.uber.org/zap"
)

// AuthHandler serves registration, tokens and the caller's profile.
type AuthHandler struct {
	accounts *service.AccountService
}

func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Register creates an employer or job seeker account.
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromEcho(c)

	var req service.RegisterInput
	if err := bind(c, &req); err != nil {
		log.Warn("Failed to parse register request", zap.Error(err))
		return err
	}

	user, err := h.accounts.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully.",
		"user": echo.Map{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// Login exchanges credentials for an access/refresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}

	pair, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh issues a new access token from a refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}

	access, err := h.accounts.Refresh(c.Request().Context(), req.Refresh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"access": access})
}

// GetProfile returns the caller's profile.
func (h *AuthHandler) GetProfile(c echo.Context) error {
	user, err := h.accounts.Profile(c.Request().Context(), middleware.PrincipalFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile(user))
}

// UpdateProfile changes the caller's editable profile fields. PUT and PATCH
// behave the same since no profile field is required.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req service.ProfileInput
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.UpdateProfile(c.Request().Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile(user))
}
