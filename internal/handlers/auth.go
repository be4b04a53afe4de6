package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hg_store/internal/logging"
	"github.com/Skotchmaster/hg_store/internal/service/account"
)

type AuthHandler struct {
	Accounts *account.Accounts
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "register")

	var req account.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "register_error", "invalid body")
	}

	s, err := h.Accounts.Register(ctx, req)
	if err != nil {
		return fail(c, l, "register_error", err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Remember bool   `json:"remember"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "login_error", "invalid body")
	}

	s, err := h.Accounts.Login(ctx, req.Email, req.Password, req.Remember)
	if err != nil {
		return fail(c, l, "login_error", err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "logout")

	if err := h.Accounts.Logout(ctx); err != nil {
		return fail(c, l, "logout_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the signed-in user, or {"user": null} when anonymous.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "me")

	s, err := h.Accounts.CurrentUser(ctx)
	if err != nil {
		return fail(c, l, "me_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": s})
}
