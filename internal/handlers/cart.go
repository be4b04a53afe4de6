package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hg_store/internal/logging"
	"github.com/Skotchmaster/hg_store/internal/models"
	"github.com/Skotchmaster/hg_store/internal/service/cart"
	"github.com/Skotchmaster/hg_store/internal/service/pricing"
)

type CartHandler struct {
	Cart   *cart.Ledger
	Engine pricing.Engine
}

func (h *CartHandler) view(c echo.Context, code int, lines []models.CartLine) error {
	return c.JSON(code, echo.Map{
		"items":   lines,
		"summary": h.Engine.Summary(lines),
	})
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")

	lines, err := h.Cart.Lines(ctx)
	if err != nil {
		return fail(c, l, "get_cart_error", err)
	}
	return h.view(c, http.StatusOK, lines)
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart")

	var req struct {
		ProductID int               `json:"productId"`
		Quantity  int               `json:"quantity"`
		Options   map[string]string `json:"options"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "add_to_cart_error", "invalid body")
	}
	if req.ProductID == 0 {
		return badRequest(c, l, "add_to_cart_error", "productId required")
	}

	lines, err := h.Cart.AddItem(ctx, req.ProductID, req.Quantity, req.Options)
	if err != nil {
		return fail(c, l, "add_to_cart_error", err)
	}
	return h.view(c, http.StatusCreated, lines)
}

func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.cart")

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return badRequest(c, l, "update_cart_error", "invalid line index")
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_cart_error", "invalid body")
	}

	lines, err := h.Cart.UpdateQuantity(ctx, index, req.Quantity)
	if err != nil {
		return fail(c, l, "update_cart_error", err)
	}
	return h.view(c, http.StatusOK, lines)
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "remove.cart")

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return badRequest(c, l, "remove_from_cart_error", "invalid line index")
	}

	lines, err := h.Cart.RemoveItem(ctx, index)
	if err != nil {
		return fail(c, l, "remove_from_cart_error", err)
	}
	return h.view(c, http.StatusOK, lines)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "clear.cart")

	if err := h.Cart.Clear(ctx); err != nil {
		return fail(c, l, "clear_cart_error", err)
	}
	l.Info("cart successfully cleared")
	return h.view(c, http.StatusOK, []models.CartLine{})
}
