package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hg_store/internal/logging"
	"github.com/Skotchmaster/hg_store/internal/models"
	"github.com/Skotchmaster/hg_store/internal/service/order"
	"github.com/Skotchmaster/hg_store/internal/service/pricing"
)

type CheckoutHandler struct {
	Checkout *pricing.Checkout
	Orders   *order.Recorder
}

func (h *CheckoutHandler) GetCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.checkout")

	st, lines, err := h.Checkout.State(ctx)
	if err != nil {
		return fail(c, l, "get_checkout_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": lines, "totals": st})
}

type methodRequest struct {
	Method string `json:"method"`
}

func (h *CheckoutHandler) SelectShipping(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "select.shipping")

	var req methodRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "select_shipping_error", "invalid body")
	}
	st, err := h.Checkout.SelectShipping(ctx, req.Method)
	if err != nil {
		return fail(c, l, "select_shipping_error", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *CheckoutHandler) SelectPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "select.payment")

	var req methodRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "select_payment_error", "invalid body")
	}
	st, err := h.Checkout.SelectPayment(ctx, req.Method)
	if err != nil {
		return fail(c, l, "select_payment_error", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *CheckoutHandler) ApplyCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "apply.coupon")

	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "apply_coupon_error", "invalid body")
	}
	st, err := h.Checkout.ApplyCoupon(ctx, req.Code)
	if err != nil {
		return fail(c, l, "apply_coupon_error", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *CheckoutHandler) RemoveCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "remove.coupon")

	st, err := h.Checkout.RemoveCoupon(ctx)
	if err != nil {
		return fail(c, l, "remove_coupon_error", err)
	}
	return c.JSON(http.StatusOK, st)
}

// PlaceOrder totals the current cart with the current checkout choices, or
// the payment method named in the body, and records the order. Checkout
// choices only change once the order is placed. The request blocks for the
// processing delay.
func (h *CheckoutHandler) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "place.order")

	var req order.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "place_order_error", "invalid body")
	}

	st, lines, err := h.Checkout.Quote(ctx, req.PaymentMethod)
	if err != nil {
		return fail(c, l, "place_order_error", err)
	}

	o, err := h.Orders.PlaceOrder(ctx, st, lines, req)
	if err != nil {
		return fail(c, l, "place_order_error", err)
	}
	h.Checkout.Reset()

	l.Info("order successfully placed", "order_number", o.OrderNumber)
	return c.JSON(http.StatusCreated, o)
}

func (h *CheckoutHandler) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.orders")

	var (
		orders []models.Order
		err    error
	)
	if email := c.QueryParam("email"); email != "" {
		orders, err = h.Orders.OrdersFor(ctx, email)
	} else {
		orders, err = h.Orders.Orders(ctx)
	}
	if err != nil {
		return fail(c, l, "get_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrder accepts the order number with or without its leading '#'.
func (h *CheckoutHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.order")

	number, err := url.PathUnescape(c.Param("number"))
	if err != nil {
		return badRequest(c, l, "get_order_error", "invalid order number")
	}
	if !strings.HasPrefix(number, "#") {
		number = "#" + number
	}

	o, err := h.Orders.Find(ctx, number)
	if err != nil {
		return fail(c, l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, o)
}
