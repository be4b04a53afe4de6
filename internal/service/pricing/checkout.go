package pricing

import (
	"context"
	"fmt"
	"sync"

	"github.com/Skotchmaster/hg_store/internal/domain"
	"github.com/Skotchmaster/hg_store/internal/logging"
	"github.com/Skotchmaster/hg_store/internal/models"
	"github.com/Skotchmaster/hg_store/internal/service/cart"
)

type CartReader interface {
	Lines(ctx context.Context) ([]models.CartLine, error)
}

// Checkout holds the user's checkout choices. Totals are recomputed from
// the current cart on every call.
type Checkout struct {
	Cart   CartReader
	Engine Engine

	mu       sync.Mutex
	shipping string
	payment  string
	coupon   *Coupon
}

func NewCheckout(c CartReader) *Checkout {
	return &Checkout{Cart: c, shipping: ShippingStandard, payment: PaymentCard}
}

func (c *Checkout) input(lines []models.CartLine) Input {
	return Input{Lines: lines, ShippingMethod: c.shipping, PaymentMethod: c.payment, Coupon: c.coupon}
}

func (c *Checkout) State(ctx context.Context) (CheckoutState, []models.CartLine, error) {
	lines, err := c.Cart.Lines(ctx)
	if err != nil {
		return CheckoutState{}, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Engine.Compute(c.input(lines)), lines, nil
}

// Quote totals the cart as State does but with payment in place of the
// selected payment method. The selection itself is left alone.
func (c *Checkout) Quote(ctx context.Context, payment string) (CheckoutState, []models.CartLine, error) {
	lines, err := c.Cart.Lines(ctx)
	if err != nil {
		return CheckoutState{}, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	in := c.input(lines)
	if payment != "" {
		in.PaymentMethod = payment
	}
	return c.Engine.Compute(in), lines, nil
}

func (c *Checkout) SelectShipping(ctx context.Context, method string) (CheckoutState, error) {
	if !IsShippingMethod(method) {
		return CheckoutState{}, domain.NewValidationError("shipping", fmt.Sprintf("unknown shipping method %q", method))
	}
	c.mu.Lock()
	c.shipping = method
	c.mu.Unlock()

	st, _, err := c.State(ctx)
	return st, err
}

func (c *Checkout) SelectPayment(ctx context.Context, method string) (CheckoutState, error) {
	if !IsPaymentMethod(method) {
		return CheckoutState{}, domain.NewValidationError("paymentMethod", fmt.Sprintf("unknown payment method %q", method))
	}
	c.mu.Lock()
	c.payment = method
	c.mu.Unlock()

	st, _, err := c.State(ctx)
	return st, err
}

// ApplyCoupon replaces any applied coupon. On failure nothing changes.
func (c *Checkout) ApplyCoupon(ctx context.Context, code string) (CheckoutState, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.apply_coupon")

	norm := NormalizeCode(code)
	if norm == "" {
		return CheckoutState{}, domain.NewValidationError("coupon", "Please enter a coupon code")
	}
	coupon, ok := LookupCoupon(norm)
	if !ok {
		l.Info("coupon_rejected", "code", norm, "reason", "unknown")
		return CheckoutState{}, domain.NewValidationError("coupon", "Invalid coupon code")
	}

	lines, err := c.Cart.Lines(ctx)
	if err != nil {
		return CheckoutState{}, err
	}
	if sub := cart.Subtotal(lines); sub.LessThan(coupon.MinOrder) {
		l.Info("coupon_rejected", "code", norm, "reason", "minimum order")
		return CheckoutState{}, domain.NewValidationError("coupon",
			fmt.Sprintf("Minimum order of $%s required for this coupon", coupon.MinOrder.StringFixed(2)))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.coupon = &coupon
	l.Info("coupon_applied", "code", norm)
	return c.Engine.Compute(c.input(lines)), nil
}

func (c *Checkout) RemoveCoupon(ctx context.Context) (CheckoutState, error) {
	c.mu.Lock()
	c.coupon = nil
	c.mu.Unlock()

	st, _, err := c.State(ctx)
	return st, err
}

// Reset returns the choices to their defaults, used after an order is placed.
func (c *Checkout) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shipping = ShippingStandard
	c.payment = PaymentCard
	c.coupon = nil
}
