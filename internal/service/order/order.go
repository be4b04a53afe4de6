package order

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/hg_store/internal/domain"
	"github.com/Skotchmaster/hg_store/internal/kvstore"
	"github.com/Skotchmaster/hg_store/internal/logging"
	"github.com/Skotchmaster/hg_store/internal/models"
	"github.com/Skotchmaster/hg_store/internal/mykafka"
	"github.com/Skotchmaster/hg_store/internal/service/pricing"
)

const maxNumberAttempts = 50

type CardDetails struct {
	Number string `json:"cardNumber"`
	Name   string `json:"cardName"`
	Expiry string `json:"cardExpiry"`
	CVV    string `json:"cardCvv"`
}

type PlaceOrderRequest struct {
	Email           string                 `json:"email"`
	Phone           string                 `json:"phone"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Card            CardDetails            `json:"card"`
	AgreeTerms      bool                   `json:"agreeTerms"`
}

// CartReleaser takes the ordered lines out of the cart, leaving anything
// added while the order was processing.
type CartReleaser interface {
	RemoveOrdered(ctx context.Context, ordered []models.CartLine) error
}

type Recorder struct {
	Store  kvstore.Store
	Cart   CartReleaser
	Events mykafka.Publisher

	// Delay simulates payment processing before the order is written.
	Delay time.Duration
	Now   func() time.Time
	// Draw returns the numeric part of an order number, 10000..99999.
	Draw func() int

	mu sync.Mutex
}

func NewRecorder(store kvstore.Store, cart CartReleaser, events mykafka.Publisher, delay time.Duration) *Recorder {
	return &Recorder{
		Store:  store,
		Cart:   cart,
		Events: events,
		Delay:  delay,
		Now:    time.Now,
		Draw:   func() int { return 10000 + rand.IntN(90000) },
	}
}

// Locker guards the keys this service owns, for writers that bypass it.
func (r *Recorder) Locker() sync.Locker {
	return &r.mu
}

// Validate checks the checkout form and reports the first failing field.
func Validate(lines []models.CartLine, req PlaceOrderRequest, paymentMethod string) error {
	if len(lines) == 0 {
		return domain.NewValidationError("cart", "Your cart is empty")
	}

	a := req.ShippingAddress
	required := []struct{ field, label, value string }{
		{"email", "Email", req.Email},
		{"phone", "Phone", req.Phone},
		{"firstName", "First Name", a.FirstName},
		{"lastName", "Last Name", a.LastName},
		{"address", "Address", a.Address},
		{"city", "City", a.City},
		{"state", "State", a.State},
		{"zip", "ZIP Code", a.Zip},
		{"country", "Country", a.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return domain.NewValidationError(r.field, "Please enter your "+r.label)
		}
	}

	if !domain.IsValidEmail(req.Email) {
		return domain.NewValidationError("email", "Please enter a valid email address")
	}

	if !pricing.IsPaymentMethod(paymentMethod) {
		return domain.NewValidationError("paymentMethod", "Please select a payment method")
	}

	if paymentMethod == pricing.PaymentCard {
		if len(digitsOnly(req.Card.Number)) < 16 {
			return domain.NewValidationError("cardNumber", "Please enter a valid card number")
		}
		if strings.TrimSpace(req.Card.Name) == "" {
			return domain.NewValidationError("cardName", "Please enter the name on card")
		}
		if len(req.Card.Expiry) < 5 {
			return domain.NewValidationError("cardExpiry", "Please enter a valid expiry date")
		}
		if len(req.Card.CVV) < 3 {
			return domain.NewValidationError("cardCvv", "Please enter a valid CVV")
		}
	}

	if !req.AgreeTerms {
		return domain.NewValidationError("agreeTerms", "Please agree to the Terms & Conditions")
	}
	return nil
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// PlaceOrder validates, waits out the processing delay, appends the order to
// the log and takes the ordered lines out of the cart. Nothing is written when validation fails.
func (r *Recorder) PlaceOrder(ctx context.Context, state pricing.CheckoutState, lines []models.CartLine, req PlaceOrderRequest) (models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.place")

	payment := req.PaymentMethod
	if payment == "" {
		payment = state.PaymentMethod
	}
	if err := Validate(lines, req, payment); err != nil {
		l.Info("order_rejected", "field", domain.FieldOf(err))
		return models.Order{}, err
	}

	if r.Delay > 0 {
		t := time.NewTimer(r.Delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return models.Order{}, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load(ctx)
	if err != nil {
		return models.Order{}, err
	}

	now := r.Now()
	number, err := r.nextNumber(now, orders)
	if err != nil {
		l.Error("order_number_error", "error", err)
		return models.Order{}, err
	}

	o := models.Order{
		OrderNumber:     number,
		Date:            now.UTC(),
		Items:           slices.Clone(lines),
		Subtotal:        state.Subtotal,
		Shipping:        state.Shipping,
		Tax:             state.Tax,
		Discount:        state.Discount,
		CODFee:          state.CODFee,
		Coupon:          state.Coupon,
		Total:           state.Total,
		ShippingAddress: req.ShippingAddress,
		Email:           strings.TrimSpace(req.Email),
		Phone:           strings.TrimSpace(req.Phone),
		PaymentMethod:   payment,
		Status:          models.OrderStatusConfirmed,
	}

	if err := kvstore.SetJSON(ctx, r.Store, kvstore.KeyOrders, append(orders, o)); err != nil {
		l.Error("order_save_error", "error", err)
		return models.Order{}, err
	}
	if err := r.Cart.RemoveOrdered(ctx, lines); err != nil {
		l.Error("cart_release_error", "order_number", number, "error", err)
		return models.Order{}, fmt.Errorf("order %s saved, release cart: %w", number, err)
	}

	l.Info("order_placed", "order_number", number, "total", o.Total, "items", len(o.Items))
	mykafka.Emit(ctx, r.Events, mykafka.TopicOrder, number, mykafka.NewEvent("order_placed", map[string]any{
		"orderNumber": number,
		"total":       o.Total,
		"email":       o.Email,
	}))
	return o, nil
}

func (r *Recorder) nextNumber(now time.Time, existing []models.Order) (string, error) {
	taken := make(map[string]struct{}, len(existing))
	for _, o := range existing {
		taken[o.OrderNumber] = struct{}{}
	}
	for i := 0; i < maxNumberAttempts; i++ {
		n := fmt.Sprintf("#HG-%d-%d", now.Year(), r.Draw())
		if _, dup := taken[n]; !dup {
			return n, nil
		}
	}
	return "", domain.ErrOrderNumberExhausted
}

func (r *Recorder) load(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if _, err := kvstore.GetJSON(ctx, r.Store, kvstore.KeyOrders, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (r *Recorder) Orders(ctx context.Context) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// OrdersFor matches the contact email case-insensitively.
func (r *Recorder) OrdersFor(ctx context.Context, email string) ([]models.Order, error) {
	orders, err := r.Orders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Order, 0)
	for _, o := range orders {
		if strings.EqualFold(o.Email, strings.TrimSpace(email)) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *Recorder) Find(ctx context.Context, number string) (models.Order, error) {
	orders, err := r.Orders(ctx)
	if err != nil {
		return models.Order{}, err
	}
	for _, o := range orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return models.Order{}, fmt.Errorf("order %s: %w", number, domain.ErrOrderNotFound)
}
