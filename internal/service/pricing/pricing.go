package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/hg_store/internal/models"
	"github.com/Skotchmaster/hg_store/internal/service/cart"
)

const (
	ShippingStandard = "standard"
	ShippingExpress  = "express"
	ShippingFree     = "free"

	PaymentCard   = "card"
	PaymentPayPal = "paypal"
	PaymentCOD    = "cod"
)

var (
	shippingRates = map[string]decimal.Decimal{
		ShippingStandard: decimal.RequireFromString("5.99"),
		ShippingExpress:  decimal.RequireFromString("15"),
		ShippingFree:     decimal.Zero,
	}

	paymentMethods = map[string]bool{PaymentCard: true, PaymentPayPal: true, PaymentCOD: true}

	codFee            = decimal.RequireFromString("2.99")
	taxRate           = decimal.RequireFromString("0.08")
	freeShippingFloor = decimal.NewFromInt(100)
	hundred           = decimal.NewFromInt(100)
)

func IsShippingMethod(m string) bool {
	_, ok := shippingRates[m]
	return ok
}

func IsPaymentMethod(m string) bool {
	return paymentMethods[m]
}

type CouponKind string

const (
	CouponPercent  CouponKind = "percent"
	CouponFixed    CouponKind = "fixed"
	CouponShipping CouponKind = "shipping"
)

type Coupon struct {
	Code     string          `json:"code"`
	Kind     CouponKind      `json:"type"`
	Value    decimal.Decimal `json:"value"`
	MinOrder decimal.Decimal `json:"minOrder"`
}

var coupons = map[string]Coupon{
	"SAVE10":   {Code: "SAVE10", Kind: CouponPercent, Value: decimal.NewFromInt(10), MinOrder: decimal.Zero},
	"SAVE20":   {Code: "SAVE20", Kind: CouponPercent, Value: decimal.NewFromInt(20), MinOrder: decimal.NewFromInt(50)},
	"FLAT15":   {Code: "FLAT15", Kind: CouponFixed, Value: decimal.NewFromInt(15), MinOrder: decimal.NewFromInt(75)},
	"FREESHIP": {Code: "FREESHIP", Kind: CouponShipping, Value: decimal.Zero, MinOrder: decimal.NewFromInt(100)},
	"WELCOME":  {Code: "WELCOME", Kind: CouponPercent, Value: decimal.NewFromInt(15), MinOrder: decimal.Zero},
}

// NormalizeCode trims and upper-cases a user supplied coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func LookupCoupon(code string) (Coupon, bool) {
	c, ok := coupons[NormalizeCode(code)]
	return c, ok
}

type Input struct {
	Lines          []models.CartLine
	ShippingMethod string
	PaymentMethod  string
	Coupon         *Coupon
}

// CheckoutState is derived from Input on every read and never stored.
type CheckoutState struct {
	Subtotal       float64 `json:"subtotal"`
	Discount       float64 `json:"discount"`
	Shipping       float64 `json:"shipping"`
	Tax            float64 `json:"tax"`
	CODFee         float64 `json:"codFee"`
	Total          float64 `json:"total"`
	Coupon         string  `json:"coupon,omitempty"`
	ShippingMethod string  `json:"shippingMethod"`
	PaymentMethod  string  `json:"paymentMethod"`
	ItemCount      int     `json:"itemCount"`
}

type Engine struct{}

func cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func (Engine) Compute(in Input) CheckoutState {
	method := in.ShippingMethod
	if !IsShippingMethod(method) {
		method = ShippingStandard
	}
	payment := in.PaymentMethod
	if !IsPaymentMethod(payment) {
		payment = PaymentCard
	}

	subtotal := cart.Subtotal(in.Lines)
	shipping := shippingRates[method]
	discount := decimal.Zero

	var code string
	if c := in.Coupon; c != nil {
		code = c.Code
		switch c.Kind {
		case CouponPercent:
			discount = subtotal.Mul(c.Value).Div(hundred)
		case CouponFixed:
			discount = decimal.Min(c.Value, subtotal)
		case CouponShipping:
			shipping = decimal.Zero
		}
	}
	if subtotal.GreaterThanOrEqual(freeShippingFloor) {
		shipping = decimal.Zero
	}

	fee := decimal.Zero
	if payment == PaymentCOD {
		fee = codFee
	}

	subtotal = cents(subtotal)
	discount = cents(discount)
	shipping = cents(shipping)
	tax := cents(subtotal.Sub(discount).Mul(taxRate))
	total := subtotal.Sub(discount).Add(shipping).Add(tax).Add(fee)

	count := 0
	for _, l := range in.Lines {
		count += l.Quantity
	}

	return CheckoutState{
		Subtotal:       subtotal.InexactFloat64(),
		Discount:       discount.InexactFloat64(),
		Shipping:       shipping.InexactFloat64(),
		Tax:            tax.InexactFloat64(),
		CODFee:         fee.InexactFloat64(),
		Total:          total.InexactFloat64(),
		Coupon:         code,
		ShippingMethod: method,
		PaymentMethod:  payment,
		ItemCount:      count,
	}
}

// Summary is the cart page breakdown: default shipping, no coupon.
func (e Engine) Summary(lines []models.CartLine) CheckoutState {
	return e.Compute(Input{Lines: lines, ShippingMethod: ShippingStandard, PaymentMethod: PaymentCard})
}
