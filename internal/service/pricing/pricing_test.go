package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/hg_store/internal/domain"
	"github.com/Skotchmaster/hg_store/internal/models"
)

func line(id int, price, sale float64, qty int) models.CartLine {
	return models.CartLine{
		ProductID: id,
		Quantity:  qty,
		Product:   models.Product{ID: id, Price: price, SalePrice: sale},
	}
}

func coupon(t *testing.T, code string) *Coupon {
	t.Helper()
	c, ok := LookupCoupon(code)
	require.True(t, ok, code)
	return &c
}

func TestEngine_Compute(t *testing.T) {
	t.Parallel()

	mug := line(1, 20, 0, 2)
	scarf := line(2, 65, 52, 1)
	vase := line(4, 120, 0, 1)

	tests := []struct {
		name string
		in   Input
		want CheckoutState
	}{
		{
			name: "percent coupon",
			in:   Input{Lines: []models.CartLine{mug}, Coupon: coupon(t, "save10")},
			want: CheckoutState{Subtotal: 40, Discount: 4, Shipping: 5.99, Tax: 2.88, Total: 44.87, Coupon: "SAVE10"},
		},
		{
			name: "no coupon",
			in:   Input{Lines: []models.CartLine{mug}},
			want: CheckoutState{Subtotal: 40, Shipping: 5.99, Tax: 3.2, Total: 49.19},
		},
		{
			name: "cash on delivery fee",
			in:   Input{Lines: []models.CartLine{mug}, PaymentMethod: PaymentCOD},
			want: CheckoutState{Subtotal: 40, Shipping: 5.99, Tax: 3.2, CODFee: 2.99, Total: 52.18, PaymentMethod: PaymentCOD},
		},
		{
			name: "express",
			in:   Input{Lines: []models.CartLine{mug}, ShippingMethod: ShippingExpress},
			want: CheckoutState{Subtotal: 40, Shipping: 15, Tax: 3.2, Total: 58.2, ShippingMethod: ShippingExpress},
		},
		{
			name: "free over threshold",
			in:   Input{Lines: []models.CartLine{vase}, ShippingMethod: ShippingExpress},
			want: CheckoutState{Subtotal: 120, Shipping: 0, Tax: 9.6, Total: 129.6, ShippingMethod: ShippingExpress},
		},
		{
			name: "sale price and rounding",
			in:   Input{Lines: []models.CartLine{scarf}, Coupon: coupon(t, "SAVE20")},
			want: CheckoutState{Subtotal: 52, Discount: 10.4, Shipping: 5.99, Tax: 3.33, Total: 50.92, Coupon: "SAVE20"},
		},
		{
			name: "fixed coupon",
			in:   Input{Lines: []models.CartLine{line(5, 80, 0, 1)}, Coupon: coupon(t, "FLAT15")},
			want: CheckoutState{Subtotal: 80, Discount: 15, Shipping: 5.99, Tax: 5.2, Total: 76.19, Coupon: "FLAT15"},
		},
		{
			name: "fixed coupon clamped to subtotal",
			in: Input{
				Lines:  []models.CartLine{line(6, 10, 0, 1)},
				Coupon: &Coupon{Code: "BIG", Kind: CouponFixed, Value: decimal.NewFromInt(15)},
			},
			want: CheckoutState{Subtotal: 10, Discount: 10, Shipping: 5.99, Tax: 0, Total: 5.99, Coupon: "BIG"},
		},
		{
			name: "shipping coupon",
			in: Input{
				Lines:  []models.CartLine{mug},
				Coupon: &Coupon{Code: "SHIP", Kind: CouponShipping},
			},
			want: CheckoutState{Subtotal: 40, Shipping: 0, Tax: 3.2, Total: 43.2, Coupon: "SHIP"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Engine{}.Compute(tt.in)
			assert.Equal(t, tt.want.Subtotal, got.Subtotal, "subtotal")
			assert.Equal(t, tt.want.Discount, got.Discount, "discount")
			assert.Equal(t, tt.want.Shipping, got.Shipping, "shipping")
			assert.Equal(t, tt.want.Tax, got.Tax, "tax")
			assert.Equal(t, tt.want.CODFee, got.CODFee, "cod fee")
			assert.Equal(t, tt.want.Total, got.Total, "total")
			assert.Equal(t, tt.want.Coupon, got.Coupon)
		})
	}
}

func TestEngine_Defaults(t *testing.T) {
	t.Parallel()

	got := Engine{}.Summary(nil)
	assert.Equal(t, ShippingStandard, got.ShippingMethod)
	assert.Equal(t, PaymentCard, got.PaymentMethod)
	assert.Zero(t, got.Subtotal)
	assert.Zero(t, got.ItemCount)

	got = Engine{}.Compute(Input{ShippingMethod: "teleport", PaymentMethod: "barter"})
	assert.Equal(t, ShippingStandard, got.ShippingMethod)
	assert.Equal(t, PaymentCard, got.PaymentMethod)
}

type fixedCart []models.CartLine

func (f fixedCart) Lines(context.Context) ([]models.CartLine, error) { return f, nil }

func TestCheckout_ApplyCoupon(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := NewCheckout(fixedCart{line(1, 20, 0, 2)})

	tests := []struct {
		name string
		code string
	}{
		{name: "empty", code: "   "},
		{name: "unknown", code: "BOGUS"},
		{name: "below minimum", code: "SAVE20"},
	}
	for _, tt := range tests {
		_, err := c.ApplyCoupon(ctx, tt.code)
		require.ErrorIs(t, err, domain.ErrValidation, tt.name)
		assert.Equal(t, "coupon", domain.FieldOf(err), tt.name)
	}

	st, _, err := c.State(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Coupon, "failed applications leave state unchanged")

	st, err = c.ApplyCoupon(ctx, "  welcome ")
	require.NoError(t, err)
	assert.Equal(t, "WELCOME", st.Coupon)
	assert.Equal(t, 6.0, st.Discount)

	st, err = c.ApplyCoupon(ctx, "save10")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", st.Coupon)
	assert.Equal(t, 44.87, st.Total)

	_, err = c.ApplyCoupon(ctx, "FLAT15")
	require.Error(t, err)
	st, _, err = c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", st.Coupon)

	st, err = c.RemoveCoupon(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Coupon)
	assert.Zero(t, st.Discount)
}

func TestCheckout_Selections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := NewCheckout(fixedCart{line(1, 20, 0, 2)})

	_, err := c.SelectShipping(ctx, "drone")
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = c.SelectPayment(ctx, "bitcoin")
	require.ErrorIs(t, err, domain.ErrValidation)

	st, err := c.SelectShipping(ctx, ShippingFree)
	require.NoError(t, err)
	assert.Zero(t, st.Shipping)

	st, err = c.SelectPayment(ctx, PaymentCOD)
	require.NoError(t, err)
	assert.Equal(t, 2.99, st.CODFee)
	assert.Equal(t, 46.19, st.Total)

	c.Reset()
	st, _, err = c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, ShippingStandard, st.ShippingMethod)
	assert.Equal(t, PaymentCard, st.PaymentMethod)
}

func TestCheckout_CouponMinimums(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		code     string
		below    float64 // zero when the coupon has no minimum
		at       float64
		discount float64
		shipping float64
	}{
		{code: "SAVE10", at: 0, discount: 0, shipping: 5.99},
		{code: "WELCOME", at: 0, discount: 0, shipping: 5.99},
		{code: "SAVE20", below: 49.99, at: 50, discount: 10, shipping: 5.99},
		{code: "FLAT15", below: 74.99, at: 75, discount: 15, shipping: 5.99},
		{code: "FREESHIP", below: 99.99, at: 100, discount: 0, shipping: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()

			assert.True(t, coupon(t, tt.code).MinOrder.Equal(decimal.NewFromFloat(tt.at)))

			if tt.below > 0 {
				c := NewCheckout(fixedCart{line(1, tt.below, 0, 1)})
				before, _, err := c.State(ctx)
				require.NoError(t, err)

				_, err = c.ApplyCoupon(ctx, tt.code)
				require.ErrorIs(t, err, domain.ErrValidation)
				assert.Equal(t, "coupon", domain.FieldOf(err))

				after, _, err := c.State(ctx)
				require.NoError(t, err)
				assert.Equal(t, before, after)
			}

			var lines fixedCart
			if tt.at > 0 {
				lines = fixedCart{line(1, tt.at, 0, 1)}
			}
			c := NewCheckout(lines)
			st, err := c.ApplyCoupon(ctx, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.code, st.Coupon)
			assert.Equal(t, tt.discount, st.Discount)
			assert.Equal(t, tt.shipping, st.Shipping)
		})
	}
}

func TestCheckout_QuoteLeavesSelection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := NewCheckout(fixedCart{line(1, 20, 0, 2)})

	st, lines, err := c.Quote(ctx, PaymentCOD)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, PaymentCOD, st.PaymentMethod)
	assert.Equal(t, 52.18, st.Total)

	st, _, err = c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, PaymentCard, st.PaymentMethod)
	assert.Equal(t, 49.19, st.Total)

	st, _, err = c.Quote(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, PaymentCard, st.PaymentMethod)
}
