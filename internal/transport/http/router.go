package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hg_store/internal/handlers"
)

type Deps struct {
	ProductHandler  *handlers.ProductHandler
	SearchHandler   *handlers.SearchHandler
	CartHandler     *handlers.CartHandler
	WishlistHandler *handlers.WishlistHandler
	CheckoutHandler *handlers.CheckoutHandler
	AuthHandler     *handlers.AuthHandler
	DataHandler     *handlers.DataHandler

	// Ready reports whether the durable store and catalog are usable.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, handlers.Response{Status: "error", Message: err.Error()})
			}
		}
		return c.NoContent(http.StatusOK)
	})

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)
	v1.GET("/me", d.AuthHandler.Me)

	v1.GET("/search", d.SearchHandler.Search)

	products := v1.Group("/products")

	products.GET("/:id", d.ProductHandler.GetProduct)
	products.GET("", d.ProductHandler.GetProducts)

	cart := v1.Group("/cart")

	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.PATCH("/:index", d.CartHandler.UpdateQuantity)
	cart.DELETE("/:index", d.CartHandler.RemoveFromCart)

	wishlist := v1.Group("/wishlist")

	wishlist.GET("", d.WishlistHandler.GetWishlist)
	wishlist.POST("/:id", d.WishlistHandler.AddToWishlist)
	wishlist.DELETE("/:id", d.WishlistHandler.RemoveFromWishlist)
	wishlist.POST("/:id/toggle", d.WishlistHandler.ToggleWishlist)

	checkout := v1.Group("/checkout")

	checkout.GET("", d.CheckoutHandler.GetCheckout)
	checkout.PUT("/shipping", d.CheckoutHandler.SelectShipping)
	checkout.PUT("/payment", d.CheckoutHandler.SelectPayment)
	checkout.POST("/coupon", d.CheckoutHandler.ApplyCoupon)
	checkout.DELETE("/coupon", d.CheckoutHandler.RemoveCoupon)
	checkout.POST("/order", d.CheckoutHandler.PlaceOrder)

	v1.GET("/orders", d.CheckoutHandler.GetOrders)
	v1.GET("/orders/:number", d.CheckoutHandler.GetOrder)

	v1.POST("/newsletter", d.DataHandler.Subscribe)

	data := v1.Group("/data")

	data.GET("/export", d.DataHandler.Export)
	data.POST("/import", d.DataHandler.Import)
	data.GET("/summary", d.DataHandler.Summary)
	data.DELETE("", d.DataHandler.Clear)
}
