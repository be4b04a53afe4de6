package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hg_store/internal/logging"
	"github.com/Skotchmaster/hg_store/internal/service/wishlist"
)

type WishlistHandler struct {
	Wishlist *wishlist.Set
	Catalog  Catalog
}

func (h *WishlistHandler) GetWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.wishlist")

	ids, err := h.Wishlist.Items(ctx)
	if err != nil {
		return fail(c, l, "get_wishlist_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": ids, "count": len(ids)})
}

func (h *WishlistHandler) AddToWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.wishlist")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return badRequest(c, l, "add_to_wishlist_error", "invalid product id")
	}
	if _, err := h.Catalog.Product(ctx, id); err != nil {
		return fail(c, l, "add_to_wishlist_error", err)
	}

	added, err := h.Wishlist.AddItem(ctx, id)
	if err != nil {
		return fail(c, l, "add_to_wishlist_error", err)
	}
	code := http.StatusCreated
	if !added {
		code = http.StatusOK
	}
	return c.JSON(code, echo.Map{"id": id, "added": added})
}

func (h *WishlistHandler) RemoveFromWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "remove.wishlist")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return badRequest(c, l, "remove_from_wishlist_error", "invalid product id")
	}

	removed, err := h.Wishlist.RemoveItem(ctx, id)
	if err != nil {
		return fail(c, l, "remove_from_wishlist_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "removed": removed})
}

func (h *WishlistHandler) ToggleWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "toggle.wishlist")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return badRequest(c, l, "toggle_wishlist_error", "invalid product id")
	}
	if _, err := h.Catalog.Product(ctx, id); err != nil {
		return fail(c, l, "toggle_wishlist_error", err)
	}

	in, err := h.Wishlist.ToggleItem(ctx, id)
	if err != nil {
		return fail(c, l, "toggle_wishlist_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "inWishlist": in})
}
