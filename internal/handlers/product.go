package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hg_store/internal/catalog"
	"github.com/Skotchmaster/hg_store/internal/logging"
	"github.com/Skotchmaster/hg_store/internal/models"
	"github.com/Skotchmaster/hg_store/internal/util"
)

type Catalog interface {
	Products(ctx context.Context) ([]models.Product, error)
	Product(ctx context.Context, id int) (models.Product, error)
}

type ProductHandler struct {
	Catalog Catalog
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.product")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return badRequest(c, l, "get_product_error", "invalid product id")
	}

	product, err := h.Catalog.Product(ctx, id)
	if err != nil {
		return fail(c, l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

// GetProducts serves the shop grid: filter, then sort, then paginate.
func (h *ProductHandler) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.products")

	all, err := h.Catalog.Products(ctx)
	if err != nil {
		return fail(c, l, "get_products_error", err)
	}

	filtered := catalog.FilterProducts(all, catalog.Filter{
		Category: c.QueryParam("category"),
		MinPrice: parseFloatDefault(c.QueryParam("minPrice"), 0),
		MaxPrice: parseFloatDefault(c.QueryParam("maxPrice"), 0),
		Search:   c.QueryParam("search"),
	})
	sorted := catalog.SortProducts(filtered, c.QueryParam("sort"))

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	_, limit := util.Calculate(page, size)

	return c.JSON(http.StatusOK, echo.Map{
		"total":    len(sorted),
		"page":     max(page, 1),
		"size":     limit,
		"products": util.Page(sorted, page, size),
	})
}
