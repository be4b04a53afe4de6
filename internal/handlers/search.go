package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hg_store/internal/catalog"
	"github.com/Skotchmaster/hg_store/internal/logging"
	"github.com/Skotchmaster/hg_store/internal/models"
	"github.com/Skotchmaster/hg_store/internal/util"
)

type ProductSearcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

// SearchHandler uses the Elasticsearch index when one is configured and the
// in-memory catalog match otherwise.
type SearchHandler struct {
	Catalog Catalog
	Index   ProductSearcher
}

func (h *SearchHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "search")

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusOK, echo.Map{"total": 0, "products": []models.Product{}})
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	if h.Index != nil {
		total, products, err := h.Index.Search(ctx, q, from, limit)
		if err == nil {
			return c.JSON(http.StatusOK, echo.Map{"total": total, "products": products})
		}
		l.Warn("es_search_error", "error", err, "fallback", "catalog")
	}

	all, err := h.Catalog.Products(ctx)
	if err != nil {
		return fail(c, l, "search_error", err)
	}
	found := catalog.Search(all, q)
	return c.JSON(http.StatusOK, echo.Map{"total": len(found), "products": util.Page(found, page, size)})
}
