package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/hg_store/internal/catalog"
	"github.com/Skotchmaster/hg_store/internal/domain"
	"github.com/Skotchmaster/hg_store/internal/models"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{err: domain.NewValidationError("email", "bad"), want: http.StatusUnprocessableEntity},
		{err: fmt.Errorf("wrapped: %w", domain.ErrInvalidFormat), want: http.StatusBadRequest},
		{err: domain.ErrProductNotFound, want: http.StatusNotFound},
		{err: domain.ErrIndexOutOfRange, want: http.StatusNotFound},
		{err: domain.ErrOrderNotFound, want: http.StatusNotFound},
		{err: domain.ErrDuplicateEmail, want: http.StatusConflict},
		{err: domain.ErrAlreadySubscribed, want: http.StatusConflict},
		{err: domain.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{err: &domain.CatalogLoadError{Source: "x", Err: errors.New("down")}, want: http.StatusBadGateway},
		{err: context.DeadlineExceeded, want: http.StatusServiceUnavailable},
		{err: errors.New("disk on fire"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func newCatalog() *catalog.Loader {
	return catalog.NewLoader("../catalog/testdata/products.json", 0)
}

func TestGetProduct(t *testing.T) {
	t.Parallel()

	h := &ProductHandler{Catalog: newCatalog()}

	tests := []struct {
		name string
		id   string
		code int
	}{
		{name: "found", id: "2", code: http.StatusOK},
		{name: "missing", id: "99", code: http.StatusNotFound},
		{name: "not a number", id: "abc", code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.id)

			require.NoError(t, h.GetProduct(c))
			assert.Equal(t, tt.code, rec.Code)

			if tt.code != http.StatusOK {
				var body Response
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "error", body.Status)
			}
		})
	}
}

func TestGetProducts_FilterSortPage(t *testing.T) {
	t.Parallel()

	h := &ProductHandler{Catalog: newCatalog()}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?category=pottery&sort=price-high&size=1&page=2", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.GetProducts(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Total    int              `json:"total"`
		Page     int              `json:"page"`
		Size     int              `json:"size"`
		Products []models.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, 2, body.Page)
	require.Len(t, body.Products, 1)
	assert.Equal(t, 1, body.Products[0].ID)
}

type brokenIndex struct{}

func (brokenIndex) Search(context.Context, string, int, int) (int64, []models.Product, error) {
	return 0, nil, errors.New("cluster red")
}

func TestSearch_FallsBackToCatalog(t *testing.T) {
	t.Parallel()

	for name, h := range map[string]*SearchHandler{
		"no index":     {Catalog: newCatalog()},
		"broken index": {Catalog: newCatalog(), Index: brokenIndex{}},
	} {
		h := h
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/?q=scarf", nil)
			rec := httptest.NewRecorder()
			require.NoError(t, h.Search(e.NewContext(req, rec)))
			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				Total    int              `json:"total"`
				Products []models.Product `json:"products"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, 1, body.Total)
			assert.Equal(t, "Hand-Woven Scarf", body.Products[0].Name)
		})
	}
}
