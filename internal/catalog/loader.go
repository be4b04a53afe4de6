package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/hg_store/internal/domain"
	"github.com/Skotchmaster/hg_store/internal/logging"
	"github.com/Skotchmaster/hg_store/internal/models"
)

// Loader reads the product table once and serves it from memory afterwards.
// A failed load is not cached, the next call tries again.
type Loader struct {
	source     string
	httpClient *http.Client

	mu       sync.Mutex
	loaded   bool
	products []models.Product
	byID     map[int]int
}

// NewLoader accepts an http(s) URL or a file path. A zero timeout means none.
func NewLoader(source string, timeout time.Duration) *Loader {
	return &Loader{
		source: source,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (l *Loader) Source() string {
	return l.source
}

func (l *Loader) Products(ctx context.Context) ([]models.Product, error) {
	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(l.products), nil
}

func (l *Loader) Product(ctx context.Context, id int) (models.Product, error) {
	if err := l.ensureLoaded(ctx); err != nil {
		return models.Product{}, err
	}
	i, ok := l.byID[id]
	if !ok {
		return models.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrProductNotFound)
	}
	return l.products[i], nil
}

func (l *Loader) ensureLoaded(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		return nil
	}

	log := logging.FromContext(ctx).With("svc", "catalog.load", "source", l.source)

	body, err := l.fetch(ctx)
	if err != nil {
		log.Error("catalog_load_failed", "error", err)
		return &domain.CatalogLoadError{Source: l.source, Err: err}
	}

	var doc models.Catalog
	if err := json.Unmarshal(body, &doc); err != nil {
		log.Error("catalog_load_failed", "reason", "malformed json", "error", err)
		return &domain.CatalogLoadError{Source: l.source, Err: fmt.Errorf("decode: %w", err)}
	}

	byID := make(map[int]int, len(doc.Products))
	for i, p := range doc.Products {
		byID[p.ID] = i
	}

	l.products = doc.Products
	l.byID = byID
	l.loaded = true
	log.Info("catalog_loaded", "products", len(doc.Products))
	return nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	if !strings.HasPrefix(l.source, "http://") && !strings.HasPrefix(l.source, "https://") {
		return os.ReadFile(l.source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
