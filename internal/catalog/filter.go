package catalog

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/Skotchmaster/hg_store/internal/models"
)

const (
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortNameAsc   = "name-asc"
	SortNameDesc  = "name-desc"
	SortRating    = "rating"
	SortNewest    = "newest"
)

// Filter mirrors the shop page controls. Zero MaxPrice means no upper bound.
type Filter struct {
	Category string
	MinPrice float64
	MaxPrice float64
	Search   string
}

func FilterProducts(products []models.Product, f Filter) []models.Product {
	maxPrice := f.MaxPrice
	if maxPrice <= 0 {
		maxPrice = math.Inf(1)
	}
	query := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f.Category != "" && f.Category != "all" && p.Category != f.Category {
			continue
		}
		if price := p.EffectivePrice(); price < f.MinPrice || price > maxPrice {
			continue
		}
		if query != "" && !matches(p, query, false) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Search is the quick search box: name, category, description and tags,
// case-insensitive substring match. A blank query returns nothing.
func Search(products []models.Product, query string) []models.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []models.Product{}
	}

	out := make([]models.Product, 0)
	for _, p := range products {
		if matches(p, q, true) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p models.Product, q string, withCategory bool) bool {
	if strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	if withCategory && strings.Contains(strings.ToLower(p.Category), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// SortProducts returns a sorted copy. Unknown keys keep the input order.
func SortProducts(products []models.Product, by string) []models.Product {
	sorted := slices.Clone(products)

	var less func(a, b models.Product) int
	switch by {
	case SortPriceLow:
		less = func(a, b models.Product) int { return cmp.Compare(a.EffectivePrice(), b.EffectivePrice()) }
	case SortPriceHigh:
		less = func(a, b models.Product) int { return cmp.Compare(b.EffectivePrice(), a.EffectivePrice()) }
	case SortNameAsc:
		less = func(a, b models.Product) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	case SortNameDesc:
		less = func(a, b models.Product) int { return strings.Compare(strings.ToLower(b.Name), strings.ToLower(a.Name)) }
	case SortRating:
		less = func(a, b models.Product) int { return cmp.Compare(b.Rating, a.Rating) }
	case SortNewest:
		less = func(a, b models.Product) int { return cmp.Compare(b.ID, a.ID) }
	default:
		return sorted
	}

	slices.SortStableFunc(sorted, less)
	return sorted
}
