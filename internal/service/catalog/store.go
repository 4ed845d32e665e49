package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/kapu/gift-ai-go/internal/domain"
)

const (
	defaultSearchLimit = 5

	reasonDemoMode = "Recommended based on general popularity (Demo Mode)"
	reasonPopular  = "Recommended based on general popularity"
)

// Store is the catalog capability used by the recommendation pipeline. No
// method returns an error: implementations substitute their fallback list.
type Store interface {
	GetAllProducts(ctx context.Context) []domain.CatalogProduct
	SearchProducts(ctx context.Context, query SearchQuery) []domain.GiftSuggestion
	ListProducts(ctx context.Context, filter domain.ProductFilter) []domain.CatalogProduct
	Mode() string
}

// SearchQuery is the keyword search of the legacy/fallback path. Limit <= 0
// means the default of 5.
type SearchQuery struct {
	Interests []string
	Budget    string
	Limit     int
}

// snapshotCache is the subset of the Redis cache the catalog needs.
type snapshotCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// search applies the keyword policy to pool. When nothing matches, the
// unfiltered pool is returned so callers never see an empty result.
func search(pool []domain.CatalogProduct, query SearchQuery, demo bool) []domain.GiftSuggestion {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	matched := make([]domain.CatalogProduct, 0, len(pool))
	for _, p := range pool {
		if p.MatchesAnyInterest(query.Interests) {
			matched = append(matched, p)
		}
	}

	source := matched
	reason := "Matched with interests: " + strings.Join(query.Interests, ", ")
	if len(matched) == 0 {
		source = pool
		reason = reasonPopular
	}
	if demo {
		reason = reasonDemoMode
	}

	if len(source) > limit {
		source = source[:limit]
	}

	out := make([]domain.GiftSuggestion, 0, len(source))
	for _, p := range source {
		out = append(out, p.ToSuggestion(reason))
	}
	return out
}

// filterPage applies filter and pagination to an in-memory list already
// ordered newest first.
func filterPage(pool []domain.CatalogProduct, filter domain.ProductFilter) []domain.CatalogProduct {
	matched := make([]domain.CatalogProduct, 0, len(pool))
	for _, p := range pool {
		if filter.Matches(p) {
			matched = append(matched, p)
		}
	}

	if filter.Offset >= len(matched) {
		return []domain.CatalogProduct{}
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched
}
