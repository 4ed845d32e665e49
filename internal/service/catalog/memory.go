package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kapu/gift-ai-go/internal/domain"
)

//go:embed data/fallback_products.json
var fallbackJSON []byte

// fallbackEpoch anchors CreatedAt of the built-in list so ordering is stable.
var fallbackEpoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// MemoryStore serves the built-in product list. It is the catalog when no
// database is configured and the substitute when the database fails.
type MemoryStore struct {
	products []domain.CatalogProduct
}

// LoadFallbackProducts decodes the built-in list and stamps every product
// with an affiliate link for marketplace and tag.
func LoadFallbackProducts(marketplace, tag string) ([]domain.CatalogProduct, error) {
	var products []domain.CatalogProduct
	if err := json.Unmarshal(fallbackJSON, &products); err != nil {
		return nil, fmt.Errorf("failed to decode fallback catalog: %w", err)
	}

	for i := range products {
		p := &products[i]
		p.AffiliateLink = domain.BuildAffiliateLink(marketplace, p.ASIN, tag)
		if p.PriceCents != nil {
			p.PriceBucket = domain.PriceBucketFor(*p.PriceCents)
		}
		if p.Currency == "" {
			p.Currency = "USD"
		}
		// earlier entries are newer
		p.CreatedAt = fallbackEpoch.Add(-time.Duration(i) * time.Hour)
	}
	return products, nil
}

func NewMemoryStore(marketplace, tag string) (*MemoryStore, error) {
	products, err := LoadFallbackProducts(marketplace, tag)
	if err != nil {
		return nil, err
	}
	return NewMemoryStoreWith(products), nil
}

// NewMemoryStoreWith serves the given products, newest first.
func NewMemoryStoreWith(products []domain.CatalogProduct) *MemoryStore {
	sorted := make([]domain.CatalogProduct, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return &MemoryStore{products: sorted}
}

func (m *MemoryStore) GetAllProducts(_ context.Context) []domain.CatalogProduct {
	out := make([]domain.CatalogProduct, len(m.products))
	copy(out, m.products)
	return out
}

func (m *MemoryStore) SearchProducts(_ context.Context, query SearchQuery) []domain.GiftSuggestion {
	return search(m.products, query, true)
}

func (m *MemoryStore) ListProducts(_ context.Context, filter domain.ProductFilter) []domain.CatalogProduct {
	return filterPage(m.products, filter)
}

func (m *MemoryStore) Mode() string {
	return "memory"
}
