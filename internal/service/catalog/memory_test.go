package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTag = "gift-ai-20"

func newMemory(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore("https://www.amazon.com", testTag)
	require.NoError(t, err)
	return store
}

func TestFallbackProductsCarryAffiliateTag(t *testing.T) {
	store := newMemory(t)

	products := store.GetAllProducts(context.Background())
	require.NotEmpty(t, products)
	for _, p := range products {
		assert.NoError(t, domain.ValidateAffiliateLink(p.AffiliateLink, testTag), p.Title)
		if p.PriceCents != nil {
			assert.GreaterOrEqual(t, *p.PriceCents, int64(0))
			assert.NotEmpty(t, p.PriceBucket)
		}
	}
}

func TestSearchNeverReturnsEmpty(t *testing.T) {
	store := newMemory(t)
	ctx := context.Background()

	for _, interests := range [][]string{nil, {}, {"nonexistent-interest-xyz"}} {
		got := store.SearchProducts(ctx, SearchQuery{Interests: interests, Budget: "medium"})
		assert.NotEmpty(t, got, "interests=%v", interests)
	}
}

func TestSearchCapsAtFive(t *testing.T) {
	store := newMemory(t)

	got := store.SearchProducts(context.Background(), SearchQuery{})
	assert.Len(t, got, 5)

	got = store.SearchProducts(context.Background(), SearchQuery{Limit: 10})
	assert.Len(t, got, 10)
}

func TestSearchPrefersMatches(t *testing.T) {
	store := newMemory(t)

	got := store.SearchProducts(context.Background(), SearchQuery{Interests: []string{"coffee"}})
	require.NotEmpty(t, got)
	for _, s := range got {
		assert.Contains(t, []string{"2", "10"}, s.ID)
		assert.Equal(t, reasonDemoMode, s.Reason)
	}
}

func TestListProductsNewestFirstWithPaging(t *testing.T) {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStoreWith([]domain.CatalogProduct{
		{ID: "old", Title: "Old mug", Category: "Kitchen", CreatedAt: base},
		{ID: "new", Title: "New mug", Category: "Kitchen", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "mid", Title: "Mid lamp", Category: "Decor", CreatedAt: base.Add(time.Hour)},
	})
	ctx := context.Background()

	all := store.ListProducts(ctx, domain.ProductFilter{Limit: 50})
	require.Len(t, all, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{all[0].ID, all[1].ID, all[2].ID})

	page := store.ListProducts(ctx, domain.ProductFilter{Search: "mug", Limit: 1, Offset: 1})
	require.Len(t, page, 1)
	assert.Equal(t, "old", page[0].ID)

	assert.Empty(t, store.ListProducts(ctx, domain.ProductFilter{Limit: 10, Offset: 10}))
}
