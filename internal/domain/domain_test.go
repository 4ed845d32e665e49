package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHandle(t *testing.T) {
	assert.Equal(t, "joana", NormalizeHandle("@joana"))
	assert.Equal(t, "joana", NormalizeHandle("  joana "))
	assert.Equal(t, "@joana", DisplayHandle("joana"))
	assert.Equal(t, "@joana", DisplayHandle("@joana"))
}

func TestPriceBucketFor(t *testing.T) {
	cases := map[int64]string{
		0:     BucketUpTo30,
		3000:  BucketUpTo30,
		3001:  BucketUpTo50,
		5000:  BucketUpTo50,
		9990:  BucketUpTo100,
		15000: Bucket100To200,
		20001: BucketOver200,
		50000: BucketOver200,
		50001: BucketOver500,
	}
	for cents, want := range cases {
		assert.Equal(t, want, PriceBucketFor(cents), "cents=%d", cents)
	}
}

func TestBucketsForBudget(t *testing.T) {
	assert.Equal(t, []string{BucketUpTo30, BucketUpTo50}, BucketsForBudget("LOW"))
	assert.Equal(t, []string{Bucket100To200}, BucketsForBudget("100-200"))
	assert.Nil(t, BucketsForBudget("Any"))
	assert.Nil(t, BucketsForBudget(""))
}

func TestAffiliateLinks(t *testing.T) {
	link := BuildAffiliateLink("https://www.amazon.com.br/", "B08KTZ8249", "presentaiaai-20")
	assert.Equal(t, "https://www.amazon.com.br/dp/B08KTZ8249?tag=presentaiaai-20", link)
	require.NoError(t, ValidateAffiliateLink(link, "presentaiaai-20"))

	assert.Error(t, ValidateAffiliateLink(link, "other-20"))
	assert.Error(t, ValidateAffiliateLink("/dp/B08KTZ8249?tag=presentaiaai-20", "presentaiaai-20"))
	assert.Error(t, ValidateAffiliateLink("ftp://amazon.com/dp/x?tag=presentaiaai-20", "presentaiaai-20"))

	rewritten, err := EnsureAffiliateTag("https://www.amazon.com/dp/B000P4D5HG?tag=old-20&th=1", "gift-ai-20")
	require.NoError(t, err)
	require.NoError(t, ValidateAffiliateLink(rewritten, "gift-ai-20"))
	assert.Contains(t, rewritten, "th=1")
}

func TestMatchesAnyInterest(t *testing.T) {
	p := CatalogProduct{
		Title:       "Kit Churrasco Inox",
		Category:    "Casa",
		Description: "Facas e garfos para assar carne",
		Tags:        []string{"BBQ", "Outdoor"},
	}

	assert.True(t, p.MatchesAnyInterest([]string{"outdoor"}), "tag substring")
	assert.True(t, p.MatchesAnyInterest([]string{"CHURRASCO"}), "title")
	assert.True(t, p.MatchesAnyInterest([]string{"carne"}), "description")
	assert.False(t, p.MatchesAnyInterest([]string{"cerveja"}))
	assert.False(t, p.MatchesAnyInterest(nil))
	assert.False(t, p.MatchesAnyInterest([]string{"  "}))
}

func TestToSuggestionDefaults(t *testing.T) {
	p := CatalogProduct{ID: "7", Title: "Moleskine", AffiliateLink: "https://x/dp/1?tag=t"}

	s := p.ToSuggestion("porque sim")
	assert.Equal(t, "Moleskine", s.Description)
	assert.Equal(t, "Ver preço", s.PriceRange)
	assert.Equal(t, "porque sim", s.Reason)

	p.PriceBucket = BucketUpTo50
	assert.Equal(t, BucketUpTo50, p.ToSuggestion("").PriceRange)
}

func TestProductFilterMatches(t *testing.T) {
	p := CatalogProduct{Title: "Hario V60", Category: "Home & Kitchen", PriceBucket: BucketUpTo30}

	assert.True(t, ProductFilter{}.Matches(p))
	assert.True(t, ProductFilter{Category: "kitchen", Search: "v60"}.Matches(p))
	assert.False(t, ProductFilter{PriceBucket: BucketUpTo50}.Matches(p))
	assert.True(t, ProductFilter{Category: "HOME &"}.Matches(p))
	assert.False(t, ProductFilter{Search: "_"}.Matches(p))
	assert.False(t, ProductFilter{Search: "%"}.Matches(p))
	assert.Equal(t, 50, ProductFilter{}.WithDefaults(50).Limit)
}

func TestRecommendationCompleteness(t *testing.T) {
	var nilRec *GiftRecommendation
	assert.False(t, nilRec.IsComplete())

	rec := &GiftRecommendation{Sections: []Section{{Products: []GiftSuggestion{{ID: "1"}}}}}
	assert.True(t, rec.IsComplete())
	assert.Equal(t, []string{"1"}, rec.ProductIDs())

	rec.Sections = append(rec.Sections, Section{})
	assert.False(t, rec.IsComplete())
}
