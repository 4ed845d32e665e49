package recommendation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/kapu/gift-ai-go/internal/service/catalog"
	"github.com/kapu/gift-ai-go/internal/service/oracle"
	"github.com/kapu/gift-ai-go/internal/service/profile"
	apperrors "github.com/kapu/gift-ai-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSource struct {
	calls atomic.Int32
	err   error
	panic bool
}

func (c *countingSource) FetchProfile(_ context.Context, handle string) (*domain.AnalyzedProfile, error) {
	c.calls.Add(1)
	if c.panic {
		panic("scraper exploded")
	}
	if c.err != nil {
		return nil, c.err
	}
	return &domain.AnalyzedProfile{Username: handle, Biography: "live", RecentPosts: []domain.Post{}}, nil
}

func (c *countingSource) Mode() string { return "counting" }

type stubOracle struct {
	rec         *domain.GiftRecommendation
	err         error
	panic       bool
	waitForDone bool
	gotProfile  *domain.AnalyzedProfile
	gotCount    int
}

func (s *stubOracle) SelectGifts(ctx context.Context, p *domain.AnalyzedProfile, _ domain.UserPreferences, candidates []domain.CatalogProduct) (*domain.GiftRecommendation, error) {
	s.gotProfile = p
	s.gotCount = len(candidates)
	if s.panic {
		panic("nil map write")
	}
	if s.waitForDone {
		<-ctx.Done()
		return nil, apperrors.NewSelectionError("deadline", "stub", ctx.Err())
	}
	return s.rec, s.err
}

func (s *stubOracle) Mode() string { return "stub" }

type panickingStore struct{ catalog.Store }

func (panickingStore) GetAllProducts(context.Context) []domain.CatalogProduct {
	panic("driver bug")
}

func beerProducts(n int) []domain.CatalogProduct {
	out := make([]domain.CatalogProduct, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.CatalogProduct{
			ID:            fmt.Sprint(i),
			Title:         fmt.Sprintf("Cerveja %d", i),
			Category:      "Bebidas",
			Tags:          []string{"Cerveja"},
			AffiliateLink: "https://www.amazon.com/dp/X?tag=gift-ai-20",
			CreatedAt:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Duration(i) * time.Minute),
		})
	}
	return out
}

func fallbackMemory(t *testing.T) *catalog.MemoryStore {
	t.Helper()
	store, err := catalog.NewMemoryStore("https://www.amazon.com", "gift-ai-20")
	require.NoError(t, err)
	return store
}

func newService(src profile.Source, store catalog.Store, selector oracle.SelectionOracle) *Service {
	return NewService(src, store, selector, Config{
		ProfileTimeout: time.Second,
		CatalogTimeout: time.Second,
		OracleTimeout:  time.Second,
	}, zap.NewNop())
}

func assertComplete(t *testing.T, rec *domain.GiftRecommendation) {
	t.Helper()
	require.NotNil(t, rec)
	require.NotEmpty(t, rec.Sections)
	for _, s := range rec.Sections {
		assert.NotEmpty(t, s.Products, s.Title)
	}
}

func TestNoCredentialsUsesMockSummary(t *testing.T) {
	svc := newService(profile.NewMockSource(0), fallbackMemory(t), oracle.NewMockOracle(0))

	rec, err := svc.GenerateRecommendations(context.Background(), domain.UserPreferences{Username: "joana"}, nil)
	require.NoError(t, err)
	assertComplete(t, rec)

	assert.Equal(t, "Tech & Coffee", rec.Summary.MainInterest)
	assert.NotEmpty(t, rec.Summary.VisualStyle)
	assert.NotEmpty(t, rec.Summary.Lifestyle)
	assert.GreaterOrEqual(t, len(rec.Sections), 2)
	assert.LessOrEqual(t, len(rec.Sections), 4)
}

func TestSelectionFailureDegradesToTwoSections(t *testing.T) {
	store := catalog.NewMemoryStoreWith(beerProducts(12))
	selector := &stubOracle{err: apperrors.NewSelectionError("boom", "stub", nil)}
	svc := newService(profile.NewMockSource(0), store, selector)

	rec, err := svc.GenerateRecommendations(context.Background(), domain.UserPreferences{Username: "joana"}, nil)
	require.NoError(t, err)
	require.Len(t, rec.Sections, 2)

	assert.Equal(t, PrimaryFallbackTitle, rec.Sections[0].Title)
	assert.Equal(t, PopularFallbackTitle, rec.Sections[1].Title)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(rec.Sections[0].Products))
	assert.Equal(t, []string{"6", "7", "8", "9", "10"}, ids(rec.Sections[1].Products))
	assert.Equal(t, "Churrasco & Outdoor", rec.Summary.MainInterest)
	assert.Len(t, rec.Summary.Reasoning.KeyEvidence, 3)
}

func TestDegradedWithBuiltInCatalogFillsSecondSection(t *testing.T) {
	selector := &stubOracle{err: errors.New("unreachable")}
	svc := newService(profile.NewMockSource(0), fallbackMemory(t), selector)

	rec, err := svc.GenerateRecommendations(context.Background(), domain.UserPreferences{Username: "x"}, nil)
	require.NoError(t, err)
	assertComplete(t, rec)
	require.Len(t, rec.Sections, 2)

	first := ids(rec.Sections[0].Products)
	assert.LessOrEqual(t, len(first), 5)
	for _, id := range ids(rec.Sections[1].Products) {
		assert.NotContains(t, first, id)
	}
}

func TestDegradedWithTinyCatalogReusesFirstSlice(t *testing.T) {
	store := catalog.NewMemoryStoreWith(beerProducts(2))
	svc := newService(profile.NewMockSource(0), store, &stubOracle{err: errors.New("down")})

	rec, err := svc.GenerateRecommendations(context.Background(), domain.UserPreferences{Username: "x"}, nil)
	require.NoError(t, err)
	assertComplete(t, rec)
	assert.Equal(t, ids(rec.Sections[0].Products), ids(rec.Sections[1].Products))
}

func TestEmptyCatalogIsAnError(t *testing.T) {
	store := catalog.NewMemoryStoreWith(nil)
	svc := newService(profile.NewMockSource(0), store, oracle.NewMockOracle(0))

	_, err := svc.GenerateRecommendations(context.Background(), domain.UserPreferences{Username: "x"}, nil)
	assert.ErrorIs(t, err, ErrNoProducts)
}

func TestPreFetchedProfileSkipsSource(t *testing.T) {
	src := &countingSource{}
	selector := oracle.NewMockOracle(0)
	spy := &stubOracle{}
	svc := newService(src, fallbackMemory(t), spy)
	spy.rec, _ = selector.SelectGifts(context.Background(), nil, domain.UserPreferences{}, fallbackMemory(t).GetAllProducts(context.Background()))

	pre := &domain.AnalyzedProfile{Username: "pre", Biography: "prefetched"}
	_, err := svc.GenerateRecommendations(context.Background(), domain.UserPreferences{Username: "pre"}, pre)
	require.NoError(t, err)

	assert.Equal(t, int32(0), src.calls.Load())
	assert.Same(t, pre, spy.gotProfile)
}

func TestProfileFailureUsesMinimalProfile(t *testing.T) {
	for name, src := range map[string]*countingSource{
		"error": {err: errors.New("boom")},
		"panic": {panic: true},
	} {
		t.Run(name, func(t *testing.T) {
			spy := &stubOracle{err: errors.New("stop here")}
			svc := newService(src, fallbackMemory(t), spy)

			rec, err := svc.GenerateRecommendations(context.Background(), domain.UserPreferences{Username: "@ana"}, nil)
			require.NoError(t, err)
			assertComplete(t, rec)

			require.NotNil(t, spy.gotProfile)
			assert.Equal(t, "ana", spy.gotProfile.Username)
			assert.Zero(t, spy.gotProfile.Followers)
			assert.Empty(t, spy.gotProfile.RecentPosts)
		})
	}
}

func TestOraclePanicDegrades(t *testing.T) {
	svc := newService(profile.NewMockSource(0), fallbackMemory(t), &stubOracle{panic: true})

	rec, err := svc.GenerateRecommendations(context.Background(), domain.UserPreferences{Username: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, PrimaryFallbackTitle, rec.Sections[0].Title)
}

func TestCatalogPanicDegrades(t *testing.T) {
	store := panickingStore{Store: catalog.NewMemoryStoreWith(beerProducts(6))}
	spy := &stubOracle{}
	svc := newService(profile.NewMockSource(0), store, spy)

	rec, err := svc.GenerateRecommendations(context.Background(), domain.UserPreferences{Username: "x"}, nil)
	require.NoError(t, err)
	assertComplete(t, rec)
	assert.Nil(t, spy.gotProfile)
}

func TestIncompleteOracleResultDegrades(t *testing.T) {
	selector := &stubOracle{rec: &domain.GiftRecommendation{
		Sections: []domain.Section{{Title: "Vazia"}},
	}}
	svc := newService(profile.NewMockSource(0), fallbackMemory(t), selector)

	rec, err := svc.GenerateRecommendations(context.Background(), domain.UserPreferences{Username: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, PrimaryFallbackTitle, rec.Sections[0].Title)
}

func TestOracleTimeoutIsBounded(t *testing.T) {
	svc := NewService(profile.NewMockSource(0), fallbackMemory(t), &stubOracle{waitForDone: true}, Config{
		ProfileTimeout: time.Second,
		CatalogTimeout: time.Second,
		OracleTimeout:  30 * time.Millisecond,
	}, zap.NewNop())

	start := time.Now()
	rec, err := svc.GenerateRecommendations(context.Background(), domain.UserPreferences{Username: "x"}, nil)
	require.NoError(t, err)
	assertComplete(t, rec)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCancelledRequestStillGetsDegradedAnswer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newService(profile.NewMockSource(0), fallbackMemory(t), &stubOracle{waitForDone: true})
	rec, err := svc.GenerateRecommendations(ctx, domain.UserPreferences{Username: "x"}, nil)
	require.NoError(t, err)
	assertComplete(t, rec)
}

func TestAlwaysFailingOracleIsTotal(t *testing.T) {
	handles := []string{"", "a", "@b", "  c  ", "very.long_handle.123"}
	budgets := []string{"", "low", "medium", "high", "500+", "whatever"}

	svc := newService(profile.NewMockSource(0), fallbackMemory(t), &stubOracle{err: errors.New("always")})
	for _, h := range handles {
		for _, b := range budgets {
			rec, err := svc.GenerateRecommendations(context.Background(), domain.UserPreferences{Username: h, Budget: b}, nil)
			require.NoError(t, err)
			assertComplete(t, rec)
		}
	}
}

func TestPrefilterNarrowsByBudget(t *testing.T) {
	spy := &stubOracle{err: errors.New("inspect only")}
	svc := NewService(profile.NewMockSource(0), fallbackMemory(t), spy, Config{
		Prefilter:    true,
		PrefilterMin: 2,
	}, zap.NewNop())

	_, err := svc.GenerateRecommendations(context.Background(), domain.UserPreferences{Username: "x", Budget: "low"}, nil)
	require.NoError(t, err)
	assert.Less(t, spy.gotCount, 10)
	assert.GreaterOrEqual(t, spy.gotCount, 2)

	_, err = svc.GenerateRecommendations(context.Background(), domain.UserPreferences{Username: "x", Budget: "Any"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, spy.gotCount)
}

func TestPrefilterKeepsAllWhenTooFewRemain(t *testing.T) {
	products := beerProducts(3)
	assert.Len(t, prefilter(products, "low", 1), 3)

	price := int64(2000)
	products[0].PriceCents = &price
	products[0].PriceBucket = domain.PriceBucketFor(price)
	assert.Len(t, prefilter(products, "low", 1), 1)
	assert.Len(t, prefilter(products, "low", 2), 3)
}

func ids(products []domain.GiftSuggestion) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}
