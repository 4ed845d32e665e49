package catalog

import (
	"context"

	"github.com/kapu/gift-ai-go/internal/constants"
	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/kapu/gift-ai-go/internal/metrics"
	"github.com/kapu/gift-ai-go/pkg/errors"
	"go.uber.org/zap"
)

// productReader is the part of Repository the live store reads through.
type productReader interface {
	ListAll(ctx context.Context) ([]domain.CatalogProduct, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.CatalogProduct, error)
}

// LiveStore reads the Postgres catalog, keeps a Redis snapshot of the full
// list, and substitutes the fallback store on any failure.
type LiveStore struct {
	repo     productReader
	cache    snapshotCache
	fallback *MemoryStore
	logger   *zap.Logger
}

// NewLiveStore builds the database-backed store. cache may be nil.
func NewLiveStore(repo productReader, cache snapshotCache, fallback *MemoryStore, logger *zap.Logger) *LiveStore {
	return &LiveStore{
		repo:     repo,
		cache:    cache,
		fallback: fallback,
		logger:   logger,
	}
}

func (s *LiveStore) Mode() string {
	return "postgres"
}

func (s *LiveStore) GetAllProducts(ctx context.Context) []domain.CatalogProduct {
	products, ok := s.loadAll(ctx)
	if !ok {
		return s.fallback.GetAllProducts(ctx)
	}
	return products
}

func (s *LiveStore) SearchProducts(ctx context.Context, query SearchQuery) []domain.GiftSuggestion {
	products, ok := s.loadAll(ctx)
	if !ok {
		return s.fallback.SearchProducts(ctx, query)
	}
	return search(products, query, false)
}

func (s *LiveStore) ListProducts(ctx context.Context, filter domain.ProductFilter) []domain.CatalogProduct {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		s.degrade(errors.NewStoreError("catalog list failed", "list", err))
		return s.fallback.ListProducts(ctx, filter)
	}
	return products
}

// Invalidate drops the cached snapshot after the catalog was rewritten.
func (s *LiveStore) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, constants.CacheKeys.CatalogSnapshot); err != nil {
		s.logger.Warn("Failed to invalidate catalog snapshot", zap.Error(err))
	}
}

// loadAll returns the live product list. ok is false when the caller must
// use the fallback store: on error and on an empty table.
func (s *LiveStore) loadAll(ctx context.Context) ([]domain.CatalogProduct, bool) {
	if s.cache != nil {
		var cached []domain.CatalogProduct
		found, err := s.cache.Get(ctx, constants.CacheKeys.CatalogSnapshot, &cached)
		if err == nil && found && len(cached) > 0 {
			return cached, true
		}
	}

	products, err := s.repo.ListAll(ctx)
	if err != nil {
		s.degrade(errors.NewStoreError("catalog read failed", "list_all", err))
		return nil, false
	}
	if len(products) == 0 {
		s.degrade(errors.NewStoreError("catalog is empty", "list_all", nil))
		return nil, false
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, constants.CacheKeys.CatalogSnapshot, products, constants.CacheTTL.CatalogSnapshot); err != nil {
			s.logger.Debug("Catalog snapshot not cached", zap.Error(err))
		}
	}
	return products, true
}

func (s *LiveStore) degrade(err *errors.StoreError) {
	metrics.AdapterFallbacks.WithLabelValues(metrics.AdapterCatalog).Inc()
	s.logger.Warn("Catalog unavailable, using fallback products",
		zap.String("operation", err.Operation),
		zap.Error(err),
	)
}
