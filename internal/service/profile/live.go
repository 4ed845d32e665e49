package profile

import (
	"context"
	"strings"
	"time"

	"github.com/kapu/gift-ai-go/internal/constants"
	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/kapu/gift-ai-go/internal/metrics"
	"go.uber.org/zap"
)

// profileCache is the subset of the Redis cache LiveSource needs.
type profileCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// LiveSource tries each fetcher in order and degrades to the mock profile
// when all of them fail. Successful results are cached.
type LiveSource struct {
	fetchers []Fetcher
	cache    profileCache
	fallback *MockSource
	logger   *zap.Logger
}

// NewLiveSource builds the live source. cache may be nil.
func NewLiveSource(fetchers []Fetcher, cache profileCache, mockLatency time.Duration, logger *zap.Logger) *LiveSource {
	return &LiveSource{
		fetchers: fetchers,
		cache:    cache,
		fallback: newFallbackMock(mockLatency),
		logger:   logger,
	}
}

func (s *LiveSource) Mode() string {
	names := make([]string, 0, len(s.fetchers))
	for _, f := range s.fetchers {
		names = append(names, f.Name())
	}
	return "live(" + strings.Join(names, ",") + ")"
}

// FetchProfile never returns an error; provider failures fall back to the mock.
func (s *LiveSource) FetchProfile(ctx context.Context, handle string) (*domain.AnalyzedProfile, error) {
	username := domain.NormalizeHandle(handle)
	key := cacheKey(username)

	if s.cache != nil {
		var cached domain.AnalyzedProfile
		found, err := s.cache.Get(ctx, key, &cached)
		if err == nil && found {
			metrics.ProfileCacheLookups.WithLabelValues("hit").Inc()
			s.logger.Debug("Profile cache hit", zap.String("handle", username))
			return &cached, nil
		}
		metrics.ProfileCacheLookups.WithLabelValues("miss").Inc()
	}

	for _, fetcher := range s.fetchers {
		profile, err := fetcher.Fetch(ctx, username)
		if err != nil {
			s.logger.Warn("Profile provider failed",
				zap.String("provider", fetcher.Name()),
				zap.String("handle", username),
				zap.Error(err),
			)
			continue
		}

		if s.cache != nil {
			if err := s.cache.Set(ctx, key, profile, constants.CacheTTL.Profile); err != nil {
				s.logger.Debug("Profile not cached", zap.Error(err))
			}
		}
		return profile, nil
	}

	metrics.AdapterFallbacks.WithLabelValues(metrics.AdapterProfile).Inc()
	s.logger.Warn("All profile providers failed, using mock profile", zap.String("handle", username))
	return s.fallback.FetchProfile(ctx, username)
}

func cacheKey(username string) string {
	return constants.CacheKeys.ProfilePrefix + strings.ToLower(username)
}
