package recommendation

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/kapu/gift-ai-go/internal/metrics"
	"github.com/kapu/gift-ai-go/internal/service/catalog"
	"github.com/kapu/gift-ai-go/internal/service/oracle"
	"github.com/kapu/gift-ai-go/internal/service/profile"
	"github.com/kapu/gift-ai-go/internal/util"
	"go.uber.org/zap"
)

// ErrNoProducts means even the degraded path found nothing to recommend.
var ErrNoProducts = stderrors.New("catalog returned no products")

// Stage is a step of one recommendation request.
type Stage string

const (
	StageIdle              Stage = "idle"
	StageAcquiringProfile  Stage = "acquiring_profile"
	StageRetrievingCatalog Stage = "retrieving_catalog"
	StageInvokingOracle    Stage = "invoking_oracle"
	StageDegrading         Stage = "degrading"
	StageSucceeded         Stage = "succeeded"
)

type Config struct {
	ProfileTimeout    time.Duration
	CatalogTimeout    time.Duration
	OracleTimeout     time.Duration
	FallbackInterests []string
	// Prefilter narrows candidates to the budget's price buckets when at
	// least PrefilterMin products remain.
	Prefilter    bool
	PrefilterMin int
}

// Service runs profile acquisition, candidate retrieval and selection in
// sequence and substitutes a fixed recommendation when selection fails.
type Service struct {
	profiles profile.Source
	catalog  catalog.Store
	oracle   oracle.SelectionOracle
	cfg      Config
	logger   *zap.Logger
}

func NewService(profiles profile.Source, store catalog.Store, selector oracle.SelectionOracle, cfg Config, logger *zap.Logger) *Service {
	if len(cfg.FallbackInterests) == 0 {
		cfg.FallbackInterests = []string{"Cerveja", "Churrasco", "Outdoor"}
	}
	if cfg.ProfileTimeout <= 0 {
		cfg.ProfileTimeout = 45 * time.Second
	}
	if cfg.CatalogTimeout <= 0 {
		cfg.CatalogTimeout = 5 * time.Second
	}
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = 60 * time.Second
	}
	return &Service{
		profiles: profiles,
		catalog:  store,
		oracle:   selector,
		cfg:      cfg,
		logger:   logger,
	}
}

// GenerateRecommendations returns a complete recommendation for prefs. When
// preFetched is non-nil the profile source is not called.
func (s *Service) GenerateRecommendations(ctx context.Context, prefs domain.UserPreferences, preFetched *domain.AnalyzedProfile) (*domain.GiftRecommendation, error) {
	handle := domain.NormalizeHandle(prefs.Username)
	logger := s.logger.With(zap.String("handle", handle))
	if prefs.JobID != "" {
		logger = logger.With(zap.String("job_id", prefs.JobID))
	}
	start := time.Now()
	s.enter(logger, StageIdle)

	rec, err := s.run(ctx, logger, handle, prefs, preFetched)
	if err != nil {
		logger.Warn("Recommendation pipeline failed, degrading", zap.Error(err))
		s.enter(logger, StageDegrading)

		rec, err = s.degraded(ctx, prefs)
		if err != nil {
			logger.Error("Degraded recommendation unavailable", zap.Error(err))
			return nil, err
		}
		metrics.RecommendationsTotal.WithLabelValues(metrics.OutcomeDegraded).Inc()
	} else {
		metrics.RecommendationsTotal.WithLabelValues(metrics.OutcomeOracle).Inc()
	}

	s.enter(logger, StageSucceeded)
	logger.Info("Recommendation generated",
		zap.Int("sections", len(rec.Sections)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rec, nil
}

func (s *Service) run(ctx context.Context, logger *zap.Logger, handle string, prefs domain.UserPreferences, preFetched *domain.AnalyzedProfile) (*domain.GiftRecommendation, error) {
	s.enter(logger, StageAcquiringProfile)
	p := preFetched
	if p == nil {
		p = s.acquireProfile(ctx, logger, handle)
	} else {
		logger.Debug("Using pre-fetched profile")
	}

	s.enter(logger, StageRetrievingCatalog)
	candidates, err := s.candidates(ctx, prefs)
	if err != nil {
		return nil, err
	}

	s.enter(logger, StageInvokingOracle)
	rec, err := s.selectGifts(ctx, p, prefs, candidates)
	if err != nil {
		return nil, err
	}
	if !rec.IsComplete() {
		return nil, fmt.Errorf("%s oracle returned an incomplete recommendation", s.oracle.Mode())
	}
	return rec, nil
}

// acquireProfile never fails: a source error yields the minimal profile.
func (s *Service) acquireProfile(ctx context.Context, logger *zap.Logger, handle string) *domain.AnalyzedProfile {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProfileTimeout)
	defer cancel()

	var p *domain.AnalyzedProfile
	err := guard("profile", func() error {
		var fetchErr error
		p, fetchErr = s.profiles.FetchProfile(ctx, handle)
		return fetchErr
	})
	if err != nil || p == nil {
		logger.Warn("Profile source failed, using minimal profile", zap.Error(err))
		return domain.MinimalProfile(handle)
	}
	return p
}

func (s *Service) candidates(ctx context.Context, prefs domain.UserPreferences) ([]domain.CatalogProduct, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CatalogTimeout)
	defer cancel()

	var products []domain.CatalogProduct
	err := guard("catalog", func() error {
		products = s.catalog.GetAllProducts(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cfg.Prefilter {
		products = prefilter(products, prefs.Budget, s.cfg.PrefilterMin)
	}
	return products, nil
}

func (s *Service) selectGifts(ctx context.Context, p *domain.AnalyzedProfile, prefs domain.UserPreferences, candidates []domain.CatalogProduct) (*domain.GiftRecommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OracleTimeout)
	defer cancel()

	var rec *domain.GiftRecommendation
	err := guard("oracle", func() error {
		var selectErr error
		rec, selectErr = s.oracle.SelectGifts(ctx, p, prefs, candidates)
		return selectErr
	})
	return rec, err
}

func (s *Service) enter(logger *zap.Logger, stage Stage) {
	logger.Debug("Recommendation stage", zap.String("stage", string(stage)))
}

// guard runs fn and turns a panic into an error.
func guard(step string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s step panicked: %v\n%s", step, r, debug.Stack())
		}
	}()
	return fn()
}

// prefilter keeps products in the budget's price buckets unless that would
// leave fewer than minimum candidates.
func prefilter(products []domain.CatalogProduct, budget string, minimum int) []domain.CatalogProduct {
	buckets := domain.BucketsForBudget(budget)
	if len(buckets) == 0 {
		return products
	}

	filtered := make([]domain.CatalogProduct, 0, len(products))
	for _, p := range products {
		if util.Contains(buckets, p.PriceBucket) {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) < util.Max(minimum, 1) {
		return products
	}
	return filtered
}
