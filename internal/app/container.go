package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kapu/gift-ai-go/internal/config"
	"github.com/kapu/gift-ai-go/internal/constants"
	"github.com/kapu/gift-ai-go/internal/server"
	"github.com/kapu/gift-ai-go/internal/service/ai"
	"github.com/kapu/gift-ai-go/internal/service/cache"
	"github.com/kapu/gift-ai-go/internal/service/catalog"
	"github.com/kapu/gift-ai-go/internal/service/database"
	"github.com/kapu/gift-ai-go/internal/service/oracle"
	"github.com/kapu/gift-ai-go/internal/service/profile"
	"github.com/kapu/gift-ai-go/internal/service/recommendation"
	"go.uber.org/zap"
)

// cacheBackend is what the profile and catalog adapters need from Redis.
type cacheBackend interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Container bundles the assembled adapters and the recommendation service.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Profiles        profile.Source
	Catalog         catalog.Store
	Oracle          oracle.SelectionOracle
	Recommendations *recommendation.Service
	Warmer          *profile.Warmer

	models  *ai.ModelManager
	closers []func()
}

// Build selects a live or mock implementation for each capability. The
// three choices are independent. An unreachable Redis or Postgres is logged
// and replaced by the in-process alternative instead of failing startup.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	var cacheSvc cacheBackend
	if cfg.UseRedis() {
		redisSvc, redisErr := cache.NewService(cache.Config{
			URL:      cfg.Redis.URL,
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if redisErr != nil {
			logger.Warn("Redis unavailable, running without cache", zap.Error(redisErr))
		} else {
			cacheSvc = redisSvc
			closers = append(closers, func() {
				_ = redisSvc.Close()
			})
		}
	}

	profiles := buildProfileSource(cfg, cacheSvc, logger)

	store, storeClosers, err := buildCatalog(ctx, cfg, cacheSvc, logger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, storeClosers...)

	selector, models := buildOracle(ctx, cfg, logger)

	recs := recommendation.NewService(profiles, store, selector, recommendation.Config{
		ProfileTimeout:    cfg.Recommendation.ProfileTimeout,
		CatalogTimeout:    cfg.Recommendation.CatalogTimeout,
		OracleTimeout:     cfg.Recommendation.OracleTimeout,
		FallbackInterests: cfg.Recommendation.FallbackInterests,
		Prefilter:         cfg.Recommendation.Prefilter,
		PrefilterMin:      cfg.Recommendation.PrefilterMin,
	}, logger)

	warmer := profile.NewWarmer(profiles,
		constants.ProfileLimits.WarmWorkers,
		constants.ProfileLimits.WarmQueueSize,
		cfg.Recommendation.ProfileTimeout,
		logger,
	)
	closers = append(closers, warmer.Stop)

	logger.Info("Recommendation adapters selected",
		zap.String("profile", profiles.Mode()),
		zap.String("catalog", store.Mode()),
		zap.String("oracle", selector.Mode()),
	)

	return &Container{
		Config:          cfg,
		Logger:          logger,
		Profiles:        profiles,
		Catalog:         store,
		Oracle:          selector,
		Recommendations: recs,
		Warmer:          warmer,
		models:          models,
		closers:         closers,
	}, nil
}

func buildProfileSource(cfg *config.Config, cacheSvc cacheBackend, logger *zap.Logger) profile.Source {
	if !cfg.UseLiveProfile() {
		return profile.NewMockSource(cfg.Recommendation.MockLatency)
	}

	fetchers := []profile.Fetcher{
		profile.NewApifyClient(profile.ApifyConfig{
			Token:        cfg.Apify.Token,
			BaseURL:      cfg.Apify.BaseURL,
			Actor:        cfg.Apify.Actor,
			ResultsLimit: cfg.Apify.ResultsLimit,
			Timeout:      cfg.Apify.Timeout,
		}, logger),
	}
	if cfg.ProfilePage.Enabled {
		fetchers = append(fetchers, profile.NewPageFetcher(cfg.ProfilePage.BaseURL, logger))
	}
	return profile.NewLiveSource(fetchers, cacheSvc, cfg.Recommendation.MockLatency, logger)
}

func buildCatalog(ctx context.Context, cfg *config.Config, cacheSvc cacheBackend, logger *zap.Logger) (catalog.Store, []func(), error) {
	fallback, err := catalog.NewMemoryStore(cfg.Catalog.Marketplace, cfg.Catalog.AffiliateTag)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load fallback catalog: %w", err)
	}
	if !cfg.UseLiveCatalog() {
		return fallback, nil, nil
	}

	postgresSvc, err := database.NewPostgresService(database.PostgresConfig{URL: cfg.Database.URL}, logger)
	if err != nil {
		logger.Warn("Postgres unavailable, serving built-in catalog", zap.Error(err))
		return fallback, nil, nil
	}
	closers := []func(){func() {
		_ = postgresSvc.Close()
	}}

	repo := catalog.NewRepository(postgresSvc.GetDB(), logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Warn("Failed to ensure catalog schema", zap.Error(err))
	}
	return catalog.NewLiveStore(repo, cacheSvc, fallback, logger), closers, nil
}

// buildOracle prefers OpenRouter with Gemini as fallback; either alone is
// promoted to primary. The manager is nil when the mock oracle is used.
func buildOracle(ctx context.Context, cfg *config.Config, logger *zap.Logger) (oracle.SelectionOracle, *ai.ModelManager) {
	mock := oracle.NewMockOracle(cfg.Recommendation.MockLatency)
	if !cfg.UseLiveOracle() {
		return mock, nil
	}

	var primary, fallback ai.JSONProvider
	if openRouter := ai.NewOpenRouterProvider(ai.OpenRouterConfig{
		APIKey:     cfg.OpenRouter.APIKey,
		BaseURL:    cfg.OpenRouter.BaseURL,
		Model:      cfg.OpenRouter.Model,
		Referer:    cfg.OpenRouter.Referer,
		Title:      cfg.OpenRouter.Title,
		MaxRetries: 2,
	}, logger); openRouter != nil {
		primary = openRouter
	}

	if cfg.Gemini.APIKey != "" {
		gemini, err := ai.NewGeminiProvider(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
		if err != nil {
			logger.Warn("Gemini provider unavailable", zap.Error(err))
		} else if primary == nil {
			primary = gemini
		} else {
			fallback = gemini
		}
	}

	manager, err := ai.NewModelManager(primary, fallback, logger)
	if err != nil {
		logger.Warn("No usable model provider, using mock oracle", zap.Error(err))
		return mock, nil
	}
	return oracle.NewLiveOracle(manager, oracle.LiveConfig{
		Locale:           cfg.Recommendation.Locale,
		MinResolvedRatio: cfg.Recommendation.MinResolvedRatio,
	}, logger), manager
}

// Router builds the HTTP API over the container's services.
func (c *Container) Router() *gin.Engine {
	handler := server.NewHandler(c.Recommendations, c.Profiles, c.Catalog, c.Warmer, c.Config.Catalog.DefaultPageLen, c.Logger)
	modes := server.Modes{
		Profile: c.Profiles.Mode(),
		Oracle:  c.Oracle.Mode(),
		Catalog: c.Catalog.Mode(),
	}
	if c.models != nil {
		modes.OracleCircuit = func() string {
			return c.models.CircuitStatus().State.String()
		}
	}
	return server.NewRouter(c.Config.Server.Mode, c.Logger, modes, handler)
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
