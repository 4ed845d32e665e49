package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kapu/gift-ai-go/internal/config"
	"github.com/kapu/gift-ai-go/internal/constants"
	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/kapu/gift-ai-go/internal/service/cache"
	"github.com/kapu/gift-ai-go/internal/service/catalog"
	"github.com/kapu/gift-ai-go/internal/service/database"
	"github.com/kapu/gift-ai-go/internal/util"
	"go.uber.org/zap"
)

var (
	seedFile = flag.String("file", "", "JSON seed file (defaults to the built-in catalog)")
	minSize  = flag.Int("min-size", constants.CatalogLimits.MinSeedSize, "Pad the catalog with variants up to this size")
	dryRun   = flag.Bool("dry-run", false, "Prepare and validate without writing to the database")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("Seeding failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	seed, err := loadSeed(*seedFile, cfg)
	if err != nil {
		return err
	}

	products, err := catalog.PrepareSeed(seed, cfg.Catalog.Marketplace, cfg.Catalog.AffiliateTag, *minSize)
	if err != nil {
		return fmt.Errorf("invalid seed: %w", err)
	}
	logger.Info("Seed prepared",
		zap.Int("seed", len(seed)),
		zap.Int("products", len(products)),
		zap.String("affiliate_tag", cfg.Catalog.AffiliateTag),
	)

	if *dryRun {
		logger.Info("Dry run, nothing written")
		return nil
	}
	if !cfg.UseLiveCatalog() {
		return fmt.Errorf("DATABASE_URL must be a postgres:// or postgresql:// URL")
	}

	postgresSvc, err := database.NewPostgresService(database.PostgresConfig{URL: cfg.Database.URL}, logger)
	if err != nil {
		return err
	}
	defer postgresSvc.Close()

	repo := catalog.NewRepository(postgresSvc.GetDB(), logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	written, err := catalog.Seed(ctx, repo, products,
		constants.CatalogLimits.UpsertChunk,
		constants.CatalogLimits.SeedWorkers,
	)
	if err != nil {
		return fmt.Errorf("upsert failed after %d rows: %w", written, err)
	}
	logger.Info("Catalog seeded", zap.Int("rows", written))

	invalidateSnapshot(ctx, cfg, repo, products, logger)
	return nil
}

func loadSeed(path string, cfg *config.Config) ([]domain.CatalogProduct, error) {
	if path == "" {
		return catalog.LoadFallbackProducts(cfg.Catalog.Marketplace, cfg.Catalog.AffiliateTag)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var products []domain.CatalogProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	return products, nil
}

// invalidateSnapshot drops the cached catalog so servers pick up the new rows.
func invalidateSnapshot(ctx context.Context, cfg *config.Config, repo *catalog.Repository, products []domain.CatalogProduct, logger *zap.Logger) {
	if !cfg.UseRedis() {
		return
	}
	cacheSvc, err := cache.NewService(cache.Config{
		URL:      cfg.Redis.URL,
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Warn("Redis unavailable, catalog snapshot expires on its own", zap.Error(err))
		return
	}
	defer cacheSvc.Close()

	store := catalog.NewLiveStore(repo, cacheSvc, catalog.NewMemoryStoreWith(products), logger)
	store.Invalidate(ctx)
}
