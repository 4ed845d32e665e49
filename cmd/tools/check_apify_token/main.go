package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kapu/gift-ai-go/internal/config"
	"github.com/kapu/gift-ai-go/internal/service/profile"
	"github.com/kapu/gift-ai-go/internal/util"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if !cfg.UseLiveProfile() {
		logger.Error("APIFY_API_TOKEN missing")
		os.Exit(1)
	}
	logger.Info("Testing Apify token", zap.String("token_prefix", util.TruncateString(cfg.Apify.Token, 5)))

	client := profile.NewApifyClient(profile.ApifyConfig{
		Token:   cfg.Apify.Token,
		BaseURL: cfg.Apify.BaseURL,
		Actor:   cfg.Apify.Actor,
		Timeout: cfg.Apify.Timeout,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	username, err := client.CheckToken(ctx)
	if err != nil {
		logger.Error("Token invalid", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Token valid", zap.String("user", username))
}
