package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kapu/gift-ai-go/internal/constants"
	"github.com/kapu/gift-ai-go/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Service is a JSON cache on top of Redis.
type Service struct {
	client *redis.Client
	logger *zap.Logger
}

type Config struct {
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
}

func NewService(cfg Config, logger *zap.Logger) (*Service, error) {
	opts, err := buildOptions(cfg)
	if err != nil {
		return nil, errors.NewCacheError("invalid redis configuration", "connect", "", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), constants.RedisConfig.ReadyTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB),
	)

	return NewServiceWithClient(client, logger), nil
}

// NewServiceWithClient wraps an existing client.
func NewServiceWithClient(client *redis.Client, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

func buildOptions(cfg Config) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 10
	return opts, nil
}

// Get decodes the value at key into dest. found is false on a miss.
func (c *Service) Get(ctx context.Context, key string, dest any) (bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.logger.Warn("Cache get failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("get failed", "get", key, err)
	}

	if err := json.Unmarshal(value, dest); err != nil {
		c.logger.Warn("Cache unmarshal failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("unmarshal failed", "get", key, err)
	}

	return true, nil
}

func (c *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", key, err)
	}

	if err := c.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		c.logger.Warn("Cache set failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("set failed", "set", key, err)
	}

	return nil
}

func (c *Service) Del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("Cache delete failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("delete failed", "del", key, err)
	}
	return nil
}

func (c *Service) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Service) Close() error {
	return c.client.Close()
}
