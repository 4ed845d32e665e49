package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server         ServerConfig
	Apify          ApifyConfig
	ProfilePage    ProfilePageConfig
	OpenRouter     OpenRouterConfig
	Gemini         GeminiConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Catalog        CatalogConfig
	Recommendation RecommendationConfig
	Logging        LoggingConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	Mode            string
	ShutdownTimeout time.Duration
}

type ApifyConfig struct {
	Token        string
	BaseURL      string
	Actor        string
	ResultsLimit int
	Timeout      time.Duration
}

type ProfilePageConfig struct {
	Enabled bool
	BaseURL string
}

type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Referer string
	Title   string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
}

type CatalogConfig struct {
	AffiliateTag   string
	Marketplace    string
	SearchLimit    int
	DefaultPageLen int
}

type RecommendationConfig struct {
	ProfileTimeout    time.Duration
	CatalogTimeout    time.Duration
	OracleTimeout     time.Duration
	MockLatency       time.Duration
	Locale            string
	Prefilter         bool
	PrefilterMin      int
	MinResolvedRatio  float64
	FallbackInterests []string
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("PORT", 8080),
			Mode:            getEnv("GIN_MODE", "release"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Apify: ApifyConfig{
			Token:        getEnv("APIFY_API_TOKEN", ""),
			BaseURL:      getEnv("APIFY_BASE_URL", "https://api.apify.com"),
			Actor:        getEnv("APIFY_ACTOR", "apify/instagram-profile-scraper"),
			ResultsLimit: getEnvInt("APIFY_RESULTS_LIMIT", 12),
			Timeout:      getEnvDuration("APIFY_TIMEOUT", 40*time.Second),
		},
		ProfilePage: ProfilePageConfig{
			Enabled: getEnvBool("PROFILE_PAGE_FALLBACK", false),
			BaseURL: getEnv("PROFILE_PAGE_BASE_URL", "https://www.instagram.com"),
		},
		OpenRouter: OpenRouterConfig{
			APIKey:  getEnv("OPENROUTER_API_KEY", ""),
			BaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:   getEnv("OPENROUTER_MODEL", "google/gemini-2.0-flash-exp:free"),
			Referer: getEnv("OPENROUTER_REFERER", "https://gift-ai.vercel.app"),
			Title:   getEnv("OPENROUTER_TITLE", "Gift-AI"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Catalog: CatalogConfig{
			AffiliateTag:   getEnv("AFFILIATE_TAG", "gift-ai-20"),
			Marketplace:    getEnv("AFFILIATE_MARKETPLACE", "https://www.amazon.com"),
			SearchLimit:    getEnvInt("CATALOG_SEARCH_LIMIT", 5),
			DefaultPageLen: getEnvInt("CATALOG_PAGE_LIMIT", 50),
		},
		Recommendation: RecommendationConfig{
			ProfileTimeout:    getEnvDuration("PROFILE_TIMEOUT", 45*time.Second),
			CatalogTimeout:    getEnvDuration("CATALOG_TIMEOUT", 5*time.Second),
			OracleTimeout:     getEnvDuration("ORACLE_TIMEOUT", 60*time.Second),
			MockLatency:       getEnvDuration("MOCK_LATENCY", 0),
			Locale:            getEnv("RECOMMENDATION_LOCALE", "pt-BR"),
			Prefilter:         getEnvBool("RECOMMENDATION_PREFILTER", false),
			PrefilterMin:      getEnvInt("RECOMMENDATION_PREFILTER_MIN", 10),
			MinResolvedRatio:  getEnvFloat("ORACLE_MIN_RESOLVED_RATIO", 0),
			FallbackInterests: parseCommaSeparated(getEnv("FALLBACK_INTERESTS", "Cerveja,Churrasco,Outdoor")),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.Catalog.AffiliateTag == "" {
		return fmt.Errorf("AFFILIATE_TAG is required")
	}
	if c.Catalog.SearchLimit <= 0 {
		return fmt.Errorf("CATALOG_SEARCH_LIMIT must be positive")
	}
	if c.Recommendation.ProfileTimeout <= 0 || c.Recommendation.CatalogTimeout <= 0 || c.Recommendation.OracleTimeout <= 0 {
		return fmt.Errorf("recommendation timeouts must be positive")
	}
	if c.Recommendation.MinResolvedRatio < 0 || c.Recommendation.MinResolvedRatio > 1 {
		return fmt.Errorf("ORACLE_MIN_RESOLVED_RATIO must be within [0,1]")
	}
	if len(c.Recommendation.FallbackInterests) == 0 {
		return fmt.Errorf("FALLBACK_INTERESTS is required")
	}
	return nil
}

// UseLiveProfile reports whether a scraping credential is configured.
func (c *Config) UseLiveProfile() bool {
	return c.Apify.Token != ""
}

// UseLiveOracle reports whether any LLM credential is configured.
func (c *Config) UseLiveOracle() bool {
	return c.OpenRouter.APIKey != "" || c.Gemini.APIKey != ""
}

// UseLiveCatalog reports whether DATABASE_URL is a recognized Postgres URL.
func (c *Config) UseLiveCatalog() bool {
	return IsPostgresURL(c.Database.URL)
}

// UseRedis reports whether a Redis endpoint is configured.
func (c *Config) UseRedis() bool {
	return c.Redis.URL != "" || c.Redis.Host != ""
}

func IsPostgresURL(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
