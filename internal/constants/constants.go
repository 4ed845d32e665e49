package constants

import "time"

var CacheTTL = struct {
	Profile         time.Duration
	CatalogSnapshot time.Duration
}{
	Profile:         30 * time.Minute, // scraped profiles
	CatalogSnapshot: 5 * time.Minute,  // full product list
}

var CacheKeys = struct {
	ProfilePrefix   string
	CatalogSnapshot string
}{
	ProfilePrefix:   "giftai:profile:",
	CatalogSnapshot: "giftai:catalog:all",
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,
	ResetTimeout:        30 * time.Second,
	RateLimitTimeout:    10 * time.Minute, // 429 from the provider
	HealthCheckInterval: 5 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var APIConfig = struct {
	UserAgent       string
	ScraperTimeout  time.Duration
	MaxResponseSize int64
}{
	UserAgent:       "Mozilla/5.0 (compatible; GiftAI/1.0)",
	ScraperTimeout:  15 * time.Second,
	MaxResponseSize: 8 << 20,
}

var CatalogLimits = struct {
	MaxPageSize    int
	UpsertChunk    int
	MinSeedSize    int
	SeedWorkers    int
	FallbackSlices int
}{
	MaxPageSize:    200,
	UpsertChunk:    50,
	MinSeedSize:    110,
	SeedWorkers:    4,
	FallbackSlices: 5,
}

var OracleLimits = struct {
	MinSections        int
	MaxSections        int
	ProductsPerSection int
	MockSeedProducts   int
	ResponsePreview    int
}{
	MinSections:        2,
	MaxSections:        4,
	ProductsPerSection: 5,
	MockSeedProducts:   4,
	ResponsePreview:    200,
}

var ProfileLimits = struct {
	SummaryKeywords int
	WarmWorkers     int
	WarmQueueSize   int
}{
	SummaryKeywords: 10,
	WarmWorkers:     2,
	WarmQueueSize:   64,
}
