package model

import "time"

// Config represents the complete configuration for a collection run
type Config struct {
	Collection   CollectionConfig `yaml:"collection" mapstructure:"collection"`
	HTTP         HTTPConfig       `yaml:"http" mapstructure:"http"`
	RateLimiting RateLimitConfig  `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Retry        RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Cache        CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Adapters     AdaptersConfig   `yaml:"adapters" mapstructure:"adapters"`
	Quality      QualityConfig    `yaml:"quality" mapstructure:"quality"`
	Output       OutputConfig     `yaml:"output" mapstructure:"output"`
	LLM          LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Log          LogConfig        `yaml:"log" mapstructure:"log"`
}

// CollectionConfig controls the tiered collector
type CollectionConfig struct {
	Tier              Tier          `yaml:"tier" mapstructure:"tier"`
	MaxPages          int           `yaml:"max_pages" mapstructure:"max_pages"`                   // Page ceiling per adapter attempt
	PageDelay         time.Duration `yaml:"page_delay" mapstructure:"page_delay"`                 // Pause between pages of the same adapter
	AttemptTimeout    time.Duration `yaml:"attempt_timeout" mapstructure:"attempt_timeout"`       // Per network call
	TargetConcurrency int           `yaml:"target_concurrency" mapstructure:"target_concurrency"` // Targets collected in parallel
}

// HTTPConfig controls outbound HTTP behaviour
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	Proxies       []string      `yaml:"proxies" mapstructure:"proxies"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
}

// RateLimitConfig holds per-domain request pacing
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// RetryConfig holds backoff settings for transient failures
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" mapstructure:"multiplier"`
}

// CacheConfig holds response cache settings
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// AdaptersConfig enables and tunes the individual source adapters
type AdaptersConfig struct {
	JudgeMe JudgeMeConfig `yaml:"judgeme" mapstructure:"judgeme"`
	Shopify ShopifyConfig `yaml:"shopify" mapstructure:"shopify"`
	Yotpo   YotpoConfig   `yaml:"yotpo" mapstructure:"yotpo"`
	Site    SiteConfig    `yaml:"site" mapstructure:"site"`
	Browser BrowserConfig `yaml:"browser" mapstructure:"browser"`
	Reddit  RedditConfig  `yaml:"reddit" mapstructure:"reddit"`
	YouTube YouTubeConfig `yaml:"youtube" mapstructure:"youtube"`
}

type JudgeMeConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	PerPage int    `yaml:"per_page" mapstructure:"per_page"`
}

type ShopifyConfig struct {
	Enabled     bool `yaml:"enabled" mapstructure:"enabled"`
	MaxProducts int  `yaml:"max_products" mapstructure:"max_products"`
}

type YotpoConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	PerPage int    `yaml:"per_page" mapstructure:"per_page"`
}

type SiteConfig struct {
	Enabled       bool `yaml:"enabled" mapstructure:"enabled"`
	MaxExtraPages int  `yaml:"max_extra_pages" mapstructure:"max_extra_pages"` // Review-like pages followed from the start page
}

type BrowserConfig struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	Headless    bool          `yaml:"headless" mapstructure:"headless"`
	MaxLoadMore int           `yaml:"max_load_more" mapstructure:"max_load_more"`
	WaitAfter   time.Duration `yaml:"wait_after" mapstructure:"wait_after"` // Settle time after navigation and clicks
}

type RedditConfig struct {
	Enabled      bool    `yaml:"enabled" mapstructure:"enabled"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	PerKeyword   int     `yaml:"per_keyword" mapstructure:"per_keyword"`
	MinRelevance float64 `yaml:"min_relevance" mapstructure:"min_relevance"`
}

type YouTubeConfig struct {
	Enabled          bool    `yaml:"enabled" mapstructure:"enabled"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey           string  `yaml:"-" mapstructure:"api_key"` // From YOUTUBE_API_KEY only
	VideosPerKeyword int     `yaml:"videos_per_keyword" mapstructure:"videos_per_keyword"`
	CommentsPerVideo int     `yaml:"comments_per_video" mapstructure:"comments_per_video"`
	DailyQuota       int     `yaml:"daily_quota" mapstructure:"daily_quota"`
	MinRelevance     float64 `yaml:"min_relevance" mapstructure:"min_relevance"`
}

// QualityConfig holds the confidence cascade thresholds
type QualityConfig struct {
	HighTotal           int      `yaml:"high_total" mapstructure:"high_total"`
	MediumTotal         int      `yaml:"medium_total" mapstructure:"medium_total"`
	LowTotal            int      `yaml:"low_total" mapstructure:"low_total"`
	HighRatio           float64  `yaml:"high_ratio" mapstructure:"high_ratio"`
	MediumRatio         float64  `yaml:"medium_ratio" mapstructure:"medium_ratio"`
	HighTrustMethods    []Method `yaml:"high_trust_methods" mapstructure:"high_trust_methods"`
	CategoryEvidenceMin int      `yaml:"category_evidence_min" mapstructure:"category_evidence_min"`
}

// OutputConfig controls where reports and debug dumps go
type OutputConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	DebugDir string `yaml:"debug_dir" mapstructure:"debug_dir"`
	Debug    bool   `yaml:"debug" mapstructure:"debug"`
}

// LLMConfig holds the optional brief settings
type LLMConfig struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	Provider    string        `yaml:"provider" mapstructure:"provider"` // openai, ollama
	Model       string        `yaml:"model" mapstructure:"model"`
	Temperature float32       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"` // Ollama only
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Collection: CollectionConfig{
			Tier:              TierBasic,
			MaxPages:          10,
			PageDelay:         1 * time.Second,
			AttemptTimeout:    30 * time.Second,
			TargetConcurrency: 4,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Mozilla/5.0 (compatible; reviewharvest/0.1; +https://github.com/ppiankov/reviewharvest)",
			MaxBodyBytes:  5_000_000,
			RespectRobots: true,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2.0,
			Burst:             2,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".reviewharvest-cache",
			TTL:     6 * time.Hour,
		},
		Adapters: AdaptersConfig{
			JudgeMe: JudgeMeConfig{Enabled: true, BaseURL: "https://judge.me/api/v1", PerPage: 50},
			Shopify: ShopifyConfig{Enabled: true, MaxProducts: 5},
			Yotpo:   YotpoConfig{Enabled: true, BaseURL: "https://api.yotpo.com/v1", PerPage: 100},
			Site:    SiteConfig{Enabled: true, MaxExtraPages: 3},
			Browser: BrowserConfig{Enabled: true, Headless: true, MaxLoadMore: 10, WaitAfter: 2 * time.Second},
			Reddit: RedditConfig{
				Enabled:      true,
				BaseURL:      "https://www.reddit.com",
				PerKeyword:   25,
				MinRelevance: 0.3,
			},
			YouTube: YouTubeConfig{
				Enabled:          true,
				BaseURL:          "https://www.googleapis.com/youtube/v3",
				VideosPerKeyword: 5,
				CommentsPerVideo: 50,
				DailyQuota:       10000,
				MinRelevance:     0.3,
			},
		},
		Quality: QualityConfig{
			HighTotal:           50,
			MediumTotal:         20,
			LowTotal:            10,
			HighRatio:           0.8,
			MediumRatio:         0.6,
			HighTrustMethods:    []Method{MethodJudgeMe, MethodYotpo},
			CategoryEvidenceMin: 3,
		},
		Output: OutputConfig{
			Dir:      "reports",
			DebugDir: "debug",
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   800,
			Timeout:     60 * time.Second,
			BaseURL:     "http://localhost:11434",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
