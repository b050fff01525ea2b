// Package config handles configuration loading for NewsPulse.
// It supports YAML config files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "NEWSPULSE"

// Config represents the complete application configuration.
type Config struct {
	Source     SourceConfig     `mapstructure:"source"     yaml:"source"`
	Annotation AnnotationConfig `mapstructure:"annotation" yaml:"annotation"`
	LLM        LLMConfig        `mapstructure:"llm"        yaml:"llm"`
	Narration  NarrationConfig  `mapstructure:"narration"  yaml:"narration"`
	Storage    StorageConfig    `mapstructure:"storage"    yaml:"storage"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"   yaml:"analysis"`
	Watchlist  WatchlistConfig  `mapstructure:"watchlist"  yaml:"watchlist"`
	API        APIConfig        `mapstructure:"api"        yaml:"api"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
}

// SourceConfig selects and tunes the article source.
type SourceConfig struct {
	Provider   string   `mapstructure:"provider"    yaml:"provider"` // "timesofindia", "rss", "multi"
	Feeds      []string `mapstructure:"feeds"       yaml:"feeds"`    // RSS feed URLs; "{query}" is replaced by the company
	TimeoutSec int      `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	RateLimit  int      `mapstructure:"rate_limit"  yaml:"rate_limit"` // requests per second per host
	CacheTTL   int      `mapstructure:"cache_ttl"   yaml:"cache_ttl"`  // seconds
}

// AnnotationConfig selects the summary/sentiment/topic annotator.
type AnnotationConfig struct {
	Provider     string            `mapstructure:"provider"      yaml:"provider"` // "keyword", "llm", "huggingface"
	MaxTopics    int               `mapstructure:"max_topics"    yaml:"max_topics"`
	SummaryWords int               `mapstructure:"summary_words" yaml:"summary_words"`
	HuggingFace  HuggingFaceConfig `mapstructure:"huggingface"   yaml:"huggingface"`
}

// HuggingFaceConfig holds Inference API settings.
type HuggingFaceConfig struct {
	APIKey         string `mapstructure:"api_key"         yaml:"api_key"`
	BaseURL        string `mapstructure:"base_url"        yaml:"base_url"`
	SummaryModel   string `mapstructure:"summary_model"   yaml:"summary_model"`
	SentimentModel string `mapstructure:"sentiment_model" yaml:"sentiment_model"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Primary       string  `mapstructure:"primary"        yaml:"primary"` // "openai", "ollama"
	OpenAIKey     string  `mapstructure:"openai_key"     yaml:"openai_key"`
	OpenAIURL     string  `mapstructure:"openai_url"     yaml:"openai_url"`
	OllamaURL     string  `mapstructure:"ollama_url"     yaml:"ollama_url"`
	Model         string  `mapstructure:"model"          yaml:"model"`
	FallbackModel string  `mapstructure:"fallback_model" yaml:"fallback_model"`
	Temperature   float64 `mapstructure:"temperature"    yaml:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens"     yaml:"max_tokens"`
}

// NarrationConfig holds translation, text-to-speech and audio storage settings.
type NarrationConfig struct {
	Enabled      bool     `mapstructure:"enabled"       yaml:"enabled"`
	Locale       string   `mapstructure:"locale"        yaml:"locale"`
	TimeoutSec   int      `mapstructure:"timeout_sec"   yaml:"timeout_sec"`
	TranslateURL string   `mapstructure:"translate_url" yaml:"translate_url"`
	TTSURL       string   `mapstructure:"tts_url"       yaml:"tts_url"`
	Store        string   `mapstructure:"store"         yaml:"store"` // "file" or "s3"
	Dir          string   `mapstructure:"dir"           yaml:"dir"`
	S3           S3Config `mapstructure:"s3"            yaml:"s3"`
}

// S3Config holds the audio bucket settings.
type S3Config struct {
	Bucket   string `mapstructure:"bucket"   yaml:"bucket"`
	Region   string `mapstructure:"region"   yaml:"region"`
	Prefix   string `mapstructure:"prefix"   yaml:"prefix"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"` // S3-compatible endpoint, e.g. MinIO
}

// StorageConfig selects where comparative reports are kept.
type StorageConfig struct {
	Backend  string `mapstructure:"backend"   yaml:"backend"` // "memory" or "redis"
	RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`
	TTL      int    `mapstructure:"ttl"       yaml:"ttl"` // seconds; 0 keeps reports forever
}

// AnalysisConfig holds pipeline settings.
type AnalysisConfig struct {
	DefaultArticles       int `mapstructure:"default_articles"       yaml:"default_articles"`
	MaxArticles           int `mapstructure:"max_articles"           yaml:"max_articles"`
	ConcurrentAnnotations int `mapstructure:"concurrent_annotations" yaml:"concurrent_annotations"`
	BatchWorkers          int `mapstructure:"batch_workers"          yaml:"batch_workers"`
	TimeoutSec            int `mapstructure:"timeout_sec"            yaml:"timeout_sec"`
}

// WatchlistConfig lists companies re-analysed on a cron schedule.
type WatchlistConfig struct {
	Companies []string `mapstructure:"companies" yaml:"companies"`
	Schedule  string   `mapstructure:"schedule"  yaml:"schedule"` // cron expression
	Articles  int      `mapstructure:"articles"  yaml:"articles"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	TimeoutSec  int      `mapstructure:"timeout_sec"  yaml:"timeout_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Seconds converts a config value in seconds to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.newspulse/config.yaml (home directory)
//  3. /etc/newspulse/config.yaml (system)
//
// A .env file in the working directory is loaded first, without overriding
// variables already set. Environment variables override config file values.
// Format: NEWSPULSE_<SECTION>_<KEY>, e.g., NEWSPULSE_LLM_OPENAI_KEY
func Load() (*Config, error) {
	loadDotEnv(".env")

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".newspulse"))
	v.AddConfigPath("/etc/newspulse")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found: defaults + env vars.
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"))

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads a .env file if present. Missing files are ignored.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Source defaults
	v.SetDefault("source.provider", "timesofindia")
	v.SetDefault("source.feeds", []string{
		"https://news.google.com/rss/search?q={query}&hl=en-IN&gl=IN&ceid=IN:en",
	})
	v.SetDefault("source.timeout_sec", 30)
	v.SetDefault("source.rate_limit", 2)
	v.SetDefault("source.cache_ttl", 600) // 10 minutes

	// Annotation defaults
	v.SetDefault("annotation.provider", "keyword")
	v.SetDefault("annotation.max_topics", 5)
	v.SetDefault("annotation.summary_words", 60)
	v.SetDefault("annotation.huggingface.base_url", "https://api-inference.huggingface.co/models")
	v.SetDefault("annotation.huggingface.summary_model", "sshleifer/distilbart-cnn-12-6")
	v.SetDefault("annotation.huggingface.sentiment_model", "distilbert/distilbert-base-uncased-finetuned-sst-2-english")

	// LLM defaults
	v.SetDefault("llm.primary", "openai")
	v.SetDefault("llm.openai_url", "https://api.openai.com/v1")
	v.SetDefault("llm.ollama_url", "http://localhost:11434")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 1024)

	// Narration defaults
	v.SetDefault("narration.enabled", true)
	v.SetDefault("narration.locale", "hi")
	v.SetDefault("narration.timeout_sec", 60)
	v.SetDefault("narration.translate_url", "https://translate.googleapis.com/translate_a/single")
	v.SetDefault("narration.tts_url", "https://translate.google.com/translate_tts")
	v.SetDefault("narration.store", "file")
	v.SetDefault("narration.dir", "./audio")
	v.SetDefault("narration.s3.region", "us-east-1")
	v.SetDefault("narration.s3.prefix", "narration/")

	// Storage defaults
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.redis_url", "redis://localhost:6379/0")
	v.SetDefault("storage.ttl", 3600)

	// Analysis defaults
	v.SetDefault("analysis.default_articles", 3)
	v.SetDefault("analysis.max_articles", 20)
	v.SetDefault("analysis.concurrent_annotations", 4)
	v.SetDefault("analysis.batch_workers", 3)
	v.SetDefault("analysis.timeout_sec", 300)

	// Watchlist defaults
	v.SetDefault("watchlist.schedule", "0 */6 * * *")
	v.SetDefault("watchlist.articles", 5)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.timeout_sec", 300)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("NEWSPULSE_LLM_OPENAI_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.LLM.OpenAIKey == "" {
		cfg.LLM.OpenAIKey = key
	}
	if key := os.Getenv("NEWSPULSE_ANNOTATION_HUGGINGFACE_API_KEY"); key != "" {
		cfg.Annotation.HuggingFace.APIKey = key
	}
	if key := os.Getenv("HF_TOKEN"); key != "" && cfg.Annotation.HuggingFace.APIKey == "" {
		cfg.Annotation.HuggingFace.APIKey = key
	}
}

// Validate checks enumerated settings and numeric bounds.
func (c *Config) Validate() error {
	switch c.Source.Provider {
	case "timesofindia", "rss", "multi":
	default:
		return fmt.Errorf("config: unknown source.provider %q", c.Source.Provider)
	}
	switch c.Annotation.Provider {
	case "keyword", "llm", "huggingface":
	default:
		return fmt.Errorf("config: unknown annotation.provider %q", c.Annotation.Provider)
	}
	switch c.Narration.Store {
	case "file", "s3":
	default:
		return fmt.Errorf("config: unknown narration.store %q", c.Narration.Store)
	}
	if c.Narration.Store == "s3" && c.Narration.S3.Bucket == "" {
		return fmt.Errorf("config: narration.s3.bucket is required when narration.store is s3")
	}
	switch c.Storage.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Analysis.MaxArticles < 1 {
		return fmt.Errorf("config: analysis.max_articles must be positive, got %d", c.Analysis.MaxArticles)
	}
	if c.Analysis.DefaultArticles < 1 || c.Analysis.DefaultArticles > c.Analysis.MaxArticles {
		return fmt.Errorf("config: analysis.default_articles must be in [1, %d], got %d",
			c.Analysis.MaxArticles, c.Analysis.DefaultArticles)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
