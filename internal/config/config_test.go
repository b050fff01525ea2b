package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var secretEnvVars = []string{
	"NEWSPULSE_LLM_OPENAI_KEY", "OPENAI_API_KEY",
	"NEWSPULSE_ANNOTATION_HUGGINGFACE_API_KEY", "HF_TOKEN",
	"AWS_ACCESS_KEY_ID",
}

func clearSecrets(t *testing.T) {
	t.Helper()
	for _, e := range secretEnvVars {
		t.Setenv(e, "")
	}
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearSecrets(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Source defaults
	if cfg.Source.Provider != "timesofindia" {
		t.Errorf("Source.Provider: got %q, want %q", cfg.Source.Provider, "timesofindia")
	}
	if len(cfg.Source.Feeds) != 1 || !strings.Contains(cfg.Source.Feeds[0], "{query}") {
		t.Errorf("Source.Feeds: got %v", cfg.Source.Feeds)
	}
	if cfg.Source.CacheTTL != 600 {
		t.Errorf("Source.CacheTTL: got %d, want 600", cfg.Source.CacheTTL)
	}

	// Annotation defaults
	if cfg.Annotation.Provider != "keyword" {
		t.Errorf("Annotation.Provider: got %q, want %q", cfg.Annotation.Provider, "keyword")
	}
	if cfg.Annotation.HuggingFace.SummaryModel != "sshleifer/distilbart-cnn-12-6" {
		t.Errorf("HuggingFace.SummaryModel: got %q", cfg.Annotation.HuggingFace.SummaryModel)
	}

	// LLM defaults
	if cfg.LLM.Primary != "openai" {
		t.Errorf("LLM.Primary: got %q, want %q", cfg.LLM.Primary, "openai")
	}
	if cfg.LLM.Temperature != 0.1 {
		t.Errorf("LLM.Temperature: got %f, want 0.1", cfg.LLM.Temperature)
	}
	if cfg.LLM.OllamaURL != "http://localhost:11434" {
		t.Errorf("LLM.OllamaURL: got %q", cfg.LLM.OllamaURL)
	}

	// Narration defaults
	if !cfg.Narration.Enabled {
		t.Error("Narration.Enabled should be true by default")
	}
	if cfg.Narration.Locale != "hi" {
		t.Errorf("Narration.Locale: got %q, want %q", cfg.Narration.Locale, "hi")
	}
	if cfg.Narration.Store != "file" {
		t.Errorf("Narration.Store: got %q, want %q", cfg.Narration.Store, "file")
	}

	// Storage defaults
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend: got %q, want %q", cfg.Storage.Backend, "memory")
	}

	// Analysis defaults
	if cfg.Analysis.DefaultArticles != 3 {
		t.Errorf("Analysis.DefaultArticles: got %d, want 3", cfg.Analysis.DefaultArticles)
	}
	if cfg.Analysis.MaxArticles != 20 {
		t.Errorf("Analysis.MaxArticles: got %d, want 20", cfg.Analysis.MaxArticles)
	}
	if cfg.Analysis.ConcurrentAnnotations != 4 {
		t.Errorf("Analysis.ConcurrentAnnotations: got %d, want 4", cfg.Analysis.ConcurrentAnnotations)
	}

	// Watchlist defaults
	if cfg.Watchlist.Schedule != "0 */6 * * *" {
		t.Errorf("Watchlist.Schedule: got %q", cfg.Watchlist.Schedule)
	}
	if len(cfg.Watchlist.Companies) != 0 {
		t.Errorf("Watchlist.Companies: got %v, want empty", cfg.Watchlist.Companies)
	}

	// API defaults
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	clearSecrets(t)
	t.Setenv("NEWSPULSE_API_PORT", "9191")
	t.Setenv("NEWSPULSE_NARRATION_LOCALE", "ta")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.Port != 9191 {
		t.Errorf("API.Port: got %d, want 9191", cfg.API.Port)
	}
	if cfg.Narration.Locale != "ta" {
		t.Errorf("Narration.Locale: got %q, want ta", cfg.Narration.Locale)
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	clearSecrets(t)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
source:
  provider: "multi"
  feeds:
    - "https://example.com/rss?q={query}"
    - "https://example.com/markets.xml"
annotation:
  provider: "llm"
  max_topics: 3
llm:
  primary: "ollama"
  model: "llama3"
narration:
  store: "s3"
  s3:
    bucket: "newspulse-audio"
storage:
  backend: "redis"
  redis_url: "redis://cache:6379/1"
watchlist:
  companies: ["Tesla", "Infosys"]
  schedule: "@hourly"
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Source.Provider != "multi" || len(cfg.Source.Feeds) != 2 {
		t.Errorf("Source: got %+v", cfg.Source)
	}
	if cfg.Annotation.Provider != "llm" || cfg.Annotation.MaxTopics != 3 {
		t.Errorf("Annotation: got %+v", cfg.Annotation)
	}
	if cfg.LLM.Primary != "ollama" || cfg.LLM.Model != "llama3" {
		t.Errorf("LLM: got %+v", cfg.LLM)
	}
	if cfg.Narration.S3.Bucket != "newspulse-audio" {
		t.Errorf("Narration.S3.Bucket: got %q", cfg.Narration.S3.Bucket)
	}
	if cfg.Storage.Backend != "redis" || cfg.Storage.RedisURL != "redis://cache:6379/1" {
		t.Errorf("Storage: got %+v", cfg.Storage)
	}
	if len(cfg.Watchlist.Companies) != 2 || cfg.Watchlist.Schedule != "@hourly" {
		t.Errorf("Watchlist: got %+v", cfg.Watchlist)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}
	// Untouched sections keep their defaults.
	if cfg.Analysis.DefaultArticles != 3 {
		t.Errorf("Analysis.DefaultArticles: got %d, want 3", cfg.Analysis.DefaultArticles)
	}
}

func TestLoadFromFileReadsDotEnv(t *testing.T) {
	clearSecrets(t)
	os.Unsetenv("NEWSPULSE_LLM_OPENAI_KEY")

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("NEWSPULSE_LLM_OPENAI_KEY=sk-from-dotenv-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("NEWSPULSE_LLM_OPENAI_KEY") })

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.LLM.OpenAIKey != "sk-from-dotenv-file" {
		t.Errorf("OpenAIKey: got %q, want value from .env", cfg.LLM.OpenAIKey)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	clearSecrets(t)
	tests := []struct {
		name    string
		content string
	}{
		{"unknown source", "source:\n  provider: bing\n"},
		{"unknown annotator", "annotation:\n  provider: magic\n"},
		{"s3 without bucket", "narration:\n  store: s3\n"},
		{"unknown storage", "storage:\n  backend: mongo\n"},
		{"default above max", "analysis:\n  default_articles: 30\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFromFile(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	clearSecrets(t)
	t.Setenv("NEWSPULSE_LLM_OPENAI_KEY", "sk-test-openai-key-123456")
	t.Setenv("HF_TOKEN", "hf_token_from_env")

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.LLM.OpenAIKey != "sk-test-openai-key-123456" {
		t.Errorf("OpenAIKey: got %q", cfg.LLM.OpenAIKey)
	}
	if cfg.Annotation.HuggingFace.APIKey != "hf_token_from_env" {
		t.Errorf("HuggingFace.APIKey: got %q", cfg.Annotation.HuggingFace.APIKey)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	clearSecrets(t)

	cfg := &Config{
		LLM: LLMConfig{OpenAIKey: "from-config"},
	}
	overrideFromEnv(cfg)

	if cfg.LLM.OpenAIKey != "from-config" {
		t.Errorf("OpenAIKey should stay as 'from-config' when env is unset, got %q", cfg.LLM.OpenAIKey)
	}
}

func TestSeconds(t *testing.T) {
	if got := Seconds(90); got != 90*time.Second {
		t.Errorf("Seconds(90): got %v", got)
	}
}

// ── maskKey ──

func TestMaskKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
		{"123456789", "123...789"},
		{"sk-abcdef1234567890xyz", "sk-...xyz"},
	}
	for _, tc := range tests {
		if got := maskKey(tc.input); got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys / checkKey ──

func TestCheckAPIKeysAllEmpty(t *testing.T) {
	clearSecrets(t)

	statuses := CheckAPIKeys(&Config{})
	if len(statuses) != 3 {
		t.Fatalf("CheckAPIKeys: got %d statuses, want 3", len(statuses))
	}
	for _, s := range statuses {
		if s.IsSet {
			t.Errorf("Key %q should not be set", s.Name)
		}
		if s.Source != KeySourceNone {
			t.Errorf("Key %q source: got %q, want %q", s.Name, s.Source, KeySourceNone)
		}
	}
}

func TestCheckAPIKeysFromConfig(t *testing.T) {
	clearSecrets(t)

	cfg := &Config{LLM: LLMConfig{OpenAIKey: "sk-test-very-long-key-value"}}
	for _, s := range CheckAPIKeys(cfg) {
		if s.Name != "OpenAI API Key" {
			continue
		}
		if !s.IsSet || s.Source != KeySourceConfig {
			t.Errorf("status: got %+v", s)
		}
		if s.Masked != "sk-...lue" {
			t.Errorf("Masked: got %q, want %q", s.Masked, "sk-...lue")
		}
	}
}

func TestCheckKeySourceDetection(t *testing.T) {
	t.Setenv("TEST_VAR", "")
	t.Setenv("TEST_VAR_ALT", "")

	s := checkKey("Test", "", "TEST_VAR")
	if s.Source != KeySourceNone || s.IsSet {
		t.Errorf("empty value: got %+v", s)
	}

	s = checkKey("Test", "config-value-long-enough", "TEST_VAR")
	if s.Source != KeySourceConfig {
		t.Errorf("config value: got source %q, want %q", s.Source, KeySourceConfig)
	}

	t.Setenv("TEST_VAR_ALT", "env-value-long-enough")
	s = checkKey("Test", "env-value-long-enough", "TEST_VAR", "TEST_VAR_ALT")
	if s.Source != KeySourceEnv {
		t.Errorf("alt env value: got source %q, want %q", s.Source, KeySourceEnv)
	}
}
