package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	LLM         LLMConfig        `toml:"llm"`
	YouTube     YouTubeConfig    `toml:"youtube"`
	Emotion     EmotionConfig    `toml:"emotion"`
	Calendar    CalendarConfig   `toml:"calendar"`
	Curation    CurationConfig   `toml:"curation"`
	Processing  ProcessingConfig `toml:"processing"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	SQLite SQLiteConfig `toml:"sqlite"`
	Badger BadgerConfig `toml:"badger"`
}

// SQLiteConfig configures the content corpus database
type SQLiteConfig struct {
	Path               string `toml:"path"`                // Database file path
	EmbeddingDimension int    `toml:"embedding_dimension"` // Fixed vector dimension for the whole corpus
	CacheSizeMB        int    `toml:"cache_size_mb"`       // SQLite page cache size
	BusyTimeoutMS      int    `toml:"busy_timeout_ms"`     // Lock wait before SQLITE_BUSY
	WALMode            bool   `toml:"wal_mode"`            // Enable write-ahead logging
}

// BadgerConfig configures the run-history database
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey         string  `toml:"api_key"`         // Google Gemini API key
	ChatModel      string  `toml:"chat_model"`      // Model for chat completions (default: "gemini-2.0-flash")
	EmbedModel     string  `toml:"embed_model"`     // Model for embeddings (default: "gemini-embedding-001")
	EmbedDimension int     `toml:"embed_dimension"` // Output dimensionality (must match storage.sqlite.embedding_dimension)
	Timeout        string  `toml:"timeout"`         // Operation timeout as duration string (default: "2m")
	Temperature    float32 `toml:"temperature"`     // Chat completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for chat completions (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 4096)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMConfig selects the provider used for reasoning calls. Embeddings always
// go through Gemini (Claude exposes no embedding endpoint).
type LLMConfig struct {
	DefaultProvider string `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// YouTubeConfig contains the video-search collaborator configuration
type YouTubeConfig struct {
	APIKey         string        `toml:"api_key"`         // YouTube Data API key
	BaseURL        string        `toml:"base_url"`        // API base URL (override for tests)
	MaxPerTag      int           `toml:"max_per_tag"`     // Candidate items fetched per tag or seed (default: 10)
	CommentLimit   int           `toml:"comment_limit"`   // Top comments fetched per item (default: 5)
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
	RatePerSecond  float64       `toml:"rate_per_second"` // Request pacing against API quota (default: 4)
}

// EmotionConfig contains the emotion-recognition collaborator configuration
type EmotionConfig struct {
	BaseURL        string        `toml:"base_url"`        // Recognizer endpoint
	APIKey         string        `toml:"api_key"`         // Recognizer API key
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
}

// CalendarConfig contains the calendar collaborator configuration
type CalendarConfig struct {
	BaseURL        string        `toml:"base_url"`        // Calendar API endpoint
	AccessToken    string        `toml:"access_token"`    // Bearer token for the calendar API
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
}

// CurationConfig controls the curation workflows. Similarity thresholds are
// per-workflow configuration; call sites never hardcode them.
type CurationConfig struct {
	MaxTags         int     `toml:"max_tags"`         // Cap on tags derived from one context (default: 10)
	FilterThreshold float64 `toml:"filter_threshold"` // Minimum similarity served by the filtering workflow (default: 0.5)
	FilterLimit     int     `toml:"filter_limit"`     // Maximum items served per filtering run (default: 10)
	Concurrency     int     `toml:"concurrency"`      // Bounded parallelism for per-tag/per-item work (default: 6)
}

// ProcessingConfig controls the periodic embedding backfill
type ProcessingConfig struct {
	Enabled  bool   `toml:"enabled"`  // Disabled by default - user must explicitly opt-in
	Schedule string `toml:"schedule"` // Cron schedule format
	Limit    int    `toml:"limit"`    // Max items to embed per backfill run
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				Path:               "./data/curo.db",
				EmbeddingDimension: 768,
				CacheSizeMB:        64,
				BusyTimeoutMS:      5000,
				WALMode:            true,
			},
			Badger: BadgerConfig{
				Path: "./data/runs",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Gemini: GeminiConfig{
			APIKey:         "",
			ChatModel:      "gemini-2.0-flash",
			EmbedModel:     "gemini-embedding-001",
			EmbedDimension: 768,
			Timeout:        "2m",
			Temperature:    0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: "gemini",
		},
		YouTube: YouTubeConfig{
			APIKey:         "",
			BaseURL:        "https://www.googleapis.com/youtube/v3",
			MaxPerTag:      10,
			CommentLimit:   5,
			RequestTimeout: 15 * time.Second,
			RatePerSecond:  4,
		},
		Emotion: EmotionConfig{
			BaseURL:        "",
			RequestTimeout: 15 * time.Second,
		},
		Calendar: CalendarConfig{
			BaseURL:        "",
			RequestTimeout: 15 * time.Second,
		},
		Curation: CurationConfig{
			MaxTags:         10,
			FilterThreshold: 0.5,
			FilterLimit:     10,
			Concurrency:     6,
		},
		Processing: ProcessingConfig{
			Enabled:  false,
			Schedule: "0 0 */6 * * *", // Every 6 hours (cron format with seconds)
			Limit:    200,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CURO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("CURO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CURO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if path := os.Getenv("CURO_SQLITE_PATH"); path != "" {
		config.Storage.SQLite.Path = path
	}
	if path := os.Getenv("CURO_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	// Logging configuration
	if level := os.Getenv("CURO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("CURO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// API keys
	if key := os.Getenv("CURO_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("CURO_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("CURO_YOUTUBE_API_KEY"); key != "" {
		config.YouTube.APIKey = key
	}
	if key := os.Getenv("CURO_EMOTION_API_KEY"); key != "" {
		config.Emotion.APIKey = key
	}
	if token := os.Getenv("CURO_CALENDAR_ACCESS_TOKEN"); token != "" {
		config.Calendar.AccessToken = token
	}

	// LLM provider selection
	if provider := os.Getenv("CURO_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = provider
	}

	// Curation tuning
	if threshold := os.Getenv("CURO_FILTER_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Curation.FilterThreshold = t
		}
	}
	if limit := os.Getenv("CURO_FILTER_LIMIT"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			config.Curation.FilterLimit = l
		}
	}
	if concurrency := os.Getenv("CURO_CURATION_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Curation.Concurrency = c
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks cross-section configuration invariants.
func (c *Config) Validate() error {
	if c.Gemini.EmbedDimension != c.Storage.SQLite.EmbeddingDimension {
		return fmt.Errorf("gemini.embed_dimension (%d) must match storage.sqlite.embedding_dimension (%d)",
			c.Gemini.EmbedDimension, c.Storage.SQLite.EmbeddingDimension)
	}
	if c.Curation.FilterThreshold < -1 || c.Curation.FilterThreshold > 1 {
		return fmt.Errorf("curation.filter_threshold must be within [-1, 1], got %v", c.Curation.FilterThreshold)
	}
	if c.Curation.FilterLimit <= 0 {
		return fmt.Errorf("curation.filter_limit must be positive, got %d", c.Curation.FilterLimit)
	}
	return nil
}
