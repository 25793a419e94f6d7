// Package config provides application configuration with multi-source
// priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.secondbrain/config.yaml)
//  3. Default values
//
// Sensitive fields are masked in MarshalJSON; validation uses sentinel
// errors so callers can match with errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// DefaultEmbedderModel is the default Gemini embedder model.
// gemini-embedding-001 outputs 3072 dimensions by default but supports
// truncation to 768 via OutputDimensionality; the chunks table stores
// vector(768).
const DefaultEmbedderModel = "gemini-embedding-001"

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON(). When
// adding new sensitive fields, update MarshalJSON.
type Config struct {
	// AI provider and model configuration
	Provider      string `mapstructure:"provider" json:"provider"` // "gemini" (default) or "ollama"
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`
	OllamaHost    string `mapstructure:"ollama_host" json:"ollama_host"`

	// Pipeline configuration
	Guardrails           bool    `mapstructure:"guardrails" json:"guardrails"`
	MaxQueryLength       int     `mapstructure:"max_query_length" json:"max_query_length"`
	MaxTurns             int     `mapstructure:"max_turns" json:"max_turns"`
	TopK                 int     `mapstructure:"top_k" json:"top_k"`
	ScoreThreshold       float32 `mapstructure:"score_threshold" json:"score_threshold"`
	SynthesisMaxAttempts int     `mapstructure:"synthesis_max_attempts" json:"synthesis_max_attempts"`

	// Ingestion configuration
	ChunkSize         int    `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap      int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	NotesDir          string `mapstructure:"notes_dir" json:"notes_dir"`
	FirefoxProfileDir string `mapstructure:"firefox_profile_dir" json:"firefox_profile_dir"` // empty = auto-detect
	SyncStatePath     string `mapstructure:"sync_state_path" json:"sync_state_path"`
	FetchParallelism  int    `mapstructure:"fetch_parallelism" json:"fetch_parallelism"`
	FetchDelayMs      int    `mapstructure:"fetch_delay_ms" json:"fetch_delay_ms"`
	FetchTimeoutMs    int    `mapstructure:"fetch_timeout_ms" json:"fetch_timeout_ms"`
	MaxPageLength     int    `mapstructure:"max_page_length" json:"max_page_length"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// API server configuration
	APIHost string `mapstructure:"api_host" json:"api_host"`
	APIPort int    `mapstructure:"api_port" json:"api_port"`

	// Observability configuration
	TracingEnabled bool   `mapstructure:"tracing_enabled" json:"tracing_enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".secondbrain")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("ollama_host", "http://localhost:11434")

	// Pipeline defaults
	viper.SetDefault("guardrails", true)
	viper.SetDefault("max_query_length", 1000)
	viper.SetDefault("max_turns", 10)
	viper.SetDefault("top_k", 5)
	viper.SetDefault("score_threshold", 0.1)
	viper.SetDefault("synthesis_max_attempts", 3)

	// Ingestion defaults
	viper.SetDefault("chunk_size", 500)
	viper.SetDefault("chunk_overlap", 50)
	viper.SetDefault("notes_dir", "data/notes")
	viper.SetDefault("sync_state_path", "data/.bookmark_sync.json")
	viper.SetDefault("fetch_parallelism", 2)
	viper.SetDefault("fetch_delay_ms", 1000)
	viper.SetDefault("fetch_timeout_ms", 30000)
	viper.SetDefault("max_page_length", 50000)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "secondbrain")
	viper.SetDefault("postgres_password", "secondbrain_dev_password")
	viper.SetDefault("postgres_db_name", "secondbrain")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// API defaults
	viper.SetDefault("api_host", "127.0.0.1")
	viper.SetDefault("api_port", 8080)

	// Observability defaults
	viper.SetDefault("tracing_enabled", false)
	viper.SetDefault("otlp_endpoint", "localhost:4318")
}

// bindEnvVariables binds environment variables explicitly.
// GEMINI_API_KEY is read directly by Genkit, not via Viper.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "KB_PROVIDER")
	mustBind("model_name", "KB_MODEL_NAME")
	mustBind("embedder_model", "KB_EMBEDDER_MODEL")
	mustBind("ollama_host", "KB_OLLAMA_HOST")
	mustBind("guardrails", "KB_GUARDRAILS")
	mustBind("notes_dir", "KB_NOTES_DIR")
	mustBind("firefox_profile_dir", "KB_FIREFOX_PROFILE_DIR")
	mustBind("api_host", "KB_API_HOST")
	mustBind("api_port", "KB_API_PORT")
	mustBind("tracing_enabled", "KB_TRACING_ENABLED")
	mustBind("otlp_endpoint", "KB_OTLP_ENDPOINT")
}

// maskedValue is the placeholder for masked sensitive data. Full-width
// blocks avoid accidental substring matches against real secret content.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 chars or
// fewer are fully masked; longer secrets keep the first and last 2 chars
// for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field
// masking.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config // drop methods to avoid recursion
	masked := alias(*c)
	masked.PostgresPassword = maskSecret(c.PostgresPassword)
	return json.Marshal(masked)
}
