package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
)

// Sentinel errors for configuration validation.
// Callers match these with errors.Is().
var (
	ErrConfigNil               = errors.New("config is nil")
	ErrMissingAPIKey           = errors.New("missing API key")
	ErrInvalidProvider         = errors.New("invalid provider")
	ErrInvalidModelName        = errors.New("invalid model name")
	ErrInvalidEmbedderModel    = errors.New("invalid embedder model")
	ErrInvalidOllamaHost       = errors.New("invalid ollama host")
	ErrInvalidMaxQueryLength   = errors.New("invalid max query length")
	ErrInvalidMaxTurns         = errors.New("invalid max turns")
	ErrInvalidTopK             = errors.New("invalid top_k")
	ErrInvalidScoreThreshold   = errors.New("invalid score threshold")
	ErrInvalidChunking         = errors.New("invalid chunking configuration")
	ErrInvalidPostgresHost     = errors.New("invalid postgres host")
	ErrInvalidPostgresPort     = errors.New("invalid postgres port")
	ErrInvalidPostgresDBName   = errors.New("invalid postgres database name")
	ErrInvalidPostgresPassword = errors.New("invalid postgres password")
	ErrInvalidPostgresSSLMode  = errors.New("invalid postgres ssl mode")
	ErrInvalidAPIPort          = errors.New("invalid api port")
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// Provider and model configuration
	switch c.Provider {
	case ProviderGemini, "":
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
				"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
				ErrMissingAPIKey)
		}
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("%w: ollama_host cannot be empty when provider is %q",
				ErrInvalidOllamaHost, ProviderOllama)
		}
	default:
		return fmt.Errorf("%w: %q is not supported, must be %q or %q",
			ErrInvalidProvider, c.Provider, ProviderGemini, ProviderOllama)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// Pipeline configuration
	if c.MaxQueryLength < 1 {
		return fmt.Errorf("%w: must be positive, got %d", ErrInvalidMaxQueryLength, c.MaxQueryLength)
	}
	if c.MaxTurns < 1 {
		return fmt.Errorf("%w: must be positive, got %d", ErrInvalidMaxTurns, c.MaxTurns)
	}
	if c.TopK < 1 || c.TopK > 100 {
		return fmt.Errorf("%w: must be between 1 and 100, got %d", ErrInvalidTopK, c.TopK)
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold >= 1 {
		return fmt.Errorf("%w: must be in [0, 1), got %.2f", ErrInvalidScoreThreshold, c.ScoreThreshold)
	}

	// Chunking configuration. Overlap must leave room for forward progress.
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d with chunk_size %d",
			ErrInvalidChunking, c.ChunkOverlap, c.ChunkSize)
	}

	// PostgreSQL configuration
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}
	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set in config.yaml",
			ErrInvalidPostgresPassword)
	}
	if c.PostgresPassword == "secondbrain_dev_password" {
		slog.Warn("Using default development password for PostgreSQL",
			"warning", "Change postgres_password in config.yaml for production deployments")
	}
	if len(c.PostgresPassword) < 8 {
		return fmt.Errorf("%w: postgres_password must be at least 8 characters (got %d)",
			ErrInvalidPostgresPassword, len(c.PostgresPassword))
	}

	// Modern SSL modes only. The deprecated allow/prefer modes are
	// vulnerable to MITM downgrade.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	// API server configuration
	if c.APIPort < 1 || c.APIPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidAPIPort, c.APIPort)
	}

	return nil
}
