package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/knowledge"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGemini:
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
				"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
				ErrMissingAPIKey)
		}
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("%w: ollama_host cannot be empty", ErrInvalidOllamaHost)
		}
		if u, err := url.Parse(c.OllamaHost); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q must be a URL like http://localhost:11434", ErrInvalidOllamaHost, c.OllamaHost)
		}
	default:
		return fmt.Errorf("%w: %q, must be %q or %q", ErrInvalidProvider, c.Provider, ProviderGemini, ProviderOllama)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	if c.ListenAddr == "" || !strings.Contains(c.ListenAddr, ":") {
		return fmt.Errorf("%w: %q must be host:port or :port", ErrInvalidListenAddr, c.ListenAddr)
	}

	if c.SearchTopK < 1 || c.SearchTopK > 50 {
		return fmt.Errorf("%w: must be between 1 and 50, got %d", ErrInvalidSearchTopK, c.SearchTopK)
	}
	if c.SearchMinScore < 0 || c.SearchMinScore > 1 {
		return fmt.Errorf("%w: must be between 0.0 and 1.0, got %.2f", ErrInvalidSearchMinScore, c.SearchMinScore)
	}

	if c.ChunkMaxSize <= 0 {
		return fmt.Errorf("%w: chunk_max_size must be positive, got %d", ErrInvalidChunkSizes, c.ChunkMaxSize)
	}
	if c.ChunkMaxSize > knowledge.MaxChunkTextLength {
		return fmt.Errorf("%w: chunk_max_size must not exceed %d, got %d",
			ErrInvalidChunkSizes, knowledge.MaxChunkTextLength, c.ChunkMaxSize)
	}
	if c.ChunkMinSize < 0 || c.ChunkMinSize > c.ChunkMaxSize {
		return fmt.Errorf("%w: chunk_min_size must be between 0 and chunk_max_size, got %d", ErrInvalidChunkSizes, c.ChunkMinSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkMaxSize {
		return fmt.Errorf("%w: chunk_overlap must be smaller than chunk_max_size, got %d", ErrInvalidChunkSizes, c.ChunkOverlap)
	}

	if c.RateBurst < 1 || c.RateBurst > 10000 {
		return fmt.Errorf("%w: must be between 1 and 10000, got %d", ErrInvalidRateBurst, c.RateBurst)
	}

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
		return fmt.Errorf("%w: postgres_password must be set", ErrInvalidPostgresPassword)
	}
	if c.PostgresPassword == "sdlc_dev_password" {
		slog.Warn("using default development password for PostgreSQL",
			"warning", "change postgres_password for production deployments")
	}
	if len(c.PostgresPassword) < 8 {
		return fmt.Errorf("%w: postgres_password must be at least 8 characters (got %d)",
			ErrInvalidPostgresPassword, len(c.PostgresPassword))
	}

	// Modern SSL modes only; allow/prefer are deprecated and MITM vulnerable.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return nil
}
