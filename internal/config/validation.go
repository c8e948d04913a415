package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// Chunk size bounds in runes. The lower bound keeps chunks large enough to
// carry a full sentence; the upper bound stays below the embedder's token
// limit with a comfortable margin.
const (
	MinChunkSize = 64
	MaxChunkSize = 8192
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	// 0. Check for nil config (defensive programming)
	if c == nil {
		return ErrConfigNil
	}

	// 1. API Key validation (required for all AI operations)
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	// 2. Model configuration validation
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	// Reference: Gemini API documentation
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// 3. Retrieval configuration validation
	if c.ChunkSize < MinChunkSize || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: must be between %d and %d, got %d",
			ErrInvalidChunkSize, MinChunkSize, MaxChunkSize, c.ChunkSize)
	}

	if c.TopK < 1 || c.TopK > MaxTopK {
		return fmt.Errorf("%w: must be between 1 and %d, got %d", ErrInvalidTopK, MaxTopK, c.TopK)
	}

	if c.RetrievalTimeout < 1 || c.RetrievalTimeout > 300 {
		return fmt.Errorf("%w: must be between 1 and 300 seconds, got %d",
			ErrInvalidRetrievalTimeout, c.RetrievalTimeout)
	}

	if err := validateCollectionName(c.Collection); err != nil {
		return err
	}

	// 4. PostgreSQL configuration validation
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

	// Warn if using default dev password (but don't block - user might be in dev)
	if c.PostgresPassword == "retriva_dev_password" {
		slog.Warn("Using default development password for PostgreSQL",
			"warning", "Change postgres_password in config.yaml for production deployments")
	}

	// 5. PostgreSQL SSL mode validation
	// Modern SSL modes only - exclude deprecated allow/prefer (MITM vulnerable)
	// Reference: https://www.postgresql.org/docs/current/libpq-ssl.html
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return nil
}

// MaxCollectionNameLength bounds collection names; they are stored as the
// primary key of the collections table.
const MaxCollectionNameLength = 128

// validateCollectionName checks that a collection name is non-empty, within
// length bounds, and contains only lowercase alphanumerics, underscores, and
// hyphens. The restriction keeps names usable in logs, URLs, and CLI args.
func validateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidCollection)
	}
	if len(name) > MaxCollectionNameLength {
		return fmt.Errorf("%w: %q exceeds max %d characters",
			ErrInvalidCollection, name, MaxCollectionNameLength)
	}
	for _, r := range name {
		valid := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
		if !valid {
			return fmt.Errorf("%w: %q must contain only [a-z0-9_-]", ErrInvalidCollection, name)
		}
	}
	return nil
}

// ValidateCollectionName validates a collection name supplied at runtime
// (CLI flag or API parameter) with the same rules as the configured default.
func ValidateCollectionName(name string) error {
	return validateCollectionName(strings.TrimSpace(name))
}
