// Package config handles loading and validating importer configuration from YAML files.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kreigan/zone-importer/internal/azion"
	"github.com/kreigan/zone-importer/internal/importer"
)

// Environment variables that override the file.
const (
	EnvToken  = "AZION_TOKEN"
	EnvAPIURL = "AZION_API_URL"
	EnvZoneID = "AZION_ZONE_ID"
)

// DefaultListen is the address the HTTP server binds to when none is configured.
const DefaultListen = ":8080"

// Config represents the importer configuration.
type Config struct {
	API    API    `yaml:"api"`
	Import Import `yaml:"import"`
	Server Server `yaml:"server"`
}

// API holds the destination connection settings.
type API struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token,omitempty"`
	// ZoneID skips zone resolution when set
	ZoneID  string        `yaml:"zone_id,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Import tunes batching and retries.
type Import struct {
	ChunkSize      int           `yaml:"chunk_size"`
	ChunkDelay     time.Duration `yaml:"chunk_delay"`
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialDelay   time.Duration `yaml:"initial_delay"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
	MaxEmptyChunks int           `yaml:"max_empty_chunks"`
	OnDuplicate    string        `yaml:"on_duplicate"`
}

// Server configures the HTTP surface started by "serve".
type Server struct {
	Listen string `yaml:"listen"`
	// APIKey, when set, must be sent by clients in the X-API-Key header
	APIKey string `yaml:"api_key,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	def := importer.DefaultConfig()
	return &Config{
		API: API{
			URL:     azion.DefaultBaseURL,
			Timeout: 30 * time.Second,
		},
		Import: Import{
			ChunkSize:      def.ChunkSize,
			ChunkDelay:     def.ChunkDelay,
			MaxAttempts:    def.MaxAttempts,
			InitialDelay:   def.InitialDelay,
			RetryBackoff:   def.RetryBackoff,
			MaxEmptyChunks: def.MaxEmptyChunks,
			OnDuplicate:    string(def.OnDuplicate),
		},
		Server: Server{Listen: DefaultListen},
	}
}

// LoadFromFile loads configuration from a YAML file. Keys absent from the
// file keep their default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is from CLI argument
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return cfg, nil
}

// Load reads path, or returns the defaults when path is empty, and applies
// the environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides file values with non-empty environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvToken); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv(EnvZoneID); v != "" {
		c.API.ZoneID = v
	}
}

// ValidationError holds all validation errors.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf(
		"validation failed with %d error(s):\n  - %s",
		len(e.Errors),
		strings.Join(e.Errors, "\n  - "),
	)
}

// Add appends a formatted error message to the validation errors.
func (e *ValidationError) Add(format string, args ...interface{}) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate validates the configuration and returns all errors at once.
// The token is only checked when requireToken is set, since parsing and
// dry runs never reach the destination.
func (c *Config) Validate(requireToken bool) *ValidationError {
	errs := &ValidationError{}

	c.validateAPI(requireToken, errs)
	c.validateImport(errs)

	if c.Server.Listen == "" {
		errs.Add("server: listen address cannot be empty")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func (c *Config) validateAPI(requireToken bool, errs *ValidationError) {
	if c.API.URL == "" {
		errs.Add("api: url is required")
	} else if u, err := url.Parse(c.API.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.Add("api: url %q must be an absolute http(s) URL", c.API.URL)
	}

	if requireToken && strings.TrimSpace(c.API.Token) == "" {
		errs.Add("api: token is required (set it in the file, with --token or via %s)", EnvToken)
	}

	if c.API.ZoneID != "" {
		if _, err := strconv.ParseUint(c.API.ZoneID, 10, 64); err != nil {
			errs.Add("api: zone_id %q must be a numeric zone identifier", c.API.ZoneID)
		}
	}

	if c.API.Timeout < 0 {
		errs.Add("api: timeout cannot be negative")
	}
}

func (c *Config) validateImport(errs *ValidationError) {
	imp := c.Import

	if imp.ChunkSize <= 0 {
		errs.Add("import: chunk_size must be positive, got %d", imp.ChunkSize)
	}
	if imp.MaxAttempts <= 0 {
		errs.Add("import: max_attempts must be positive, got %d", imp.MaxAttempts)
	}
	if imp.MaxEmptyChunks < 0 {
		errs.Add("import: max_empty_chunks cannot be negative")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"chunk_delay", imp.ChunkDelay},
		{"initial_delay", imp.InitialDelay},
		{"retry_backoff", imp.RetryBackoff},
	}
	for _, d := range durations {
		if d.value < 0 {
			errs.Add("import: %s cannot be negative", d.name)
		}
	}

	switch importer.DuplicatePolicy(imp.OnDuplicate) {
	case importer.DuplicateFail, importer.DuplicateReplace, "":
	default:
		errs.Add("import: on_duplicate %q is not one of %q, %q",
			imp.OnDuplicate, importer.DuplicateFail, importer.DuplicateReplace)
	}
}

// ImporterConfig converts the import section for the importer package.
func (c *Config) ImporterConfig() importer.Config {
	return importer.Config{
		OnDuplicate:    importer.DuplicatePolicy(c.Import.OnDuplicate),
		ChunkSize:      c.Import.ChunkSize,
		ChunkDelay:     c.Import.ChunkDelay,
		MaxAttempts:    c.Import.MaxAttempts,
		InitialDelay:   c.Import.InitialDelay,
		RetryBackoff:   c.Import.RetryBackoff,
		MaxEmptyChunks: c.Import.MaxEmptyChunks,
	}
}
