package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the trial-insight configuration shared by the API server and
// the pipeline CLI.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Registry  RegistryConfig  `yaml:"registry"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Query     QueryConfig     `yaml:"query"`
	Index     IndexConfig     `yaml:"index"`
	AI        AIConfig        `yaml:"ai"`
	Geocoding GeocodingConfig `yaml:"geocoding"`
	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. An empty list disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RegistryConfig holds the public trial registry client settings.
type RegistryConfig struct {
	BaseURL      string `yaml:"base_url"`
	PageSize     int    `yaml:"page_size"`
	MaxPages     int    `yaml:"max_pages"` // 0 = all pages
	MaxRetries   int    `yaml:"max_retries"`
	RetryDelayMs int    `yaml:"retry_delay_ms"`
	TimeoutSec   int    `yaml:"timeout_sec"`
}

// PipelineConfig holds load settings.
type PipelineConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// QueryConfig holds read-side limits.
type QueryConfig struct {
	MaxPageSize  int     `yaml:"max_page_size"`
	RelatedLimit int     `yaml:"related_limit"`
	StatsTopN    int     `yaml:"stats_top_n"`
	MaxRadiusKm  float64 `yaml:"max_radius_km"`
}

// IndexConfig holds the vector index settings.
type IndexConfig struct {
	VectorDim       int `yaml:"vector_dim"`
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
}

// AIConfig holds the embedding and summary provider settings.
type AIConfig struct {
	Provider     string         `yaml:"provider"`
	APIKey       string         `yaml:"api_key"`
	BaseURL      string         `yaml:"base_url"`
	Embedding    EmbeddingModel `yaml:"embedding"`
	Summary      SummaryModel   `yaml:"summary"`
	CallDelayMs  int            `yaml:"call_delay_ms"`
	CacheTTLDays int            `yaml:"cache_ttl_days"` // 0 = keep forever
	Budget       BudgetConfig   `yaml:"budget"`
}

// EmbeddingModel selects the embedding model.
type EmbeddingModel struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// SummaryModel selects the chat model used for summaries.
type SummaryModel struct {
	Model string `yaml:"model"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Enabled reports whether any limit is set.
func (b BudgetConfig) Enabled() bool {
	return b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0
}

// GeocodingConfig holds the geocoder settings. An empty API key disables
// geocoding.
type GeocodingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	CacheSize  int    `yaml:"cache_size"`
	DelayMs    int    `yaml:"delay_ms"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML, substitutes ${VAR} references, applies defaults and
// validates the result.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values and drops list
// entries left blank by an unset ${VAR}.
func (c *Config) ApplyDefaults() {
	c.Auth.APIKeys = compact(c.Auth.APIKeys)
	c.CORS.AllowedOrigins = compact(c.CORS.AllowedOrigins)
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Registry.BaseURL == "" {
		c.Registry.BaseURL = "https://clinicaltrials.gov/api/v2"
	}
	if c.Registry.PageSize <= 0 {
		c.Registry.PageSize = 100
	}
	if c.Registry.MaxRetries <= 0 {
		c.Registry.MaxRetries = 3
	}
	if c.Registry.RetryDelayMs <= 0 {
		c.Registry.RetryDelayMs = 1000
	}
	if c.Registry.TimeoutSec <= 0 {
		c.Registry.TimeoutSec = 30
	}
	if c.Pipeline.BatchSize <= 0 {
		c.Pipeline.BatchSize = 500
	}
	if c.Query.MaxPageSize <= 0 {
		c.Query.MaxPageSize = 100
	}
	if c.Query.RelatedLimit <= 0 {
		c.Query.RelatedLimit = 5
	}
	if c.Query.StatsTopN <= 0 {
		c.Query.StatsTopN = 10
	}
	if c.Query.MaxRadiusKm <= 0 {
		c.Query.MaxRadiusKm = 500
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "openai"
	}
	if c.AI.Embedding.Model == "" {
		c.AI.Embedding.Model = "text-embedding-ada-002"
	}
	if c.AI.Summary.Model == "" {
		c.AI.Summary.Model = "gpt-3.5-turbo"
	}
	if c.AI.CallDelayMs <= 0 {
		c.AI.CallDelayMs = 1000
	}
	if c.Index.VectorDim <= 0 {
		c.Index.VectorDim = 1536
	}
	if c.AI.Embedding.Dimensions <= 0 {
		c.AI.Embedding.Dimensions = c.Index.VectorDim
	}
	if c.Geocoding.CacheSize <= 0 {
		c.Geocoding.CacheSize = 10000
	}
	if c.Geocoding.DelayMs <= 0 {
		c.Geocoding.DelayMs = 50
	}
	if c.Geocoding.TimeoutSec <= 0 {
		c.Geocoding.TimeoutSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Registry.PageSize > 1000 {
		return fmt.Errorf("registry.page_size must not exceed 1000, got %d", c.Registry.PageSize)
	}
	if c.Registry.MaxPages < 0 {
		return fmt.Errorf("registry.max_pages must not be negative, got %d", c.Registry.MaxPages)
	}
	if c.AI.Embedding.Dimensions != c.Index.VectorDim {
		return fmt.Errorf(
			"ai.embedding.dimensions (%d) must equal index.vector_dim (%d)",
			c.AI.Embedding.Dimensions, c.Index.VectorDim,
		)
	}
	switch c.AI.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf("ai.budget.action must be \"warn\" or \"reject\", got %q", c.AI.Budget.Action)
	}
	return nil
}

// RetryDelay returns the registry backoff base.
func (c RegistryConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// Timeout returns the registry request timeout.
func (c RegistryConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// CallDelay returns the pause between AI provider calls.
func (c AIConfig) CallDelay() time.Duration {
	return time.Duration(c.CallDelayMs) * time.Millisecond
}

// CacheTTL returns the embedding cache lifetime, zero for no expiry.
func (c AIConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLDays) * 24 * time.Hour
}

// Delay returns the pause between geocoder calls.
func (c GeocodingConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// Timeout returns the geocoder request timeout.
func (c GeocodingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
