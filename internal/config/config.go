package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	S3        S3Config
	Log       LogConfig
	LLM       LLMConfig
	RateLimit RateLimitConfig
	Pipeline  PipelineConfig
	Selector  SelectorConfig
	Loader    LoaderConfig
	Archive   ArchiveConfig
	Email     EmailConfig
}

// EmailConfig holds run notification settings.
type EmailConfig struct {
	Provider    string   `mapstructure:"provider"`
	Region      string   `mapstructure:"region"`
	FromAddress string   `mapstructure:"from_address"`
	FromName    string   `mapstructure:"from_name"`
	Recipients  []string `mapstructure:"recipients"`
}

// LLMProviderConfig holds settings for a single LLM provider.
type LLMProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// LLMConfig holds text generation settings with multi-provider fallback.
type LLMConfig struct {
	Primary   LLMProviderConfig `mapstructure:"primary"`
	Secondary LLMProviderConfig `mapstructure:"secondary"`
	Tertiary  LLMProviderConfig `mapstructure:"tertiary"`

	MaxPromptChars        int `mapstructure:"max_prompt_chars"`
	MaxValidationAttempts int `mapstructure:"max_validation_attempts"`
}

// PrimaryConfig returns the primary provider config.
func (l *LLMConfig) PrimaryConfig() *LLMProviderConfig {
	return &l.Primary
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (l *LLMConfig) SecondaryConfig() *LLMProviderConfig {
	if l.Secondary.Provider != "" {
		return &l.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (l *LLMConfig) TertiaryConfig() *LLMProviderConfig {
	if l.Tertiary.Provider != "" {
		return &l.Tertiary
	}
	return nil
}

// RateLimitConfig throttles calls to the text generation service.
type RateLimitConfig struct {
	MinInterval    time.Duration `mapstructure:"min_interval"`
	MaxRetries     int           `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// PipelineConfig bounds a single orchestrator run.
type PipelineConfig struct {
	MaxBatchSize         int           `mapstructure:"max_batch_size"`
	Concurrency          int           `mapstructure:"concurrency"`
	MaxAttempts          int           `mapstructure:"max_attempts"`
	ClaimTimeout         time.Duration `mapstructure:"claim_timeout"`
	MaxLLMCalls          int           `mapstructure:"max_llm_calls"`
	MaxTransientFailures int           `mapstructure:"max_transient_failures"`
	DocumentTimeout      time.Duration `mapstructure:"document_timeout"`
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	BackgroundWorker     bool          `mapstructure:"background_worker"`
	// StateCode and PlaceName restrict claims to one jurisdiction when set.
	StateCode string `mapstructure:"state_code"`
	PlaceName string `mapstructure:"place_name"`
}

// SelectorConfig holds strategy selection thresholds.
type SelectorConfig struct {
	MinSamples            int     `mapstructure:"min_samples"`
	MinConfidence         float64 `mapstructure:"min_confidence"`
	HeadingDensity        float64 `mapstructure:"heading_density"`
	MinHeadings           int     `mapstructure:"min_headings"`
	ParagraphClassDensity float64 `mapstructure:"paragraph_class_density"`
	MinParagraphs         int     `mapstructure:"min_paragraphs"`
	MinExplicitSections   int     `mapstructure:"min_explicit_sections"`
}

// LoaderConfig selects where raw documents come from.
type LoaderConfig struct {
	Kind   string `mapstructure:"kind"`
	Root   string `mapstructure:"root"`
	Prefix string `mapstructure:"prefix"`
}

// ArchiveConfig controls the per-document JSON archive in object storage.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DBConfig holds database connection settings. Driver selects PostgreSQL
// (via pgx) or an embedded SQLite file.
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the connection string for the configured driver.
func (d *DBConfig) DSN() string {
	if d.Driver == DriverSQLite {
		return d.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_time_format=sqlite"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// MigrateURL returns the golang-migrate database URL.
func (d *DBConfig) MigrateURL() string {
	if d.Driver == DriverSQLite {
		return "sqlite://" + d.Path + "?_pragma=busy_timeout(5000)"
	}
	return d.DSN()
}

// JWTConfig holds JWT signing settings for the admin API.
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
	Issuer      string        `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the LAWNORM_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LAWNORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// DB defaults
	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "lawnorm.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "lawnorm")
	v.SetDefault("db.password", "lawnorm_secret")
	v.SetDefault("db.name", "lawnorm")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.token_expiry", "24h")
	v.SetDefault("jwt.issuer", "lawnorm")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "lawnorm-corpus")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// LLM defaults
	v.SetDefault("llm.primary.provider", "gemini")
	v.SetDefault("llm.primary.api_key", "")
	v.SetDefault("llm.primary.default_model", "")
	v.SetDefault("llm.primary.max_retries", 2)
	v.SetDefault("llm.primary.timeout_secs", 120)
	v.SetDefault("llm.secondary.provider", "")
	v.SetDefault("llm.secondary.api_key", "")
	v.SetDefault("llm.secondary.default_model", "")
	v.SetDefault("llm.secondary.max_retries", 2)
	v.SetDefault("llm.secondary.timeout_secs", 120)
	v.SetDefault("llm.tertiary.provider", "")
	v.SetDefault("llm.tertiary.api_key", "")
	v.SetDefault("llm.tertiary.default_model", "")
	v.SetDefault("llm.tertiary.max_retries", 2)
	v.SetDefault("llm.tertiary.timeout_secs", 120)
	v.SetDefault("llm.max_prompt_chars", 60000)
	v.SetDefault("llm.max_validation_attempts", 3)

	// Rate limit defaults
	v.SetDefault("rate_limit.min_interval", "500ms")
	v.SetDefault("rate_limit.max_retries", 4)
	v.SetDefault("rate_limit.initial_backoff", "2s")
	v.SetDefault("rate_limit.max_backoff", "2m")

	// Pipeline defaults
	v.SetDefault("pipeline.max_batch_size", 100)
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("pipeline.max_attempts", 3)
	v.SetDefault("pipeline.claim_timeout", "30m")
	v.SetDefault("pipeline.max_llm_calls", 500)
	v.SetDefault("pipeline.max_transient_failures", 10)
	v.SetDefault("pipeline.document_timeout", "5m")
	v.SetDefault("pipeline.poll_interval", "30s")
	v.SetDefault("pipeline.background_worker", false)
	v.SetDefault("pipeline.state_code", "")
	v.SetDefault("pipeline.place_name", "")

	// Selector defaults
	v.SetDefault("selector.min_samples", 5)
	v.SetDefault("selector.min_confidence", 0.85)
	v.SetDefault("selector.heading_density", 0.05)
	v.SetDefault("selector.min_headings", 2)
	v.SetDefault("selector.paragraph_class_density", 0.5)
	v.SetDefault("selector.min_paragraphs", 3)
	v.SetDefault("selector.min_explicit_sections", 1)

	// Loader defaults
	v.SetDefault("loader.kind", "dir")
	v.SetDefault("loader.root", "data/raw")
	v.SetDefault("loader.prefix", "raw/")

	// Archive defaults
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.prefix", "normalized/")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "noreply@lawnorm.local")
	v.SetDefault("email.from_name", "lawnorm")
	v.SetDefault("email.recipients", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                      "LAWNORM_SERVER_PORT",
		"server.read_timeout":              "LAWNORM_SERVER_READ_TIMEOUT",
		"server.write_timeout":             "LAWNORM_SERVER_WRITE_TIMEOUT",
		"server.environment":               "LAWNORM_SERVER_ENVIRONMENT",
		"server.cors_origins":              "LAWNORM_SERVER_CORS_ORIGINS",
		"db.driver":                        "LAWNORM_DB_DRIVER",
		"db.path":                          "LAWNORM_DB_PATH",
		"db.host":                          "LAWNORM_DB_HOST",
		"db.port":                          "LAWNORM_DB_PORT",
		"db.user":                          "LAWNORM_DB_USER",
		"db.password":                      "LAWNORM_DB_PASSWORD",
		"db.name":                          "LAWNORM_DB_NAME",
		"db.sslmode":                       "LAWNORM_DB_SSLMODE",
		"db.max_open":                      "LAWNORM_DB_MAX_OPEN",
		"db.max_idle":                      "LAWNORM_DB_MAX_IDLE",
		"jwt.secret":                       "LAWNORM_JWT_SECRET",
		"jwt.token_expiry":                 "LAWNORM_JWT_TOKEN_EXPIRY",
		"jwt.issuer":                       "LAWNORM_JWT_ISSUER",
		"s3.region":                        "LAWNORM_S3_REGION",
		"s3.bucket":                        "LAWNORM_S3_BUCKET",
		"s3.endpoint":                      "LAWNORM_S3_ENDPOINT",
		"s3.access_key":                    "LAWNORM_S3_ACCESS_KEY",
		"s3.secret_key":                    "LAWNORM_S3_SECRET_KEY",
		"s3.presign_expiry":                "LAWNORM_S3_PRESIGN_EXPIRY",
		"log.level":                        "LAWNORM_LOG_LEVEL",
		"log.format":                       "LAWNORM_LOG_FORMAT",
		"llm.primary.provider":             "LAWNORM_LLM_PRIMARY_PROVIDER",
		"llm.primary.api_key":              "LAWNORM_LLM_PRIMARY_API_KEY",
		"llm.primary.default_model":        "LAWNORM_LLM_PRIMARY_DEFAULT_MODEL",
		"llm.primary.max_retries":          "LAWNORM_LLM_PRIMARY_MAX_RETRIES",
		"llm.primary.timeout_secs":         "LAWNORM_LLM_PRIMARY_TIMEOUT_SECS",
		"llm.secondary.provider":           "LAWNORM_LLM_SECONDARY_PROVIDER",
		"llm.secondary.api_key":            "LAWNORM_LLM_SECONDARY_API_KEY",
		"llm.secondary.default_model":      "LAWNORM_LLM_SECONDARY_DEFAULT_MODEL",
		"llm.secondary.max_retries":        "LAWNORM_LLM_SECONDARY_MAX_RETRIES",
		"llm.secondary.timeout_secs":       "LAWNORM_LLM_SECONDARY_TIMEOUT_SECS",
		"llm.tertiary.provider":            "LAWNORM_LLM_TERTIARY_PROVIDER",
		"llm.tertiary.api_key":             "LAWNORM_LLM_TERTIARY_API_KEY",
		"llm.tertiary.default_model":       "LAWNORM_LLM_TERTIARY_DEFAULT_MODEL",
		"llm.tertiary.max_retries":         "LAWNORM_LLM_TERTIARY_MAX_RETRIES",
		"llm.tertiary.timeout_secs":        "LAWNORM_LLM_TERTIARY_TIMEOUT_SECS",
		"llm.max_prompt_chars":             "LAWNORM_LLM_MAX_PROMPT_CHARS",
		"llm.max_validation_attempts":      "LAWNORM_LLM_MAX_VALIDATION_ATTEMPTS",
		"rate_limit.min_interval":          "LAWNORM_RATE_LIMIT_MIN_INTERVAL",
		"rate_limit.max_retries":           "LAWNORM_RATE_LIMIT_MAX_RETRIES",
		"rate_limit.initial_backoff":       "LAWNORM_RATE_LIMIT_INITIAL_BACKOFF",
		"rate_limit.max_backoff":           "LAWNORM_RATE_LIMIT_MAX_BACKOFF",
		"pipeline.max_batch_size":          "LAWNORM_PIPELINE_MAX_BATCH_SIZE",
		"pipeline.concurrency":             "LAWNORM_PIPELINE_CONCURRENCY",
		"pipeline.max_attempts":            "LAWNORM_PIPELINE_MAX_ATTEMPTS",
		"pipeline.claim_timeout":           "LAWNORM_PIPELINE_CLAIM_TIMEOUT",
		"pipeline.max_llm_calls":           "LAWNORM_PIPELINE_MAX_LLM_CALLS",
		"pipeline.max_transient_failures":  "LAWNORM_PIPELINE_MAX_TRANSIENT_FAILURES",
		"pipeline.document_timeout":        "LAWNORM_PIPELINE_DOCUMENT_TIMEOUT",
		"pipeline.poll_interval":           "LAWNORM_PIPELINE_POLL_INTERVAL",
		"pipeline.background_worker":       "LAWNORM_PIPELINE_BACKGROUND_WORKER",
		"pipeline.state_code":              "LAWNORM_PIPELINE_STATE_CODE",
		"pipeline.place_name":              "LAWNORM_PIPELINE_PLACE_NAME",
		"selector.min_samples":             "LAWNORM_SELECTOR_MIN_SAMPLES",
		"selector.min_confidence":          "LAWNORM_SELECTOR_MIN_CONFIDENCE",
		"selector.heading_density":         "LAWNORM_SELECTOR_HEADING_DENSITY",
		"selector.min_headings":            "LAWNORM_SELECTOR_MIN_HEADINGS",
		"selector.paragraph_class_density": "LAWNORM_SELECTOR_PARAGRAPH_CLASS_DENSITY",
		"selector.min_paragraphs":          "LAWNORM_SELECTOR_MIN_PARAGRAPHS",
		"selector.min_explicit_sections":   "LAWNORM_SELECTOR_MIN_EXPLICIT_SECTIONS",
		"loader.kind":                      "LAWNORM_LOADER_KIND",
		"loader.root":                      "LAWNORM_LOADER_ROOT",
		"loader.prefix":                    "LAWNORM_LOADER_PREFIX",
		"archive.enabled":                  "LAWNORM_ARCHIVE_ENABLED",
		"archive.prefix":                   "LAWNORM_ARCHIVE_PREFIX",
		"email.provider":                   "LAWNORM_EMAIL_PROVIDER",
		"email.region":                     "LAWNORM_EMAIL_REGION",
		"email.from_address":               "LAWNORM_EMAIL_FROM_ADDRESS",
		"email.from_name":                  "LAWNORM_EMAIL_FROM_NAME",
		"email.recipients":                 "LAWNORM_EMAIL_RECIPIENTS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set a PORT env var. Use it if LAWNORM_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("LAWNORM_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		CORSOrigins:  splitList(v.GetString("server.cors_origins")),
	}
	cfg.DB = DBConfig{
		Driver:   strings.ToLower(v.GetString("db.driver")),
		Path:     v.GetString("db.path"),
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	if cfg.DB.Driver != DriverPostgres && cfg.DB.Driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}
	cfg.JWT = JWTConfig{
		Secret:      v.GetString("jwt.secret"),
		TokenExpiry: v.GetDuration("jwt.token_expiry"),
		Issuer:      v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	cfg.LLM = LLMConfig{
		Primary:               providerConfig(v, "llm.primary"),
		Secondary:             providerConfig(v, "llm.secondary"),
		Tertiary:              providerConfig(v, "llm.tertiary"),
		MaxPromptChars:        v.GetInt("llm.max_prompt_chars"),
		MaxValidationAttempts: v.GetInt("llm.max_validation_attempts"),
	}
	cfg.RateLimit = RateLimitConfig{
		MinInterval:    v.GetDuration("rate_limit.min_interval"),
		MaxRetries:     v.GetInt("rate_limit.max_retries"),
		InitialBackoff: v.GetDuration("rate_limit.initial_backoff"),
		MaxBackoff:     v.GetDuration("rate_limit.max_backoff"),
	}
	cfg.Pipeline = PipelineConfig{
		MaxBatchSize:         v.GetInt("pipeline.max_batch_size"),
		Concurrency:          v.GetInt("pipeline.concurrency"),
		MaxAttempts:          v.GetInt("pipeline.max_attempts"),
		ClaimTimeout:         v.GetDuration("pipeline.claim_timeout"),
		MaxLLMCalls:          v.GetInt("pipeline.max_llm_calls"),
		MaxTransientFailures: v.GetInt("pipeline.max_transient_failures"),
		DocumentTimeout:      v.GetDuration("pipeline.document_timeout"),
		PollInterval:         v.GetDuration("pipeline.poll_interval"),
		BackgroundWorker:     v.GetBool("pipeline.background_worker"),
		StateCode:            strings.ToUpper(v.GetString("pipeline.state_code")),
		PlaceName:            v.GetString("pipeline.place_name"),
	}
	cfg.Selector = SelectorConfig{
		MinSamples:            v.GetInt("selector.min_samples"),
		MinConfidence:         v.GetFloat64("selector.min_confidence"),
		HeadingDensity:        v.GetFloat64("selector.heading_density"),
		MinHeadings:           v.GetInt("selector.min_headings"),
		ParagraphClassDensity: v.GetFloat64("selector.paragraph_class_density"),
		MinParagraphs:         v.GetInt("selector.min_paragraphs"),
		MinExplicitSections:   v.GetInt("selector.min_explicit_sections"),
	}
	cfg.Loader = LoaderConfig{
		Kind:   v.GetString("loader.kind"),
		Root:   v.GetString("loader.root"),
		Prefix: v.GetString("loader.prefix"),
	}
	cfg.Archive = ArchiveConfig{
		Enabled: v.GetBool("archive.enabled"),
		Prefix:  v.GetString("archive.prefix"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		Recipients:  splitList(v.GetString("email.recipients")),
	}

	return cfg, nil
}

func providerConfig(v *viper.Viper, prefix string) LLMProviderConfig {
	return LLMProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		MaxRetries:   v.GetInt(prefix + ".max_retries"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
	}
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
