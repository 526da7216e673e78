package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Google   GoogleConfig   `yaml:"google"`
	Meta     MetaConfig     `yaml:"meta"`
	Sync     SyncConfig     `yaml:"sync"`
	Insights InsightsConfig `yaml:"insights"`
	Reports  ReportsConfig  `yaml:"reports"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	BaseURL        string   `yaml:"base_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for the listener.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_seconds"`
}

// RedisConfig holds Redis settings. An empty URL disables Redis; sessions,
// cache and locks then fall back to memory / Postgres.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// AuthConfig holds Google sign-in configuration for dashboard users
type AuthConfig struct {
	Enabled            bool   `yaml:"enabled"`
	DevMode            bool   `yaml:"dev_mode"` // injects a fixed developer session
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	AllowedDomain      string `yaml:"allowed_domain"` // empty allows any Google account
	SessionSecret      string `yaml:"session_secret"`
	CookieName         string `yaml:"cookie_name"`
	CookieMaxAge       int    `yaml:"cookie_max_age"`
}

// GoogleConfig holds the OAuth client used to connect Google Ads, Analytics,
// Search Console and Business Profile accounts.
type GoogleConfig struct {
	ClientID        string `yaml:"client_id"`
	ClientSecret    string `yaml:"client_secret"`
	AdsDevToken     string `yaml:"ads_developer_token"`
	AdsLoginCustID  string `yaml:"ads_login_customer_id"`
	AdsAPIVersion   string `yaml:"ads_api_version"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	AdsBaseURL      string `yaml:"ads_base_url"`
	AnalyticsURL    string `yaml:"analytics_base_url"`
	SearchURL       string `yaml:"search_console_base_url"`
	BusinessURL     string `yaml:"business_base_url"`
	AccountAdminURL string `yaml:"account_admin_base_url"`
	BusinessAcctURL string `yaml:"business_accounts_base_url"`
	BusinessInfoURL string `yaml:"business_info_base_url"`
}

// Timeout returns the configured timeout as a duration
func (c GoogleConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Enabled reports whether Google connections can be offered.
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// MetaConfig holds the Meta (Facebook/Instagram) app used for connections.
type MetaConfig struct {
	AppID          string `yaml:"app_id"`
	AppSecret      string `yaml:"app_secret"`
	GraphVersion   string `yaml:"graph_version"`
	GraphURL       string `yaml:"graph_base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c MetaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Enabled reports whether Meta connections can be offered.
func (c MetaConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != ""
}

// SyncConfig holds metric ingestion settings
type SyncConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes"`
	LookbackDays    int  `yaml:"lookback_days"`
	Concurrency     int  `yaml:"concurrency"`
	LockTTLSeconds  int  `yaml:"lock_ttl_seconds"`
}

// Interval returns the polling interval as a duration
func (c SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// LockTTL returns the per-connection lock TTL.
func (c SyncConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// InsightsConfig selects and configures the LLM used for AI insights.
type InsightsConfig struct {
	Provider    string  `yaml:"provider"` // bedrock, openai, gemini, none
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	AWSRegion   string  `yaml:"aws_region"`
	OpenAIKey   string  `yaml:"openai_api_key"`
	OpenAIURL   string  `yaml:"openai_base_url"`
	GeminiKey   string  `yaml:"gemini_api_key"`
	MaxInsights int     `yaml:"max_insights"`
	TimeoutSecs int     `yaml:"timeout_seconds"`
}

// Timeout returns the LLM call timeout.
func (c InsightsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ReportsConfig holds report archive and delivery settings
type ReportsConfig struct {
	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain
	AccessKey  string `yaml:"aws_access_key_id"`
	SecretKey  string `yaml:"aws_secret_access_key"`
	SESFrom    string `yaml:"ses_from"`
	LinkTTLMin int    `yaml:"link_ttl_minutes"`
}

// LinkTTL returns how long presigned download links stay valid.
func (c ReportsConfig) LinkTTL() time.Duration {
	return time.Duration(c.LinkTTLMin) * time.Minute
}

// StaticCredentials reports whether explicit AWS keys are configured.
func (c ReportsConfig) StaticCredentials() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c ReportsConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// CacheConfig holds dashboard cache settings
type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

// TTL returns the cache TTL as a duration
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level            string `yaml:"level"`
	DisableRedaction bool   `yaml:"disable_redaction"`
}

// BaseURL returns the externally reachable base URL used for OAuth callbacks.
func (c *Config) BaseURL() string {
	if c.Server.BaseURL != "" {
		return strings.TrimRight(c.Server.BaseURL, "/")
	}
	return fmt.Sprintf("http://%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks that every enabled feature has the secrets it needs.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.Auth.Enabled && (c.Auth.GoogleClientID == "" || c.Auth.GoogleClientSecret == "") {
		errs = append(errs, errors.New("auth is enabled but google client credentials are missing"))
	}
	if c.Auth.SessionSecret == "" {
		errs = append(errs, errors.New("auth.session_secret is required (signs OAuth state)"))
	}
	switch c.Insights.Provider {
	case "bedrock", "none":
	case "openai":
		if c.Insights.OpenAIKey == "" {
			errs = append(errs, errors.New("insights provider openai requires openai_api_key"))
		}
	case "gemini":
		if c.Insights.GeminiKey == "" {
			errs = append(errs, errors.New("insights provider gemini requires gemini_api_key"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown insights provider %q", c.Insights.Provider))
	}
	return errors.Join(errs...)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	cfg, err := parse(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 3
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 300
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "adlens_session"
	}
	if cfg.Auth.CookieMaxAge == 0 {
		cfg.Auth.CookieMaxAge = 7 * 24 * 3600
	}
	if cfg.Google.TimeoutSeconds == 0 {
		cfg.Google.TimeoutSeconds = 30
	}
	if cfg.Google.AdsAPIVersion == "" {
		cfg.Google.AdsAPIVersion = "v17"
	}
	if cfg.Google.AdsBaseURL == "" {
		cfg.Google.AdsBaseURL = "https://googleads.googleapis.com"
	}
	if cfg.Google.AnalyticsURL == "" {
		cfg.Google.AnalyticsURL = "https://analyticsdata.googleapis.com"
	}
	if cfg.Google.SearchURL == "" {
		cfg.Google.SearchURL = "https://www.googleapis.com/webmasters/v3"
	}
	if cfg.Google.BusinessURL == "" {
		cfg.Google.BusinessURL = "https://businessprofileperformance.googleapis.com"
	}
	if cfg.Google.AccountAdminURL == "" {
		cfg.Google.AccountAdminURL = "https://analyticsadmin.googleapis.com"
	}
	if cfg.Google.BusinessAcctURL == "" {
		cfg.Google.BusinessAcctURL = "https://mybusinessaccountmanagement.googleapis.com"
	}
	if cfg.Google.BusinessInfoURL == "" {
		cfg.Google.BusinessInfoURL = "https://mybusinessbusinessinformation.googleapis.com"
	}
	if cfg.Meta.GraphVersion == "" {
		cfg.Meta.GraphVersion = "v19.0"
	}
	if cfg.Meta.GraphURL == "" {
		cfg.Meta.GraphURL = "https://graph.facebook.com"
	}
	if cfg.Meta.TimeoutSeconds == 0 {
		cfg.Meta.TimeoutSeconds = 30
	}
	if cfg.Sync.IntervalMinutes == 0 {
		cfg.Sync.IntervalMinutes = 60
	}
	if cfg.Sync.LookbackDays == 0 {
		cfg.Sync.LookbackDays = 30
	}
	if cfg.Sync.Concurrency == 0 {
		cfg.Sync.Concurrency = 4
	}
	if cfg.Sync.LockTTLSeconds == 0 {
		cfg.Sync.LockTTLSeconds = 600
	}
	if cfg.Insights.Provider == "" {
		cfg.Insights.Provider = "bedrock"
	}
	if cfg.Insights.Model == "" {
		switch cfg.Insights.Provider {
		case "openai":
			cfg.Insights.Model = "gpt-4o-mini"
		case "gemini":
			cfg.Insights.Model = "gemini-2.0-flash"
		default:
			cfg.Insights.Model = "anthropic.claude-3-sonnet-20240229-v1:0"
		}
	}
	if cfg.Insights.MaxTokens == 0 {
		cfg.Insights.MaxTokens = 2000
	}
	if cfg.Insights.Temperature == 0 {
		cfg.Insights.Temperature = 0.3
	}
	if cfg.Insights.AWSRegion == "" {
		cfg.Insights.AWSRegion = "us-east-1"
	}
	if cfg.Insights.MaxInsights == 0 {
		cfg.Insights.MaxInsights = 10
	}
	if cfg.Insights.TimeoutSecs == 0 {
		cfg.Insights.TimeoutSecs = 60
	}
	if cfg.Reports.S3Prefix == "" {
		cfg.Reports.S3Prefix = "reports"
	}
	if cfg.Reports.AWSRegion == "" {
		cfg.Reports.AWSRegion = "us-east-1"
	}
	if cfg.Reports.LinkTTLMin == 0 {
		cfg.Reports.LinkTTLMin = 15
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets can
// live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := parse(path)
	if err != nil {
		return nil, err
	}
	// Env overrides go first so provider-dependent defaults (model) follow them.
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Database.URL, "DATABASE_URL")
	set(&cfg.Redis.URL, "REDIS_URL")
	set(&cfg.Server.BaseURL, "AUTH_BASE_URL")
	set(&cfg.Auth.GoogleClientID, "GOOGLE_CLIENT_ID")
	set(&cfg.Auth.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	set(&cfg.Auth.SessionSecret, "SESSION_SECRET")
	set(&cfg.Auth.AllowedDomain, "AUTH_ALLOWED_DOMAIN")
	set(&cfg.Google.ClientID, "GOOGLE_CLIENT_ID")
	set(&cfg.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	set(&cfg.Google.AdsDevToken, "GOOGLE_ADS_DEVELOPER_TOKEN")
	set(&cfg.Google.AdsLoginCustID, "GOOGLE_ADS_LOGIN_CUSTOMER_ID")
	set(&cfg.Meta.AppID, "META_APP_ID")
	set(&cfg.Meta.AppSecret, "META_APP_SECRET")
	set(&cfg.Insights.Provider, "INSIGHTS_PROVIDER")
	set(&cfg.Insights.OpenAIKey, "OPENAI_API_KEY")
	set(&cfg.Insights.GeminiKey, "GEMINI_API_KEY")
	set(&cfg.Reports.S3Bucket, "REPORTS_S3_BUCKET")
	set(&cfg.Reports.SESFrom, "REPORTS_SES_FROM")
	set(&cfg.Reports.AccessKey, "REPORTS_AWS_ACCESS_KEY_ID")
	set(&cfg.Reports.SecretKey, "REPORTS_AWS_SECRET_ACCESS_KEY")
	set(&cfg.Logging.Level, "LOG_LEVEL")
	if v := os.Getenv("DEV_MODE"); v != "" {
		cfg.Auth.DevMode = v == "true" || v == "1"
	}
	if os.Getenv("REDIS_URL") == "" {
		set(&cfg.Redis.URL, "REDIS_ADDR")
	}
}
