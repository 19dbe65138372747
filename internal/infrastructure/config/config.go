package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// Config holds all application configuration
type Config struct {
	App            AppConfig
	Log            LogConfig
	HTTP           HTTPConfig
	Auth           AuthConfig
	Catalog        CatalogConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Session        SessionConfig
	Payment        PaymentConfig
	Recommendation RecommendationConfig
	Bot            BotConfig
	Telemetry      TelemetryConfig
	Scheduler      SchedulerConfig
	Storage        StorageConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	TrustedProxies    []string
	SwaggerEnabled    bool
}

// AuthConfig controls the bearer tokens presented by the chat gateway
type AuthConfig struct {
	Enabled bool
	Secret  string
	Issuer  string
}

// Catalog backends
const (
	CatalogBackendMemory   = "memory"
	CatalogBackendDatabase = "database"
)

// CatalogConfig selects and tunes the catalog provider
type CatalogConfig struct {
	Backend       string // memory, database
	Seed          bool   // load the demo catalog
	DemoStock     int    // initial stock of every demo product
	PageSize      int
	Currency      string // ISO 4217
	Language      string // BCP 47
	PriceTemplate string
}

// Database drivers
const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverSQLite   = "sqlite"
)

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file, ":memory:" allowed
	AutoMigrate     bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled   bool
	Required  bool // fail startup instead of falling back to memory
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// Session backends
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// SessionConfig holds conversation session settings
type SessionConfig struct {
	Backend     string        // memory, redis
	IdleTimeout time.Duration // waiting states fall back to idle after this; 0 disables
	TTL         time.Duration // redis key expiry
}

// PaymentConfig holds invoice settings
type PaymentConfig struct {
	ProviderToken       string
	Currency            string
	InvoiceTitle        string
	InvoiceDescription  string
	NeedName            bool
	NeedPhoneNumber     bool
	NeedEmail           bool
	NeedShippingAddress bool
	SettlementTTL       time.Duration
	InvoiceTTL          time.Duration // pending invoices older than this are dropped
}

// RecommendationConfig holds the LLM collaborator settings
type RecommendationConfig struct {
	Enabled     bool
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxProducts int
	Separator   string
}

// BotConfig holds storefront presentation settings
type BotConfig struct {
	WelcomeMessage string
	ImageView      string // gallery, carousel
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	MetricsInterval   time.Duration
	DBTraceEnabled    bool
	DBLogFullSQL      bool

	ProfilingEnabled  bool
	ProfilingServer   string
	ProfilingUser     string
	ProfilingPassword string
	ProfileTypes      []string
}

// SchedulerConfig holds housekeeping job settings
type SchedulerConfig struct {
	Enabled       bool
	Interval      time.Duration
	Workers       int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// StorageConfig holds S3-compatible photo storage settings. Product images
// that are bare object keys are served through presigned URLs.
type StorageConfig struct {
	Enabled           bool
	Endpoint          string
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	CreateBucket      bool
	PresignExpiration time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STOREFRONT_ prefix (e.g., STOREFRONT_PAYMENT_PROVIDER_TOKEN)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("scheduler.enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
			SwaggerEnabled:    v.GetBool("http.swagger_enabled"),
		},
		Auth: AuthConfig{
			Enabled: v.GetBool("auth.enabled"),
			Secret:  v.GetString("auth.secret"),
			Issuer:  v.GetString("auth.issuer"),
		},
		Catalog: CatalogConfig{
			Backend:       v.GetString("catalog.backend"),
			Seed:          v.GetBool("catalog.seed"),
			DemoStock:     v.GetInt("catalog.demo_stock"),
			PageSize:      v.GetInt("catalog.page_size"),
			Currency:      v.GetString("catalog.currency"),
			Language:      v.GetString("catalog.language"),
			PriceTemplate: v.GetString("catalog.price_template"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:   v.GetBool("redis.enabled"),
			Required:  v.GetBool("redis.required"),
			Host:      v.GetString("redis.host"),
			Port:      v.GetInt("redis.port"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
		},
		Session: SessionConfig{
			Backend:     v.GetString("session.backend"),
			IdleTimeout: v.GetDuration("session.idle_timeout"),
			TTL:         v.GetDuration("session.ttl"),
		},
		Payment: PaymentConfig{
			ProviderToken:       v.GetString("payment.provider_token"),
			Currency:            v.GetString("payment.currency"),
			InvoiceTitle:        v.GetString("payment.invoice_title"),
			InvoiceDescription:  v.GetString("payment.invoice_description"),
			NeedName:            v.GetBool("payment.need_name"),
			NeedPhoneNumber:     v.GetBool("payment.need_phone_number"),
			NeedEmail:           v.GetBool("payment.need_email"),
			NeedShippingAddress: v.GetBool("payment.need_shipping_address"),
			SettlementTTL:       v.GetDuration("payment.settlement_ttl"),
			InvoiceTTL:          v.GetDuration("payment.invoice_ttl"),
		},
		Recommendation: RecommendationConfig{
			Enabled:     v.GetBool("recommendation.enabled"),
			Endpoint:    v.GetString("recommendation.endpoint"),
			APIKey:      v.GetString("recommendation.api_key"),
			Model:       v.GetString("recommendation.model"),
			Temperature: v.GetFloat64("recommendation.temperature"),
			Timeout:     v.GetDuration("recommendation.timeout"),
			MaxProducts: v.GetInt("recommendation.max_products"),
			Separator:   v.GetString("recommendation.separator"),
		},
		Bot: BotConfig{
			WelcomeMessage: v.GetString("bot.welcome_message"),
			ImageView:      v.GetString("bot.image_view"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			ProfilingServer:   v.GetString("telemetry.profiling_server"),
			ProfilingUser:     v.GetString("telemetry.profiling_user"),
			ProfilingPassword: v.GetString("telemetry.profiling_password"),
			ProfileTypes:      v.GetStringSlice("telemetry.profile_types"),
		},
		Storage: StorageConfig{
			Enabled:           v.GetBool("storage.enabled"),
			Endpoint:          v.GetString("storage.endpoint"),
			Region:            v.GetString("storage.region"),
			Bucket:            v.GetString("storage.bucket"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			CreateBucket:      v.GetBool("storage.create_bucket"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
		},
		Scheduler: SchedulerConfig{
			Enabled:       v.GetBool("scheduler.enabled"),
			Interval:      v.GetDuration("scheduler.interval"),
			Workers:       v.GetInt("scheduler.workers"),
			JobTimeout:    v.GetDuration("scheduler.job_timeout"),
			RetryAttempts: v.GetInt("scheduler.retry_attempts"),
			RetryDelay:    v.GetDuration("scheduler.retry_delay"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 45 * time.Second // recommendations may take a while
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 30
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "storefront-gateway"
	}
	if cfg.Catalog.Backend == "" {
		cfg.Catalog.Backend = CatalogBackendMemory
	}
	if cfg.Catalog.DemoStock == 0 {
		cfg.Catalog.DemoStock = 100
	}
	if cfg.Catalog.PageSize == 0 {
		cfg.Catalog.PageSize = 5
	}
	if cfg.Catalog.Currency == "" {
		cfg.Catalog.Currency = "USD"
	}
	if cfg.Catalog.Language == "" {
		cfg.Catalog.Language = "en"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DatabaseDriverPostgres
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "storefront"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "storefront.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "storefront:"
	}
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = SessionBackendMemory
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = cfg.Catalog.Currency
	}
	if cfg.Payment.InvoiceTitle == "" {
		cfg.Payment.InvoiceTitle = "Order"
	}
	if cfg.Payment.InvoiceDescription == "" {
		cfg.Payment.InvoiceDescription = "Payment for your order"
	}
	if cfg.Payment.SettlementTTL == 0 {
		cfg.Payment.SettlementTTL = 24 * time.Hour
	}
	if cfg.Payment.InvoiceTTL == 0 {
		cfg.Payment.InvoiceTTL = time.Hour
	}
	if cfg.Recommendation.Endpoint == "" {
		cfg.Recommendation.Endpoint = "https://api.openai.com/v1"
	}
	if cfg.Recommendation.Model == "" {
		cfg.Recommendation.Model = "gpt-4o-mini"
	}
	if cfg.Recommendation.Timeout == 0 {
		cfg.Recommendation.Timeout = 30 * time.Second
	}
	if cfg.Recommendation.Separator == "" {
		cfg.Recommendation.Separator = "\n\n--------------------\n\n"
	}
	if cfg.Bot.ImageView == "" {
		cfg.Bot.ImageView = "gallery"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = time.Hour
	}
	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = 5 * time.Minute
	}
	if cfg.Scheduler.Workers == 0 {
		cfg.Scheduler.Workers = 2
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = time.Minute
	}
	if cfg.Scheduler.RetryDelay == 0 {
		cfg.Scheduler.RetryDelay = 30 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Catalog.Backend {
	case CatalogBackendMemory, CatalogBackendDatabase:
	default:
		return fmt.Errorf("catalog.backend must be %q or %q, got %q", CatalogBackendMemory, CatalogBackendDatabase, c.Catalog.Backend)
	}
	if c.Catalog.PageSize < 0 {
		return fmt.Errorf("catalog.page_size cannot be negative")
	}
	if _, err := currency.ParseISO(c.Catalog.Currency); err != nil {
		return fmt.Errorf("catalog.currency %q is not an ISO 4217 code: %w", c.Catalog.Currency, err)
	}
	if _, err := currency.ParseISO(c.Payment.Currency); err != nil {
		return fmt.Errorf("payment.currency %q is not an ISO 4217 code: %w", c.Payment.Currency, err)
	}
	if _, err := language.Parse(c.Catalog.Language); err != nil {
		return fmt.Errorf("catalog.language %q is not a valid language tag: %w", c.Catalog.Language, err)
	}

	switch c.Database.Driver {
	case DatabaseDriverPostgres, DatabaseDriverSQLite:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DatabaseDriverPostgres, DatabaseDriverSQLite, c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Session.Backend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		return fmt.Errorf("session.backend must be %q or %q, got %q", SessionBackendMemory, SessionBackendRedis, c.Session.Backend)
	}
	if c.Session.Backend == SessionBackendRedis && !c.Redis.Enabled {
		return fmt.Errorf("session.backend=redis requires redis.enabled=true")
	}
	if c.Session.IdleTimeout < 0 {
		return fmt.Errorf("session.idle_timeout cannot be negative")
	}

	if c.Payment.InvoiceTTL < 0 {
		return fmt.Errorf("payment.invoice_ttl cannot be negative")
	}
	if c.Scheduler.Enabled {
		if c.Scheduler.Interval < time.Second {
			return fmt.Errorf("scheduler.interval must be at least 1s, got %s", c.Scheduler.Interval)
		}
		if c.Scheduler.Workers < 0 || c.Scheduler.RetryAttempts < 0 {
			return fmt.Errorf("scheduler.workers and scheduler.retry_attempts cannot be negative")
		}
	}

	if c.Storage.Enabled {
		if c.Storage.Bucket == "" || c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return fmt.Errorf("storage.bucket, storage.access_key and storage.secret_key are required when storage is enabled")
		}
		if c.Storage.PresignExpiration > 7*24*time.Hour {
			return fmt.Errorf("storage.presign_expiration cannot exceed 7 days")
		}
	}

	switch c.Bot.ImageView {
	case "gallery", "carousel":
	default:
		return fmt.Errorf("bot.image_view must be gallery or carousel, got %q", c.Bot.ImageView)
	}

	if c.Recommendation.Enabled {
		if c.Recommendation.APIKey == "" {
			return fmt.Errorf("recommendation.api_key is required when recommendations are enabled")
		}
		if _, err := url.ParseRequestURI(c.Recommendation.Endpoint); err != nil {
			return fmt.Errorf("recommendation.endpoint is not a valid URL: %w", err)
		}
		if c.Recommendation.Temperature < 0 || c.Recommendation.Temperature > 2 {
			return fmt.Errorf("recommendation.temperature must be between 0 and 2")
		}
	}

	if c.Auth.Enabled && len(c.Auth.Secret) < 32 {
		return fmt.Errorf("auth.secret must be at least 32 characters")
	}

	if c.App.Env == "production" {
		if c.Payment.ProviderToken == "" {
			return fmt.Errorf("payment.provider_token is required in production")
		}
		if !c.Auth.Enabled {
			return fmt.Errorf("auth.enabled must be true in production")
		}
		if c.Database.Driver == DatabaseDriverPostgres && c.Catalog.Backend == CatalogBackendDatabase && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.HTTP.SwaggerEnabled {
			return fmt.Errorf("http.swagger_enabled must be false in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.ProfilingEnabled && c.Telemetry.ProfilingServer == "" {
		return fmt.Errorf("telemetry.profiling_server is required when profiling is enabled")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == DatabaseDriverSQLite {
		return d.Path
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
