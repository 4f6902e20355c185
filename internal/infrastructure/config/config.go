package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Documents DocumentsConfig
	PDF       PDFConfig
	Legacy    LegacyConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
	Scheduler SchedulerConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name          string
	Env           string
	Port          string
	Version       string
	PublicBaseURL string // prefix for client signing links, e.g. https://office.example.com
}

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration // lifetime of cached CRM summaries
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// AdminConfig holds the single back-office administrator account
type AdminConfig struct {
	Username     string
	PasswordHash string // bcrypt
	RequireAuth  bool   // guard /admin routes with a bearer token
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool // limits the public signing routes
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// Document storage backends
const (
	StorageFilesystem = "filesystem"
	StorageS3         = "s3"
)

// DocumentsConfig holds template locations and the per-client export store
type DocumentsConfig struct {
	ExportDir    string
	TemplatesDir string // HTML templates override; embedded templates are used when empty
	KitsDir      string // <company>/<kit>.pdf
	B1Template   string
	StaticDir    string
	Storage      string // filesystem or s3
	S3           S3Config
}

// S3Config holds object storage settings for client export folders
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // custom endpoint for MinIO and friends
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	UsePathStyle    bool
}

// PDF renderer selection
const (
	RendererChromedp    = "chromedp"
	RendererWkhtmltopdf = "wkhtmltopdf"
	RendererAuto        = "auto"
)

// PDFConfig holds HTML to PDF rendering settings
type PDFConfig struct {
	Renderer        string
	ChromeRemoteURL string // connect to a running Chrome instead of launching one
	WkhtmltopdfPath string
	Timeout         time.Duration
	OverlayFont     string // TrueType font for stamped text; core Helvetica when empty
}

// LegacyConfig points at the legacy sqlite databases and spreadsheets
type LegacyConfig struct {
	MiniCRMPath       string
	JustificationPath string
	ClientsXLSXPath   string
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled    bool
	AllowedIPs []string // addresses or CIDR prefixes, empty allows everyone
}

// SchedulerConfig holds the daily background job settings
type SchedulerConfig struct {
	Enabled       bool
	DailyHour     int
	DailyMinute   int
	Workers       int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled    bool
	LogsEnabled       bool // tee zap into OTLP logs
	MetricsEnabled    bool // export business metrics over OTLP
	MetricsInterval   time.Duration
	ProfilingEnabled  bool
	ProfilingAddress  string // Pyroscope server address
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with ADV_ prefix (e.g., ADV_DATABASE_PASSWORD)
// 2. .env file in the working directory
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	// A missing .env is fine
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ADV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// zero and false are valid values, so these cannot be defaulted after the fact
	v.SetDefault("scheduler.daily_hour", 6)
	v.SetDefault("telemetry.db_trace_enabled", true)

	cfg := fromViper(v)

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name:          v.GetString("app.name"),
			Env:           v.GetString("app.env"),
			Port:          v.GetString("app.port"),
			Version:       v.GetString("app.version"),
			PublicBaseURL: v.GetString("app.public_base_url"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			CacheTTL: v.GetDuration("redis.cache_ttl"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Admin: AdminConfig{
			Username:     v.GetString("admin.username"),
			PasswordHash: v.GetString("admin.password_hash"),
			RequireAuth:  v.GetBool("admin.require_auth"),
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
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Documents: DocumentsConfig{
			ExportDir:    v.GetString("documents.export_dir"),
			TemplatesDir: v.GetString("documents.templates_dir"),
			KitsDir:      v.GetString("documents.kits_dir"),
			B1Template:   v.GetString("documents.b1_template"),
			StaticDir:    v.GetString("documents.static_dir"),
			Storage:      v.GetString("documents.storage"),
			S3: S3Config{
				Bucket:          v.GetString("documents.s3.bucket"),
				Region:          v.GetString("documents.s3.region"),
				Endpoint:        v.GetString("documents.s3.endpoint"),
				AccessKeyID:     v.GetString("documents.s3.access_key_id"),
				SecretAccessKey: v.GetString("documents.s3.secret_access_key"),
				Prefix:          v.GetString("documents.s3.prefix"),
				UsePathStyle:    v.GetBool("documents.s3.use_path_style"),
			},
		},
		PDF: PDFConfig{
			Renderer:        v.GetString("pdf.renderer"),
			ChromeRemoteURL: v.GetString("pdf.chrome_remote_url"),
			WkhtmltopdfPath: v.GetString("pdf.wkhtmltopdf_path"),
			Timeout:         v.GetDuration("pdf.timeout"),
			OverlayFont:     v.GetString("pdf.overlay_font"),
		},
		Legacy: LegacyConfig{
			MiniCRMPath:       v.GetString("legacy.mini_crm_path"),
			JustificationPath: v.GetString("legacy.justification_path"),
			ClientsXLSXPath:   v.GetString("legacy.clients_xlsx_path"),
		},
		Swagger: SwaggerConfig{
			Enabled:    v.GetBool("swagger.enabled"),
			AllowedIPs: v.GetStringSlice("swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			ProfilingAddress:  v.GetString("telemetry.profiling_address"),
		},
		Scheduler: SchedulerConfig{
			Enabled:       v.GetBool("scheduler.enabled"),
			DailyHour:     v.GetInt("scheduler.daily_hour"),
			DailyMinute:   v.GetInt("scheduler.daily_minute"),
			Workers:       v.GetInt("scheduler.workers"),
			JobTimeout:    v.GetDuration("scheduler.job_timeout"),
			RetryAttempts: v.GetInt("scheduler.retry_attempts"),
			RetryDelay:    v.GetDuration("scheduler.retry_delay"),
		},
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "advisory-backoffice"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8000"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "0.1.0"
	}
	if cfg.App.PublicBaseURL == "" {
		cfg.App.PublicBaseURL = "http://localhost:" + cfg.App.Port
	}
	cfg.App.PublicBaseURL = strings.TrimRight(cfg.App.PublicBaseURL, "/")

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
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
		cfg.Database.DBName = "advisory"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "advisory.db"
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
	if cfg.Redis.CacheTTL == 0 {
		cfg.Redis.CacheTTL = 10 * time.Minute
	}

	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 12 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "advisory-backoffice"
	}
	if cfg.Admin.Username == "" {
		cfg.Admin.Username = "admin"
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
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// PDF generation can take a while
		cfg.HTTP.WriteTimeout = 120 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 50 << 20 // 50MB, packets and spreadsheets
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 30
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}

	if cfg.Documents.ExportDir == "" {
		cfg.Documents.ExportDir = "exports"
	}
	if cfg.Documents.KitsDir == "" {
		cfg.Documents.KitsDir = "forms/kits"
	}
	if cfg.Documents.B1Template == "" {
		cfg.Documents.B1Template = "forms/b1.pdf"
	}
	if cfg.Documents.StaticDir == "" {
		cfg.Documents.StaticDir = "static"
	}
	if cfg.Documents.Storage == "" {
		cfg.Documents.Storage = StorageFilesystem
	}
	if cfg.Documents.S3.Region == "" {
		cfg.Documents.S3.Region = "us-east-1"
	}

	if cfg.PDF.Renderer == "" {
		cfg.PDF.Renderer = RendererAuto
	}
	if cfg.PDF.WkhtmltopdfPath == "" {
		cfg.PDF.WkhtmltopdfPath = "wkhtmltopdf"
	}
	if cfg.PDF.Timeout == 0 {
		cfg.PDF.Timeout = 60 * time.Second
	}

	if cfg.Legacy.MiniCRMPath == "" {
		cfg.Legacy.MiniCRMPath = "legacy/mini_crm.db"
	}
	if cfg.Legacy.JustificationPath == "" {
		cfg.Legacy.JustificationPath = "legacy/justification.db"
	}
	if cfg.Legacy.ClientsXLSXPath == "" {
		cfg.Legacy.ClientsXLSXPath = "legacy/Clients.xlsx"
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
	if cfg.Telemetry.ProfilingAddress == "" {
		cfg.Telemetry.ProfilingAddress = "http://localhost:4040"
	}

	if cfg.Scheduler.Workers == 0 {
		cfg.Scheduler.Workers = 2
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 5 * time.Minute
	}
	if cfg.Scheduler.RetryAttempts == 0 {
		cfg.Scheduler.RetryAttempts = 3
	}
	if cfg.Scheduler.RetryDelay == 0 {
		cfg.Scheduler.RetryDelay = time.Minute
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
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

	switch c.Documents.Storage {
	case StorageFilesystem:
	case StorageS3:
		if c.Documents.S3.Bucket == "" {
			return fmt.Errorf("documents.s3.bucket is required when documents.storage is s3")
		}
	default:
		return fmt.Errorf("documents.storage must be %q or %q, got %q", StorageFilesystem, StorageS3, c.Documents.Storage)
	}

	switch c.PDF.Renderer {
	case RendererChromedp, RendererWkhtmltopdf, RendererAuto:
	default:
		return fmt.Errorf("pdf.renderer must be chromedp, wkhtmltopdf or auto, got %q", c.PDF.Renderer)
	}

	if c.Scheduler.DailyHour < 0 || c.Scheduler.DailyHour > 23 {
		return fmt.Errorf("scheduler.daily_hour must be between 0 and 23, got %d", c.Scheduler.DailyHour)
	}
	if c.Scheduler.DailyMinute < 0 || c.Scheduler.DailyMinute > 59 {
		return fmt.Errorf("scheduler.daily_minute must be between 0 and 59, got %d", c.Scheduler.DailyMinute)
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Driver == DriverPostgres && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Admin.RequireAuth && c.Admin.PasswordHash == "" {
			return fmt.Errorf("admin.password_hash is required when admin.require_auth is set")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction reports whether the app runs with production settings
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
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
