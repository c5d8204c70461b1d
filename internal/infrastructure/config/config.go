package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Analytics   AnalyticsConfig `mapstructure:"analytics"`
	Scheduler   SchedulerConfig `mapstructure:"scheduler"`
	Stream      StreamConfig    `mapstructure:"stream"`
	Tracing     TracingConfig   `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	Host            string   `mapstructure:"host"`
	ReadTimeout     int      `mapstructure:"read_timeout"`
	WriteTimeout    int      `mapstructure:"write_timeout"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	RateLimitPerMin int      `mapstructure:"rate_limit_per_min"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"url"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string `mapstructure:"migrations_path"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

// AnalyticsConfig tunes the holdings aggregator
type AnalyticsConfig struct {
	TopHoldings      int    `mapstructure:"top_holdings"`
	WriteConcurrency int    `mapstructure:"write_concurrency"`
	WriteRetries     int    `mapstructure:"write_retries"`
	WritePolicy      string `mapstructure:"write_policy"`   // best_effort, strict
	PersistMode      string `mapstructure:"persist_mode"`   // per_row, transactional
	PriceFallback    string `mapstructure:"price_fallback"` // zero, average_cost, exclude
	RiskModel        string `mapstructure:"risk_model"`     // placeholder, historical
	RiskLookbackDays int    `mapstructure:"risk_lookback_days"`
	BenchmarkSymbol  string `mapstructure:"benchmark_symbol"`
	CacheTTLSeconds  int    `mapstructure:"cache_ttl_seconds"`
	EnforceOwnership bool   `mapstructure:"enforce_ownership"`
}

// CacheTTL returns the analytics cache lifetime
func (a AnalyticsConfig) CacheTTL() time.Duration {
	return time.Duration(a.CacheTTLSeconds) * time.Second
}

type SchedulerConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Schedule    string `mapstructure:"schedule"` // cron spec with seconds
	Concurrency int    `mapstructure:"concurrency"`
}

type StreamConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

// Interval returns the push interval of the analytics stream
func (s StreamConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFrom("./configs", ".")
}

// LoadFrom loads configuration searching the given directories for config.yaml
func LoadFrom(paths ...string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	overrideFromEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.Database.URL == "" {
		config.Database.URL = fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			config.Database.User,
			config.Database.Password,
			config.Database.Host,
			config.Database.Port,
			config.Database.Name,
			config.Database.SSLMode,
		)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_per_min", 120)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "portfolio_service")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.migrations_path", "file://migrations")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", true)

	v.SetDefault("analytics.top_holdings", 5)
	v.SetDefault("analytics.write_concurrency", 4)
	v.SetDefault("analytics.write_retries", 2)
	v.SetDefault("analytics.write_policy", "best_effort")
	v.SetDefault("analytics.persist_mode", "per_row")
	v.SetDefault("analytics.price_fallback", "zero")
	v.SetDefault("analytics.risk_model", "historical")
	v.SetDefault("analytics.risk_lookback_days", 90)
	v.SetDefault("analytics.benchmark_symbol", "SPY")
	v.SetDefault("analytics.cache_ttl_seconds", 60)
	v.SetDefault("analytics.enforce_ownership", false)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.schedule", "0 */15 * * * *") // every 15 minutes
	v.SetDefault("scheduler.concurrency", 4)

	v.SetDefault("stream.interval_seconds", 5)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.service_name", "portfolio-service")
	v.SetDefault("tracing.sample_rate", 1.0)
}

func overrideFromEnv(v *viper.Viper) {
	// Server
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("server.port", p)
		}
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		var list []string
		for _, o := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				list = append(list, trimmed)
			}
		}
		if len(list) > 0 {
			v.Set("server.allowed_origins", list)
		}
	}

	// Database
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		v.Set("database.url", dbURL)
	}

	// Redis
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		v.Set("redis.url", redisURL)
	}

	// Tracing
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		v.Set("tracing.endpoint", endpoint)
		v.Set("tracing.enabled", true)
	}
}

func validate(config *Config) error {
	if config.Database.URL == "" && (config.Database.Host == "" || config.Database.Name == "") {
		return fmt.Errorf("database configuration is incomplete")
	}

	a := config.Analytics
	if a.TopHoldings <= 0 {
		return fmt.Errorf("analytics.top_holdings must be positive")
	}
	if a.WriteConcurrency <= 0 {
		return fmt.Errorf("analytics.write_concurrency must be positive")
	}
	if a.WriteRetries < 0 {
		return fmt.Errorf("analytics.write_retries must not be negative")
	}
	switch a.WritePolicy {
	case "best_effort", "strict":
	default:
		return fmt.Errorf("analytics.write_policy %q is not supported", a.WritePolicy)
	}
	switch a.PersistMode {
	case "per_row", "transactional":
	default:
		return fmt.Errorf("analytics.persist_mode %q is not supported", a.PersistMode)
	}
	switch a.PriceFallback {
	case "zero", "average_cost", "exclude":
	default:
		return fmt.Errorf("analytics.price_fallback %q is not supported", a.PriceFallback)
	}
	switch a.RiskModel {
	case "placeholder", "historical":
	default:
		return fmt.Errorf("analytics.risk_model %q is not supported", a.RiskModel)
	}

	if config.Scheduler.Enabled && strings.TrimSpace(config.Scheduler.Schedule) == "" {
		return fmt.Errorf("scheduler.schedule is required when the scheduler is enabled")
	}
	if config.Stream.IntervalSeconds <= 0 {
		return fmt.Errorf("stream.interval_seconds must be positive")
	}

	return nil
}
