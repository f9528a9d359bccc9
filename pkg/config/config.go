package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"taskapp/pkg"
)

type Config struct {
	App          AppConfig       `mapstructure:"app"`
	Server       ServerConfig    `mapstructure:"server"`
	Database     DatabaseConfig  `mapstructure:"database"`
	Redis        RedisConfig     `mapstructure:"redis"`
	JWT          JWTConfig       `mapstructure:"jwt"`
	Logger       LoggerConfig    `mapstructure:"logger"`
	Telemetry    TelemetryConfig `mapstructure:"telemetry"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
	EnforceHTTPS bool            `mapstructure:"enforce_https"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	URL             string        `mapstructure:"url"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

// Migrations returns the migration directory for the configured driver.
func (d DatabaseConfig) Migrations() string {
	if d.MigrationsPath != "" {
		return d.MigrationsPath
	}

	return filepath.Join(pkg.FindProjectRoot(), "db", "migrations", d.Driver)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	MetricsPort  int    `mapstructure:"metrics_port"`
}

type RateLimitConfig struct {
	Enabled bool                     `mapstructure:"enabled"`
	Backend string                   `mapstructure:"backend"`
	Rules   map[string]RateLimitRule `mapstructure:"-"`
}

// RateLimitRule is keyed by "METHOD /route" or "default".
type RateLimitRule struct {
	Requests int
	Window   time.Duration
	ByUser   bool
}

func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		"GET /tasks":       {Requests: 100, Window: time.Minute, ByUser: true},
		"GET /tasks/:id":   {Requests: 100, Window: time.Minute, ByUser: true},
		"POST /tasks":      {Requests: 20, Window: time.Minute, ByUser: true},
		"PATCH /tasks/:id": {Requests: 30, Window: time.Minute, ByUser: true},
		"PUT /tasks/:id":   {Requests: 30, Window: time.Minute, ByUser: true},
		"default":          {Requests: 60, Window: time.Minute},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Load reads .env (if present), environment variables and defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.RateLimit.Rules = DefaultRateLimitRules()

	if cfg.IsProduction() && !v.IsSet("enforce_https") {
		cfg.EnforceHTTPS = true
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// GetDefaultConfig returns the built-in defaults without reading the environment.
func GetDefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)

	cfg.RateLimit.Rules = DefaultRateLimitRules()

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "taskapp")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "taskapp.db")
	v.SetDefault("database.url", "")
	v.SetDefault("database.migrations_path", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.log_queries", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "development-secret")
	v.SetDefault("jwt.expires_in", "3h")
	v.SetDefault("jwt.issuer", "taskapp")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.metrics_port", 9091)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.backend", "memory")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.environment", "APP_ENV")
	v.BindEnv("app.version", "APP_VERSION")

	v.BindEnv("server.port", "SERVER_PORT", "PORT")
	v.BindEnv("server.trusted_proxies", "TRUSTED_PROXIES")

	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.path", "DATABASE_PATH")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("database.migrations_path", "MIGRATIONS_PATH")
	v.BindEnv("database.log_queries", "DATABASE_LOG_QUERIES")

	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.expires_in", "JWT_EXPIRES_IN")

	v.BindEnv("logger.level", "LOG_LEVEL")
	v.BindEnv("logger.format", "LOG_FORMAT")

	v.BindEnv("telemetry.enabled", "OTEL_ENABLED")
	v.BindEnv("telemetry.otlp_endpoint", "OTLP_ENDPOINT")
	v.BindEnv("telemetry.metrics_port", "METRICS_PORT")

	v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	v.BindEnv("rate_limit.backend", "RATE_LIMIT_BACKEND")

	v.BindEnv("enforce_https", "ENFORCE_HTTPS")
}

func validateConfig(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite":
		if cfg.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case "postgres":
		if cfg.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	switch cfg.RateLimit.Backend {
	case "memory":
	case "redis":
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis rate limit backend")
		}
	default:
		return fmt.Errorf("unsupported rate limit backend %q", cfg.RateLimit.Backend)
	}

	if cfg.IsProduction() && (cfg.JWT.Secret == "" || cfg.JWT.Secret == "development-secret") {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}

	if cfg.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}

	return nil
}
