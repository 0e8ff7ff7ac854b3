package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL           string   `mapstructure:"REDIS_URL"`
	AuthJWTSecret      string   `mapstructure:"AUTH_JWT_SECRET"`
	AuthIssuer         string   `mapstructure:"AUTH_ISSUER"`
	AuthAudience       string   `mapstructure:"AUTH_AUDIENCE"`
	IdentityURL        string   `mapstructure:"IDENTITY_URL"`
	IdentityServiceKey string   `mapstructure:"IDENTITY_SERVICE_KEY"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
	FrontendBaseURL    string   `mapstructure:"FRONTEND_BASE_URL"`
	MetricsTimezone    string   `mapstructure:"METRICS_TIMEZONE"`
	MigrationsDir      string   `mapstructure:"MIGRATIONS_DIR"`
	RateLimitRPS       float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int      `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("FRONTEND_BASE_URL", "http://localhost:5173")
	v.SetDefault("METRICS_TIMEZONE", "America/Santiago")
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("AUTH_JWT_SECRET")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("IDENTITY_URL")
	v.BindEnv("IDENTITY_SERVICE_KEY")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("FRONTEND_BASE_URL")
	v.BindEnv("METRICS_TIMEZONE")
	v.BindEnv("MIGRATIONS_DIR")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.AuthJWTSecret == "" {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode without AUTH_JWT_SECRET.")
		log.Println("WARNING: Every staff request is treated as an ADMIN dev user.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DevAuth reports whether staff routes should run without token verification.
func (c *Config) DevAuth() bool {
	return c.IsDev() && c.AuthJWTSecret == ""
}

// Location returns the time zone used to interpret calendar dates in metrics.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.MetricsTimezone)
}

// Validate checks that the configuration is safe to run. Outside development
// a JWT secret is required so staff routes are never served unauthenticated.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthJWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET must be set when ENV=%q", c.Env)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("METRICS_TIMEZONE %q is not a known time zone: %w", c.MetricsTimezone, err)
	}
	if (c.IdentityURL == "") != (c.IdentityServiceKey == "") {
		return fmt.Errorf("IDENTITY_URL and IDENTITY_SERVICE_KEY must be set together")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	return nil
}
