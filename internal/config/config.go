package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MinJWTSecretLength is the shortest signing secret Load accepts.
const MinJWTSecretLength = 16

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Env        string `env:"APP_ENV" envDefault:"production"`
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	MySQLDSN      string `env:"MYSQL_DSN" envDefault:"user:password@tcp(localhost:3306)/newsdesk?charset=utf8mb4&parseTime=True&loc=UTC"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	RedisPass string `env:"REDIS_PASSWORD"`

	JWTSecret       string        `env:"JWT_SECRET,required"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:"newsdesk"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"72h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"10"`

	AccessCookieName  string `env:"ACCESS_COOKIE_NAME" envDefault:"access_token"`
	RefreshCookieName string `env:"REFRESH_COOKIE_NAME" envDefault:"refresh_token"`
	CookieSecure      bool   `env:"COOKIE_SECURE" envDefault:"true"`
	CookieDomain      string `env:"COOKIE_DOMAIN"`

	RetentionWindow    time.Duration `env:"RETENTION_WINDOW" envDefault:"720h"`
	RetentionSchedule  string        `env:"RETENTION_SCHEDULE" envDefault:"@hourly"`
	RetentionBatchSize int           `env:"RETENTION_BATCH_SIZE" envDefault:"100"`

	// AuthorFilterWidensVisibility lets an authorId filter expose every status
	// of that author's articles to guests.
	AuthorFilterWidensVisibility bool `env:"AUTHOR_FILTER_WIDENS_VISIBILITY" envDefault:"false"`

	CategoryCacheTTL time.Duration `env:"CATEGORY_CACHE_TTL" envDefault:"5m"`

	AMQPURL        string `env:"AMQP_URL"`
	EventsExchange string `env:"EVENTS_EXCHANGE" envDefault:"newsdesk.events"`

	SwaggerHost string `env:"SWAGGER_HOST"`
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.ServerPort
}

// EventsEnabled reports whether a message broker is configured.
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}

// Load reads an optional .env file and builds Config from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return Parse()
}

// Parse builds Config from the current environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes long, got %d", MinJWTSecretLength, len(c.JWTSecret))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		return errors.New("REFRESH_TOKEN_TTL must not be shorter than ACCESS_TOKEN_TTL")
	}
	if c.RetentionWindow <= 0 {
		return errors.New("RETENTION_WINDOW must be positive")
	}
	if c.RetentionBatchSize <= 0 {
		return errors.New("RETENTION_BATCH_SIZE must be positive")
	}
	return nil
}
