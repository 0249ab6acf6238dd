package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// SeedConfig configures the seed command. It does not need the server's secrets.
type SeedConfig struct {
	Env        string   `env:"APP_ENV" envDefault:"production"`
	LogLevel   string   `env:"LOG_LEVEL" envDefault:"info"`
	MySQLDSN   string   `env:"MYSQL_DSN" envDefault:"user:password@tcp(localhost:3306)/newsdesk?charset=utf8mb4&parseTime=True&loc=UTC"`
	BcryptCost int      `env:"BCRYPT_COST" envDefault:"10"`
	AdminName  string   `env:"SEED_ADMIN_NAME" envDefault:"Administrator"`
	AdminEmail string   `env:"SEED_ADMIN_EMAIL,required"`
	AdminPass  string   `env:"SEED_ADMIN_PASSWORD,required"`
	Categories []string `env:"SEED_CATEGORIES" envSeparator:"," envDefault:"News,Politics,Business,Technology,Sports,Culture"`
}

// LoadSeed reads an optional .env file and builds SeedConfig from the environment.
func LoadSeed() (*SeedConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg := &SeedConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing seed config: %w", err)
	}
	if len(cfg.AdminPass) < 8 {
		return nil, errors.New("SEED_ADMIN_PASSWORD must be at least 8 characters")
	}
	return cfg, nil
}
