package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"newsdesk/internal/config"
	"newsdesk/internal/db"
	"newsdesk/internal/logger"
	"newsdesk/internal/repository"
)

func main() {
	cfg, err := config.LoadSeed()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.Options{})
	if err != nil {
		logr.Fatal("database init", zap.Error(err))
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		logr.Fatal("migrate", zap.Error(err))
	}

	s := &seeder{
		users:      repository.NewUserRepository(gormDB),
		categories: repository.NewCategoryRepository(gormDB),
		bcryptCost: cfg.BcryptCost,
		logger:     logr,
	}

	ctx := context.Background()
	if err := s.admin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPass); err != nil {
		logr.Fatal("seed admin", zap.Error(err))
	}
	created, err := s.defaultCategories(ctx, cfg.Categories)
	if err != nil {
		logr.Fatal("seed categories", zap.Error(err))
	}
	logr.Info("seed completed", zap.Int("categories_created", created))
}
