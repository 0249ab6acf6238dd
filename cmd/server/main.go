package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"newsdesk/docs"
	"newsdesk/internal/auth"
	"newsdesk/internal/cache"
	"newsdesk/internal/config"
	"newsdesk/internal/db"
	"newsdesk/internal/events"
	"newsdesk/internal/handler"
	"newsdesk/internal/logger"
	"newsdesk/internal/metrics"
	"newsdesk/internal/middleware"
	"newsdesk/internal/repository"
	"newsdesk/internal/router"
	"newsdesk/internal/scheduler"
	"newsdesk/internal/service"
)

// @title Newsdesk API
// @version 1.0
// @description Publishing backend with articles, categories, role based access and cookie sessions.
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name access_token
// @description Access token cookie set by /auth/login.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.Options{
		Debug:           cfg.IsDevelopment(),
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		logr.Fatal("database init", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logr.Fatal("database handle", zap.Error(err))
	}
	defer sqlDB.Close()

	if cfg.DBAutoMigrate {
		if err := db.AutoMigrate(gormDB); err != nil {
			logr.Fatal("migrate", zap.Error(err))
		}
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, "newsdesk:")
	defer cacheClient.Close()
	if err := cacheClient.Ping(context.Background()); err != nil {
		logr.Warn("redis unreachable, caching and refresh tokens degraded", zap.Error(err))
	}

	m := metrics.New()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.EventsEnabled() {
		amqpPublisher, err := events.DialAMQP(cfg.AMQPURL, cfg.EventsExchange, logr, m)
		if err != nil {
			logr.Warn("event broker unavailable, lifecycle events disabled", zap.Error(err))
		} else {
			publisher = amqpPublisher
		}
	}
	defer publisher.Close()

	// Repositories
	userRepo := repository.NewUserRepository(gormDB)
	articleRepo := repository.NewArticleRepository(gormDB)
	categoryRepo := repository.NewCategoryRepository(gormDB)

	// Auth components
	codec := auth.NewTokenCodec(auth.TokenConfig{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}, nil)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Services
	authService := service.NewAuthService(userRepo, codec, tokenStore, cfg.BcryptCost, logr)
	articleService := service.NewArticleService(articleRepo, categoryRepo, publisher, logr, service.ArticleOptions{
		AuthorFilterWidensVisibility: cfg.AuthorFilterWidensVisibility,
	})
	categoryService := service.NewCategoryService(categoryRepo, cacheClient, cfg.CategoryCacheTTL, logr)
	userService := service.NewUserService(userRepo, cfg.BcryptCost, logr)

	sweeper := scheduler.NewRetentionSweeper(articleRepo, publisher, m, logr, scheduler.RetentionConfig{
		Schedule:  cfg.RetentionSchedule,
		Window:    cfg.RetentionWindow,
		BatchSize: cfg.RetentionBatchSize,
	})
	if err := sweeper.Start(); err != nil {
		logr.Fatal("retention sweeper", zap.Error(err))
	}

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}

	e := echo.New()
	router.Register(e, router.Deps{
		Logger:           logr,
		Metrics:          m,
		Verifier:         codec,
		Authorizer:       middleware.NewAuthorizer(userRepo, logr, m),
		AccessCookieName: cfg.AccessCookieName,
	}, router.Handlers{
		Auth: handler.NewAuthHandler(authService, handler.CookieConfig{
			AccessName:  cfg.AccessCookieName,
			RefreshName: cfg.RefreshCookieName,
			Secure:      cfg.CookieSecure,
			Domain:      cfg.CookieDomain,
		}),
		Article:  handler.NewArticleHandler(articleService),
		Category: handler.NewCategoryHandler(categoryService),
		User:     handler.NewUserHandler(userService),
		Health:   handler.NewHealthHandler(sqlDB),
	})

	go func() {
		logr.Info("http server listening",
			zap.String("addr", cfg.Addr()),
			zap.String("swagger", fmt.Sprintf("http://%s/swagger/index.html", docs.SwaggerInfo.Host)),
		)
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logr.Error("http shutdown", zap.Error(err))
	}
	sweeper.Stop()
	logr.Info("server stopped")
}
