package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"scheduler/docs"
	"scheduler/internal/auth"
	"scheduler/internal/cache"
	"scheduler/internal/config"
	"scheduler/internal/db"
	"scheduler/internal/handler"
	"scheduler/internal/janitor"
	"scheduler/internal/metrics"
	"scheduler/internal/repository"
	"scheduler/internal/router"
	"scheduler/internal/service"
	"scheduler/internal/validation"
)

const shutdownTimeout = 10 * time.Second

// @title Scheduler API
// @version 1.0
// @description Weekly recurring-event scheduler with per-user events and JWT authentication.
// @host localhost:2333
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("load config")
	}
	logger := config.NewLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		return err
	}

	if cfg.ResetDB {
		logger.Warn().Msg("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			return err
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, logger)
	if err := cacheClient.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, serving without cache")
	}
	defer cacheClient.Close()

	m := metrics.New()
	v := validation.New(cfg.DayOfWeekMax)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	eventRepo := repository.NewEventRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	hasher := auth.NewPasswordHasher(auth.DefaultBcryptCost)

	// Initialize services
	authService := service.NewAuthService(userRepo, hasher, jwtService)
	userService := service.NewUserService(userRepo)
	eventService := service.NewEventService(eventRepo, v, cacheClient, cfg.EventCacheTTL)

	authMiddleware := auth.NewMiddleware(jwtService, userService,
		auth.WithLogger(logger.With().Str("component", "auth").Logger()),
		auth.WithRejectHook(m.RecordAuthRejection),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.Register(e, cfg, router.Deps{
		Logger:       logger,
		Metrics:      m,
		Validator:    v,
		Auth:         authMiddleware,
		AuthHandler:  handler.NewAuthHandler(authService),
		EventHandler: handler.NewEventHandler(eventService),
	})

	docs.SwaggerInfo.BasePath = cfg.BaseAPIRoute
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	logger.Info().
		Str("url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html").
		Msg("swagger documentation available")

	cleaner := janitor.New(eventRepo, cfg.CleanupInterval, logger, janitor.WithMetrics(m))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.Addr()).Msg("http server listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return cleaner.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
