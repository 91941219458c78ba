// Package main is the entry point for the Campstack API server, a bootcamp
// directory backend with publishing, courses, reviews and user accounts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campstack/campstack/internal/auth"
	"github.com/campstack/campstack/internal/config"
	"github.com/campstack/campstack/internal/geocode"
	"github.com/campstack/campstack/internal/handler"
	"github.com/campstack/campstack/internal/mail"
	"github.com/campstack/campstack/internal/metrics"
	"github.com/campstack/campstack/internal/ratelimit"
	"github.com/campstack/campstack/internal/repository"
	"github.com/campstack/campstack/internal/repository/postgres"
	"github.com/campstack/campstack/internal/repository/sqlite"
	"github.com/campstack/campstack/internal/service"
	"github.com/campstack/campstack/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger := newLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting campstack server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	repos, db, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	geocoder := geocode.NewMapQuest(geocode.Config{
		APIKey:  cfg.Geocoder.APIKey,
		BaseURL: cfg.Geocoder.BaseURL,
		Timeout: cfg.Geocoder.Timeout,
	}, logger)
	mailer := mail.NewSMTPSender(mail.Config{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromEmail: cfg.SMTP.FromEmail,
		FromName:  cfg.SMTP.FromName,
	}, logger)

	bootcampSvc := service.NewBootcampService(repos, geocoder, store, cfg.Storage.MaxUploadSize, logger)
	courseSvc := service.NewCourseService(repos, logger)
	reviewSvc := service.NewReviewService(repos, logger)
	userSvc := service.NewUserService(repos, logger)
	authSvc := service.NewAuthService(repos, tokens, mailer, logger)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	router := handler.NewRouter(handler.RouterConfig{
		Bootcamps: handler.NewBootcampHandler(bootcampSvc, courseSvc, logger),
		Courses:   handler.NewCourseHandler(courseSvc, bootcampSvc, logger),
		Reviews:   handler.NewReviewHandler(reviewSvc, bootcampSvc, logger),
		Auth:      handler.NewAuthHandler(authSvc, cfg.Auth.TokenTTL, cfg.Auth.CookieSecure, logger),
		Users:     handler.NewUserHandler(userSvc, logger),
		AuthMW:    auth.NewMiddleware(tokens, repos.Users, logger),
		Limiter:   newLimiter(cfg, logger),
		Metrics:   m,
		DB:        db,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      http.MaxBytesHandler(router.Handler(), cfg.Server.MaxBodySize),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}

// openDatabase connects to the configured store, runs pending migrations and
// returns the repository set plus the connection handle for shutdown.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Repositories, repository.DatabaseHealth, error) {
	switch cfg.Driver {
	case repository.DriverSQLite:
		scfg := sqlite.DefaultConfig(cfg.Path)
		if cfg.JournalMode != "" {
			scfg.JournalMode = cfg.JournalMode
		}
		if cfg.BusyTimeout > 0 {
			scfg.BusyTimeout = cfg.BusyTimeout
		}
		if cfg.SynchronousMode != "" {
			scfg.SynchronousMode = cfg.SynchronousMode
		}
		db, err := sqlite.NewDB(ctx, scfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return sqlite.NewRepositories(db), db, nil

	case repository.DriverPostgres:
		db, err := postgres.NewDB(ctx, postgres.Config{
			Host:            cfg.Host,
			Port:            cfg.Port,
			User:            cfg.User,
			Password:        cfg.Password,
			Database:        cfg.Database,
			SSLMode:         cfg.SSLMode,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return postgres.NewRepositories(db), db, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openStorage(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (storage.Backend, error) {
	switch cfg.Backend {
	case "s3":
		return storage.NewS3(ctx, storage.S3Config{
			Endpoint:     cfg.S3.Endpoint,
			Region:       cfg.S3.Region,
			Bucket:       cfg.S3.Bucket,
			AccessKey:    cfg.S3.AccessKeyID,
			SecretKey:    cfg.S3.SecretAccessKey,
			UsePathStyle: cfg.S3.UsePathStyle,
		}, logger)
	default:
		return storage.NewFilesystem(cfg.DataDir, logger)
	}
}

func newLimiter(cfg *config.Config, logger zerolog.Logger) ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	rlCfg := ratelimit.Config{
		Limit:  cfg.RateLimit.Limit,
		Window: cfg.RateLimit.Window,
	}
	if cfg.RateLimit.Backend == "redis" && cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		return ratelimit.NewRedis(rlCfg, client, logger)
	}
	return ratelimit.NewMemory(rlCfg)
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
