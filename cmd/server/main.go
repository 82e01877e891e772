package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/studio-slot-reservation/internal/booking"
	"github.com/iliyamo/studio-slot-reservation/internal/catalog"
	"github.com/iliyamo/studio-slot-reservation/internal/config"
	"github.com/iliyamo/studio-slot-reservation/internal/database"
	"github.com/iliyamo/studio-slot-reservation/internal/handler"
	"github.com/iliyamo/studio-slot-reservation/internal/logging"
	"github.com/iliyamo/studio-slot-reservation/internal/repository"
	"github.com/iliyamo/studio-slot-reservation/internal/router"
	"github.com/iliyamo/studio-slot-reservation/internal/service"
)

// store is what the engine needs from a backend.
type store interface {
	repository.OccupancyStore
	repository.ActivityStore
}

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded",
		zap.String("path", cfg.CatalogPath),
		zap.Int("venues", len(cat.Venues())),
		zap.Int("members", len(cat.Members())))

	st, db, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	opts := []booking.Option{
		booking.WithLogger(logger.Named("booking")),
		booking.WithHorizonDays(cfg.BulkHorizonDays),
	}
	if cfg.EventsEnabled {
		amqpPub := service.NewActivityPublisher(cfg.AMQPURL, cfg.ActivityQueue, cat.VenueName)
		pub := service.NewAsyncPublisher(amqpPub, 256, 5*time.Second, logger.Named("events"))
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := pub.Close(ctx); err != nil {
				logger.Warn("activity events not drained", zap.Error(err))
			}
		}()
		opts = append(opts, booking.WithPublisher(pub))
		logger.Info("activity events enabled", zap.String("queue", cfg.ActivityQueue))
	}
	engine := booking.NewEngine(cat, st, st, opts...)

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	bh := handler.NewBookingHandler(engine, logger.Named("http"), cfg.ActivityLimit, cfg.CalendarDays)
	ah := handler.NewAuthHandler(cat, cfg.JWTSecret, cfg.AccessTTL(), logger.Named("auth"))
	limits := router.NewLimits(config.LoadRateLimitConfig(), rdb, logger.Named("ratelimit"))
	router.RegisterAPI(e, bh, ah, cfg.JWTSecret, limits)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStore builds the configured backend.  SQL backends are migrated
// before use; the returned *sql.DB is nil for the memory store.
func openStore(cfg config.Config, logger *zap.Logger) (store, *sql.DB, error) {
	var (
		db      *sql.DB
		dialect repository.Dialect
		err     error
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store; reservations are lost on restart")
		return repository.NewMemoryStore(), nil, nil
	case config.DriverMySQL:
		db, err = database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialect = repository.MySQL{}
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		db, err = database.OpenSQLite(cfg.SQLitePath)
		dialect = repository.SQLite{}
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.StoreDriver, err)
	}

	s := repository.NewSQLStore(db, dialect)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("store ready", zap.String("driver", dialect.Name()))
	return s, db, nil
}
