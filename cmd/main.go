package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/Platitedengi/idistr-mvp/internal/catalog"
	"github.com/Platitedengi/idistr-mvp/internal/config"
	"github.com/Platitedengi/idistr-mvp/internal/gateway"
	h "github.com/Platitedengi/idistr-mvp/internal/http"
	"github.com/Platitedengi/idistr-mvp/internal/operator"
	"github.com/Platitedengi/idistr-mvp/internal/receipt"
	"github.com/Platitedengi/idistr-mvp/internal/storage"
	"github.com/Platitedengi/idistr-mvp/internal/terminal"
	"github.com/Platitedengi/idistr-mvp/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)

	ctx := context.Background()

	store, err := openStore(ctx, cfg.Storage, zlog)
	if err != nil {
		zlog.Fatal("failed to open storage", zap.Error(err))
	}
	defer store.Close()

	client, err := gateway.NewClient(cfg.BackendBaseURL,
		gateway.WithTimeout(cfg.RequestTimeout),
		gateway.WithLogger(zlog),
	)
	if err != nil {
		zlog.Fatal("failed to create backend client", zap.Error(err))
	}

	gen, err := receipt.NewGenerator(receipt.WithAutoPrint(true))
	if err != nil {
		zlog.Fatal("failed to parse receipt template", zap.Error(err))
	}
	shelf := receipt.NewShelf(cfg.Receipt.ShelfSize)
	surfaces := []receipt.Surface{shelf}
	if cfg.Receipt.Dir != "" {
		surfaces = append(surfaces, receipt.NewDirSurface(cfg.Receipt.Dir))
	}

	registry := terminal.NewRegistry(terminal.Deps{
		Store:   store,
		Backend: client,
		Loader:  catalog.NewLoader(client, cfg.CatalogPageLimit, zlog),
		Issuer:  receipt.NewIssuer(gen, zlog, surfaces...),
		Log:     zlog,
	})

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go terminal.NewJanitor(registry, cfg.SessionIdleTTL, zlog).Run(janitorCtx)

	handler := h.NewTerminalHandler(registry, shelf, cfg.RequestTimeout)
	router := h.NewRouter(handler, operator.DefaultResolver(), h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}, zlog)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "idistr-terminal"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("order terminal starting",
			zap.String("port", cfg.HTTPPort),
			zap.String("backend", cfg.BackendBaseURL),
			zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server...")
	stopJanitor()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
	zlog.Info("server stopped")
}

func openStore(ctx context.Context, cfg config.StorageConfig, zlog *zap.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		zlog.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
		return storage.NewRedisStore(client, cfg.TTL), nil

	case config.DriverSQLite:
		s, err := storage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := s.RunMigrations(); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		zlog.Info("opened SQLite store", zap.String("path", cfg.SQLitePath))
		return s, nil

	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		db, err := storage.ConnectMongoDB(connectCtx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		s := storage.NewMongoStore(db)
		if err := s.CreateIndexes(connectCtx); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		zlog.Info("connected to MongoDB", zap.String("db", cfg.MongoDBName))
		return s, nil

	default:
		return storage.NewMemoryStore(), nil
	}
}
