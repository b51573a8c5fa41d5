package main

import (
	"alcyxob/anyshare/internal/api"
	"alcyxob/anyshare/internal/config"
	"alcyxob/anyshare/internal/repository"
	"alcyxob/anyshare/internal/repository/dynamo"
	"alcyxob/anyshare/internal/repository/mongo"
	"alcyxob/anyshare/internal/repository/postgres"
	"alcyxob/anyshare/internal/repository/sqlite"
	"alcyxob/anyshare/internal/service"
	"alcyxob/anyshare/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// @title AnyShare API
// @version 1.0
// @description Upload a file, share the link, and the file is gone ten minutes later.
// @BasePath /
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("could not load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := config.SetupLogger(cfg.Log)
	logger.Info("starting anyshare",
		slog.String("database", cfg.Database.Driver),
		slog.String("storage", cfg.Storage.Driver),
		slog.Duration("ttl", cfg.Expiry.TTL),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server exiting")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Metadata store ---
	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	// --- Object store ---
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// --- Services ---
	files := service.NewFileService(repo, store, service.Options{
		TTL:          cfg.Expiry.TTL,
		SignedURLTTL: cfg.Expiry.SignedURLTTL,
	}, logger)
	qr := service.NewQRService(cfg.QR.Size, cfg.QR.CacheSize, cfg.Expiry.TTL)

	if cfg.Expiry.SweepInterval > 0 {
		go service.NewSweeper(files, cfg.Expiry.SweepInterval, cfg.Expiry.SweepBatch, logger).Run(ctx)
	}

	// --- HTTP ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger), api.Metrics())
	api.SetupRoutes(router,
		api.NewFileHandler(files, qr, cfg.Server.PublicURL, logger),
		api.NewHealthHandler(map[string]api.Pinger{"metadata": repo, "storage": store}, logger),
	)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  5 * time.Minute, // uploads stream through the request body
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// --- Graceful Shutdown ---
	select {
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// openRepository connects the configured metadata store. The returned func releases it.
func openRepository(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.FileRepository, func(), error) {
	db := cfg.Database
	switch db.Driver {
	case config.DriverMongo:
		client, err := mongo.Connect(ctx, db.URI)
		if err != nil {
			return nil, nil, err
		}
		database := client.Database(db.Name)

		indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := mongo.EnsureFileIndexes(indexCtx, database.Collection(db.Collection)); err != nil {
			logger.Warn("ensure mongo indexes", slog.String("error", err.Error()))
		}

		closeFn := func() {
			if err := mongo.Disconnect(client); err != nil {
				logger.Error("disconnect mongo", slog.String("error", err.Error()))
			}
		}
		return mongo.NewMongoFileRepository(database, db.Collection), closeFn, nil

	case config.DriverPostgres:
		if err := postgres.Migrate(db.DSN, logger); err != nil {
			return nil, nil, err
		}
		pool, err := postgres.Connect(ctx, db.DSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewFileRepository(pool), pool.Close, nil

	case config.DriverDynamoDB:
		client, err := dynamo.NewClient(ctx, db.Region, db.Endpoint)
		if err != nil {
			return nil, nil, err
		}
		return dynamo.NewFileStore(client, db.Table), func() {}, nil

	case config.DriverSQLite:
		sdb, err := sqlite.Open(db.DSN)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := sdb.Close(); err != nil {
				logger.Error("close sqlite", slog.String("error", err.Error()))
			}
		}
		return sdb, closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown database driver %q", db.Driver)
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.ObjectStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageS3:
		return storage.NewS3Storage(ctx, cfg.S3, logger)
	case config.StorageGCS:
		return storage.NewGCSStorage(ctx, cfg.GCS.BucketName, logger)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
