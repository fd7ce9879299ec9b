package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sheetbase/drive-v1/internal/drive"
	"github.com/sheetbase/drive-v1/internal/server/api"
	"github.com/sheetbase/drive-v1/internal/server/auth"
	"github.com/sheetbase/drive-v1/internal/server/config"
	"github.com/sheetbase/drive-v1/internal/server/database"
	"github.com/sheetbase/drive-v1/internal/server/service"
	"github.com/sheetbase/drive-v1/internal/server/storage"
)

// backend is what the server needs from a drive store beyond drive.Store.
type backend interface {
	drive.Store
	api.HealthChecker
	storage.Purgeable
}

func main() {
	// Structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg := config.Load()
	slog.Info("configuration loaded",
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
		"blob_backend", cfg.BlobBackend,
		"upload_folder", cfg.UploadFolder,
		"max_size_mb", cfg.MaxSizeMB,
		"nested", cfg.Nested,
		"endpoint", cfg.Endpoint(),
		"disabled_routes", cfg.DisabledRoutes,
		"auth_enabled", cfg.AuthSecret != "",
	)

	ctx := context.Background()
	linkBase := cfg.BaseURL + "/d/"

	var store backend
	switch cfg.StoreBackend {
	case "memory":
		mem := drive.NewMemoryStore(linkBase)
		mem.AddRootFolder(cfg.UploadFolder, "uploads")
		store = mem
		slog.Info("using in-memory store")

	case "postgres":
		blobs, err := newBlobStore(ctx, cfg)
		if err != nil {
			slog.Error("failed to initialize blob storage", "error", err)
			os.Exit(1)
		}

		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		pg := database.NewStore(database.NewRepository(db), blobs, linkBase)
		if err := pg.EnsureRoot(ctx, cfg.UploadFolder, "uploads"); err != nil {
			slog.Error("failed to create upload folder", "error", err)
			os.Exit(1)
		}
		store = pg

	default:
		slog.Error("unknown store backend", "store_backend", cfg.StoreBackend)
		os.Exit(1)
	}

	svc := service.NewFileService(store, cfg)

	// Start purge service
	purgeCtx, purgeCancel := context.WithCancel(context.Background())
	purge := storage.NewPurgeService(store, cfg.TrashRetention, cfg.PurgeInterval)
	purge.Start(purgeCtx)

	// Setup HTTP router
	var decoder auth.Decoder
	if cfg.AuthSecret != "" {
		decoder = auth.NewJWTDecoder(cfg.AuthSecret)
	}
	routerCtx, routerCancel := context.WithCancel(context.Background())
	handler := api.NewHandler(svc, store, cfg)
	e := api.SetupRouter(routerCtx, handler, decoder, cfg)

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("starting server", "addr", addr, "base_url", cfg.BaseURL)
		if err := e.Start(addr); err != nil {
			slog.Info("server stopped", "reason", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down", "signal", sig)

	// Stop accepting new requests, finish in-flight with 30s timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	routerCancel()

	purgeCancel()
	purge.Wait()

	slog.Info("server exited cleanly")
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.BlobBackend {
	case "s3":
		slog.Info("using s3 blob storage", "bucket", cfg.S3Bucket, "endpoint", cfg.S3Endpoint)
		return storage.NewS3Store(ctx, storage.S3Config{
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
		})
	case "fs":
		fs := storage.NewFileSystemStore(cfg.StoragePath)
		if err := fs.EnsureDir(); err != nil {
			return nil, err
		}
		slog.Info("file storage initialized", "path", cfg.StoragePath)
		return fs, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}
