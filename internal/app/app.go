// Package app initializes and runs the letter archive server.
// It configures logging, storage, the attachment store, authentication and
// routing, and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patric-chuzhbe/arsipsurat/internal/auth"
	"github.com/patric-chuzhbe/arsipsurat/internal/config"
	"github.com/patric-chuzhbe/arsipsurat/internal/db/postgresdb"
	"github.com/patric-chuzhbe/arsipsurat/internal/db/sqlitedb"
	"github.com/patric-chuzhbe/arsipsurat/internal/fileremover"
	"github.com/patric-chuzhbe/arsipsurat/internal/filestore"
	"github.com/patric-chuzhbe/arsipsurat/internal/ipchecker"
	"github.com/patric-chuzhbe/arsipsurat/internal/logger"
	"github.com/patric-chuzhbe/arsipsurat/internal/metrics"
	"github.com/patric-chuzhbe/arsipsurat/internal/models"
	"github.com/patric-chuzhbe/arsipsurat/internal/router"
	"github.com/patric-chuzhbe/arsipsurat/internal/service"
)

// shutdownTimeout bounds how long in-flight requests may run after a signal.
const shutdownTimeout = 10 * time.Second

const (
	removalQueueCapacity = 256
	removalMaxAttempts   = 5
)

type storage interface {
	service.Storage
	Close() error
}

// App encapsulates the configuration, HTTP handler and storage backend
// needed to run the archive server.
type App struct {
	cfg         *config.Config
	db          storage
	remover     *fileremover.FileRemover
	httpHandler http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage and the attachment store
// - setting up the router and middleware
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()

	app.db, err = getStorageByType(ctx, app.cfg)
	if err != nil {
		return nil, err
	}

	files, err := getFileStoreByType(ctx, app.cfg)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}

	registrationGuard, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}

	theAuth := auth.New([]byte(app.cfg.JWTSecret), app.cfg.TokenTTL)

	app.remover = fileremover.New(files, removalQueueCapacity, app.cfg.FileRemovalInterval, removalMaxAttempts)
	app.remover.ListenErrors(func(err error) {
		logger.Log.Errorw("attachment left behind", "error", err)
	})

	app.httpHandler = router.New(
		service.New(app.db, files, theAuth, service.WithRemovalQueue(app.remover)),
		theAuth,
		registrationGuard,
		metrics.New(),
		router.WithCORSOrigins(app.cfg.CORSAllowedOrigins),
		router.WithMaxUploadSize(app.cfg.MaxUploadSize),
	)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infow("server running", "RunAddr", a.cfg.RunAddr)

	removerCtx, stopRemover := context.WithCancel(context.Background())
	a.remover.Run(removerCtx)
	defer func() {
		stopRemover()
		<-a.remover.Done()
	}()

	server := &http.Server{
		Addr:              a.cfg.RunAddr,
		Handler:           a.httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing the database and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		_ = a.db.Close()
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

// SeedAdmin opens the configured storage and makes sure username exists as
// an admin with the given password. It reports whether the user was created.
func SeedAdmin(ctx context.Context, cfg *config.Config, username, password string) (bool, error) {
	db, err := getStorageByType(ctx, cfg)
	if err != nil {
		return false, err
	}
	defer db.Close()

	return service.New(db, nil, nil).SeedAdmin(ctx, username, password)
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.SQLitePath != "" {
		return models.StorageTypeSQLite
	}

	return models.StorageTypeUnknown
}

func getStorageByType(ctx context.Context, cfg *config.Config) (storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypePostgresql:
		return postgresdb.New(ctx, cfg.DatabaseDSN, cfg.DBConnectionTimeout)

	case models.StorageTypeSQLite:
		return sqlitedb.New(ctx, cfg.SQLitePath, cfg.DBConnectionTimeout)
	}

	return nil, errors.New("unknown storage type: neither DATABASE_DSN nor SQLITE_PATH is set")
}

func getFileStoreByType(ctx context.Context, cfg *config.Config) (service.FileStore, error) {
	policy := filestore.Policy{MaxSize: cfg.MaxUploadSize}

	switch cfg.FileStorage {
	case models.FileStorageS3:
		return filestore.NewS3(ctx, filestore.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		}, policy)

	case models.FileStorageDisk, "":
		return filestore.NewDisk(cfg.UploadDir, policy)
	}

	return nil, fmt.Errorf("unknown file storage %q", cfg.FileStorage)
}
