// Package app boots the shared dependencies every entry point needs: the
// database, the repositories, the job queue with its workers registered,
// the mailer and the report archive disk.
//
//	a, err := app.Boot(ctx)
//	if err != nil { ... }
//	defer a.Close()
//	go a.Queue.Run(ctx, config.QueueWorkers())
package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/jobs"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/cache"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/mail"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
)

// Application holds the booted dependencies.
type Application struct {
	DB       *gorm.DB
	Store    *repositories.Store
	Queue    *queue.Manager
	Tokens   *auth.Manager
	Notifier mail.Notifier
	Disk     storage.Disk

	closers []func()
}

// Setup loads configuration and installs the global logger. It is the
// first thing every command runs.
func Setup() (func(), error) {
	if err := config.Load(); err != nil {
		return func() {}, fmt.Errorf("config: %w", err)
	}
	return logger.Setup(logger.Options{
		Production:      config.IsProduction(),
		Level:           config.LogLevel(),
		MongoURI:        config.Get("LOG_MONGO_URI", ""),
		MongoDatabase:   config.Get("LOG_MONGO_DB", "stockroom"),
		MongoCollection: config.Get("LOG_MONGO_COLLECTION", "logs"),
	})
}

// ConnectDB opens the configured database.
func ConnectDB() (*gorm.DB, error) {
	db, err := database.Connect()
	if err != nil {
		return nil, err
	}
	logger.Info("database connected", "driver", config.DatabaseDriver())
	return db, nil
}

// Boot connects everything and registers the job handlers. Close releases
// what Boot opened.
func Boot(ctx context.Context) (*Application, error) {
	a := &Application{}

	db, err := ConnectDB()
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, func() { _ = database.Close(db) })
	a.Store = repositories.NewStore(db)

	driver, err := a.queueDriver(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Queue = queue.NewManager(driver, queue.Options{
		MaxAttempts: config.QueueMaxAttempts(),
		Backoff:     config.QueueBackoff(),
		DB:          db,
	})

	a.Disk, err = storage.New()
	if err != nil {
		logger.Warn("report archive disabled", "error", err)
		a.Disk = nil
	}

	a.Tokens = auth.FromConfig()
	a.Notifier = mail.New()

	jobs.Register(a.Queue, jobs.Deps{
		Store:             a.Store,
		Notifier:          a.Notifier,
		Disk:              a.Disk,
		LowStockThreshold: config.ReportLowStockThreshold(),
	})
	return a, nil
}

func (a *Application) queueDriver(ctx context.Context) (queue.Driver, error) {
	if config.QueueDriver() != "redis" {
		logger.Info("queue driver", "driver", "memory")
		d := queue.NewMemoryDriver(0)
		a.closers = append(a.closers, func() { _ = d.Close() })
		return d, nil
	}

	rdb, err := cache.Connect(ctx)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = rdb.Close() })
	logger.Info("queue driver", "driver", "redis", "addr", config.RedisAddr(), "lease", config.QueueLease().String())
	return queue.NewRedisDriver(rdb).WithLease(config.QueueLease()), nil
}

// Close releases connections in reverse order of opening.
func (a *Application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
