// Package app wires configuration, storage and services together for the
// server and the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/axellelanca/linkforge/internal/cache"
	"github.com/axellelanca/linkforge/internal/codegen"
	"github.com/axellelanca/linkforge/internal/config"
	"github.com/axellelanca/linkforge/internal/database"
	"github.com/axellelanca/linkforge/internal/logging"
	"github.com/axellelanca/linkforge/internal/repository"
	"github.com/axellelanca/linkforge/internal/services"
	"github.com/axellelanca/linkforge/internal/validator"
	"github.com/axellelanca/linkforge/internal/workers"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds the long-lived components built from a Config.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	LogLevel  zap.AtomicLevel
	DB        *gorm.DB
	Links     *repository.GormLinkRepository
	Clicks    *repository.GormClickRepository
	Cache     cache.Cache
	Validator *validator.HTTPValidator
	Recorder  *workers.ClickRecorder

	LinkService *services.LinkService
	Redirects   *services.RedirectService

	closers []func() error
}

// Options adjusts New for the calling command.
type Options struct {
	// Logger replaces the configured zap logger, mostly for tests.
	Logger *zap.Logger
	// SyncClicks records clicks inline instead of starting the worker pool.
	SyncClicks bool
	// NoCache skips the configured cache provider.
	NoCache bool
}

// New opens the database, migrates it and builds the services.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	if opts.Logger != nil {
		a.Logger = opts.Logger
		a.LogLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	} else {
		logger, level, err := logging.New(cfg.Log)
		if err != nil {
			return nil, err
		}
		a.Logger, a.LogLevel = logger, level
		a.closers = append(a.closers, func() error { _ = logger.Sync(); return nil })
	}

	db, err := database.Open(cfg.Database, a.Logger, a.LogLevel.Level())
	if err != nil {
		return nil, a.fail(err)
	}
	a.DB = db
	a.closers = append(a.closers, func() error { return database.Close(db) })

	if err := database.Migrate(db); err != nil {
		return nil, a.fail(err)
	}

	a.Links = repository.NewLinkRepository(db)
	a.Clicks = repository.NewClickRepository(db)

	a.Cache, err = a.buildCache(ctx, opts.NoCache)
	if err != nil {
		return nil, a.fail(err)
	}

	a.Validator = validator.NewHTTPValidator(cfg.Validator.CheckReachability, cfg.Validator.Timeout, a.Logger)

	a.Recorder = workers.StartClickRecorder(a.Clicks, a.Logger, workers.Options{
		BufferSize:  cfg.Analytics.BufferSize,
		WorkerCount: cfg.Analytics.WorkerCount,
		MaxOverflow: cfg.Analytics.MaxOverflow,
		MaxRetries:  cfg.Analytics.MaxRetries,
		RetryDelay:  cfg.Analytics.RetryDelay,
		Sync:        cfg.Analytics.Sync || opts.SyncClicks,
	})

	a.Redirects = services.NewRedirectService(a.Links, a.Cache, a.Recorder, a.Logger)

	// The generator needs the secret; commands that only read still work without it.
	generator, err := codegen.New(cfg.Codegen.Secret, cfg.Codegen.Length)
	switch {
	case errors.Is(err, codegen.ErrEmptySecret):
		a.Logger.Warn("codegen.secret is not set, link creation is disabled")
	case err != nil:
		return nil, a.fail(err)
	}
	var resolver *services.CollisionResolver
	if generator != nil {
		resolver = services.NewCollisionResolver(generator, codegen.NewCounterSeed(), a.Links, cfg.Codegen.MaxAttempts, a.Logger)
	}
	a.LinkService = services.NewLinkService(a.Links, a.Clicks, a.Validator, resolver, a.Cache, a.Logger, services.LinkOptions{
		BaseURL:        cfg.Server.BaseURL,
		AllowAnonymous: cfg.Auth.AllowAnonymous,
	})

	return a, nil
}

func (a *App) buildCache(ctx context.Context, disabled bool) (cache.Cache, error) {
	if disabled {
		return cache.Noop{}, nil
	}
	switch a.Config.Cache.Provider {
	case "memory":
		return cache.NewMemory(a.Config.Cache.Size, a.Config.Cache.TTL), nil
	case "redis":
		rc, err := cache.NewRedis(ctx, a.Config.Cache.RedisURL, a.Config.Cache.TTL, a.Logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rc.Close)
		return rc, nil
	default:
		return cache.Noop{}, nil
	}
}

// Close drains the click recorder and releases connections, in reverse
// order of creation.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Recorder != nil {
		if err := a.Recorder.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop click recorder: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) fail(err error) error {
	_ = a.Close(context.Background())
	return err
}
