package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"

	appdb "github.com/rameshiCode/aindependent-backend/internal/data/db"
	apphttp "github.com/rameshiCode/aindependent-backend/internal/http"
	"github.com/rameshiCode/aindependent-backend/internal/observability"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Modules  Modules
	Services Services
	Server   *apphttp.Server

	shutdownOtel func(context.Context) error
}

type Options struct {
	// Migrate runs AutoMigrateAll before wiring.
	Migrate bool
}

func NewLogger() (*logger.Logger, error) {
	mode := strings.TrimSpace(os.Getenv("LOG_MODE"))
	if mode == "" {
		mode = "development"
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// New wires the whole application. Callers must Close it.
func New(ctx context.Context, log *logger.Logger, opts Options) (*App, error) {
	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		return nil, err
	}

	theDB, err := appdb.Open(log, cfg.DB)
	if err != nil {
		return nil, err
	}
	a := &App{Log: log, DB: theDB, Cfg: cfg}
	if opts.Migrate {
		if err := Migrate(log, theDB); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}
	a.shutdownOtel = observability.InitOTel(ctx, log, cfg.Otel)

	a.Repos = wireRepos(theDB, log)
	if a.Clients, err = wireClients(ctx, log, cfg); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if a.Modules, err = wireModules(theDB, log, cfg, a.Repos, a.Clients); err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Services = wireServices(theDB, log, cfg, a.Repos, a.Clients, a.Modules)
	a.Server = wireServer(log, cfg, a.Services)
	return a, nil
}

func Migrate(log *logger.Logger, db *gorm.DB) error {
	log.Info("Running migrations...")
	return appdb.AutoMigrateAll(db)
}

// Serve runs the HTTP server and, when enabled, the background sweeps until
// ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	if a.Cfg.SweepsEnabled {
		if err := a.Modules.Sweeps.Start(ctx); err != nil {
			return err
		}
		defer a.Modules.Sweeps.Stop()
	}
	addr := ":" + strings.TrimPrefix(a.Cfg.Port, ":")
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.shutdownOtel != nil {
		if err := a.shutdownOtel(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	a.Log.Sync()
}
