// Package app assembles the service from its configuration.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/customtrans/internal/catalog"
	"github.com/dgallion1/customtrans/internal/config"
	"github.com/dgallion1/customtrans/internal/fetch"
	"github.com/dgallion1/customtrans/internal/glossstore"
	"github.com/dgallion1/customtrans/internal/pipeline"
	"github.com/dgallion1/customtrans/internal/render"
	"github.com/dgallion1/customtrans/internal/rendercache"
	"github.com/dgallion1/customtrans/internal/tokenstore"
)

// statsWindow is how far back fetch latency percentiles look.
const statsWindow = 15 * time.Minute

// App holds the wired components. Close releases them.
type App struct {
	Config       config.Config
	Catalog      catalog.Store
	Glossaries   *glossstore.DirStore
	Tokens       tokenstore.Store
	Fetch        *fetch.Client
	Cache        *rendercache.Cache
	Orchestrator *pipeline.Orchestrator

	log     *slog.Logger
	closers []func()
}

// New builds every component cfg selects. The orchestrator is not
// started.
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, log: log}

	var err error
	if a.Catalog, err = a.openCatalog(); err != nil {
		a.Close()
		return nil, err
	}
	if a.Glossaries, err = glossstore.Open(cfg.GlossaryDir); err != nil {
		a.Close()
		return nil, err
	}
	if a.Tokens, err = a.openTokens(); err != nil {
		a.Close()
		return nil, err
	}
	if a.Cache, err = rendercache.New(cfg.CacheCapacity); err != nil {
		a.Close()
		return nil, err
	}

	a.Fetch = fetch.NewClient(cfg.FetchTimeout, cfg.UserAgent, fetch.NewStats(statsWindow))
	a.closers = append(a.closers, a.Fetch.Close)

	var reader *render.Reader
	if cfg.EnableReadings {
		if reader, err = render.NewReader(); err != nil {
			a.Close()
			return nil, fmt.Errorf("reading aid: %w", err)
		}
	}

	a.Orchestrator = pipeline.New(pipeline.Deps{
		Catalog:    a.Catalog,
		Glossaries: a.Glossaries,
		Tokens:     a.Tokens,
		Fetcher:    a.Fetch,
		Cache:      a.Cache,
		Reader:     reader,
	}, pipeline.Options{
		Retry: pipeline.RetryPolicy{
			MaxAttempts: cfg.FetchMaxAttempts,
			Base:        cfg.FetchBackoffBase,
			Max:         cfg.FetchBackoffMax,
		},
		CreateSkeletons: cfg.CreateSkeletons,
		UpdateWorkers:   cfg.UpdateWorkers,
		MaxQueueSize:    cfg.MaxQueueSize,
		JobTTL:          cfg.JobTTL,
	}, log)
	return a, nil
}

func (a *App) openCatalog() (catalog.Store, error) {
	if a.Config.CatalogURL != "" {
		rs := catalog.NewRemoteStore(a.Config.CatalogURL, a.Config.CatalogAPIKey)
		a.closers = append(a.closers, rs.Close)
		a.log.Info("using remote catalog", "url", a.Config.CatalogURL)
		return rs, nil
	}
	ms, err := catalog.OpenLibrary(a.Config.LibraryPath)
	if err != nil {
		return nil, err
	}
	a.log.Info("using library file", "path", a.Config.LibraryPath)
	return ms, nil
}

func (a *App) openTokens() (tokenstore.Store, error) {
	var (
		s   tokenstore.Store
		err error
	)
	switch a.Config.TokenStore {
	case "redis":
		s, err = tokenstore.OpenRedis(tokenstore.RedisOptions{
			Addr:     a.Config.RedisAddr,
			Password: a.Config.RedisPassword,
			DB:       a.Config.RedisDB,
		})
	default:
		s, err = tokenstore.OpenFile(a.Config.TokenStorePath)
	}
	if err != nil {
		return nil, fmt.Errorf("token store: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := s.Close(); err != nil {
			a.log.Warn("closing token store", "error", err)
		}
	})
	return s, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
