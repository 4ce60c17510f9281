package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/bundlego/internal/config"
	"github.com/vk/bundlego/internal/contentcache"
	"github.com/vk/bundlego/internal/ctxlog"
	"github.com/vk/bundlego/internal/group"
	"github.com/vk/bundlego/internal/livereload"
	"github.com/vk/bundlego/internal/locator"
	"github.com/vk/bundlego/internal/modelstore"
	"github.com/vk/bundlego/internal/processor"
	"github.com/vk/bundlego/internal/server"
	"github.com/vk/bundlego/internal/settings"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	mode     settings.Mode
	settings *settings.Settings
	store    *modelstore.Store
	cache    *contentcache.Cache
	hub      *livereload.Hub
	handler  http.Handler
}

// NewApp is the constructor for the main application. It returns a fully
// wired App with its own isolated logger. A nil registry selects the
// built-in processor set. Startup configuration failures panic; cmd/cli
// recovers and turns them into a clean exit.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, registry *processor.Registry) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	mode, err := settings.ParseMode(appConfig.Mode)
	if err != nil {
		panic(err)
	}

	// The descriptor set is loaded once up front so descriptor-level
	// settings overrides can shape the rest of the wiring.
	descriptors, err := loader.Load(ctx, appConfig.BundlesPath)
	if err != nil {
		panic(fmt.Errorf("failed to load bundle descriptors: %w", err))
	}
	logger.Debug("Bundle descriptors loaded.", "groups", len(descriptors.Groups))

	resolved, err := settings.Derive(mode,
		settings.MapSource(descriptors.Settings),
		settings.EnvSource("BUNDLE"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to derive settings: %w", err))
	}
	logger.Debug("Settings resolved.", "mode", mode.String(), "debug", resolved.Debug)

	webRoot := locator.NewWebRoot(appConfig.WebRoot)
	locators := []locator.Locator{webRoot}
	if appConfig.Assets != nil {
		locators = append(locators, locator.NewMounted(appConfig.Assets))
	}
	locators = append(locators, locator.NewRemote(resolved.ConnectionTimeout))
	chain := locator.NewChain(locators...)

	if registry == nil {
		registry = processor.DefaultRegistry()
	}
	pipeline := registry.Pipeline(processor.Environment{
		Mode:     mode,
		Locators: chain,
		Settings: resolved,
	})
	logger.Debug("Processor pipeline assembled.",
		"pre", len(pipeline.PreProcessors()), "post", len(pipeline.PostProcessors()))

	factory := func(ctx context.Context) (*group.Model, error) {
		cfgModel, err := loader.Load(ctx, appConfig.BundlesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to reload bundle descriptors: %w", err)
		}
		model := group.Build(ctx, cfgModel, webRoot)
		if mode.Debug() {
			return group.PerFile(model)
		}
		return model, nil
	}
	store := modelstore.New(factory, resolved.ModelUpdatePeriod)
	cache := contentcache.New(resolved.CacheUpdatePeriod)

	var extractor group.Extractor
	if mode.Debug() {
		extractor = group.PerFileExtractor{MountPath: appConfig.MountPath}
	} else {
		extractor = group.DefaultExtractor{}
	}

	dispatcher := server.New(server.Config{
		Mode:      mode,
		Settings:  resolved,
		Store:     store,
		Locators:  chain,
		Pipeline:  pipeline,
		Extractor: extractor,
		Cache:     cache,
		Next:      http.FileServer(http.Dir(appConfig.WebRoot)),
		Workers:   appConfig.WorkerCount,
	})

	a := &App{
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		mode:     mode,
		settings: resolved,
		store:    store,
		cache:    cache,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	if resolved.StatsEnabled {
		mux.Handle("/"+resolved.StatsName, dispatcher.StatusHandler())
	}
	if mode.Debug() {
		a.hub = livereload.NewHub(logger)
		mux.Handle(livereload.Path, a.hub.Handler())
	}
	mux.Handle("/", dispatcher)
	a.handler = mux

	return a
}

// Handler returns the application's root HTTP handler. This is primarily
// for tests, which mount it on an httptest server.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Settings returns the resolved settings. This is primarily for testing.
func (a *App) Settings() *settings.Settings {
	return a.settings
}

// Hub returns the live-reload hub, or nil outside development mode. This is
// primarily for testing.
func (a *App) Hub() *livereload.Hub {
	return a.hub
}

// healthHandler reports liveness.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}
