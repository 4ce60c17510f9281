package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vk/bundlego/internal/ctxlog"
	"github.com/vk/bundlego/internal/watch"
)

// shutdownGrace bounds how long in-flight requests may finish after the
// context is cancelled.
const shutdownGrace = 5 * time.Second

// Run serves until the context is cancelled. In development mode it also
// watches the descriptor path and web root, invalidating the model and
// notifying live-reload clients on every change.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.mode.Debug() {
		watcher, err := watch.New(a.onAssetChange)
		if err != nil {
			return err
		}
		if err := watcher.Add(a.config.BundlesPath, a.config.WebRoot); err != nil {
			return err
		}
		defer watcher.Close()
		go watcher.Run(ctx)
		a.logger.Info("Watching for changes.",
			"bundles", a.config.BundlesPath, "webroot", a.config.WebRoot)
	}
	if a.hub != nil {
		defer a.hub.Close()
	}

	srv := &http.Server{Addr: a.config.ListenAddr, Handler: a.handler}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Serving bundles.", "address", a.config.ListenAddr, "mode", a.mode.String())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		a.logger.Info("Server stopped.")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// onAssetChange reacts to a filesystem change: drop the model and cached
// content, then tell connected browsers to reload.
func (a *App) onAssetChange(path string) {
	a.logger.Info("Change detected, invalidating model.", "path", path)
	a.store.Invalidate()
	a.cache.Purge()
	if a.hub != nil {
		a.hub.NotifyReload(path)
	}
}
