// Package server dispatches asset requests through the pipeline: it maps a
// request URI to a group, resolves and processes the group's resources, and
// writes the merged result, with mode-appropriate failure reporting.
package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/vk/bundlego/internal/contentcache"
	"github.com/vk/bundlego/internal/group"
	"github.com/vk/bundlego/internal/locator"
	"github.com/vk/bundlego/internal/modelstore"
	"github.com/vk/bundlego/internal/processor"
	"github.com/vk/bundlego/internal/settings"
)

// Config wires the dispatcher's collaborators. All of them except Next are
// required; a missing one is a wiring error that must fail startup.
type Config struct {
	Mode      settings.Mode
	Settings  *settings.Settings
	Store     *modelstore.Store
	Locators  *locator.Chain
	Pipeline  *processor.Pipeline
	Extractor group.Extractor
	Cache     *contentcache.Cache

	// Next handles every request the dispatcher declines. Defaults to a
	// plain 404 handler.
	Next http.Handler

	// Workers bounds parallel preprocessing. Values below one mean one.
	Workers int
}

// Server is the asset dispatcher. It intercepts *.js and *.css requests at
// any path depth and passes everything else through.
type Server struct {
	mode      settings.Mode
	settings  *settings.Settings
	store     *modelstore.Store
	locators  *locator.Chain
	pipeline  *processor.Pipeline
	extractor group.Extractor
	cache     *contentcache.Cache
	next      http.Handler
	workers   int

	extraHeaders [][2]string
}

// New creates the dispatcher. Missing required collaborators panic: wiring
// errors must surface at startup, never per request.
func New(cfg Config) *Server {
	if cfg.Settings == nil {
		panic("the settings are required")
	}
	if cfg.Store == nil {
		panic("the model store is required")
	}
	if cfg.Locators == nil {
		panic("the locator chain is required")
	}
	if cfg.Pipeline == nil {
		panic("the processor pipeline is required")
	}
	if cfg.Extractor == nil {
		panic("the group extractor is required")
	}
	if cfg.Cache == nil {
		panic("the content cache is required")
	}
	next := cfg.Next
	if next == nil {
		next = http.NotFoundHandler()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Server{
		mode:         cfg.Mode,
		settings:     cfg.Settings,
		store:        cfg.Store,
		locators:     cfg.Locators,
		pipeline:     cfg.Pipeline,
		extractor:    cfg.Extractor,
		cache:        cfg.Cache,
		next:         next,
		workers:      workers,
		extraHeaders: parseHeaderSetting(cfg.Settings.Header),
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !isAssetPath(r.URL.Path) {
		s.next.ServeHTTP(w, r)
		return
	}
	s.dispatch(w, r)
}

// isAssetPath reports whether the path looks like a bundle request.
func isAssetPath(p string) bool {
	return strings.HasSuffix(p, ".js") || strings.HasSuffix(p, ".css")
}

// parseHeaderSetting splits the `header` setting ("Name: value | Name:
// value") into response header pairs. Malformed fragments are dropped.
func parseHeaderSetting(raw string) [][2]string {
	if raw == "" {
		return nil
	}
	var headers [][2]string
	for _, pair := range strings.Split(raw, "|") {
		name, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name != "" && value != "" {
			headers = append(headers, [2]string{name, value})
		}
	}
	return headers
}

// GroupNotFoundError reports a request for a group the model does not know.
type GroupNotFoundError struct {
	Name string
}

func (e *GroupNotFoundError) Error() string {
	return fmt.Sprintf("no group named %q in the model", e.Name)
}

// EmptyGroupError reports a group that produced no content while
// ignore_empty_group is off.
type EmptyGroupError struct {
	Name string
}

func (e *EmptyGroupError) Error() string {
	return fmt.Sprintf("group %q has no resolvable resources", e.Name)
}
