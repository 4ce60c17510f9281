package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/bundlego/internal/contentcache"
	"github.com/vk/bundlego/internal/group"
	"github.com/vk/bundlego/internal/locator"
	"github.com/vk/bundlego/internal/modelstore"
	"github.com/vk/bundlego/internal/processor"
	"github.com/vk/bundlego/internal/settings"
)

// countingLocator serves fixed content by URI and counts lookups, so cache
// behavior is observable.
type countingLocator struct {
	content map[string]string
	hits    atomic.Int64
}

func (l *countingLocator) Accept(uri string) bool { return strings.HasPrefix(uri, "/") }

func (l *countingLocator) Locate(ctx context.Context, uri string) (io.ReadCloser, error) {
	l.hits.Add(1)
	content, ok := l.content[uri]
	if !ok {
		return nil, &locator.NotFoundError{URI: uri}
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

type fixture struct {
	server  *Server
	locator *countingLocator
}

// newFixture assembles a dispatcher over an in-memory model and locator.
// Groups map group names to resource URIs; files map URIs to content.
func newFixture(t *testing.T, mode settings.Mode, overrides settings.MapSource, groups map[string][]string, files map[string]string) *fixture {
	t.Helper()

	cfg, err := settings.Derive(mode, overrides)
	require.NoError(t, err)

	loc := &countingLocator{content: files}
	chain := locator.NewChain(loc)

	var defs []group.Group
	for name, uris := range groups {
		g := group.Group{Name: name}
		for _, uri := range uris {
			g.Resources = append(g.Resources, group.Resource{URI: uri})
		}
		defs = append(defs, g)
	}
	store := modelstore.New(func(ctx context.Context) (*group.Model, error) {
		return group.NewModel(defs), nil
	}, cfg.ModelUpdatePeriod)

	srv := New(Config{
		Mode:      mode,
		Settings:  cfg,
		Store:     store,
		Locators:  chain,
		Pipeline:  processor.NewRegistry().Pipeline(processor.Environment{Mode: mode, Locators: chain, Settings: cfg}),
		Extractor: group.PerFileExtractor{},
		Cache:     contentcache.New(cfg.CacheUpdatePeriod),
	})
	return &fixture{server: srv, locator: loc}
}

func (f *fixture) get(path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for name, values := range header {
		req.Header[name] = values
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func TestNew_MissingCollaboratorPanics(t *testing.T) {
	t.Parallel()

	cfg, err := settings.Derive(settings.Production)
	require.NoError(t, err)

	require.PanicsWithValue(t, "the settings are required", func() { New(Config{}) })
	require.PanicsWithValue(t, "the model store is required", func() { New(Config{Settings: cfg}) })
}

func TestServer_PassesThroughNonAssetPaths(t *testing.T) {
	t.Parallel()

	called := false
	f := newFixture(t, settings.Production, nil, nil, nil)
	f.server.next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	})

	rec := f.get("/index.html", nil)
	require.True(t, called)
	require.Equal(t, http.StatusTeapot, rec.Code)
}

func TestServer_MergesResourcesInDeclarationOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, settings.Production, nil,
		map[string][]string{"js_app": {"/js/one.js", "/js/two.js"}},
		map[string]string{"/js/one.js": "one();", "/js/two.js": "two();"},
	)

	rec := f.get("/js/app.js", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "one();\ntwo();", rec.Body.String())
	require.Equal(t, "text/javascript; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestServer_CSSContentType(t *testing.T) {
	t.Parallel()

	f := newFixture(t, settings.Production, nil,
		map[string][]string{"css_site": {"/css/site.css"}},
		map[string]string{"/css/site.css": "body{}"},
	)

	rec := f.get("/css/site.css", http.Header{"Accept-Encoding": {"identity"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/css; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestServer_SkipsMissingResourcesWhenIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t, settings.Production, nil,
		map[string][]string{"js_app": {"/js/one.js", "/js/gone.js", "/js/two.js"}},
		map[string]string{"/js/one.js": "one();", "/js/two.js": "two();"},
	)

	rec := f.get("/js/app.js", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "one();\ntwo();", rec.Body.String())
}

func TestServer_MissingResourceFailsWhenNotIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t, settings.Production,
		settings.MapSource{settings.KeyIgnoreMissingResources: cty.False},
		map[string][]string{"js_app": {"/js/gone.js"}},
		nil,
	)

	rec := f.get("/js/app.js", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_UnknownGroup_ProductionIsOpaque(t *testing.T) {
	t.Parallel()

	f := newFixture(t, settings.Production, nil, nil, nil)

	rec := f.get("/js/unknown.js", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, http.StatusText(http.StatusNotFound)+"\n", rec.Body.String())
	require.NotContains(t, rec.Body.String(), "js_unknown", "production responses carry no request detail")
}

func TestServer_UnknownGroup_DevelopmentIsDiagnostic(t *testing.T) {
	t.Parallel()

	f := newFixture(t, settings.Development, nil, nil, nil)

	rec := f.get("/js/unknown.js", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), "js_unknown")
	require.Contains(t, rec.Body.String(), "/js/unknown.js")
}

func TestServer_EmptyGroupFailsWhenNotIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t, settings.Production,
		settings.MapSource{settings.KeyIgnoreEmptyGroup: cty.False},
		map[string][]string{"js_app": {"/js/gone.js"}},
		nil,
	)

	rec := f.get("/js/app.js", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_EmptyGroupServedWhenIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t, settings.Production, nil,
		map[string][]string{"js_app": {"/js/gone.js"}},
		nil,
	)

	rec := f.get("/js/app.js", http.Header{"Accept-Encoding": {"identity"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())
}

func TestServer_GzipNegotiation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, settings.Production, nil,
		map[string][]string{"js_app": {"/js/app.js"}},
		map[string]string{"/js/app.js": "var payload = 'abcabcabc';"},
	)

	rec := f.get("/js/app.js", http.Header{"Accept-Encoding": {"gzip"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	require.Equal(t, "Accept-Encoding", rec.Header().Get("Vary"))

	zr, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Equal(t, "var payload = 'abcabcabc';", string(plain))
}

func TestServer_BrotliPreferredOverGzip(t *testing.T) {
	t.Parallel()

	f := newFixture(t, settings.Production, nil,
		map[string][]string{"js_app": {"/js/app.js"}},
		map[string]string{"/js/app.js": "x"},
	)

	rec := f.get("/js/app.js", http.Header{"Accept-Encoding": {"gzip, br"}})
	require.Equal(t, "br", rec.Header().Get("Content-Encoding"))
}

func TestServer_NoCompressionInDevelopment(t *testing.T) {
	t.Parallel()

	f := newFixture(t, settings.Development, nil,
		map[string][]string{"js_app": {"/js/app.js"}},
		map[string]string{"/js/app.js": "var x;"},
	)

	rec := f.get("/js/app.js", http.Header{"Accept-Encoding": {"gzip, br"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Content-Encoding"))
	require.Equal(t, "var x;", rec.Body.String())
}

func TestServer_CachesGroupContentInProduction(t *testing.T) {
	t.Parallel()

	f := newFixture(t, settings.Production, nil,
		map[string][]string{"js_app": {"/js/app.js"}},
		map[string]string{"/js/app.js": "var x;"},
	)

	f.get("/js/app.js", nil)
	f.get("/js/app.js", nil)

	require.EqualValues(t, 1, f.locator.hits.Load(), "the second request must be served from cache")
}

func TestServer_NoCachingInDevelopment(t *testing.T) {
	t.Parallel()

	f := newFixture(t, settings.Development, nil,
		map[string][]string{"js_app": {"/js/app.js"}},
		map[string]string{"/js/app.js": "var x;"},
	)

	f.get("/js/app.js", nil)
	f.get("/js/app.js", nil)

	require.EqualValues(t, 2, f.locator.hits.Load(), "development rebuilds on every request")
}

func TestServer_ParallelPreprocessingKeepsOrder(t *testing.T) {
	t.Parallel()

	files := map[string]string{}
	var uris []string
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		uri := "/js/" + n + ".js"
		uris = append(uris, uri)
		files[uri] = n
	}

	f := newFixture(t, settings.Production,
		settings.MapSource{settings.KeyParallelPreprocessing: cty.True},
		map[string][]string{"js_app": uris},
		files,
	)
	f.server.workers = 4

	rec := f.get("/js/app.js", http.Header{"Accept-Encoding": {"identity"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "a\nb\nc\nd\ne\nf", rec.Body.String())
}

func TestServer_ExtraHeadersFromSettings(t *testing.T) {
	t.Parallel()

	f := newFixture(t, settings.Production,
		settings.MapSource{settings.KeyHeader: cty.StringVal("Cache-Control: max-age=3600 | X-Asset-Server: bundlego")},
		map[string][]string{"js_app": {"/js/app.js"}},
		map[string]string{"/js/app.js": "var x;"},
	)

	rec := f.get("/js/app.js", http.Header{"Accept-Encoding": {"identity"}})
	require.Equal(t, "max-age=3600", rec.Header().Get("Cache-Control"))
	require.Equal(t, "bundlego", rec.Header().Get("X-Asset-Server"))
}

func TestParseHeaderSetting(t *testing.T) {
	t.Parallel()

	require.Nil(t, parseHeaderSetting(""))
	require.Equal(t,
		[][2]string{{"A", "1"}, {"B", "2"}},
		parseHeaderSetting("A: 1 | B: 2"),
	)
	require.Equal(t,
		[][2]string{{"A", "1"}},
		parseHeaderSetting("A: 1 | malformed | : empty"),
	)
}

func TestStatusHandler(t *testing.T) {
	t.Parallel()

	f := newFixture(t, settings.Production, nil,
		map[string][]string{"libs": {"/js/jquery.js"}},
		map[string]string{"/js/jquery.js": ""},
	)

	req := httptest.NewRequest(http.MethodGet, "/bundlego-status", nil)
	rec := httptest.NewRecorder()
	f.server.StatusHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	body := rec.Body.String()
	require.Contains(t, body, `"mode":"prod"`)
	require.Contains(t, body, `"libs"`)
	require.Contains(t, body, `"/js/jquery.js"`)
}

func TestServer_ModelRefreshPeriodInDevelopment(t *testing.T) {
	t.Parallel()

	cfg, err := settings.Derive(settings.Development)
	require.NoError(t, err)
	require.Equal(t, time.Second, cfg.ModelUpdatePeriod)
}
