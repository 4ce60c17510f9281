// Package settings resolves the runtime configuration of the pipeline.
//
// Every setting has a default that branches on the deployment mode's single
// debug flag, and every setting can be overridden by name from one or more
// override sources (descriptor `settings` blocks, environment variables).
// An explicit override always beats a mode default.
package settings

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Mode is the deployment mode the application was started in. It is the
// single input that drives all mode-dependent defaults.
type Mode int

const (
	// Production serves merged, cached, compressed bundles.
	Production Mode = iota
	// Development serves every file as its own group with caching off.
	Development
)

// ParseMode converts a CLI-level mode string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "prod", "production":
		return Production, nil
	case "dev", "development":
		return Development, nil
	default:
		return Production, fmt.Errorf("invalid mode %q: must be 'dev' or 'prod'", s)
	}
}

// Debug reports whether the mode is a development mode.
func (m Mode) Debug() bool { return m == Development }

func (m Mode) String() string {
	if m == Development {
		return "dev"
	}
	return "prod"
}

// Settings key names. These are the stable external names overrides are
// keyed by, in descriptor blocks (as-is) and in the environment
// (upper-cased with the BUNDLE_ prefix).
const (
	KeyCacheGzippedContent    = "cache_gzipped_content"
	KeyCacheUpdatePeriod      = "cache_update_period"
	KeyConnectionTimeout      = "connection_timeout"
	KeyDisableCache           = "disable_cache"
	KeyEncoding               = "encoding"
	KeyGzipEnabled            = "gzip_enabled"
	KeyHeader                 = "header"
	KeyIgnoreEmptyGroup       = "ignore_empty_group"
	KeyIgnoreMissingResources = "ignore_missing_resources"
	KeyModelUpdatePeriod      = "model_update_period"
	KeyParallelPreprocessing  = "parallel_preprocessing"
	KeyStatsEnabled           = "stats_enabled"
	KeyStatsName              = "stats_name"
)

// Mode-independent defaults.
const (
	DefaultConnectionTimeout = 2000 * time.Millisecond
	DefaultEncoding          = "utf-8"
	DefaultStatsName         = "bundlego-status"
)

// Settings is the resolved, immutable runtime configuration. It is built
// once at startup and shared read-only across all requests.
type Settings struct {
	// Debug is derived from the deployment mode, never from an override.
	Debug bool

	DisableCache        bool
	GzipEnabled         bool
	CacheGzippedContent bool

	// CacheUpdatePeriod bounds the lifetime of cached group content.
	// Zero means cached content never expires.
	CacheUpdatePeriod time.Duration
	// ModelUpdatePeriod bounds the lifetime of a built model. Zero means
	// build once and never refresh.
	ModelUpdatePeriod time.Duration

	// ConnectionTimeout applies to the remote resource locator.
	ConnectionTimeout time.Duration

	// Encoding is the charset advertised on responses.
	Encoding string
	// Header holds extra response headers as "Name: value" pairs joined
	// with "|", e.g. "Cache-Control: max-age=3600 | Expires: 0".
	Header string

	IgnoreEmptyGroup       bool
	IgnoreMissingResources bool
	ParallelPreprocessing  bool

	// StatsEnabled exposes a read-only status endpoint named StatsName on
	// the serving mux.
	StatsEnabled bool
	StatsName    string
}

// Source supplies raw override values by settings key. Lookup returns false
// when the source has no opinion about the key.
type Source interface {
	Lookup(key string) (cty.Value, bool)
}

// MapSource adapts a plain override map (typically descriptor settings) to
// the Source interface.
type MapSource map[string]cty.Value

// Lookup implements Source.
func (m MapSource) Lookup(key string) (cty.Value, bool) {
	v, ok := m[key]
	return v, ok
}

// envSource reads overrides from environment variables.
type envSource struct {
	prefix string
}

// EnvSource returns a Source backed by environment variables. A key such as
// "gzip_enabled" is looked up as "<PREFIX>_GZIP_ENABLED". Values arrive as
// strings and are converted to the target type during derivation.
func EnvSource(prefix string) Source {
	return envSource{prefix: prefix}
}

// Lookup implements Source.
func (e envSource) Lookup(key string) (cty.Value, bool) {
	name := e.prefix + "_" + strings.ToUpper(key)
	raw, ok := os.LookupEnv(name)
	if !ok {
		return cty.NilVal, false
	}
	return cty.StringVal(raw), true
}

// Derive resolves the full settings set for a mode. Sources are consulted
// in order; the first source with an opinion about a key wins, and mode
// defaults apply only when no source has one. The debug default resolves
// first because every other mode-dependent default reads it.
func Derive(mode Mode, sources ...Source) (*Settings, error) {
	debug := mode.Debug()

	// Mode-dependent defaults, mirroring the two steady states.
	disableCache := true
	gzipEnabled := false
	cacheGzippedContent := false
	var cacheUpdatePeriod time.Duration
	modelUpdatePeriod := 1 * time.Second
	if !debug {
		disableCache = false
		gzipEnabled = true
		cacheGzippedContent = true
		modelUpdatePeriod = 0
	}

	s := &Settings{Debug: debug}
	var err error

	if s.DisableCache, err = lookupBool(sources, KeyDisableCache, disableCache); err != nil {
		return nil, err
	}
	if s.GzipEnabled, err = lookupBool(sources, KeyGzipEnabled, gzipEnabled); err != nil {
		return nil, err
	}
	if s.CacheGzippedContent, err = lookupBool(sources, KeyCacheGzippedContent, cacheGzippedContent); err != nil {
		return nil, err
	}
	if s.CacheUpdatePeriod, err = lookupSeconds(sources, KeyCacheUpdatePeriod, cacheUpdatePeriod); err != nil {
		return nil, err
	}
	if s.ModelUpdatePeriod, err = lookupSeconds(sources, KeyModelUpdatePeriod, modelUpdatePeriod); err != nil {
		return nil, err
	}
	if s.ConnectionTimeout, err = lookupMillis(sources, KeyConnectionTimeout, DefaultConnectionTimeout); err != nil {
		return nil, err
	}
	if s.Encoding, err = lookupString(sources, KeyEncoding, DefaultEncoding); err != nil {
		return nil, err
	}
	if s.Header, err = lookupString(sources, KeyHeader, ""); err != nil {
		return nil, err
	}
	if s.IgnoreEmptyGroup, err = lookupBool(sources, KeyIgnoreEmptyGroup, true); err != nil {
		return nil, err
	}
	if s.IgnoreMissingResources, err = lookupBool(sources, KeyIgnoreMissingResources, true); err != nil {
		return nil, err
	}
	if s.ParallelPreprocessing, err = lookupBool(sources, KeyParallelPreprocessing, false); err != nil {
		return nil, err
	}
	if s.StatsEnabled, err = lookupBool(sources, KeyStatsEnabled, false); err != nil {
		return nil, err
	}
	if s.StatsName, err = lookupString(sources, KeyStatsName, DefaultStatsName); err != nil {
		return nil, err
	}

	return s, nil
}

// lookup finds the first source with an opinion about a key.
func lookup(sources []Source, key string) (cty.Value, bool) {
	for _, src := range sources {
		if v, ok := src.Lookup(key); ok {
			return v, true
		}
	}
	return cty.NilVal, false
}

func lookupBool(sources []Source, key string, def bool) (bool, error) {
	raw, ok := lookup(sources, key)
	if !ok {
		return def, nil
	}
	v, err := convert.Convert(raw, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("setting %q: expected a boolean: %w", key, err)
	}
	return v.True(), nil
}

func lookupString(sources []Source, key string, def string) (string, error) {
	raw, ok := lookup(sources, key)
	if !ok {
		return def, nil
	}
	v, err := convert.Convert(raw, cty.String)
	if err != nil {
		return "", fmt.Errorf("setting %q: expected a string: %w", key, err)
	}
	return v.AsString(), nil
}

func lookupInt64(sources []Source, key string) (int64, bool, error) {
	raw, ok := lookup(sources, key)
	if !ok {
		return 0, false, nil
	}
	v, err := convert.Convert(raw, cty.Number)
	if err != nil {
		return 0, false, fmt.Errorf("setting %q: expected a number: %w", key, err)
	}
	n, _ := v.AsBigFloat().Int64()
	if n < 0 {
		return 0, false, fmt.Errorf("setting %q: must not be negative, got %d", key, n)
	}
	return n, true, nil
}

// lookupSeconds reads a period setting expressed in whole seconds.
func lookupSeconds(sources []Source, key string, def time.Duration) (time.Duration, error) {
	n, ok, err := lookupInt64(sources, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	return time.Duration(n) * time.Second, nil
}

// lookupMillis reads a timeout setting expressed in whole milliseconds.
func lookupMillis(sources []Source, key string, def time.Duration) (time.Duration, error) {
	n, ok, err := lookupInt64(sources, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	return time.Duration(n) * time.Millisecond, nil
}
