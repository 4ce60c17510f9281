package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestDerive_DevelopmentDefaults(t *testing.T) {
	t.Parallel()

	s, err := Derive(Development)
	require.NoError(t, err)

	require.True(t, s.Debug)
	require.True(t, s.DisableCache)
	require.False(t, s.GzipEnabled)
	require.False(t, s.CacheGzippedContent)
	require.Equal(t, 1*time.Second, s.ModelUpdatePeriod)
	require.Equal(t, time.Duration(0), s.CacheUpdatePeriod)
	require.Equal(t, DefaultConnectionTimeout, s.ConnectionTimeout)
	require.Equal(t, DefaultEncoding, s.Encoding)
	require.True(t, s.IgnoreEmptyGroup)
	require.True(t, s.IgnoreMissingResources)
	require.False(t, s.ParallelPreprocessing)
	require.False(t, s.StatsEnabled)
}

func TestDerive_ProductionDefaults(t *testing.T) {
	t.Parallel()

	s, err := Derive(Production)
	require.NoError(t, err)

	require.False(t, s.Debug)
	require.False(t, s.DisableCache)
	require.True(t, s.GzipEnabled)
	require.True(t, s.CacheGzippedContent)
	require.Equal(t, time.Duration(0), s.ModelUpdatePeriod, "production models are built once")
}

func TestDerive_ExplicitOverrideBeatsModeDefault(t *testing.T) {
	t.Parallel()

	s, err := Derive(Development, MapSource{
		KeyGzipEnabled: cty.True,
	})
	require.NoError(t, err)
	require.True(t, s.GzipEnabled, "explicit override must beat the debug default")
	require.True(t, s.DisableCache, "untouched settings keep their mode default")
}

func TestDerive_SourcePriority(t *testing.T) {
	t.Parallel()

	first := MapSource{KeyEncoding: cty.StringVal("iso-8859-1")}
	second := MapSource{
		KeyEncoding:          cty.StringVal("utf-16"),
		KeyCacheUpdatePeriod: cty.NumberIntVal(30),
	}

	s, err := Derive(Production, first, second)
	require.NoError(t, err)
	require.Equal(t, "iso-8859-1", s.Encoding, "the first source with an opinion wins")
	require.Equal(t, 30*time.Second, s.CacheUpdatePeriod, "later sources still fill unclaimed keys")
}

func TestDerive_EnvSource(t *testing.T) {
	t.Setenv("BUNDLE_DISABLE_CACHE", "true")
	t.Setenv("BUNDLE_CONNECTION_TIMEOUT", "500")

	s, err := Derive(Production, EnvSource("BUNDLE"))
	require.NoError(t, err)
	require.True(t, s.DisableCache, "env strings convert to booleans")
	require.Equal(t, 500*time.Millisecond, s.ConnectionTimeout)
}

func TestDerive_InvalidValue(t *testing.T) {
	t.Parallel()

	_, err := Derive(Production, MapSource{KeyGzipEnabled: cty.StringVal("definitely")})
	require.Error(t, err)
	require.Contains(t, err.Error(), KeyGzipEnabled)

	_, err = Derive(Production, MapSource{KeyModelUpdatePeriod: cty.NumberIntVal(-1)})
	require.Error(t, err)
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"dev", "development", "DEV"} {
		m, err := ParseMode(raw)
		require.NoError(t, err)
		require.Equal(t, Development, m)
	}
	for _, raw := range []string{"prod", "production"} {
		m, err := ParseMode(raw)
		require.NoError(t, err)
		require.Equal(t, Production, m)
	}
	_, err := ParseMode("staging")
	require.Error(t, err)
}
