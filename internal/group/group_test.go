package group

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileToGroup(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want string
	}{
		{"/a/b/c.js", "a_b_c"},
		{"x/y.css", "x_y"},
		{"/app.js", "app"},
		{"app.js", "app"},
		{"/js/vendor/jquery.min.js", "js_vendor_jquery.min"},
		{"/", ""},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			require.Equal(t, tc.want, FileToGroup(tc.path))
		})
	}
}

func TestFileToGroup_Idempotent(t *testing.T) {
	t.Parallel()

	paths := []string{"/a/b/c.js", "x/y.css", "plain", "/deep/nested/path/file.css"}
	for _, p := range paths {
		once := FileToGroup(p)
		require.Equal(t, once, FileToGroup(once), "FileToGroup must be a no-op on its own output for %q", p)
	}
}

func TestResourceType(t *testing.T) {
	t.Parallel()

	require.Equal(t, "js", Resource{URI: "/a/b.js"}.Type())
	require.Equal(t, "css", Resource{URI: "embed:vendor/reset.css"}.Type())
	require.Equal(t, "", Resource{URI: "/no-extension"}.Type())
}

func TestModelLookup(t *testing.T) {
	t.Parallel()

	m := NewModel([]Group{
		{Name: "libs", Resources: []Resource{{URI: "/js/a.js"}, {URI: "/js/b.js"}}},
		{Name: "styles", Resources: []Resource{{URI: "/css/site.css"}}},
	})

	g, ok := m.Lookup("libs")
	require.True(t, ok)
	require.Len(t, g.Resources, 2)
	require.Equal(t, "/js/a.js", g.Resources[0].URI, "declaration order must be preserved")

	_, ok = m.Lookup("missing")
	require.False(t, ok)
}
