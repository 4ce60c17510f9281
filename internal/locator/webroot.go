package locator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/bundlego/internal/ctxlog"
)

// WebRoot resolves server-relative URIs ("/js/app.js") against the serving
// root on disk. URIs may contain wildcard patterns ("*", "?", "**"); a
// wildcard resolves the containing directory under the root and expands the
// pattern against real files, concatenated in sorted path order.
type WebRoot struct {
	root string
}

// NewWebRoot creates a web-root locator over the given directory.
func NewWebRoot(root string) *WebRoot {
	if root == "" {
		panic("the serving root is required")
	}
	return &WebRoot{root: root}
}

// Accept implements Locator: any URI starting with "/" is a web-root URI.
func (l *WebRoot) Accept(uri string) bool {
	return strings.HasPrefix(strings.TrimSpace(uri), "/")
}

// HasWildcard reports whether the URI contains a wildcard pattern.
func (l *WebRoot) HasWildcard(uri string) bool {
	return strings.ContainsAny(uri, "*?")
}

// Locate implements Locator. Wildcard URIs resolve to the concatenation of
// every matched file. An unresolvable containing directory fails
// immediately; any other wildcard failure is logged and falls back to an
// exact lookup of the URI as written.
func (l *WebRoot) Locate(ctx context.Context, uri string) (io.ReadCloser, error) {
	logger := ctxlog.FromContext(ctx)

	if l.HasWildcard(uri) {
		if err := l.checkPatternRoot(uri); err != nil {
			logger.Error("Could not resolve containing directory for resource.", "uri", uri, "error", err)
			return nil, err
		}
		matches, err := l.glob(uri)
		if err == nil && len(matches) == 0 {
			err = &NotFoundError{URI: uri}
		}
		if err == nil {
			return concatFiles(matches)
		}
		logger.Warn("Wildcard lookup failed, trying the exact URI instead.", "uri", uri, "error", err)
	}

	f, err := os.Open(l.realPath(uri))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{URI: uri}
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Expand resolves a wildcard URI into the sorted list of web-root URIs it
// matches. The model build uses it to turn wildcard resources into
// concrete entries.
func (l *WebRoot) Expand(ctx context.Context, uri string) ([]string, error) {
	if err := l.checkPatternRoot(uri); err != nil {
		return nil, err
	}
	matches, err := l.glob(uri)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, &NotFoundError{URI: uri}
	}
	uris := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(l.root, m)
		if err != nil {
			return nil, err
		}
		uris = append(uris, "/"+filepath.ToSlash(rel))
	}
	return uris, nil
}

// realPath maps a web-root URI to its on-disk path.
func (l *WebRoot) realPath(uri string) string {
	return filepath.Join(l.root, filepath.FromSlash(path.Clean("/"+uri)))
}

// patternRoot returns the deepest wildcard-free directory of a pattern URI.
func (l *WebRoot) patternRoot(uri string) string {
	dir := path.Dir(uri)
	if i := strings.IndexAny(dir, "*?"); i >= 0 {
		dir = path.Dir(dir[:i])
	}
	return dir
}

// checkPatternRoot verifies that the wildcard's containing directory
// resolves to a real directory under the serving root.
func (l *WebRoot) checkPatternRoot(uri string) error {
	real := l.realPath(l.patternRoot(uri))
	fi, err := os.Stat(real)
	if err != nil {
		return fmt.Errorf("could not resolve real path for resource %s: %w", uri, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("could not resolve real path for resource %s: %s is not a directory", uri, real)
	}
	return nil
}

// glob expands a wildcard URI into sorted on-disk paths. "**" matches any
// directory depth below the pattern root; "*" and "?" match within the
// file name.
func (l *WebRoot) glob(uri string) ([]string, error) {
	namePattern := path.Base(uri)
	realRoot := l.realPath(l.patternRoot(uri))

	var matches []string
	if strings.Contains(uri, "**") {
		err := filepath.WalkDir(realRoot, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ok, err := path.Match(namePattern, d.Name())
			if err != nil {
				return err
			}
			if ok {
				matches = append(matches, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(l.realPath(path.Dir(uri)))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ok, err := path.Match(namePattern, e.Name())
			if err != nil {
				return nil, err
			}
			if ok {
				matches = append(matches, filepath.Join(l.realPath(path.Dir(uri)), e.Name()))
			}
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// concatFiles reads every file and returns their contents as one stream,
// newline-separated so the last line of one file cannot swallow the first
// line of the next.
func concatFiles(paths []string) (io.ReadCloser, error) {
	var buf bytes.Buffer
	for i, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(content)
	}
	return io.NopCloser(&buf), nil
}
