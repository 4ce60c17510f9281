package locator

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
)

// Scheme is the URI prefix the mounted locator accepts. It plays the role a
// classpath scheme plays on the JVM: resources compiled into the binary or
// mounted from an arbitrary fs.FS.
const Scheme = "embed:"

// Mounted resolves "embed:" URIs against an fs.FS, typically an embed.FS of
// vendored assets.
type Mounted struct {
	fsys fs.FS
}

// NewMounted creates a locator over the given filesystem.
func NewMounted(fsys fs.FS) *Mounted {
	if fsys == nil {
		panic("the mounted filesystem is required")
	}
	return &Mounted{fsys: fsys}
}

// Accept implements Locator.
func (l *Mounted) Accept(uri string) bool {
	return strings.HasPrefix(uri, Scheme)
}

// Locate implements Locator.
func (l *Mounted) Locate(ctx context.Context, uri string) (io.ReadCloser, error) {
	name := strings.TrimPrefix(uri, Scheme)
	f, err := l.fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{URI: uri}
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}
