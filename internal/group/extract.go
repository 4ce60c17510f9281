package group

import (
	"errors"
	"net/http"
	"path"
	"strings"
)

// ErrNilRequest is returned by extractors handed a nil request.
var ErrNilRequest = errors.New("request cannot be nil")

// Extractor derives a group name from an incoming request. An empty name
// with a nil error means "not a bundle request": the caller must decline
// and pass the request through.
type Extractor interface {
	GroupName(r *http.Request) (string, error)
}

// PerFileExtractor derives the group name from the full request path via
// FileToGroup. It pairs with the PerFile model transform in development
// mode, where every file is its own group.
type PerFileExtractor struct {
	// MountPath is the application's mount prefix, stripped from the
	// request path before deriving the name.
	MountPath string
}

// GroupName implements Extractor.
func (e PerFileExtractor) GroupName(r *http.Request) (string, error) {
	if r == nil {
		return "", ErrNilRequest
	}
	uri := strings.TrimPrefix(r.URL.Path, e.MountPath)
	return FileToGroup(uri), nil
}

// DefaultExtractor derives the group name from the request path's base name
// without its extension, the production naming rule: /bundles/libs.js
// resolves group "libs".
type DefaultExtractor struct{}

// GroupName implements Extractor.
func (DefaultExtractor) GroupName(r *http.Request) (string, error) {
	if r == nil {
		return "", ErrNilRequest
	}
	base := path.Base(r.URL.Path)
	if base == "/" || base == "." {
		return "", nil
	}
	if ext := path.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return base, nil
}
