package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"

	"github.com/vk/bundlego/internal/contentcache"
	"github.com/vk/bundlego/internal/ctxlog"
	"github.com/vk/bundlego/internal/group"
	"github.com/vk/bundlego/internal/locator"
)

// dispatch handles one accepted asset request end to end. Every failure is
// converted into a mode-appropriate response here; nothing propagates to
// the host server's generic error handling.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.FromContext(ctx).With("path", r.URL.Path)

	name, err := s.extractor.GroupName(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if name == "" {
		// Not a bundle request after all; decline.
		s.next.ServeHTTP(w, r)
		return
	}

	content, err := s.groupContent(ctx, name, assetType(r.URL.Path))
	if err != nil {
		logger.Warn("Bundle request failed.", "group", name, "error", err)
		s.fail(w, r, err)
		return
	}

	encoding := s.negotiateEncoding(r)
	if encoding != "" {
		content, err = s.encodedVariant(name, assetType(r.URL.Path), encoding, content)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}

	s.writeContent(w, r, encoding, content)
}

// groupContent produces (or serves from cache) the fully processed output
// of one group.
func (s *Server) groupContent(ctx context.Context, name, typ string) ([]byte, error) {
	key := contentcache.Key{Group: name, Type: typ}
	useCache := !s.settings.DisableCache
	if useCache {
		if content, ok := s.cache.Get(key); ok {
			return content, nil
		}
	}

	model, err := s.store.Model(ctx)
	if err != nil {
		return nil, err
	}
	g, ok := model.Lookup(name)
	if !ok {
		return nil, &GroupNotFoundError{Name: name}
	}

	content, err := s.buildGroup(ctx, g)
	if err != nil {
		return nil, err
	}
	if useCache {
		s.cache.Put(key, content)
	}
	return content, nil
}

// buildGroup resolves, pre-processes and merges a group's resources in
// declaration order, then post-processes the merged output.
func (s *Server) buildGroup(ctx context.Context, g group.Group) ([]byte, error) {
	parts, err := s.preprocessAll(ctx, g)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	merged := 0
	for _, part := range parts {
		if part == nil {
			continue
		}
		if merged > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(part)
		merged++
	}
	if merged == 0 && !s.settings.IgnoreEmptyGroup {
		return nil, &EmptyGroupError{Name: g.Name}
	}

	return s.pipeline.PostProcess(ctx, g, buf.Bytes())
}

// preprocessAll fetches and pre-processes every resource of a group,
// preserving declaration order in the result. A skipped resource (missing
// while ignore_missing_resources is on) leaves a nil slot. When parallel
// preprocessing is enabled the work fans out over the worker bound.
func (s *Server) preprocessAll(ctx context.Context, g group.Group) ([][]byte, error) {
	parts := make([][]byte, len(g.Resources))

	if !s.settings.ParallelPreprocessing {
		for i, res := range g.Resources {
			part, err := s.preprocessOne(ctx, res)
			if err != nil {
				return nil, err
			}
			parts[i] = part
		}
		return parts, nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.workers)
	for i, res := range g.Resources {
		eg.Go(func() error {
			part, err := s.preprocessOne(ctx, res)
			if err != nil {
				return err
			}
			parts[i] = part
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

// preprocessOne resolves one resource and runs it through the
// pre-processor chain. A missing resource returns (nil, nil) when the
// settings allow ignoring it. An empty resource yields a non-nil empty
// slice so it still counts as merged content.
func (s *Server) preprocessOne(ctx context.Context, res group.Resource) ([]byte, error) {
	logger := ctxlog.FromContext(ctx)

	rc, err := s.locators.Locate(ctx, res.URI)
	if err != nil {
		var notFound *locator.NotFoundError
		if errors.As(err, &notFound) && s.settings.IgnoreMissingResources {
			logger.Warn("Ignoring missing resource.", "uri", res.URI)
			return nil, nil
		}
		return nil, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read resource %s: %w", res.URI, err)
	}

	content, err := s.pipeline.PreProcess(ctx, res, raw)
	if err != nil {
		return nil, err
	}
	if content == nil {
		content = []byte{}
	}
	return content, nil
}

// encodedVariant returns (or builds and caches) the encoded form of a
// group's content.
func (s *Server) encodedVariant(name, typ, encoding string, content []byte) ([]byte, error) {
	key := contentcache.Key{Group: name, Type: typ, Encoding: encoding}
	cacheVariant := !s.settings.DisableCache && s.settings.CacheGzippedContent
	if cacheVariant {
		if encoded, ok := s.cache.Get(key); ok {
			return encoded, nil
		}
	}
	encoded, err := encode(content, encoding)
	if err != nil {
		return nil, err
	}
	if cacheVariant {
		s.cache.Put(key, encoded)
	}
	return encoded, nil
}

// negotiateEncoding picks a response encoding from Accept-Encoding, brotli
// preferred over gzip. Compression must be enabled by settings.
func (s *Server) negotiateEncoding(r *http.Request) string {
	if !s.settings.GzipEnabled {
		return ""
	}
	accepted := r.Header.Get("Accept-Encoding")
	if strings.Contains(accepted, "br") {
		return "br"
	}
	if strings.Contains(accepted, "gzip") {
		return "gzip"
	}
	return ""
}

// encode compresses content with the negotiated encoding.
func encode(content []byte, encoding string) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch encoding {
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "br":
		w = brotli.NewWriter(&buf)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
	if _, err := w.Write(content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeContent writes the final response: content type with the configured
// charset, any extra configured headers, and the negotiated encoding.
func (s *Server) writeContent(w http.ResponseWriter, r *http.Request, encoding string, content []byte) {
	w.Header().Set("Content-Type", contentType(r.URL.Path)+"; charset="+s.settings.Encoding)
	for _, h := range s.extraHeaders {
		w.Header().Set(h[0], h[1])
	}
	if s.settings.GzipEnabled {
		w.Header().Add("Vary", "Accept-Encoding")
	}
	if encoding != "" {
		w.Header().Set("Content-Encoding", encoding)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// assetType derives the content kind from a request path's extension.
func assetType(p string) string {
	return strings.TrimPrefix(path.Ext(p), ".")
}

// contentType maps a request path to its MIME type.
func contentType(p string) string {
	if assetType(p) == "css" {
		return "text/css"
	}
	return "text/javascript"
}
