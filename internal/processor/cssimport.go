package processor

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/vk/bundlego/internal/ctxlog"
	"github.com/vk/bundlego/internal/group"
	"github.com/vk/bundlego/internal/locator"
)

// importPattern matches @import statements with either quoted or url()
// forms: @import "a.css"; / @import url('a.css');
var importPattern = regexp.MustCompile(`@import\s+(?:url\(\s*)?['"]?([^'")\s;]+)['"]?\s*\)?\s*;`)

// maxImportDepth bounds recursive inlining so circular imports terminate.
const maxImportDepth = 8

// CSSImport inlines @import statements in CSS resources by resolving the
// imported URI through the locator chain. Imports that cannot be resolved
// are logged and left in place; the browser gets a second chance at them.
type CSSImport struct {
	locators *locator.Chain
}

// NewCSSImport creates the @import inlining pre-processor.
func NewCSSImport() *CSSImport { return &CSSImport{} }

// Name implements PreProcessor.
func (p *CSSImport) Name() string { return "cssImport" }

// SetLocators implements LocatorAware.
func (p *CSSImport) SetLocators(c *locator.Chain) { p.locators = c }

// PreProcess implements PreProcessor. Non-CSS resources pass through
// untouched.
func (p *CSSImport) PreProcess(ctx context.Context, res group.Resource, content []byte) ([]byte, error) {
	if res.Type() != "css" || p.locators == nil {
		return content, nil
	}
	return p.inline(ctx, res.URI, content, 0)
}

func (p *CSSImport) inline(ctx context.Context, base string, content []byte, depth int) ([]byte, error) {
	if depth >= maxImportDepth {
		return nil, fmt.Errorf("@import nesting in %s exceeds %d levels", base, maxImportDepth)
	}
	logger := ctxlog.FromContext(ctx)

	var inlineErr error
	out := importPattern.ReplaceAllFunc(content, func(m []byte) []byte {
		if inlineErr != nil {
			return m
		}
		target := resolveImportURI(base, string(importPattern.FindSubmatch(m)[1]))
		rc, err := p.locators.Locate(ctx, target)
		if err != nil {
			logger.Warn("Could not inline @import, leaving statement as-is.", "from", base, "uri", target, "error", err)
			return m
		}
		defer rc.Close()
		imported, err := io.ReadAll(rc)
		if err != nil {
			inlineErr = fmt.Errorf("failed to read imported resource %s: %w", target, err)
			return m
		}
		inlined, err := p.inline(ctx, target, imported, depth+1)
		if err != nil {
			inlineErr = err
			return m
		}
		return inlined
	})
	if inlineErr != nil {
		return nil, inlineErr
	}
	return out, nil
}

// resolveImportURI resolves an import target relative to the importing
// resource. Absolute URIs and locator schemes pass through untouched.
func resolveImportURI(base, target string) string {
	if strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, locator.Scheme) {
		return target
	}
	return path.Join(path.Dir(base), target)
}
