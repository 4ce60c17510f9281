package group

import (
	"context"

	"github.com/vk/bundlego/internal/config"
	"github.com/vk/bundlego/internal/ctxlog"
)

// WildcardExpander expands a wildcard resource URI into the concrete URIs
// it matches. The web-root locator implements it.
type WildcardExpander interface {
	HasWildcard(uri string) bool
	Expand(ctx context.Context, uri string) ([]string, error)
}

// Build translates a loaded descriptor model into the runtime model,
// expanding wildcard URIs into concrete ordered entries. When a wildcard
// cannot be expanded the original URI is kept for per-request resolution;
// the locator gets another chance (and the final say) at request time.
func Build(ctx context.Context, cfg *config.Model, expander WildcardExpander) *Model {
	logger := ctxlog.FromContext(ctx)

	groups := make([]Group, 0, len(cfg.Groups))
	for _, def := range cfg.Groups {
		g := Group{Name: def.Name}
		for _, res := range def.Resources {
			if expander != nil && expander.HasWildcard(res.URI) {
				expanded, err := expander.Expand(ctx, res.URI)
				if err == nil {
					for _, uri := range expanded {
						g.Resources = append(g.Resources, Resource{URI: uri})
					}
					continue
				}
				logger.Warn("Wildcard expansion failed, keeping resource as declared.",
					"group", def.Name, "uri", res.URI, "error", err)
			}
			g.Resources = append(g.Resources, Resource{URI: res.URI})
		}
		groups = append(groups, g)
	}
	return NewModel(groups)
}
