package config

import (
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of the full bundle
// descriptor set: every declared group plus any descriptor-level settings
// overrides.
type Model struct {
	// Groups holds one definition per declared bundle, in declaration order.
	// Order matters: it is the concatenation order of the merged output.
	Groups []*GroupDefinition

	// Settings holds raw override values from `settings` blocks, keyed by
	// settings name. Values stay as cty values until the settings layer
	// decodes them into their concrete types.
	Settings map[string]cty.Value
}

// GroupDefinition is the format-agnostic representation of a `group` block.
type GroupDefinition struct {
	Name      string
	Resources []*ResourceDefinition
}

// ResourceDefinition identifies a single asset inside a group by URI. A URI
// can be a web-root path ("/js/app.js", wildcards allowed), an embedded
// path ("embed:vendor/reset.css") or a remote URL.
type ResourceDefinition struct {
	URI string
}
