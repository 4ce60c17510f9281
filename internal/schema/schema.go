// Package schema declares the HCL shapes of bundle descriptor files.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// Group represents a `group` block from a descriptor file. The label is the
// bundle name requests resolve against; resources are listed in the order
// they must be concatenated.
type Group struct {
	Name      string   `hcl:"name,label"`
	Resources []string `hcl:"resources"`
}

// Settings represents the optional `settings` block. Attributes are kept as
// a raw body because the valid key set and value types are owned by the
// settings layer, not the descriptor format.
type Settings struct {
	Body hcl.Body `hcl:",remain"`
}

// FileRoot represents the top-level structure of a single descriptor file.
type FileRoot struct {
	Groups   []*Group  `hcl:"group,block"`
	Settings *Settings `hcl:"settings,block"`
	Remain   hcl.Body  `hcl:",remain"`
}
