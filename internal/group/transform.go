package group

import (
	"fmt"
	"sort"
	"strings"
)

// CollisionError reports two or more distinct resources mapping to the same
// derived group name during the per-file transform. This is a configuration
// error in the descriptor set, not something the transform can resolve.
type CollisionError struct {
	Name string
	URIs []string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("multiple resources [%s] for group %q", strings.Join(e.URIs, ", "), e.Name)
}

// PerFile explodes a model into one group per distinct resource: every
// resource across all input groups gets its own group named after its URI
// via FileToGroup. Identical resources reached through several groups are
// deduplicated. More than one distinct resource left under a single derived
// name is a collision and fails the whole transform.
//
// Output groups are sorted by name so rebuilds are deterministic.
func PerFile(input *Model) (*Model, error) {
	byName := make(map[string]map[Resource]struct{})
	for _, g := range input.Groups {
		for _, res := range g.Resources {
			name := FileToGroup(res.URI)
			set, ok := byName[name]
			if !ok {
				set = make(map[Resource]struct{})
				byName[name] = set
			}
			set[res] = struct{}{}
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]Group, 0, len(names))
	for _, name := range names {
		set := byName[name]
		if len(set) > 1 {
			uris := make([]string, 0, len(set))
			for res := range set {
				uris = append(uris, res.URI)
			}
			sort.Strings(uris)
			return nil, &CollisionError{Name: name, URIs: uris}
		}
		g := Group{Name: name}
		for res := range set {
			g.Resources = append(g.Resources, res)
		}
		groups = append(groups, g)
	}
	return NewModel(groups), nil
}
