// Package group holds the in-memory model of named bundles: the naming
// rule that maps file paths to group names, the model itself, the
// development-mode group-per-file transform and the request extractors.
package group

import (
	"path"
	"strings"
)

// Resource identifies a single asset by URI. It is value-like and immutable;
// a model rebuild replaces resources wholesale rather than mutating them.
type Resource struct {
	URI string
}

// Type returns the resource's content kind ("js", "css", ...) derived from
// its URI extension.
func (r Resource) Type() string {
	return strings.TrimPrefix(path.Ext(r.URI), ".")
}

// Group is a named, ordered list of resources. The order is the
// concatenation order of the merged output.
type Group struct {
	Name      string
	Resources []Resource
}

// Model owns every group of the application. A model is built as a whole
// and never mutated afterwards; rebuilds produce a new Model that readers
// swap to atomically.
type Model struct {
	Groups []Group

	index map[string]int
}

// NewModel builds a model over the given groups, preserving their order.
func NewModel(groups []Group) *Model {
	m := &Model{Groups: groups, index: make(map[string]int, len(groups))}
	for i, g := range groups {
		m.index[g.Name] = i
	}
	return m
}

// Lookup returns the group with the given name.
func (m *Model) Lookup(name string) (Group, bool) {
	i, ok := m.index[name]
	if !ok {
		return Group{}, false
	}
	return m.Groups[i], true
}

// FileToGroup converts a file path into a group name: one leading path
// separator is stripped, the extension is removed, and every remaining
// separator becomes an underscore. The function is pure and total over
// non-empty input, and idempotent on its own output.
func FileToGroup(filename string) string {
	name := strings.TrimPrefix(filename, "/")
	if ext := path.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}
	return strings.ReplaceAll(name, "/", "_")
}
