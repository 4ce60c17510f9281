// Package hcl implements the config.Loader interface for HCL bundle
// descriptor files.
package hcl

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/bundlego/internal/config"
	"github.com/vk/bundlego/internal/ctxlog"
	"github.com/vk/bundlego/internal/schema"
)

// descriptorExtension is the file suffix descriptor discovery matches on.
const descriptorExtension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL descriptor loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load orchestrates the full descriptor loading pass: discover files under
// the given paths, parse each one, and merge all blocks into a single model.
// Files are processed in sorted path order so merging is deterministic.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := &config.Model{
		Settings: make(map[string]cty.Value),
	}

	files, err := l.findDescriptorFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered descriptor files.", "count", len(files))

	parser := hclparse.NewParser()
	seen := make(map[string]string) // group name -> file it was declared in

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse descriptor file %s: %w", file, diags)
		}

		var root schema.FileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode descriptor file %s: %w", file, diags)
		}

		for _, g := range root.Groups {
			if prev, dup := seen[g.Name]; dup {
				return nil, fmt.Errorf("group %q declared in both %s and %s", g.Name, prev, file)
			}
			seen[g.Name] = file
			model.Groups = append(model.Groups, l.translateGroup(g))
		}

		if root.Settings != nil {
			if err := l.mergeSettings(model.Settings, root.Settings, file); err != nil {
				return nil, err
			}
		}
	}

	logger.Debug("HCL loading complete.", "groups", len(model.Groups), "settings_overrides", len(model.Settings))
	return model, nil
}

// translateGroup converts the HCL-specific group schema into the agnostic model.
func (l *Loader) translateGroup(g *schema.Group) *config.GroupDefinition {
	def := &config.GroupDefinition{Name: g.Name}
	for _, uri := range g.Resources {
		def.Resources = append(def.Resources, &config.ResourceDefinition{URI: uri})
	}
	return def
}

// mergeSettings evaluates every attribute of a `settings` block and merges
// it into the accumulated override map. Later files win over earlier ones,
// which the sorted file order makes predictable.
func (l *Loader) mergeSettings(dst map[string]cty.Value, s *schema.Settings, file string) error {
	attrs, diags := s.Body.JustAttributes()
	if diags.HasErrors() {
		return fmt.Errorf("invalid settings block in %s: %w", file, diags)
	}
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("invalid value for setting %q in %s: %w", name, file, diags)
		}
		dst[name] = val
	}
	return nil
}

// findDescriptorFiles expands each path into the sorted list of descriptor
// files beneath it. A path that points directly at a descriptor file is
// used as-is.
func (l *Loader) findDescriptorFiles(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), descriptorExtension) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan descriptor path %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}
