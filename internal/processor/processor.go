// Package processor defines the content transformation contracts of the
// pipeline: pre-processors run per resource before concatenation,
// post-processors run once on the merged group output. Processors may
// declare capability interfaces to receive environment context when the
// pipeline is assembled.
package processor

import (
	"context"
	"fmt"

	"github.com/vk/bundlego/internal/group"
	"github.com/vk/bundlego/internal/locator"
	"github.com/vk/bundlego/internal/settings"
)

// PreProcessor transforms one resource's raw content before it is merged
// into its group. Implementations must be stateless across requests.
type PreProcessor interface {
	Name() string
	PreProcess(ctx context.Context, res group.Resource, content []byte) ([]byte, error)
}

// PostProcessor transforms the concatenated output of a whole group.
type PostProcessor interface {
	Name() string
	PostProcess(ctx context.Context, g group.Group, content []byte) ([]byte, error)
}

// SettingsAware processors receive the resolved settings before the
// pipeline is published.
type SettingsAware interface {
	SetSettings(s *settings.Settings)
}

// ModeAware processors receive the deployment mode before the pipeline is
// published.
type ModeAware interface {
	SetMode(m settings.Mode)
}

// LocatorAware processors receive the locator chain before the pipeline is
// published, so they can resolve further resources themselves.
type LocatorAware interface {
	SetLocators(c *locator.Chain)
}

// Error reports a processor failure. It is always fatal to the request it
// happened in.
type Error struct {
	Processor string
	URI       string
	Err       error
}

func (e *Error) Error() string {
	if e.URI != "" {
		return fmt.Sprintf("processor %q failed on %s: %v", e.Processor, e.URI, e.Err)
	}
	return fmt.Sprintf("processor %q failed: %v", e.Processor, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
