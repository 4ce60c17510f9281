package processor

import (
	"context"

	"github.com/vk/bundlego/internal/group"
	"github.com/vk/bundlego/internal/locator"
	"github.com/vk/bundlego/internal/settings"
)

// Environment is the context processors are assembled against: the
// deployment mode, the locator chain and the resolved settings.
type Environment struct {
	Mode     settings.Mode
	Locators *locator.Chain
	Settings *settings.Settings
}

// Pipeline is the ordered processor set selected for one environment. It
// is built once per environment resolution and immutable afterwards;
// requests share it read-only.
type Pipeline struct {
	pre  []PreProcessor
	post []PostProcessor
}

// Pipeline assembles the pipeline for an environment. Every candidate is
// inspected for capability interfaces and injected with the matching
// context; the relative order of the candidate list is preserved and no
// processor is dropped. This is the hook point for future mode-based
// exclusion; the injection side effects must survive any such change.
func (r *Registry) Pipeline(env Environment) *Pipeline {
	p := &Pipeline{}
	for _, proc := range r.pre {
		if apply(proc, env) {
			p.pre = append(p.pre, proc)
		}
	}
	for _, proc := range r.post {
		if apply(proc, env) {
			p.post = append(p.post, proc)
		}
	}
	return p
}

// apply injects any declared capability context into the processor and
// reports whether it belongs in the pipeline. Current policy: always.
func apply(proc any, env Environment) bool {
	if aware, ok := proc.(LocatorAware); ok {
		aware.SetLocators(env.Locators)
	}
	if aware, ok := proc.(SettingsAware); ok {
		aware.SetSettings(env.Settings)
	}
	if aware, ok := proc.(ModeAware); ok {
		aware.SetMode(env.Mode)
	}
	return true
}

// PreProcess runs every pre-processor over one resource's content, in order.
func (p *Pipeline) PreProcess(ctx context.Context, res group.Resource, content []byte) ([]byte, error) {
	var err error
	for _, proc := range p.pre {
		content, err = proc.PreProcess(ctx, res, content)
		if err != nil {
			return nil, &Error{Processor: proc.Name(), URI: res.URI, Err: err}
		}
	}
	return content, nil
}

// PostProcess runs every post-processor over a group's merged content, in order.
func (p *Pipeline) PostProcess(ctx context.Context, g group.Group, content []byte) ([]byte, error) {
	var err error
	for _, proc := range p.post {
		content, err = proc.PostProcess(ctx, g, content)
		if err != nil {
			return nil, &Error{Processor: proc.Name(), Err: err}
		}
	}
	return content, nil
}

// PreProcessors exposes the selected pre-processors, primarily for tests.
func (p *Pipeline) PreProcessors() []PreProcessor { return p.pre }

// PostProcessors exposes the selected post-processors, primarily for tests.
func (p *Pipeline) PostProcessors() []PostProcessor { return p.post }
