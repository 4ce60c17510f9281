package processor

import (
	"context"
	"fmt"

	"github.com/vk/bundlego/internal/group"
	"github.com/vk/bundlego/internal/settings"
)

// Stamp appends a build marker to a group's merged output in development
// mode, carrying the mode and the advertised encoding. Production output is
// left byte-identical to the merged content.
type Stamp struct {
	mode     settings.Mode
	settings *settings.Settings
}

// NewStamp creates the stamp post-processor.
func NewStamp() *Stamp { return &Stamp{} }

// Name implements PostProcessor.
func (s *Stamp) Name() string { return "stamp" }

// SetMode implements ModeAware.
func (s *Stamp) SetMode(m settings.Mode) { s.mode = m }

// SetSettings implements SettingsAware.
func (s *Stamp) SetSettings(cfg *settings.Settings) { s.settings = cfg }

// PostProcess implements PostProcessor.
func (s *Stamp) PostProcess(ctx context.Context, g group.Group, content []byte) ([]byte, error) {
	if !s.mode.Debug() {
		return content, nil
	}
	encoding := settings.DefaultEncoding
	if s.settings != nil {
		encoding = s.settings.Encoding
	}
	marker := fmt.Sprintf("\n/*! bundlego group=%s mode=%s encoding=%s */\n", g.Name, s.mode, encoding)
	return append(content, []byte(marker)...), nil
}
