package processor

import (
	"context"
	"fmt"

	"github.com/vk/bundlego/internal/group"
	"github.com/vk/bundlego/internal/settings"
)

// Banner prefixes each resource with a source marker comment in development
// mode, so a merged or transformed output is traceable back to the file it
// came from. In production it is a no-op.
type Banner struct {
	mode settings.Mode
}

// NewBanner creates the banner pre-processor.
func NewBanner() *Banner { return &Banner{} }

// Name implements PreProcessor.
func (b *Banner) Name() string { return "banner" }

// SetMode implements ModeAware.
func (b *Banner) SetMode(m settings.Mode) { b.mode = m }

// PreProcess implements PreProcessor.
func (b *Banner) PreProcess(ctx context.Context, res group.Resource, content []byte) ([]byte, error) {
	if !b.mode.Debug() {
		return content, nil
	}
	marker := fmt.Sprintf("/* %s */\n", res.URI)
	return append([]byte(marker), content...), nil
}
