// Package generate abstracts the text generation collaborator. The
// workflow stages interpret only the returned text or the error; model
// transport, retries and provider quirks stay behind the interface.
package generate

import (
	"context"
	"fmt"

	"github.com/HendryAvila/steward/internal/config"
)

// Prompt is one generation request. System carries instructions and may
// be empty; User carries the material to work on.
type Prompt struct {
	System string
	User   string
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Func adapts a plain function into a Generator.
type Func func(ctx context.Context, p Prompt) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}

// Open constructs the Generator selected by cfg.
func Open(ctx context.Context, cfg config.Model) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAI(ctx, cfg)
	case config.ProviderStatic:
		return NewStatic(), nil
	default:
		return nil, fmt.Errorf("generate: unknown provider %q", cfg.Provider)
	}
}
