package generate

import "context"

const staticContent = "Generation is disabled: the static provider returns " +
	"this placeholder instead of calling a model."

// Static is an offline Generator that returns fixed text. It exists so the
// server boots and the full session/workflow machinery can be driven
// without credentials or network access.
type Static struct {
	content string
}

// NewStatic returns a Static generator with the default placeholder text.
func NewStatic() *Static {
	return &Static{content: staticContent}
}

// Generate returns the fixed content.
func (s *Static) Generate(_ context.Context, _ Prompt) (string, error) {
	return s.content, nil
}
