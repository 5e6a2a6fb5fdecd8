package generate

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"

	"github.com/HendryAvila/steward/internal/config"
)

// OpenAI is a Generator backed by an OpenAI-compatible chat completion
// endpoint. Any service speaking that protocol works through BaseURL.
type OpenAI struct {
	model *openai.ChatModel
}

// NewOpenAI builds the chat model client from the model configuration.
func NewOpenAI(ctx context.Context, cfg config.Model) (*OpenAI, error) {
	maxTokens := cfg.MaxTokens
	temperature := cfg.Temperature

	model, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Name,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat model: %w", err)
	}

	return &OpenAI{model: model}, nil
}

// Generate runs one completion and returns the message content.
func (o *OpenAI) Generate(ctx context.Context, p Prompt) (string, error) {
	out, err := o.model.Generate(ctx, buildMessages(p))
	if err != nil {
		return "", fmt.Errorf("generating completion: %w", err)
	}
	return out.Content, nil
}

func buildMessages(p Prompt) []*schema.Message {
	messages := make([]*schema.Message, 0, 2)
	if p.System != "" {
		messages = append(messages, schema.SystemMessage(p.System))
	}
	messages = append(messages, schema.UserMessage(p.User))
	return messages
}
