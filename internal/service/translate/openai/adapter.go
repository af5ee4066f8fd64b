// Package openai provides an OpenAI chat-completion translation adapter.
package openai

import (
	"context"
	"errors"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-translate-service/internal/service/translate"
)

// DefaultModel is the chat model used for translation.
const DefaultModel = goopenai.GPT4o

var errNoChoices = errors.New("openai returned no choices")

// Config holds translation adapter configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Adapter implements translate.Provider with chat completions.
type Adapter struct {
	client *goopenai.Client
	model  string
}

// New creates a chat-completion adapter.
func New(cfg Config) *Adapter {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Adapter{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string { return "openai" }

// Complete sends the system instruction and the text as one exchange.
func (a *Adapter) Complete(ctx context.Context, c translate.Completion) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: a.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: c.System},
			{Role: goopenai.ChatMessageRoleUser, Content: c.Text},
		},
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
