// Package ai wraps the Anthropic Messages API behind a small text-completion
// interface the pipeline can fake in tests.
package ai

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Client calls the Anthropic Messages API with a single user prompt and
// returns the concatenated text blocks of the response.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewClient constructs a Client for the given API key and model name.
func NewClient(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// Complete sends prompt and returns the model's text response.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("anthropic returned empty response")
	}
	return text, nil
}
