package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicMessager is the subset of the Anthropic client used here.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Anthropic generates JSON through the messages API. The schema is sent as part of
// the system prompt since the API has no strict JSON mode.
type Anthropic struct {
	Messages AnthropicMessager
	Model    string
}

// NewAnthropic builds an Anthropic generator for apiKey.
func NewAnthropic(apiKey, model string) *Anthropic {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Anthropic{Messages: &c.Messages, Model: model}
}

// GenerateJSON implements JSONGenerator.
func (a *Anthropic) GenerateJSON(ctx context.Context, req JSONRequest) (string, error) {
	if a == nil || a.Messages == nil {
		return "", errors.New("Anthropic.GenerateJSON: client is nil")
	}
	if a.Model == "" {
		return "", errors.New("Anthropic.GenerateJSON: model is empty")
	}

	system := req.System
	if len(req.Schema) > 0 {
		b, err := json.Marshal(req.Schema)
		if err != nil {
			return "", fmt.Errorf("Anthropic.GenerateJSON: marshal schema: %w", err)
		}
		system += "\n\nRespond with a single JSON object matching this JSON schema and nothing else:\n" + string(b)
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	resp, err := a.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.Model),
		MaxTokens:   maxTokens,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.User))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic.GenerateJSON: %w", err)
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", errors.New("Anthropic.GenerateJSON: empty response")
	}
	return sb.String(), nil
}
