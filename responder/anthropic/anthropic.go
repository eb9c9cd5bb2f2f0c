// Package anthropic adapts the Anthropic Messages API to the core.Responder
// interface.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/agentweave/core"
)

// Options configures the Anthropic responder (model id, temperature, max
// tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	// Instructions is an optional system message prepended to every call.
	Instructions string
}

// Responder wraps the Anthropic Messages API behind core.Responder.
type Responder struct {
	client *anthropic.Client
	opts   Options
}

var _ core.Responder = (*Responder)(nil)

// New creates an Anthropic responder using the official client.
func New(optFns ...func(o *Options)) *Responder {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Responder{client: &client, opts: opts}
}

// NewFromClient creates an Anthropic responder from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Responder {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Responder{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Respond implements core.Responder.
func (r *Responder) Respond(ctx context.Context, prompt string, history []core.Turn) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       r.opts.Model,
		Messages:    buildMessages(prompt, history),
		MaxTokens:   r.opts.MaxTokens,
		Temperature: anthropic.Float(r.opts.Temperature),
	}

	if r.opts.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: r.opts.Instructions}}
	}

	resp, err := r.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}

	return b.String(), nil
}

// buildMessages maps the history onto Anthropic messages by role and appends
// the prompt as the final user message.
func buildMessages(prompt string, history []core.Turn) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(history)+1)

	for _, t := range history {
		if t.Text == "" {
			continue
		}
		switch t.Role {
		case core.RoleAgent:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Text)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Text)))
		}
	}

	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))

	return messages
}
