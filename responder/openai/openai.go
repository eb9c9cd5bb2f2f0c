// Package openai adapts the OpenAI Chat Completions API (including
// streaming) to the core.Responder interface. The conversation history maps
// onto chat messages by role; the prompt becomes the final user message.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hupe1980/agentweave/core"
)

// Options configure the OpenAI responder. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// Instructions is an optional system message prepended to every call.
	Instructions string
}

// Responder wraps the OpenAI Chat Completions API behind core.Responder and
// core.StreamingResponder.
type Responder struct {
	client *openai.Client
	opts   Options
}

var _ core.StreamingResponder = (*Responder)(nil)

// New creates an OpenAI responder using the official client with ambient
// credentials.
func New(optFns ...func(o *Options)) *Responder {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an OpenAI responder from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Responder {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Responder{client: client, opts: opts}
}

// Respond implements core.Responder.
func (r *Responder) Respond(ctx context.Context, prompt string, history []core.Turn) (string, error) {
	resp, err := r.client.Chat.Completions.New(ctx, r.buildParams(prompt, history))
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// RespondStream implements core.StreamingResponder, forwarding each content
// delta as it arrives.
func (r *Responder) RespondStream(ctx context.Context, prompt string, history []core.Turn) (<-chan string, <-chan error) {
	deltas := make(chan string, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(deltas)
		defer close(errCh)

		stream := r.client.Chat.Completions.NewStreaming(ctx, r.buildParams(prompt, history))
		for stream.Next() {
			ck := stream.Current()
			for _, ch := range ck.Choices {
				if ch.Delta.Content == "" {
					continue
				}
				select {
				case deltas <- ch.Delta.Content:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("openai streaming error: %w", err)
		}
	}()

	return deltas, errCh
}

// buildParams assembles the request: optional system instructions, the
// history by role, then the prompt as the final user message.
func (r *Responder) buildParams(prompt string, history []core.Turn) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)

	if r.opts.Instructions != "" {
		messages = append(messages, openai.SystemMessage(r.opts.Instructions))
	}

	for _, t := range history {
		switch t.Role {
		case core.RoleAgent:
			messages = append(messages, openai.AssistantMessage(t.Text))
		default:
			messages = append(messages, openai.UserMessage(t.Text))
		}
	}

	messages = append(messages, openai.UserMessage(prompt))

	return openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               r.opts.Model,
		Temperature:         openai.Float(r.opts.Temperature),
		MaxCompletionTokens: openai.Int(r.opts.MaxCompletionTokens),
	}
}
