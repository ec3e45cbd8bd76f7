package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

const anthropicMaxTokens = 4096

// AnthropicGenerator asks a Claude model through the Messages API.
type AnthropicGenerator struct {
	client anthropic.Client
	model  string
	log    zerolog.Logger
}

// NewAnthropicGenerator creates a generator for model. baseURL is only
// needed for proxies and tests.
func NewAnthropicGenerator(baseURL, apiKey, model string, timeout time.Duration, log zerolog.Logger) *AnthropicGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &AnthropicGenerator{
		client: anthropic.NewClient(opts...),
		model:  model,
		log:    log,
	}
}

func (g *AnthropicGenerator) Name() string {
	return "Anthropic (" + g.model + ")"
}

// Generate sends req as a single message and joins the text blocks of
// the reply.
func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(req))),
		},
	})
	if err != nil {
		return "", g.classify(ctx, err)
	}
	g.log.Debug().
		Str("model", g.model).
		Int64("output_tokens", msg.Usage.OutputTokens).
		Str("stop_reason", string(msg.StopReason)).
		Dur("elapsed", time.Since(start)).
		Msg("anthropic response")

	var b strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	if b.Len() == 0 {
		return "", &Error{Op: "messages", Message: "no text in reply", Err: ErrBackend}
	}
	return b.String(), nil
}

func (g *AnthropicGenerator) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("messages: %w", ctxErr)
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &Error{Op: "messages", Status: apiErr.StatusCode, Message: apiErr.Error(), Err: ErrBackend}
	}
	return &Error{Op: "messages", Err: errors.Join(ErrUnavailable, err)}
}

// Health lists the available models, which checks both reachability and
// the API key.
func (g *AnthropicGenerator) Health(ctx context.Context) error {
	if _, err := g.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return g.classify(ctx, err)
	}
	return nil
}
