package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
)

const defaultOllamaKey = "ollama" // Ollama ignores the key but the client requires one

// OllamaGenerator asks an Ollama model directly through its
// OpenAI-compatible endpoint.
type OllamaGenerator struct {
	client openai.Client
	model  string
	log    zerolog.Logger
}

// NewOllamaGenerator creates a generator for model at baseURL
// (e.g. http://localhost:11434/v1).
func NewOllamaGenerator(baseURL, apiKey, model string, timeout time.Duration, log zerolog.Logger) *OllamaGenerator {
	if apiKey == "" {
		apiKey = defaultOllamaKey
	}
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &OllamaGenerator{
		client: openai.NewClient(opts...),
		model:  model,
		log:    log,
	}
}

func (g *OllamaGenerator) Name() string {
	return "Ollama (" + g.model + ")"
}

// Generate sends req as a single chat completion.
func (g *OllamaGenerator) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(req)),
		},
	})
	if err != nil {
		return "", g.classify(ctx, err)
	}
	g.log.Debug().
		Str("model", g.model).
		Int64("completion_tokens", resp.Usage.CompletionTokens).
		Dur("elapsed", time.Since(start)).
		Msg("ollama response")

	if len(resp.Choices) == 0 {
		return "", &Error{Op: "chat completion", Message: "no choices returned", Err: ErrBackend}
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *OllamaGenerator) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("chat completion: %w", ctxErr)
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &Error{Op: "chat completion", Status: apiErr.StatusCode, Message: apiErr.Message, Err: ErrBackend}
	}
	return &Error{Op: "chat completion", Err: errors.Join(ErrUnavailable, err)}
}

// Health lists the available models as a reachability probe.
func (g *OllamaGenerator) Health(ctx context.Context) error {
	if _, err := g.client.Models.List(ctx); err != nil {
		return g.classify(ctx, err)
	}
	return nil
}
