package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// GeminiGenerator asks a Gemini model through the Gemini API.
type GeminiGenerator struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
	log     zerolog.Logger
}

// NewGeminiGenerator creates a generator for model. The client is built
// per call since genai needs a context to construct one.
func NewGeminiGenerator(baseURL, apiKey, model string, timeout time.Duration, log zerolog.Logger) *GeminiGenerator {
	return &GeminiGenerator{apiKey: apiKey, baseURL: baseURL, model: model, timeout: timeout, log: log}
}

func (g *GeminiGenerator) Name() string {
	return "Gemini (" + g.model + ")"
}

func (g *GeminiGenerator) client(ctx context.Context) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:     g.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: g.timeout},
	}
	if g.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, &Error{Op: "generate content", Message: "create client", Err: errors.Join(ErrBackend, err)}
	}
	return client, nil
}

// Generate sends req as a single GenerateContent call.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	client, err := g.client(ctx)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt(req)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	})
	if err != nil {
		return "", g.classify(ctx, err)
	}
	g.log.Debug().
		Str("model", g.model).
		Dur("elapsed", time.Since(start)).
		Msg("gemini response")

	text := resp.Text()
	if text == "" {
		return "", &Error{Op: "generate content", Message: "no text in reply", Err: ErrBackend}
	}
	return text, nil
}

func (g *GeminiGenerator) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("generate content: %w", ctxErr)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Op: "generate content", Status: apiErr.Code, Message: apiErr.Message, Err: ErrBackend}
	}
	return &Error{Op: "generate content", Err: errors.Join(ErrUnavailable, err)}
}

// Health fetches the configured model's metadata.
func (g *GeminiGenerator) Health(ctx context.Context) error {
	client, err := g.client(ctx)
	if err != nil {
		return err
	}
	if _, err := client.Models.Get(ctx, g.model, nil); err != nil {
		return g.classify(ctx, err)
	}
	return nil
}
