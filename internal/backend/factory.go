package backend

import (
	"fmt"

	"github.com/freedom12321/chatR-GSOC/internal/config"
	"github.com/rs/zerolog"
)

// New returns the Generator selected by cfg.Backend.Kind.
func New(cfg *config.Config, log zerolog.Logger) (Generator, error) {
	switch cfg.Backend.Kind {
	case "server", "":
		return NewServerGenerator(cfg.Backend.URL, cfg.Backend.Timeout, log), nil
	case "ollama":
		return NewOllamaGenerator(cfg.Ollama.BaseURL, cfg.Ollama.APIKey, cfg.Ollama.Model, cfg.Backend.Timeout, log), nil
	case "anthropic":
		return NewAnthropicGenerator(cfg.Anthropic.BaseURL, cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Backend.Timeout, log), nil
	case "gemini":
		return NewGeminiGenerator(cfg.Gemini.BaseURL, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Backend.Timeout, log), nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Backend.Kind)
	}
}
