package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultServerTimeout = 120 * time.Second

// ServerGenerator talks to the chatr API server.
type ServerGenerator struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewServerGenerator returns a client for the server at baseURL.
func NewServerGenerator(baseURL string, timeout time.Duration, log zerolog.Logger) *ServerGenerator {
	if timeout <= 0 {
		timeout = defaultServerTimeout
	}
	return &ServerGenerator{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (g *ServerGenerator) Name() string {
	return "chatr server (" + g.baseURL + ")"
}

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Status   string `json:"status"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

type generateRequest struct {
	Query              string `json:"query"`
	Mode               string `json:"mode"`
	EnvironmentContext string `json:"environment_context,omitempty"`
}

type generateResponse struct {
	Status        string `json:"status"`
	Response      string `json:"response,omitempty"`
	GeneratedCode string `json:"generated_code,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Generate sends req to /chat, or to /generate_code when a mode is set.
func (g *ServerGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if req.Mode == "" {
		var resp chatResponse
		if err := g.post(ctx, "/chat", chatRequest{Query: req.Query}, &resp); err != nil {
			return "", err
		}
		if resp.Status != "success" {
			return "", &Error{Op: "POST /chat", Message: resp.Error, Err: ErrBackend}
		}
		return resp.Response, nil
	}

	var resp generateResponse
	body := generateRequest{Query: req.Query, Mode: req.Mode, EnvironmentContext: req.EnvironmentContext}
	if err := g.post(ctx, "/generate_code", body, &resp); err != nil {
		return "", err
	}
	if resp.Status != "success" {
		return "", &Error{Op: "POST /generate_code", Message: resp.Error, Err: ErrBackend}
	}
	if resp.Response != "" {
		return resp.Response, nil
	}
	return assembleAnswer(resp.GeneratedCode, resp.Explanation), nil
}

// assembleAnswer rebuilds a markdown answer when the server only returned
// the code and explanation separately.
func assembleAnswer(code, explanation string) string {
	var b strings.Builder
	if explanation = strings.TrimSpace(explanation); explanation != "" {
		b.WriteString(explanation)
		b.WriteString("\n\n")
	}
	if code = strings.TrimSpace(code); code != "" {
		b.WriteString("```r\n")
		b.WriteString(code)
		b.WriteString("\n```\n")
	}
	return strings.TrimSpace(b.String())
}

// Health checks GET /health.
func (g *ServerGenerator) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := g.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "healthy" {
		return &Error{Op: "GET /health", Message: "status " + resp.Status, Err: ErrBackend}
	}
	return nil
}

func (g *ServerGenerator) post(ctx context.Context, endpoint string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return g.do(ctx, http.MethodPost, endpoint, body, out)
}

func (g *ServerGenerator) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	op := method + " " + endpoint

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, g.baseURL+endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		return &Error{Op: op, Err: errors.Join(ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Err: errors.Join(ErrUnavailable, err)}
	}
	g.log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("backend response")

	if resp.StatusCode != http.StatusOK {
		return &Error{Op: op, Status: resp.StatusCode, Message: errorDetail(data), Err: ErrBackend}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: "malformed response", Err: errors.Join(ErrBackend, err)}
	}
	return nil
}

// errorDetail pulls FastAPI's {"detail": ...} message out of an error
// body, falling back to the raw text.
func errorDetail(body []byte) string {
	var v struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &v); err == nil && v.Detail != nil {
		if s, ok := v.Detail.(string); ok {
			return s
		}
		b, _ := json.Marshal(v.Detail)
		return string(b)
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
