package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *ServerGenerator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewServerGenerator(srv.URL+"/", 5*time.Second, zerolog.Nop())
}

func TestServerGenerator_Chat(t *testing.T) {
	var got chatRequest
	g := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		json.NewEncoder(w).Encode(chatResponse{Status: "success", Response: "Use `mean()`."})
	})

	text, err := g.Generate(context.Background(), Request{Query: "how do I average?"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Use `mean()`." {
		t.Errorf("text = %q", text)
	}
	if got.Query != "how do I average?" {
		t.Errorf("query sent = %q", got.Query)
	}
}

func TestServerGenerator_GenerateCode(t *testing.T) {
	tests := []struct {
		name string
		resp generateResponse
		want string
	}{
		{
			name: "full response",
			resp: generateResponse{Status: "success", Response: "Here:\n```r\nx <- 1\n```"},
			want: "Here:\n```r\nx <- 1\n```",
		},
		{
			name: "code and explanation only",
			resp: generateResponse{Status: "success", GeneratedCode: "x <- 1\n", Explanation: "Assigns one."},
			want: "Assigns one.\n\n```r\nx <- 1\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got generateRequest
			g := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/generate_code" {
					t.Errorf("path = %s", r.URL.Path)
				}
				json.NewDecoder(r.Body).Decode(&got)
				json.NewEncoder(w).Encode(tt.resp)
			})

			text, err := g.Generate(context.Background(), Request{Query: "q", Mode: "script", EnvironmentContext: "df: data.frame"})
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if text != tt.want {
				t.Errorf("text = %q, want %q", text, tt.want)
			}
			want := generateRequest{Query: "q", Mode: "script", EnvironmentContext: "df: data.frame"}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("request mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestServerGenerator_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		sentinel error
		message  string
	}{
		{
			name: "status error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(chatResponse{Status: "error", Error: "model not loaded"})
			},
			sentinel: ErrBackend,
			message:  "model not loaded",
		},
		{
			name: "http 500 with detail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"detail":"Assistant not initialized"}`))
			},
			sentinel: ErrBackend,
			message:  "Assistant not initialized",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>"))
			},
			sentinel: ErrBackend,
			message:  "malformed response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestServer(t, tt.handler)
			_, err := g.Generate(context.Background(), Request{Query: "q"})
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("err = %v, want %v", err, tt.sentinel)
			}
			var be *Error
			if !errors.As(err, &be) || !strings.Contains(be.Message, tt.message) {
				t.Errorf("err = %#v, want message containing %q", err, tt.message)
			}
		})
	}
}

func TestServerGenerator_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g := NewServerGenerator(url, time.Second, zerolog.Nop())
	_, err := g.Generate(context.Background(), Request{Query: "q"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestServerGenerator_Cancelled(t *testing.T) {
	block := make(chan struct{})
	g := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := g.Generate(ctx, Request{Query: "q"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestServerGenerator_Health(t *testing.T) {
	g := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/health" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"status":"healthy","service":"ChatR API"}`))
	})
	if err := g.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}

func TestAssembleAnswer(t *testing.T) {
	if got := assembleAnswer("", ""); got != "" {
		t.Errorf("assembleAnswer empty = %q", got)
	}
	if got := assembleAnswer("x <- 1", ""); got != "```r\nx <- 1\n```" {
		t.Errorf("assembleAnswer code only = %q", got)
	}
}
