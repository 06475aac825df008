package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ajaytemal-source/Resonate/pkg/provider/feedback"
	"github.com/ajaytemal-source/Resonate/pkg/provider/feedback/openai"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()
	if _, err := openai.New("", "gpt-4o-mini"); err == nil {
		t.Error("New with empty apiKey should fail")
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "  Breathe and slow down.  "}}]}`))
	}))
	t.Cleanup(srv.Close)

	p, err := openai.New("test-key", "", openai.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text, err := p.Generate(context.Background(), feedback.Payload{
		Segment:    "um so basically",
		UserIntent: "calm",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Breathe and slow down." {
		t.Errorf("text = %q, want trimmed feedback", text)
	}

	if gotBody.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want default gpt-4o-mini", gotBody.Model)
	}
	if len(gotBody.Messages) != 2 {
		t.Fatalf("messages = %d, want system + user", len(gotBody.Messages))
	}
	if gotBody.Messages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", gotBody.Messages[0].Role)
	}
	if !strings.Contains(gotBody.Messages[1].Content, "um so basically") {
		t.Error("user message should embed the segment")
	}
}

func TestGenerate_EmptyChoices(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	}))
	t.Cleanup(srv.Close)

	p, err := openai.New("test-key", "gpt-4o-mini", openai.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Generate(context.Background(), feedback.Payload{}); err == nil {
		t.Error("Generate should fail on empty choices")
	}
}

func TestGenerate_APIError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	t.Cleanup(srv.Close)

	p, err := openai.New("test-key", "gpt-4o-mini", openai.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Generate(context.Background(), feedback.Payload{}); err == nil {
		t.Error("Generate should surface API errors")
	}
}
