package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
)

func jsonServer(t *testing.T, path string, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			t.Errorf("path = %q, want %q", r.URL.Path, path)
		}
		if seen != nil {
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func answerOf(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var v struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode content %s: %v", raw, err)
	}
	return v.Answer
}

func TestAnthropicProvider_Generate(t *testing.T) {
	var seen map[string]any
	srv := jsonServer(t, "/v1/messages", http.StatusOK, `{
		"id": "msg_1", "type": "message", "role": "assistant",
		"model": "claude-haiku-4-5-20251001",
		"content": [{"type": "text", "text": "{\"answer\":\"42\"}"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 12, "output_tokens": 5}
	}`, &seen)

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: "claude-haiku"}, option.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if p.ModelID() != "claude-haiku-4-5-20251001" {
		t.Errorf("model = %q", p.ModelID())
	}

	resp, err := p.Generate(context.Background(), Request{
		System:    "sys",
		Messages:  UserPrompt("q"),
		Schema:    testSchema,
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := answerOf(t, resp.Content); got != "42" {
		t.Errorf("answer = %q, want 42", got)
	}
	if resp.Usage.TotalTokens != 17 {
		t.Errorf("total tokens = %d, want 17", resp.Usage.TotalTokens)
	}
	if resp.StopReason != StopEnd {
		t.Errorf("stop reason = %q, want %q", resp.StopReason, StopEnd)
	}
	if seen["max_tokens"] != float64(256) {
		t.Errorf("max_tokens = %v, want 256", seen["max_tokens"])
	}
	if _, ok := seen["output_config"]; !ok {
		t.Error("request should carry output_config")
	}
}

func TestAnthropicProvider_MaxTokens(t *testing.T) {
	srv := jsonServer(t, "/v1/messages", http.StatusOK, `{
		"id": "msg_1", "type": "message", "role": "assistant", "model": "m",
		"content": [{"type": "text", "text": "{\"answer\":"}],
		"stop_reason": "max_tokens",
		"usage": {"input_tokens": 1, "output_tokens": 1}
	}`, nil)
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: "m"}, option.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	_, err = p.Generate(context.Background(), Request{Messages: UserPrompt("q"), Schema: testSchema, MaxTokens: 8})
	var mt *ErrMaxTokensExceeded
	if !errors.As(err, &mt) {
		t.Errorf("expected ErrMaxTokensExceeded, got %v", err)
	}
}

func TestAnthropicProvider_RateLimit(t *testing.T) {
	srv := jsonServer(t, "/v1/messages", http.StatusTooManyRequests,
		`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, nil)
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: "m"},
		option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	_, err = p.Generate(context.Background(), Request{Messages: UserPrompt("q"), MaxTokens: 8})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Errorf("expected ErrRateLimit, got %v", err)
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	var seen map[string]any
	srv := jsonServer(t, "/v1/chat/completions", http.StatusOK, `{
		"id": "c1", "object": "chat.completion", "model": "gpt-4o-mini",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"answer\":\"x\"}"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 3, "completion_tokens": 4, "total_tokens": 7}
	}`, &seen)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	resp, err := p.Generate(context.Background(), Request{System: "sys", Messages: UserPrompt("q"), Schema: testSchema})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", resp.Model)
	}
	if resp.Usage.TotalTokens != 7 {
		t.Errorf("total tokens = %d, want 7", resp.Usage.TotalTokens)
	}

	format, ok := seen["response_format"].(map[string]any)
	if !ok {
		t.Fatalf("missing response_format in %v", seen)
	}
	if format["type"] != "json_schema" {
		t.Errorf("response_format.type = %v", format["type"])
	}
	if msgs, ok := seen["messages"].([]any); !ok || len(msgs) != 2 {
		t.Errorf("expected system and user messages, got %v", seen["messages"])
	}
}

func TestOpenAIProvider_Unavailable(t *testing.T) {
	srv := jsonServer(t, "/v1/chat/completions", http.StatusServiceUnavailable,
		`{"error":{"message":"overloaded","type":"server_error"}}`, nil)
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "m", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	_, err = p.Generate(context.Background(), Request{Messages: UserPrompt("q")})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestNewOpenRouterProvider_DefaultBaseURL(t *testing.T) {
	if _, err := NewOpenRouterProvider(OpenAIConfig{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}

	p, err := NewOpenRouterProvider(OpenAIConfig{APIKey: "k", Model: "google/gemini-2.0-flash-001"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if p.name != ProviderOpenRouter {
		t.Errorf("name = %q, want %q", p.name, ProviderOpenRouter)
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(testSchema.Definition)
	if string(s.Type) != "OBJECT" {
		t.Errorf("type = %q, want OBJECT", s.Type)
	}
	answer, ok := s.Properties["answer"]
	if !ok {
		t.Fatal("missing answer property")
	}
	if string(answer.Type) != "STRING" {
		t.Errorf("answer type = %q, want STRING", answer.Type)
	}
	if answer.MinLength == nil || *answer.MinLength != 1 {
		t.Errorf("answer minLength = %v, want 1", answer.MinLength)
	}
	if !slices.Equal(s.Required, []string{"answer"}) {
		t.Errorf("required = %v", s.Required)
	}
}
