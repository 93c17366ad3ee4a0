package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
)

var testSchema = &Schema{
	Name: "test-answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"answer": map[string]any{"type": "string", "minLength": 1},
		},
		"required":             []string{"answer"},
		"additionalProperties": false,
	},
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		schema  *Schema
		raw     string
		wantErr bool
	}{
		{"nil schema", nil, "not json", false},
		{"valid", testSchema, `{"answer":"yes"}`, false},
		{"missing field", testSchema, `{}`, true},
		{"empty string", testSchema, `{"answer":""}`, true},
		{"extra field", testSchema, `{"answer":"a","x":1}`, true},
		{"not json", testSchema, `{answer`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(tt.schema, json.RawMessage(tt.raw))
			if !tt.wantErr {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Errorf("expected ErrInvalidResponse, got %v", err)
			}
		})
	}
}

func TestFinish(t *testing.T) {
	req := Request{Messages: UserPrompt("hi"), Schema: testSchema}

	resp, err := finish(req, json.RawMessage(`{"answer":"ok"}`), Usage{InputTokens: 3, OutputTokens: 4}, "m", StopEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.TotalTokens != 7 {
		t.Errorf("total tokens = %d, want 7", resp.Usage.TotalTokens)
	}
	if resp.Model != "m" {
		t.Errorf("model = %q, want m", resp.Model)
	}

	_, err = finish(req, json.RawMessage(`{"ans`), Usage{}, "m", StopMaxTokens)
	var mt *ErrMaxTokensExceeded
	if !errors.As(err, &mt) {
		t.Errorf("expected ErrMaxTokensExceeded, got %v", err)
	}
}

func TestMockProvider(t *testing.T) {
	mock := NewMockProvider(MockJSON(map[string]string{"answer": "one"}))
	mock.AddResponse(MockResponse{Err: errors.New("boom")})

	resp, err := mock.Generate(context.Background(), Request{Schema: testSchema})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"answer":"one"}` {
		t.Errorf("unexpected content: %s", resp.Content)
	}

	if _, err := mock.Generate(context.Background(), Request{}); err == nil || err.Error() != "boom" {
		t.Errorf("expected boom, got %v", err)
	}

	_, err = mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Errorf("expected ErrProviderUnavailable once exhausted, got %v", err)
	}
	if mock.CallCount() != 3 {
		t.Errorf("expected 3 calls, got %d", mock.CallCount())
	}
}

func TestMockProvider_ValidatesSchema(t *testing.T) {
	mock := NewMockProvider(MockJSON(map[string]int{"answer": 1}))
	_, err := mock.Generate(context.Background(), Request{Schema: testSchema})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestPurpose(t *testing.T) {
	if got := PurposeFrom(context.Background()); got != "unknown" {
		t.Errorf("purpose = %q, want unknown", got)
	}
	ctx := WithPurpose(context.Background(), PurposeCaseNarrative)
	if got := PurposeFrom(ctx); got != PurposeCaseNarrative {
		t.Errorf("purpose = %q, want %q", got, PurposeCaseNarrative)
	}
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4o-mini")
	if c == nil {
		t.Fatal("expected pricing for gpt-4o-mini")
	}
	if got := c.Cost(1_000_000, 1_000_000); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("cost = %v, want 0.75", got)
	}
	if LookupCost("no-such-model") != nil {
		t.Error("expected nil for unknown model")
	}
}

func TestClassifyStatus(t *testing.T) {
	base := errors.New("x")
	var rl *ErrRateLimit
	if !errors.As(classifyStatus(429, base), &rl) {
		t.Error("429 should be a rate limit")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(classifyStatus(503, base), &unavail) {
		t.Error("503 should be unavailable")
	}
	if !errors.As(classifyStatus(0, base), &unavail) {
		t.Error("no status should be unavailable")
	}

	err := classifyStatus(400, base)
	if !errors.Is(err, base) {
		t.Errorf("400 should wrap the cause, got %v", err)
	}
	unavail = nil
	if errors.As(err, &unavail) {
		t.Error("400 should not be retryable")
	}
}
