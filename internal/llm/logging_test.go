package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/audiotrainer/internal/store"
)

type recordingRepo struct {
	store.EventRepo
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.events = append(r.events, data)
	return r.err
}

func TestLogging_RecordsSuccess(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(MockResponse{
		Content: []byte(`{"answer":"hi"}`),
		Usage:   Usage{InputTokens: 11, OutputTokens: 7},
	})
	p := WithLogging(mock, ProviderMock, repo, nil)

	ctx := WithPurpose(context.Background(), PurposeCaseNarrative)
	_, err := p.Generate(ctx, Request{System: "be brief", Messages: UserPrompt("hello"), Schema: testSchema})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if ev.Provider != ProviderMock || ev.Model != "mock" {
		t.Errorf("provider/model = %q/%q", ev.Provider, ev.Model)
	}
	if ev.Purpose != PurposeCaseNarrative {
		t.Errorf("purpose = %q, want %q", ev.Purpose, PurposeCaseNarrative)
	}
	if !ev.Success {
		t.Error("expected success")
	}
	if ev.InputTokens != 11 || ev.OutputTokens != 7 {
		t.Errorf("tokens = %d/%d, want 11/7", ev.InputTokens, ev.OutputTokens)
	}
	for _, want := range []string{"[system]\nbe brief", "[user]\nhello", "[schema: test-answer]"} {
		if !strings.Contains(ev.RequestBody, want) {
			t.Errorf("request body missing %q:\n%s", want, ev.RequestBody)
		}
	}
	if ev.ResponseBody != `{"answer":"hi"}` {
		t.Errorf("response body = %s", ev.ResponseBody)
	}
}

func TestLogging_RecordsFailureAndWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	repo := &recordingRepo{err: errors.New("disk full")}
	mock := NewMockProvider(MockResponse{Err: errors.New("nope")})
	p := WithLogging(mock, ProviderMock, repo, zap.New(core))

	if _, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x")}); err == nil {
		t.Fatal("expected error")
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if ev.Success {
		t.Error("expected failure")
	}
	if ev.ErrorMessage != "nope" {
		t.Errorf("error message = %q", ev.ErrorMessage)
	}
	if ev.Purpose != "unknown" {
		t.Errorf("purpose = %q, want unknown", ev.Purpose)
	}

	if n := logs.FilterMessage("llm request failed").Len(); n != 1 {
		t.Errorf("expected 1 failure log, got %d", n)
	}
	if n := logs.FilterMessage("record llm event").Len(); n != 1 {
		t.Errorf("expected 1 record warning, got %d", n)
	}
}

func TestLogging_NilRepo(t *testing.T) {
	p := WithLogging(NewMockProvider(MockJSON(1)), ProviderMock, nil, nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Errorf("model = %q, want mock", p.ModelID())
	}
}
