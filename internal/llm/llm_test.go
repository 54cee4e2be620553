// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/equity-engine/pkg/types"
)

// --- mock provider ---

// failNTimesProvider fails the first N calls, then succeeds.
type failNTimesProvider struct {
	mu        sync.Mutex
	failures  int
	err       error // forced error; nil uses a generic transient one
	callCount int
	response  Response
}

func (f *failNTimesProvider) Name() string { return "mock" }

func (f *failNTimesProvider) Generate(_ context.Context, _ Request) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callCount++
	if f.callCount <= f.failures {
		if f.err != nil {
			return Response{}, f.err
		}
		return Response{}, fmt.Errorf("transient error (call %d)", f.callCount)
	}
	return f.response, nil
}

func (f *failNTimesProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCount
}

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

// --- GenerateWithRetry ---

func TestGenerateWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		failures   int
		maxRetries int
		wantErr    bool
		wantCalls  int
	}{
		{"succeeds first try", 0, 3, false, 1},
		{"succeeds after 2 failures", 2, 3, false, 3},
		{"succeeds on last retry", 3, 3, false, 4},
		{"fails after exhausting retries", 4, 3, true, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &failNTimesProvider{
				failures: tt.failures,
				response: Response{Content: "ok", Model: "test-model"},
			}

			resp, err := GenerateWithRetry(context.Background(), provider, Request{Prompt: "hi"}, tt.maxRetries)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, types.ErrProvider) {
					t.Errorf("expected provider error, got %v", err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if resp.Content != "ok" {
					t.Errorf("content = %q, want %q", resp.Content, "ok")
				}
			}
			if got := provider.calls(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestGenerateWithRetryClientErrorNotRetried(t *testing.T) {
	provider := &failNTimesProvider{
		failures: 10,
		err:      &openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "bad request"},
	}

	_, err := GenerateWithRetry(context.Background(), provider, Request{Prompt: "hi"}, 3)
	if !errors.Is(err, types.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if got := provider.calls(); got != 1 {
		t.Errorf("calls = %d, want 1 (client errors are final)", got)
	}
}

func TestGenerateWithRetryRateLimitRetried(t *testing.T) {
	provider := &failNTimesProvider{
		failures: 2,
		err:      &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "rate limited"},
		response: Response{Content: "ok"},
	}

	resp, err := GenerateWithRetry(context.Background(), provider, Request{Prompt: "hi"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("content = %q, want %q", resp.Content, "ok")
	}
	if got := provider.calls(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestGenerateWithRetryCancelledContext(t *testing.T) {
	provider := &failNTimesProvider{failures: 10}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GenerateWithRetry(ctx, provider, Request{Prompt: "hi"}, 3)
	if !errors.Is(err, types.ErrCancelled) {
		t.Fatalf("expected cancelled error, got %v", err)
	}
	// The first attempt runs before the backoff select notices the context.
	if got := provider.calls(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

// --- Registry ---

func TestRegistryNew(t *testing.T) {
	reg := NewRegistry()
	reg.Register("mock", func(_ types.LLMConfig) (Provider, error) {
		return &failNTimesProvider{}, nil
	})

	p, err := reg.New(types.LLMConfig{Provider: "mock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "mock" {
		t.Errorf("name = %q, want %q", p.Name(), "mock")
	}

	_, err = reg.New(types.LLMConfig{Provider: "unknown"})
	if !errors.Is(err, types.ErrProvider) {
		t.Fatalf("expected provider error for unknown name, got %v", err)
	}
}

func TestRegistryNewDefaultsToOpenAI(t *testing.T) {
	p, err := DefaultRegistry().New(types.LLMConfig{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("name = %q, want %q", p.Name(), "openai")
	}
}

// --- OpenAI adapter ---

func TestNewOpenAIRequiresCredentials(t *testing.T) {
	_, err := NewOpenAI(types.LLMConfig{})
	if !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	p, err := NewOpenAI(types.LLMConfig{BaseURL: "http://localhost:11434/v1", Model: "llama3.1"})
	if err != nil {
		t.Fatalf("unexpected error with base_url only: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("name = %q, want %q", p.Name(), "openai")
	}
}
