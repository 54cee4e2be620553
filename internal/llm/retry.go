// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/equity-engine/pkg/types"
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// GenerateWithRetry calls the provider with exponential backoff, retrying
// transient failures up to maxRetries extra attempts.
// Per prd003-data-providers R5.4.
func GenerateWithRetry(ctx context.Context, provider Provider, req Request, maxRetries int) (Response, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return Response{}, types.WrapError(types.KindCancelled, "llm.generate", ctx.Err())
			case <-time.After(backoff):
			}
		}

		resp, err := provider.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		attempts++
		if !retryable(err) {
			break
		}
	}
	if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
		return Response{}, types.WrapError(types.KindCancelled, "llm.generate", lastErr)
	}
	return Response{}, &types.EngineError{
		Kind:   types.KindProvider,
		Op:     "llm.generate",
		Detail: fmt.Sprintf("%s failed after %d attempts", provider.Name(), attempts),
		Err:    lastErr,
	}
}

// retryable reports whether err is worth another attempt: rate limits,
// 5xx responses, and transport-level failures. Client errors (4xx other
// than 429) and context cancellation are final.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests ||
			reqErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	return true
}
