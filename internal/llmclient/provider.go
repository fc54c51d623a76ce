// File: internal/llmclient/provider.go
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Provider is one analysis backend. Implementations perform a single request
// per call; retry and error classification belong to Invoke, not the client.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, prompt string) (string, error)
}

// maxAttempts bounds how often a transient provider failure is retried.
// Budget and rate-limit errors are never retried at all.
const maxAttempts = 3

// ProviderError carries the HTTP-style status of a failed backend call so the
// gateway can classify it.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// budgetPhrases are the message fragments that mark an error as budget or
// rate-limit related when no status code settles it.
var budgetPhrases = []string{
	"rate limit",
	"quota",
	"budget",
	"billing",
	"insufficient credits",
	"usage limit",
}

// IsBudgetOrRateLimit classifies a provider error. Status codes take
// priority: 429 and 402 are always budget/rate-limit. Otherwise the error
// message is scanned case-insensitively for the known phrases. These errors
// must never be retried against the same provider.
func IsBudgetOrRateLimit(err error) bool {
	if err == nil {
		return false
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.StatusCode == http.StatusTooManyRequests || pe.StatusCode == http.StatusPaymentRequired {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range budgetPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// linearBackOff waits base x attempt between retries: base after the first
// failure, 2 x base after the second, and so on.
type linearBackOff struct {
	base    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.base
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

// Invoke drives one provider with the gateway's retry policy: up to
// maxAttempts calls with linearly increasing delay for transient failures,
// and an immediate stop on budget/rate-limit errors so the orchestrator can
// fall back to the next tier.
func Invoke(ctx context.Context, provider Provider, prompt string, baseDelay time.Duration, logger *zap.Logger) (string, error) {
	log := logger.Named("gateway").With(zap.String("provider", provider.Name()))

	var response string
	attempt := 0

	operation := func() error {
		attempt++
		text, err := provider.Analyze(ctx, prompt)
		if err == nil {
			response = text
			return nil
		}

		if IsBudgetOrRateLimit(err) {
			log.Warn("Provider reported budget/rate-limit, falling back without retry",
				zap.Int("attempt", attempt), zap.Error(err))
			return backoff.Permanent(err)
		}

		log.Warn("Provider call failed, will retry",
			zap.Int("attempt", attempt), zap.Error(err))
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{base: baseDelay}, maxAttempts-1), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("provider %s failed after %d attempt(s): %w", provider.Name(), attempt, err)
	}

	log.Info("Provider call succeeded", zap.Int("attempt", attempt))
	return response, nil
}

// EstimateTokens is the crude character-count proxy used for cost logging.
// Observability only; never drives control flow.
func EstimateTokens(text string) int {
	return len(text) / 4
}
