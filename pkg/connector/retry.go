// pkg/connector/retry.go
package connector

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryPolicy bounds how often a connect is retried
type RetryPolicy struct {
	Attempts int           // Retries after the first try; 0 means a single try
	Delay    time.Duration // Initial wait, doubled per retry
}

// DefaultRetryPolicy is used when callers pass the zero policy
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: time.Second}

// Do runs op until it succeeds, the attempts are exhausted or ctx is done.
// Errors wrapped with backoff.Permanent stop the loop immediately.
func (p RetryPolicy) Do(ctx context.Context, logger *zap.Logger, what string, op func() error) error {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(p.Delay),
		backoff.WithMultiplier(2.0),
		backoff.WithMaxInterval(30*time.Second),
		backoff.WithMaxElapsedTime(0),
	)

	attempts := p.Attempts
	if attempts < 0 {
		attempts = 0
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts)), ctx)

	notify := func(err error, wait time.Duration) {
		logger.Warn("Retrying after failure",
			zap.String("operation", what),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	return backoff.RetryNotify(op, bo, notify)
}
