package workers

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/axellelanca/linkforge/internal/errors"
)

// retryWithBackoff runs op up to attempts times with exponential backoff
// starting at delay, jittered by half either way. NotFound is final.
func retryWithBackoff(ctx context.Context, attempts int, delay time.Duration, op func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = delay
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
	return backoff.Retry(func() error {
		err := op(ctx)
		if errors.Is(err, apperrors.ErrNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}
