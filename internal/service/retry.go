package service

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/and161185/account-manager/internal/errs"
)

const (
	collisionBackoffBase = 5 * time.Millisecond
	collisionBackoffCap  = 100 * time.Millisecond
)

// collisionBackoff allows up to retries extra attempts, spaced exponentially
// with jitter so concurrent writers of one scope drift apart.
func collisionBackoff(retries int) retry.Backoff {
	b := retry.NewExponential(collisionBackoffBase)
	b = retry.WithJitterPercent(50, b)
	b = retry.WithCappedDuration(collisionBackoffCap, b)
	return retry.WithMaxRetries(uint64(retries), b)
}

// createWithRetry runs attempt until it succeeds, fails with something other than
// an identifier collision, or the retries are spent. Each attempt must allocate
// identifiers afresh. With retries == 0 a collision goes straight to the caller.
func createWithRetry(ctx context.Context, log *zap.Logger, retries int, entity string, attempt func() error) error {
	n := 0
	return retry.Do(ctx, collisionBackoff(retries), func(ctx context.Context) error {
		n++
		err := attempt()
		if err == nil || !errors.Is(err, errs.ErrIdentifierCollision) {
			return err
		}
		log.Warn("identifier collision",
			zap.String("entity", entity),
			zap.Int("attempt", n),
			zap.Error(err),
		)
		return retry.RetryableError(err)
	})
}
