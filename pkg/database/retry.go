package database

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"
)

const maxReadRetries = 3

// ReadWithRetry runs an idempotent read with bounded exponential backoff.
// Only transient failures are retried; gorm.ErrRecordNotFound is returned
// immediately since an absent row is a result, not a failure. Writes must
// never go through this path.
func ReadWithRetry(ctx context.Context, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = time.Second

	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, maxReadRetries), ctx))
}
