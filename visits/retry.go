package visits

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/spektr-org/painel/logger"
)

// LoadWithRetry calls Load up to retries+1 times, delay apart. With zero
// retries it is a single Load and every failure is final. Otherwise a file
// that is missing or unreadable is retried; an empty dataset never is.
func LoadWithRetry(ctx context.Context, path string, retries uint64, delay time.Duration, opts ...LoadOption) (*Dataset, error) {
	if retries == 0 {
		return Load(ctx, path, opts...)
	}

	var (
		ds      *Dataset
		attempt int
	)
	err := backoff.Retry(
		func() error {
			attempt++
			var loadErr error
			ds, loadErr = Load(ctx, path, opts...)
			if loadErr == nil {
				return nil
			}
			if errors.Is(loadErr, ErrEmptyDataset) {
				return backoff.Permanent(loadErr)
			}
			logger.Warnf(ctx, "⚠️ load attempt %d of %s failed: %v", attempt, path, loadErr)
			return loadErr
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), retries),
			ctx,
		),
	)
	if err != nil {
		return nil, err
	}
	return ds, nil
}
