package db

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

// RetryOptions bounds how often WithRetry replays a transaction.
type RetryOptions struct {
	MaxRetries     int
	InitialBackoff time.Duration
}

func DefaultRetryOptions() RetryOptions {
	return RetryOptions{MaxRetries: 3, InitialBackoff: 50 * time.Millisecond}
}

func (o RetryOptions) backoff() retry.Backoff {
	base := o.InitialBackoff
	if base <= 0 {
		base = DefaultRetryOptions().InitialBackoff
	}
	b := retry.NewExponential(base)
	b = retry.WithJitterPercent(25, b)
	return retry.WithMaxRetries(uint64(max(o.MaxRetries, 0)), b)
}

// WithRetry runs fn in a transaction and replays it on serialization,
// deadlock and lock-timeout failures. fn must be safe to run more than once.
func (c *Client) WithRetry(ctx context.Context, opts RetryOptions, fn func(tx *gorm.DB) error) error {
	attempts := 0
	err := retry.Do(ctx, opts.backoff(), func(ctx context.Context) error {
		attempts++
		err := c.WithTx(ctx, fn)
		if IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil && IsRetryable(err) && attempts > max(opts.MaxRetries, 0) {
		return fmt.Errorf("max retries (%d) exceeded: %w", opts.MaxRetries, err)
	}
	return err
}
