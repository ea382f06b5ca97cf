// SPDX-License-Identifier: MPL-2.0

package query

import (
	"context"
	"fmt"
	"time"
)

// SleepFunc is the delay dependency of the retry loop. Production code passes
// time.Sleep; tests pass a no-op to run retries with zero wall-clock delay.
type SleepFunc func(d time.Duration)

// RetryFixed retries op up to maxAttempts times with a fixed delay between
// attempts. It checks ctx.Err() between retries to respect cancellation
// immediately, preventing wasted work when the caller has already abandoned
// the operation.
//
// op returns (shouldRetry bool, err error). If shouldRetry is false, err is
// returned immediately (nil on success, non-nil on permanent failure).
// On retry exhaustion, the last error is returned.
func RetryFixed(
	ctx context.Context,
	maxAttempts int,
	delay time.Duration,
	sleep SleepFunc,
	op func(attempt int) (retry bool, err error),
) error {
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("retry aborted: %w", err)
			}
			sleep(delay)
		}

		retry, err := op(attempt)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return lastErr
}
