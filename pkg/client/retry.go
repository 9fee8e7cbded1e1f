package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds retries of idempotent calls. Only transport errors and
// 5xx answers other than 501 are retried.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// MaxElapsedTime stops retrying once this much time has passed since the first attempt
	MaxElapsedTime time.Duration
}

// DefaultRetryPolicy returns three attempts within five seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		MaxElapsedTime:  5 * time.Second,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = p.MaxElapsedTime

	var out backoff.BackOff = b
	if p.MaxAttempts > 0 {
		out = backoff.WithMaxRetries(out, uint64(p.MaxAttempts-1))
	}
	return backoff.WithContext(out, ctx)
}

// retryableStatus reports whether an answer with status may succeed on a retry.
func retryableStatus(status int) bool {
	return status >= 500 && status != http.StatusNotImplemented
}

// run calls op until it succeeds or the policy gives up. A nil policy runs op once.
// The last answer is returned even when its status was retryable.
func (p *RetryPolicy) run(ctx context.Context, op func(ctx context.Context) (*response, error)) (*response, error) {
	if p == nil {
		return op(ctx)
	}

	var last *response
	err := backoff.Retry(func() error {
		res, err := op(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		last = res
		if retryableStatus(res.status) {
			return fmt.Errorf("server answered %d", res.status)
		}
		return nil
	}, p.backOff(ctx))

	if last != nil && (err == nil || retryableStatus(last.status)) {
		return last, nil
	}
	return nil, err
}
