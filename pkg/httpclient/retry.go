package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy controls NewRetryClient. MaxAttempts counts the first try.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// retryClient re-issues replayable requests on transport errors and 429/5xx.
type retryClient struct {
	next   Client
	policy RetryPolicy
	log    Logger
}

// NewRetryClient wraps next with exponential backoff. A policy with fewer than two
// attempts returns next unchanged.
func NewRetryClient(next Client, policy RetryPolicy, log Logger) Client {
	if policy.MaxAttempts < 2 {
		return next
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = 500 * time.Millisecond
	}
	if policy.MaxInterval < policy.InitialInterval {
		policy.MaxInterval = policy.InitialInterval
	}
	return &retryClient{next: next, policy: policy, log: ensureLogger(log)}
}

// retryableStatusError carries a retryable response through the backoff loop.
type retryableStatusError struct {
	code int
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("retryable status %d", e.code)
}

func (c *retryClient) Do(ctx context.Context, req Request) (Response, error) {
	if !Replayable(req.Body) {
		return c.next.Do(ctx, req)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.policy.InitialInterval
	exp.MaxInterval = c.policy.MaxInterval
	exp.MaxElapsedTime = 0
	bo := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.policy.MaxAttempts-1)), ctx)

	var last Response
	attempt := 0
	op := func() error {
		attempt++
		last = nil
		resp, err := c.next.Do(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		last = resp
		if retryableStatus(resp.StatusCode()) {
			return &retryableStatusError{code: resp.StatusCode()}
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.log.WarnObj("http request retry scheduled", "http_retry", map[string]any{
			"url":     req.URL,
			"attempt": attempt,
			"wait_ms": wait.Milliseconds(),
			"error":   err.Error(),
		})
	}

	err := backoff.RetryNotify(op, bo, notify)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	if last != nil {
		// retries exhausted on a status: hand the final response back as-is
		return last, nil
	}
	return nil, err
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
