package httpclient

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type rateLimitedClient struct {
	next    Client
	limiter *rate.Limiter
}

// NewRateLimitedClient waits on limiter before every call. A nil limiter returns next.
func NewRateLimitedClient(next Client, limiter *rate.Limiter) Client {
	if limiter == nil {
		return next
	}
	return &rateLimitedClient{next: next, limiter: limiter}
}

func (c *rateLimitedClient) Do(ctx context.Context, req Request) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return c.next.Do(ctx, req)
}
