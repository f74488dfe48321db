package httpclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/time/rate"
)

type stubResponse struct {
	status int
	body   []byte
}

func (s stubResponse) Body() []byte        { return s.body }
func (s stubResponse) StatusCode() int     { return s.status }
func (s stubResponse) Header() http.Header { return http.Header{} }

// scriptedClient answers from a fixed list of outcomes.
type scriptedClient struct {
	statuses []int
	errs     []error
	calls    int
}

func (s *scriptedClient) Do(context.Context, Request) (Response, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	code := http.StatusOK
	if i < len(s.statuses) {
		code = s.statuses[i]
	}
	return stubResponse{status: code}, nil
}

var fastRetry = RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func TestRetryClientRetriesServerErrors(t *testing.T) {
	next := &scriptedClient{statuses: []int{503, 502, 200}}
	c := NewRetryClient(next, fastRetry, nil)

	resp, err := c.Do(context.Background(), Request{URL: "http://x", Body: JSON(1)})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != 200 || next.calls != 3 {
		t.Fatalf("status=%d calls=%d", resp.StatusCode(), next.calls)
	}
}

func TestRetryClientReturnsLastResponseWhenExhausted(t *testing.T) {
	next := &scriptedClient{statuses: []int{500, 500, 500, 200}}
	c := NewRetryClient(next, fastRetry, nil)

	resp, err := c.Do(context.Background(), Request{URL: "http://x"})
	if err != nil {
		t.Fatalf("exhausted status retries must not be an error: %v", err)
	}
	if resp.StatusCode() != 500 || next.calls != 3 {
		t.Fatalf("status=%d calls=%d", resp.StatusCode(), next.calls)
	}
}

func TestRetryClientPropagatesTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	next := &scriptedClient{errs: []error{boom, boom, boom}}
	c := NewRetryClient(next, fastRetry, nil)

	if _, err := c.Do(context.Background(), Request{URL: "http://x"}); !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if next.calls != 3 {
		t.Fatalf("calls=%d", next.calls)
	}
}

func TestRetryClientSkipsClientErrorsAndStreamingBodies(t *testing.T) {
	next := &scriptedClient{statuses: []int{404}}
	c := NewRetryClient(next, fastRetry, nil)
	if resp, _ := c.Do(context.Background(), Request{URL: "http://x"}); resp.StatusCode() != 404 || next.calls != 1 {
		t.Fatalf("4xx should not be retried, calls=%d", next.calls)
	}

	next = &scriptedClient{statuses: []int{503, 200}}
	c = NewRetryClient(next, fastRetry, nil)
	resp, err := c.Do(context.Background(), Request{URL: "http://x", Body: Raw(strings.NewReader("blob"))})
	if err != nil || resp.StatusCode() != 503 || next.calls != 1 {
		t.Fatalf("raw body must be sent once: status=%v calls=%d err=%v", resp, next.calls, err)
	}
}

func TestRetryClientDisabledReturnsNext(t *testing.T) {
	next := &scriptedClient{}
	if c := NewRetryClient(next, RetryPolicy{MaxAttempts: 1}, nil); c != Client(next) {
		t.Fatalf("single-attempt policy should not wrap")
	}
}

func TestRateLimitedClientHonoursContext(t *testing.T) {
	next := &scriptedClient{}
	c := NewRateLimitedClient(next, rate.NewLimiter(rate.Every(time.Hour), 1))

	if _, err := c.Do(context.Background(), Request{URL: "http://x"}); err != nil {
		t.Fatalf("first call should use the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.Do(ctx, Request{URL: "http://x"}); err == nil {
		t.Fatalf("expected wait error")
	}
	if next.calls != 1 {
		t.Fatalf("limited call must not reach next, calls=%d", next.calls)
	}
}

func TestInstrumentedClientCountsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	next := &scriptedClient{statuses: []int{200, 401}, errs: []error{nil, nil, errors.New("down")}}
	c := NewInstrumentedClient(next, m)

	for i := 0; i < 3; i++ {
		_, _ = c.Do(context.Background(), Request{URL: "http://x", Method: http.MethodPost})
	}

	if v := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "200")); v != 1 {
		t.Fatalf("200 count = %v", v)
	}
	if v := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "401")); v != 1 {
		t.Fatalf("401 count = %v", v)
	}
	if v := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "error")); v != 1 {
		t.Fatalf("error count = %v", v)
	}
	if v := testutil.ToFloat64(m.RequestsInFlight); v != 0 {
		t.Fatalf("in-flight gauge = %v", v)
	}
}
