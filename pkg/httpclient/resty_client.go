package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	contentTypeHeader = "Content-Type"
	jsonContentType   = "application/json"
)

// Options configures a RestyClient.
type Options struct {
	Timeout     time.Duration
	Credentials CredentialProvider
	Logger      Logger
}

// RestyClient adapts resty.Client to the httpclient.Client interface and attaches
// the credential header to every request.
type RestyClient struct {
	client *resty.Client
	creds  CredentialProvider
	log    Logger
}

// NewRestyClient creates a new RestyClient. A nil credential provider behaves as
// an absent credential.
func NewRestyClient(opts Options) *RestyClient {
	creds := opts.Credentials
	if creds == nil {
		creds = StaticCredential("")
	}
	log := ensureLogger(opts.Logger)
	return &RestyClient{
		client: newRestyBaseClient(opts.Timeout, log),
		creds:  creds,
		log:    log,
	}
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration, log Logger) *resty.Client {
	c := resty.New()
	// No cookie jar: X-Authorization is the only credential sent.
	c.SetCookieJar(nil)
	c.SetTimeout(timeout)
	c.SetAllowGetMethodPayload(true)
	c.SetPreRequestHook(stripSniffedContentType)
	if rl, ok := log.(resty.Logger); ok {
		c.SetLogger(rl)
	}
	return c
}

// stripContentTypeKey marks raw-body requests whose caller supplied no Content-Type.
type stripContentTypeKey struct{}

// stripSniffedContentType removes the type resty guesses for raw bodies.
func stripSniffedContentType(_ *resty.Client, req *http.Request) error {
	if strip, _ := req.Context().Value(stripContentTypeKey{}).(bool); strip {
		req.Header.Del(contentTypeHeader)
	}
	return nil
}

// Do performs the request and returns the response untouched. Non-2xx statuses
// are not errors at this layer.
func (r *RestyClient) Do(ctx context.Context, in Request) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method, err := normalizeMethod(in.Method)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.URL) == "" {
		return nil, ErrEmptyURL
	}

	token, err := r.creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}
	headers := mergeHeaders(token, in.Headers)

	req := r.client.R()
	switch b := normalizeBody(in.Body).(type) {
	case nil:
	case JSONBody:
		if b.Value == nil {
			break
		}
		payload, err := json.Marshal(b.Value)
		if err != nil {
			return nil, fmt.Errorf("encode json body: %w", err)
		}
		if headers.Get(contentTypeHeader) == "" {
			headers.Set(contentTypeHeader, jsonContentType)
		}
		req.SetBody(payload)
	case FormBody:
		headers.Del(contentTypeHeader)
		req.SetMultipartFormData(b.Fields)
		for _, f := range b.Files {
			req.SetMultipartField(f.Field, f.Name, f.ContentType, f.Reader)
		}
	case RawBody:
		if headers.Get(contentTypeHeader) == "" {
			ctx = context.WithValue(ctx, stripContentTypeKey{}, true)
		}
		if b.Reader != nil {
			req.SetBody(b.Reader)
		}
	default:
		return nil, fmt.Errorf("unsupported body type %T", in.Body)
	}
	req.Header = headers
	req.SetContext(ctx)

	start := time.Now()
	resp, err := req.Execute(method, in.URL)
	if err != nil {
		r.log.DebugObj("http request failed", "http_request", map[string]any{
			"method":     method,
			"url":        in.URL,
			"elapsed_ms": time.Since(start).Milliseconds(),
			"error":      err.Error(),
		})
		return nil, err
	}
	r.log.DebugObj("http request completed", "http_request", map[string]any{
		"method":     method,
		"url":        in.URL,
		"status":     resp.StatusCode(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return &restyResponseAdapter{resp: resp}, nil
}

// mergeHeaders puts caller headers on top of the credential header.
func mergeHeaders(token string, extra map[string]string) http.Header {
	h := make(http.Header, len(extra)+2)
	h.Set(AuthHeader, token)
	for k, v := range extra {
		if strings.TrimSpace(k) == "" {
			continue
		}
		h.Set(k, v)
	}
	return h
}

func normalizeMethod(method string) (string, error) {
	m := strings.ToUpper(strings.TrimSpace(method))
	switch m {
	case "":
		return http.MethodGet, nil
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }

// DecodeJSON unmarshals the response body into v.
func DecodeJSON(resp Response, v any) error {
	if resp == nil {
		return fmt.Errorf("decode response body: nil response")
	}
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// IsSuccess reports a 2xx status.
func IsSuccess(resp Response) bool {
	return resp != nil && resp.StatusCode() >= 200 && resp.StatusCode() < 300
}
