package httpclient

import (
	"context"
	"errors"
	"net/http"
)

// AuthHeader carries the stored credential on every request.
const AuthHeader = "X-Authorization"

var (
	ErrEmptyURL          = errors.New("request url is empty")
	ErrUnsupportedMethod = errors.New("unsupported http method")
)

// Response is a minimal HTTP response contract. Status interpretation and body
// decoding belong to the caller.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Request describes a single outgoing call. An empty Method means GET and a nil
// Body means no payload.
type Request struct {
	URL     string
	Method  string
	Body    Body
	Headers map[string]string
}

// Client abstracts HTTP calls so callers can inject mocks, decorators or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// CredentialProvider yields the token attached to requests. An absent credential
// is the empty string, not an error.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticCredential is a fixed token.
type StaticCredential string

func (s StaticCredential) Token(context.Context) (string, error) { return string(s), nil }

// CredentialFunc adapts a function to CredentialProvider.
type CredentialFunc func(ctx context.Context) (string, error)

func (f CredentialFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Logger defines the logging surface the client relies on.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}

// Get issues a GET through any Client.
func Get(ctx context.Context, c Client, url string, headers map[string]string) (Response, error) {
	return c.Do(ctx, Request{URL: url, Method: http.MethodGet, Headers: headers})
}
