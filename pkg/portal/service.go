// Package portal holds typed callers for the portal API and the AI backend.
// It owns status-code interpretation and body decoding; the request client
// underneath returns raw responses.
package portal

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samvad-hq/shiksha/pkg/httpclient"
)

// CredentialWriter persists the login token. Only Login and Logout write it.
type CredentialWriter interface {
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Logger defines the logging surface the services rely on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

// Service issues portal calls through an httpclient.Client.
type Service struct {
	client    httpclient.Client
	creds     CredentialWriter
	endpoints Endpoints
	validate  *validator.Validate
	log       Logger
}

// NewService wires a Service. creds may be nil when nothing should be persisted.
func NewService(client httpclient.Client, creds CredentialWriter, endpoints Endpoints, log Logger) *Service {
	if log == nil {
		log = noopLogger{}
	}
	return &Service{
		client:    client,
		creds:     creds,
		endpoints: endpoints,
		validate:  newValidator(),
		log:       log,
	}
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func (s *Service) check(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return toValidationError(err)
	}
	return nil
}

// postJSON sends body and decodes a 2xx reply into out. Any other status becomes a StatusError.
func (s *Service) postJSON(ctx context.Context, op, url string, body, out any) error {
	resp, err := s.client.Do(ctx, jsonPost(url, body))
	if err != nil {
		return fmt.Errorf("%s request: %w", op, err)
	}
	return s.expect(op, resp, out)
}

func jsonPost(url string, body any) httpclient.Request {
	return httpclient.Request{URL: url, Method: http.MethodPost, Body: httpclient.JSON(body)}
}

// expect checks resp against the accepted statuses and decodes into out when non-nil.
// With no accepted statuses any 2xx passes.
func (s *Service) expect(op string, resp httpclient.Response, out any, accepted ...int) error {
	ok := len(accepted) == 0 && httpclient.IsSuccess(resp)
	for _, code := range accepted {
		if resp.StatusCode() == code {
			ok = true
			break
		}
	}
	if !ok {
		serr := newStatusError(resp)
		s.log.WarnObj("portal call rejected", "portal_error", map[string]any{
			"operation": op,
			"status":    serr.StatusCode,
			"message":   serr.Message,
		})
		return fmt.Errorf("%s: %w", op, serr)
	}
	if out == nil {
		return nil
	}
	if err := httpclient.DecodeJSON(resp, out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
