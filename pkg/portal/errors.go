package portal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samvad-hq/shiksha/pkg/httpclient"
)

// ErrNotAuthenticated matches a StatusError carrying 401.
var ErrNotAuthenticated = errors.New("not authenticated")

// StatusError is a non-success response from a portal endpoint.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("portal responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("portal responded with status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrNotAuthenticated
	}
	return nil
}

// newStatusError reads the message from a `detail` or `message` field, falling
// back to a body snippet.
func newStatusError(resp httpclient.Response) *StatusError {
	body := resp.Body()
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &envelope); err == nil {
		var detail string
		switch {
		case len(envelope.Detail) > 0 && json.Unmarshal(envelope.Detail, &detail) == nil:
			msg = detail
		case len(envelope.Detail) > 0 && string(envelope.Detail) != "null":
			msg = string(envelope.Detail)
		default:
			msg = envelope.Message
		}
	}
	if msg == "" {
		msg = readBodySnippet(body)
	}
	return &StatusError{StatusCode: resp.StatusCode(), Message: msg}
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}

// ValidationError lists request fields that failed validation, keyed by JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

// toValidationError converts validator output, passing other errors through.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
