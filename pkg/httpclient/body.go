package httpclient

import "io"

// Body is the payload of a Request: nil, JSONBody, FormBody or RawBody.
type Body interface {
	isBody()
}

// JSONBody is serialized with encoding/json and sent as application/json. A nil
// Value is sent as no body.
type JSONBody struct {
	Value any
}

func (JSONBody) isBody() {}

// FormBody is sent as multipart/form-data. The transport writes the parts and
// picks the boundary, so callers never set a Content-Type for it. Only POST and
// PUT may carry it; resty refuses multipart on GET and DELETE.
type FormBody struct {
	Fields map[string]string
	Files  []FormFile
}

func (FormBody) isBody() {}

// FormFile is a single file part of a FormBody.
type FormFile struct {
	Field       string
	Name        string
	ContentType string
	Reader      io.Reader
}

// RawBody is streamed unmodified. The client adds no Content-Type of its own.
type RawBody struct {
	Reader io.Reader
}

func (RawBody) isBody() {}

// JSON wraps v as a JSONBody.
func JSON(v any) Body { return JSONBody{Value: v} }

// Form builds a multipart body from fields and files.
func Form(fields map[string]string, files ...FormFile) Body {
	return FormBody{Fields: fields, Files: files}
}

// Raw wraps an opaque reader.
func Raw(r io.Reader) Body { return RawBody{Reader: r} }

// Replayable reports whether the body can be sent more than once.
func Replayable(b Body) bool {
	switch v := normalizeBody(b).(type) {
	case nil:
		return true
	case JSONBody:
		return true
	case FormBody:
		return len(v.Files) == 0
	default:
		return false
	}
}

// normalizeBody dereferences pointer variants so callers may pass either form.
func normalizeBody(b Body) Body {
	switch v := b.(type) {
	case *JSONBody:
		if v == nil {
			return nil
		}
		return *v
	case *FormBody:
		if v == nil {
			return nil
		}
		return *v
	case *RawBody:
		if v == nil {
			return nil
		}
		return *v
	}
	return b
}
