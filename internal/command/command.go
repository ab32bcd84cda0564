// Package command defines the gateway's command surface: flat
// request/response payloads, the handler interface and the dispatcher
// that authenticates, serializes and routes every call.
package command

import (
	"context"
	"strconv"
	"strings"

	"github.com/tavisham/lobbygate/internal/session"
)

// Request is one decoded command invocation. Fields hold the flat JSON
// payload; values are strings, numbers, bools or arrays thereof.
type Request struct {
	Command string
	Origin  string
	Fields  map[string]any
}

// String returns a field coerced to a string. Missing fields and
// non-scalar values read as empty.
func (r *Request) String(key string) string {
	switch value := r.Fields[key].(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	}
	return ""
}

// Has reports whether a field is present at all.
func (r *Request) Has(key string) bool {
	_, ok := r.Fields[key]
	return ok
}

// Int returns a field as an int, accepting JSON numbers and numeric
// strings.
func (r *Request) Int(key string) (int, bool) {
	value, ok := r.Int64(key)
	return int(value), ok
}

// Int64 returns a field as an int64.
func (r *Request) Int64(key string) (int64, bool) {
	switch value := r.Fields[key].(type) {
	case float64:
		return int64(value), true
	case string:
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// Bool returns a field as a bool.
func (r *Request) Bool(key string) (bool, bool) {
	switch value := r.Fields[key].(type) {
	case bool:
		return value, true
	case string:
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false, false
		}
		return parsed, true
	}
	return false, false
}

// Uint32s returns a field as a list of uint32, accepting a JSON array
// of numbers or a comma-separated string.
func (r *Request) Uint32s(key string) ([]uint32, bool) {
	switch value := r.Fields[key].(type) {
	case []any:
		out := make([]uint32, 0, len(value))
		for _, entry := range value {
			number, ok := entry.(float64)
			if !ok || number < 0 {
				return nil, false
			}
			out = append(out, uint32(number))
		}
		return out, true
	case string:
		if value == "" {
			return nil, false
		}
		parts := strings.Split(value, ",")
		out := make([]uint32, 0, len(parts))
		for _, part := range parts {
			parsed, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
			if err != nil {
				return nil, false
			}
			out = append(out, uint32(parsed))
		}
		return out, true
	}
	return nil, false
}

// Params flattens every scalar field to a string map, skipping the
// excluded keys. Extension programs receive their parameters this way.
func (r *Request) Params(exclude ...string) map[string]string {
	skip := make(map[string]bool, len(exclude))
	for _, key := range exclude {
		skip[key] = true
	}
	params := make(map[string]string)
	for key := range r.Fields {
		if skip[key] {
			continue
		}
		switch r.Fields[key].(type) {
		case string, float64, bool:
			params[key] = r.String(key)
		}
	}
	return params
}

// Success is the error-field value of a successful response.
const Success = "Success"

// Response is a flat result payload. Every response carries an "error"
// field holding Success or a failure message.
type Response map[string]any

// NewResponse creates a successful response.
func NewResponse() Response {
	return Response{"error": Success}
}

// Fail marks the response failed with a message.
func Fail(message string) Response {
	return Response{"error": message}
}

// Set stores a field and returns the response for chaining.
func (r Response) Set(key string, value any) Response {
	r[key] = value
	return r
}

// OK reports whether the response is successful.
func (r Response) OK() bool {
	return r.Status() == Success
}

// Status returns the error-field message.
func (r Response) Status() string {
	status, _ := r["error"].(string)
	return status
}

// StringField reads a response field back as a string; non-string
// values read as empty. Extension programs read responses this way.
func (r Response) StringField(key string) string {
	value, _ := r[key].(string)
	return value
}

// Handler executes one command. The dispatcher has already locked the
// session and enforced the command's authentication mode; handlers only
// implement semantics.
type Handler interface {
	Execute(ctx context.Context, req *Request, sess *session.Session) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *Request, sess *session.Session) Response

// Execute implements Handler.
func (f HandlerFunc) Execute(ctx context.Context, req *Request, sess *session.Session) Response {
	return f(ctx, req, sess)
}
