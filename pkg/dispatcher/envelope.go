// Package dispatcher binds caller input to registry actions, invokes them and wraps the
// outcome in a tagged Response for the transports.
package dispatcher

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

// Request is the structured invocation envelope:
// {"resource": "...", "action": "...", "params": {...}, "version": "^1"}.
type Request struct {
	ID       string                 `json:"id,omitempty"`
	Resource string                 `json:"resource"`
	Action   string                 `json:"action"`
	Params   map[string]interface{} `json:"params"`
	// Version is an optional SemVer range the resource version must satisfy.
	Version string `json:"version,omitempty"`
	// Transport names the adapter that built the request (cli, http, event, nats).
	Transport string `json:"-"`
}

// Response is the tagged outcome of a dispatch: Result when Ok, Error otherwise.
type Response struct {
	ID     string       `json:"id,omitempty"`
	Ok     bool         `json:"ok"`
	Result interface{}  `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Status maps the response onto an HTTP status code.
func (r *Response) Status() int {
	switch {
	case r.Ok:
		return http.StatusOK
	case r.Error == nil:
		return http.StatusInternalServerError
	case registry.IsClientError(r.Error.Code):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Err returns the failure as a *registry.RegistryError, or nil when Ok.
func (r *Response) Err() error {
	if r.Ok || r.Error == nil {
		return nil
	}
	return &registry.RegistryError{Code: r.Error.Code, Message: r.Error.Message, Details: r.Error.Details}
}

// NewResultResponse wraps a successful result.
func NewResultResponse(id string, result interface{}) *Response {
	return &Response{ID: id, Ok: true, Result: result}
}

// NewErrorResponse wraps err. Errors that are not a RegistryError become INTERNAL_ERROR.
func NewErrorResponse(id string, err error) *Response {
	var regErr *registry.RegistryError
	if errors.As(err, &regErr) {
		return &Response{
			ID: id,
			Ok: false,
			Error: &ErrorDetail{
				Code:    regErr.Code,
				Message: regErr.Message,
				Details: regErr.Details,
			},
		}
	}
	return &Response{
		ID:    id,
		Ok:    false,
		Error: &ErrorDetail{Code: registry.CodeInternal, Message: err.Error()},
	}
}

func malformed(format string, args ...interface{}) *registry.RegistryError {
	return registry.NewRegistryError(registry.CodeMalformedRequest, fmt.Sprintf(format, args...))
}

// DecodeRequest parses a structured request. resource and action must be non-empty
// strings, params must be an object; anything else is MALFORMED_REQUEST.
func DecodeRequest(data []byte) (*Request, error) {
	if !gjson.ValidBytes(data) {
		return nil, malformed("Request body is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, malformed("Request body must be a JSON object")
	}

	var missing []string
	for _, key := range []string{"resource", "action", "params"} {
		if !root.Get(key).Exists() {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		err := malformed("Request is missing required key(s): %s", strings.Join(missing, ", "))
		err.Details = missing
		return nil, err
	}

	resource, action := root.Get("resource"), root.Get("action")
	if resource.Type != gjson.String || resource.Str == "" {
		return nil, malformed("resource must be a non-empty string")
	}
	if action.Type != gjson.String || action.Str == "" {
		return nil, malformed("action must be a non-empty string")
	}

	params := root.Get("params")
	if !params.IsObject() {
		return nil, malformed("params must be a JSON object")
	}
	values, _ := params.Value().(map[string]interface{})
	if values == nil {
		values = map[string]interface{}{}
	}

	req := &Request{
		Resource: resource.Str,
		Action:   action.Str,
		Params:   values,
	}
	if v := root.Get("version"); v.Exists() {
		if v.Type != gjson.String {
			return nil, malformed("version must be a string")
		}
		req.Version = v.Str
	}
	if id := root.Get("id"); id.Type == gjson.String {
		req.ID = id.Str
	}
	return req, nil
}

// RequestFromMap validates an in-process request map with the same rules as
// DecodeRequest. params is passed through as is, so Go values keep their types.
func RequestFromMap(m map[string]interface{}) (*Request, error) {
	if m == nil {
		return nil, malformed("Request must be an object")
	}

	var missing []string
	for _, key := range []string{"resource", "action", "params"} {
		if _, ok := m[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		err := malformed("Request is missing required key(s): %s", strings.Join(missing, ", "))
		err.Details = missing
		return nil, err
	}

	resource, _ := m["resource"].(string)
	if resource == "" {
		return nil, malformed("resource must be a non-empty string")
	}
	action, _ := m["action"].(string)
	if action == "" {
		return nil, malformed("action must be a non-empty string")
	}

	var params map[string]interface{}
	switch p := m["params"].(type) {
	case map[string]interface{}:
		params = p
	case map[string]string:
		params = make(map[string]interface{}, len(p))
		for k, v := range p {
			params[k] = v
		}
	default:
		return nil, malformed("params must be an object")
	}
	if params == nil {
		params = map[string]interface{}{}
	}

	req := &Request{Resource: resource, Action: action, Params: params}
	if v, ok := m["version"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return nil, malformed("version must be a string")
		}
		req.Version = s
	}
	if id, ok := m["id"].(string); ok {
		req.ID = id
	}
	return req, nil
}
