// Package event adapts serverless function events ({"body": "<json request>"}) to the
// dispatcher.
package event

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/commsutil"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/dispatcher"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

const (
	logPrefix = "event:event"

	// Transport is the transport name stamped on requests from this adapter.
	Transport = "event"
)

// CORSHeaders are set on every response.
var CORSHeaders = map[string]string{"Access-Control-Allow-Origin": "*"}

// Event is the incoming envelope. Body holds a structured request as a JSON string.
type Event struct {
	Body            string `json:"body"`
	IsBase64Encoded bool   `json:"isBase64Encoded,omitempty"`
}

// Response is the outgoing envelope. Body is a JSON string: the action result, or
// {"message": ..., "code": ...} on failure.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// Handler dispatches events.
type Handler struct {
	dispatcher *dispatcher.Dispatcher
}

// NewHandler creates a new Handler.
func NewHandler(d *dispatcher.Dispatcher) *Handler {
	return &Handler{dispatcher: d}
}

// Handle unwraps ev, dispatches the request it carries and wraps the outcome.
func (h *Handler) Handle(ctx context.Context, ev Event) Response {
	body := []byte(ev.Body)
	if ev.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(ev.Body)
		if err != nil {
			return errorResponse(http.StatusBadRequest, registry.CodeMalformedRequest, "Event body is not valid base64")
		}
		body = decoded
	}
	return wrap(h.dispatcher.DispatchBytes(ctx, body, Transport))
}

// HandleRaw decodes a JSON event envelope and handles it.
func (h *Handler) HandleRaw(ctx context.Context, data []byte) Response {
	if !gjson.ValidBytes(data) {
		return errorResponse(http.StatusBadRequest, registry.CodeMalformedRequest, "Event is not valid JSON")
	}
	body := gjson.GetBytes(data, "body")
	if body.Type != gjson.String {
		return errorResponse(http.StatusBadRequest, registry.CodeMalformedRequest, "Event must carry a string body")
	}
	return h.Handle(ctx, Event{
		Body:            body.Str,
		IsBase64Encoded: gjson.GetBytes(data, "isBase64Encoded").Bool(),
	})
}

func wrap(resp *dispatcher.Response) Response {
	if !resp.Ok {
		return errorResponse(resp.Status(), resp.Error.Code, resp.Error.Message)
	}
	body, err := commsutil.EncodePayload(resp.Result)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode result: %v", logPrefix, err))
		return errorResponse(http.StatusInternalServerError, registry.CodeInternal, "Result is not serializable: "+err.Error())
	}
	return Response{StatusCode: http.StatusOK, Headers: headers(), Body: string(body)}
}

func errorResponse(status int, code, message string) Response {
	body, _ := commsutil.EncodePayload(map[string]string{"message": message, "code": code})
	return Response{StatusCode: status, Headers: headers(), Body: string(body)}
}

func headers() map[string]string {
	out := make(map[string]string, len(CORSHeaders))
	for k, v := range CORSHeaders {
		out[k] = v
	}
	return out
}
