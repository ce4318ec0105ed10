package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tidwall/gjson"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/dispatcher"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

// executionPrefix precedes the message of a failed action in 500 responses.
const executionPrefix = "The code ran, but there was an error: "

// namedRoute maps a fixed path onto one action. Parameters come from the query string and,
// for JSON bodies, the body object.
type namedRoute struct {
	method   string
	path     string
	resource string
	action   string
}

var namedRoutes = []namedRoute{
	{http.MethodGet, "/keyme/", "keyme", "get_keywords"},
	{http.MethodGet, "/sentimenter/", "sentimenter", "get_sentiment"},
	{http.MethodGet, "/pollin/", "pollin", "fetch_data"},
	{http.MethodGet, "/pollin/date", "pollin", "get_most_recent_date"},
	{http.MethodGet, "/openaq/", "openaq", "extract"},
	{http.MethodPost, "/whatsmybill/", "whatsmybill", "post_bill_slack"},
	{http.MethodGet, "/zacks_todos/", "zacks_todos", "read"},
	{http.MethodPost, "/zacks_todos/add_todo", "zacks_todos", "create"},
	{http.MethodPost, "/zacks_todos/toggle_complete", "zacks_todos", "toggle_complete"},
	{http.MethodPost, "/zacks_todos/delete", "zacks_todos", "delete"},
	{http.MethodGet, "/nurse/", "nurse", "get"},
	{http.MethodPost, "/nurse/add_health_check", "nurse", "add"},
	{http.MethodDelete, "/nurse/delete_health_check", "nurse", "delete"},
}

type errorBody struct {
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
	}
}

func writeResponse(w http.ResponseWriter, resp *dispatcher.Response) {
	if resp.Ok {
		writeJSON(w, http.StatusOK, resp.Result)
		return
	}
	status := resp.Status()
	msg := resp.Error.Message
	if status == http.StatusInternalServerError {
		msg = executionPrefix + msg
	}
	writeJSON(w, status, errorBody{Message: msg, Code: resp.Error.Code, Details: resp.Error.Details})
}

func writeError(w http.ResponseWriter, err error) {
	writeResponse(w, dispatcher.NewErrorResponse("", err))
}

func (s *Server) healthy() string {
	return fmt.Sprintf("Healthy at %s!", s.now().Format(time.RFC3339))
}

func (s *Server) handleHealthy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.healthy())
}

func (s *Server) handleResources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dispatcher.Registry().Describe())
}

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return nil, registry.NewRegistryError(registry.CodeMalformedRequest, "Request body could not be read: "+err.Error())
	}
	return data, nil
}

// handleStructured serves POST /api/v1.0/ with a {"resource", "action", "params"} body.
func (s *Server) handleStructured(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResponse(w, s.dispatcher.DispatchBytes(r.Context(), data, Transport))
}

// handleEvent serves POST /api/v1.0/event: the body is an event envelope and the reply is
// the response envelope, sent with the envelope's status code.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := s.events.HandleRaw(r.Context(), data)
	writeJSON(w, resp.StatusCode, resp)
}

func (s *Server) handleActionQuery(w http.ResponseWriter, r *http.Request) {
	s.dispatchStrings(w, r, chi.URLParam(r, "resource"), chi.URLParam(r, "action"), queryParams(r))
}

func (s *Server) handleActionBody(w http.ResponseWriter, r *http.Request) {
	params, err := bodyParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.dispatch(w, r, chi.URLParam(r, "resource"), chi.URLParam(r, "action"), params)
}

func (s *Server) handleNamed(nr namedRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := bodyParams(r)
		if err != nil {
			writeError(w, err)
			return
		}
		raw := queryParams(r)
		if len(params) == 0 {
			s.dispatchStrings(w, r, nr.resource, nr.action, raw)
			return
		}
		for k, v := range raw {
			if _, ok := params[k]; !ok {
				params[k] = v
			}
		}
		s.dispatch(w, r, nr.resource, nr.action, params)
	}
}

// dispatchStrings coerces string input to each declared parameter kind, then dispatches.
// Unresolvable targets are dispatched as-is so the dispatcher reports them.
func (s *Server) dispatchStrings(w http.ResponseWriter, r *http.Request, resource, action string, raw map[string]string) {
	params := make(map[string]interface{}, len(raw))
	if _, a, err := s.dispatcher.Registry().ResolveAction(resource, action); err == nil {
		coerced, err := dispatcher.CoerceStrings(a, raw)
		if err != nil {
			writeError(w, err)
			return
		}
		params = coerced
	} else {
		for k, v := range raw {
			params[k] = v
		}
	}
	s.dispatch(w, r, resource, action, params)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, resource, action string, params map[string]interface{}) {
	req := &dispatcher.Request{
		ID:        middleware.GetReqID(r.Context()),
		Resource:  resource,
		Action:    action,
		Params:    params,
		Version:   r.Header.Get("X-Resource-Version"),
		Transport: Transport,
	}
	writeResponse(w, s.dispatcher.Dispatch(r.Context(), req))
}

func queryParams(r *http.Request) map[string]string {
	out := make(map[string]string)
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// bodyParams reads a JSON object body. An empty body is no parameters.
func bodyParams(r *http.Request) (map[string]interface{}, error) {
	data, err := readBody(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return map[string]interface{}{}, nil
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, registry.NewRegistryError(registry.CodeMalformedRequest, "Request body must be a JSON object of parameters")
	}
	params, _ := gjson.ParseBytes(data).Value().(map[string]interface{})
	if params == nil {
		params = map[string]interface{}{}
	}
	return params, nil
}
