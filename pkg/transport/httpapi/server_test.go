package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/dispatcher"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	stub, err := registry.NewResource("stub resource", "1.4.0",
		registry.Action{
			Name:   "echo",
			Params: []registry.Param{registry.Required("text", registry.KindString, "text to echo")},
			Fn: func(_ context.Context, args registry.Args) (interface{}, error) {
				return args.String("text")
			},
		},
		registry.Action{
			Name: "add",
			Params: []registry.Param{
				registry.Required("a", registry.KindInt, ""),
				registry.Optional("b", registry.KindInt, 1, ""),
			},
			Fn: func(_ context.Context, args registry.Args) (interface{}, error) {
				a, err := args.Int("a")
				if err != nil {
					return nil, err
				}
				b, err := args.Int("b")
				if err != nil {
					return nil, err
				}
				return a + b, nil
			},
		},
		registry.Action{
			Name: "fail",
			Fn: func(context.Context, registry.Args) (interface{}, error) {
				return nil, errors.New("division by zero")
			},
		},
	)
	require.NoError(t, err)
	keyme, err := registry.NewResource("", "1.0.0", registry.Action{
		Name:   "get_keywords",
		Params: []registry.Param{registry.Required("text", registry.KindString, "")},
		Fn: func(_ context.Context, args registry.Args) (interface{}, error) {
			s, err := args.String("text")
			return strings.ToUpper(s), err
		},
	})
	require.NoError(t, err)

	reg := registry.NewRegistry()
	require.NoError(t, reg.Register("stub", stub))
	require.NoError(t, reg.Register("keyme", keyme))

	s := NewServer(dispatcher.NewDispatcher(reg), WithTimeout(5*time.Second))
	s.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return s
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Origin", "https://zacharyjklein.com")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthy(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/healthy/", "/api/v1.0/"} {
		rec := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `"Healthy at 2026-10-19T12:00:00Z!"`, rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestStructured(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"ok", `{"resource": "stub", "action": "echo", "params": {"text": "hi"}}`, 200, ""},
		{"unknown resource", `{"resource": "nope", "action": "echo", "params": {}}`, 400, registry.CodeUnknownResource},
		{"unknown action", `{"resource": "stub", "action": "_secret", "params": {}}`, 400, registry.CodeUnknownAction},
		{"unknown param", `{"resource": "stub", "action": "echo", "params": {"text": "hi", "bogus": 1}}`, 400, registry.CodeUnknownParameter},
		{"missing param", `{"resource": "stub", "action": "echo", "params": {}}`, 400, registry.CodeMissingParameter},
		{"malformed", `{"resource": "stub"}`, 400, registry.CodeMalformedRequest},
		{"execution", `{"resource": "stub", "action": "fail", "params": {}}`, 500, registry.CodeActionExecution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1.0/", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.code == "" {
				assert.JSONEq(t, `"hi"`, rec.Body.String())
				return
			}
			assert.Equal(t, tt.code, gjson.Get(rec.Body.String(), "code").String())
		})
	}
}

func TestStructured_ExecutionMessage(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/api/v1.0/", `{"resource": "stub", "action": "fail", "params": {}}`)
	assert.Equal(t, "The code ran, but there was an error: division by zero", gjson.Get(rec.Body.String(), "message").String())
}

func TestActionRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/stub/add?a=2&b=3", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `5`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/stub/add?a=2", "")
	assert.JSONEq(t, `3`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/stub/add?a=two", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, registry.CodeInvalidParameter, gjson.Get(rec.Body.String(), "code").String())

	rec = do(t, s, http.MethodPost, "/stub/add", `{"a": 40, "b": 2}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `42`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/stub/add", `[1, 2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/nope/add?a=1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, registry.CodeUnknownResource, gjson.Get(rec.Body.String(), "code").String())
}

func TestActionRoutes_VersionHeader(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/stub/echo?text=hi", nil)
	req.Header.Set("X-Resource-Version", "^2")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, registry.CodeVersionMismatch, gjson.Get(rec.Body.String(), "code").String())
}

func TestNamedRoute(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/keyme/?text=go", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"GO"`, rec.Body.String())
}

func TestEventRoute(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/api/v1.0/event",
		`{"body": "{\"resource\": \"stub\", \"action\": \"echo\", \"params\": {\"text\": \"hi\"}}"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, int64(200), gjson.Get(body, "statusCode").Int())
	assert.Equal(t, `"hi"`, gjson.Get(body, "body").String())
	assert.Equal(t, "*", gjson.Get(body, `headers.Access-Control-Allow-Origin`).String())
}

func TestResources(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/v1.0/resources", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"keyme", "stub"}, gjson.Get(rec.Body.String(), "#.name").Value())
}

func TestPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1.0/", nil)
	req.Header.Set("Origin", "https://zacharyjklein.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-Resource-Version")
	rec := httptest.NewRecorder()
	newTestServer(t).Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String(), "preflight must not reach the handlers")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Resource-Version")
	assert.Equal(t, "300", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_DisallowedPreflightMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1.0/", nil)
	req.Header.Set("Origin", "https://zacharyjklein.com")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	rec := httptest.NewRecorder()
	newTestServer(t).Router().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPages(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/resources/stub/"`)

	rec = do(t, s, http.MethodGet, "/resources/stub/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sb stub echo &lt;text&gt;")

	rec = do(t, s, http.MethodGet, "/resources/stub/openapi.json", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	spec := rec.Body.String()
	assert.Equal(t, "1.4.0", gjson.Get(spec, "info.version").String())
	assert.Equal(t, `["text"]`, gjson.Get(spec, `paths./stub/echo.post.requestBody.content.application/json.schema.required`).Raw)

	rec = do(t, s, http.MethodGet, "/resources/nope/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
