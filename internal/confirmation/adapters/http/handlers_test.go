package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dejobratic/confirmdialog/internal/confirmation/adapters/memory"
	"github.com/dejobratic/confirmdialog/internal/confirmation/app"
	"github.com/dejobratic/confirmdialog/internal/confirmation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	server  *httptest.Server
	client  *http.Client
	deleted atomic.Int32
}

type testOptions struct {
	factoryOpts []app.FactoryOption
}

func newTestServer(t *testing.T, opts testOptions) *testServer {
	t.Helper()
	ts := &testServer{}

	registry := app.NewActionRegistry()
	require.NoError(t, registry.RegisterFunc("deleteRecord", []string{"id"}, func(context.Context, domain.Params) error {
		ts.deleted.Add(1)
		return nil
	}))
	require.NoError(t, registry.RegisterFunc("explode", nil, func(context.Context, domain.Params) error {
		return errors.New("record is locked")
	}))

	factory := app.NewDialogFactory(memory.NewStore(), registry, opts.factoryOpts...)
	handler := NewHandler(factory, NewRenderer(), NewSessions("", false), nil)

	mux := http.NewServeMux()
	handler.Register(mux)

	ts.server = httptest.NewServer(mux)
	t.Cleanup(ts.server.Close)

	ts.client = newClient(t)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (ts *testServer) do(t *testing.T, client *http.Client, method, path, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type jsonResponse struct {
	Confirmation struct {
		State  string         `json:"state"`
		Key    string         `json:"key"`
		Action string         `json:"action"`
		Params map[string]any `json:"params"`
	} `json:"confirmation"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func decodeJSON(t *testing.T, resp *http.Response) jsonResponse {
	t.Helper()
	var out jsonResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

var jsonHeaders = map[string]string{
	"Content-Type": "application/json",
	"Accept":       "application/json",
}

func (ts *testServer) request(t *testing.T, client *http.Client, action string, params string) jsonResponse {
	t.Helper()
	resp := ts.do(t, client, http.MethodPost, confirmationsPath,
		`{"action":"`+action+`","params":`+params+`}`, jsonHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeJSON(t, resp)
}

func TestConfirmFlowJSON(t *testing.T) {
	ts := newTestServer(t, testOptions{})

	prompt := ts.request(t, ts.client, "deleteRecord", `{"id":42}`)
	assert.Equal(t, "prompt", prompt.Confirmation.State)
	assert.Equal(t, "deleteRecord", prompt.Confirmation.Action)
	assert.EqualValues(t, 42, prompt.Confirmation.Params["id"])
	require.NotEmpty(t, prompt.Confirmation.Key)

	keyPath := confirmationsPath + "/" + prompt.Confirmation.Key

	resp := ts.do(t, ts.client, http.MethodGet, keyPath, "", jsonHeaders)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "prompt", decodeJSON(t, resp).Confirmation.State)

	resp = ts.do(t, ts.client, http.MethodPost, keyPath+"/confirm", "", jsonHeaders)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "confirmed", decodeJSON(t, resp).Confirmation.State)

	resp = ts.do(t, ts.client, http.MethodPost, keyPath+"/confirm", "", jsonHeaders)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not-found", decodeJSON(t, resp).Confirmation.State)

	assert.Equal(t, int32(1), ts.deleted.Load())
}

func TestCancelFlowJSON(t *testing.T) {
	ts := newTestServer(t, testOptions{})

	prompt := ts.request(t, ts.client, "deleteRecord", `{"id":42}`)
	keyPath := confirmationsPath + "/" + prompt.Confirmation.Key

	for i := 0; i < 2; i++ {
		resp := ts.do(t, ts.client, http.MethodPost, keyPath+"/cancel", "", jsonHeaders)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "cancelled", decodeJSON(t, resp).Confirmation.State)
	}

	resp := ts.do(t, ts.client, http.MethodGet, keyPath, "", jsonHeaders)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, ts.deleted.Load())
}

func TestHandlerFailureJSON(t *testing.T) {
	ts := newTestServer(t, testOptions{})

	prompt := ts.request(t, ts.client, "explode", `{}`)
	resp := ts.do(t, ts.client, http.MethodPost, confirmationsPath+"/"+prompt.Confirmation.Key+"/confirm", "", jsonHeaders)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, "error", body.Confirmation.State)
	assert.Equal(t, body.Message, body.Error)
	assert.NotContains(t, body.Error, "record is locked")
	assert.NotContains(t, body.Error, "handler_failure")
}

func TestRequestValidation(t *testing.T) {
	ts := newTestServer(t, testOptions{})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "unknown action", body: `{"action":"dropDatabase"}`, status: http.StatusBadRequest},
		{name: "missing action", body: `{"params":{"id":1}}`, status: http.StatusBadRequest},
		{name: "malformed json", body: `{"action":`, status: http.StatusBadRequest},
		{name: "non-scalar param", body: `{"action":"deleteRecord","params":{"id":[1,2]}}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, ts.client, http.MethodPost, confirmationsPath, tt.body, jsonHeaders)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, decodeJSON(t, resp).Error)
		})
	}
}

func TestSessionIsolation(t *testing.T) {
	ts := newTestServer(t, testOptions{})

	prompt := ts.request(t, ts.client, "deleteRecord", `{"id":42}`)

	other := newClient(t)
	resp := ts.do(t, other, http.MethodPost, confirmationsPath+"/"+prompt.Confirmation.Key+"/confirm", "", jsonHeaders)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, ts.deleted.Load())
}

func TestClearAll(t *testing.T) {
	ts := newTestServer(t, testOptions{})

	prompt := ts.request(t, ts.client, "deleteRecord", `{"id":42}`)

	resp := ts.do(t, ts.client, http.MethodDelete, confirmationsPath, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, ts.client, http.MethodPost, confirmationsPath+"/"+prompt.Confirmation.Key+"/confirm", "", jsonHeaders)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFormFlowHTML(t *testing.T) {
	ts := newTestServer(t, testOptions{})

	form := url.Values{"action": {"deleteRecord"}, "param.id": {"42"}}
	resp := ts.do(t, ts.client, http.MethodPost, confirmationsPath, form.Encode(), map[string]string{
		"Content-Type":    "application/x-www-form-urlencoded",
		"Accept-Language": "cs",
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, confirmationsPath+"/"))

	resp = ts.do(t, ts.client, http.MethodGet, location, "", map[string]string{"Accept-Language": "cs"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body := readBody(t, resp)
	assert.Contains(t, body, `data-state="prompt"`)
	assert.Contains(t, body, "Opravdu chcete provést akci deleteRecord?")
	assert.Contains(t, body, location+"/confirm")

	resp = ts.do(t, ts.client, http.MethodPost, location+"/confirm", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `data-state="confirmed"`)
	assert.Equal(t, int32(1), ts.deleted.Load())
}

func TestFormAndJSONShareKeys(t *testing.T) {
	ts := newTestServer(t, testOptions{})

	prompt := ts.request(t, ts.client, "deleteRecord", `{"id":42}`)

	form := url.Values{"action": {"deleteRecord"}, "param.id": {"42"}}
	resp := ts.do(t, ts.client, http.MethodPost, confirmationsPath, form.Encode(), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
		"Accept":       "application/json",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, prompt.Confirmation.Key, body.Confirmation.Key)
	assert.EqualValues(t, 42, body.Confirmation.Params["id"])
}

func TestFormValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{in: "42", want: int64(42)},
		{in: "-7", want: int64(-7)},
		{in: "1.5", want: 1.5},
		{in: "007", want: "007"},
		{in: "1e3", want: "1e3"},
		{in: "NaN", want: "NaN"},
		{in: "+Inf", want: "+Inf"},
		{in: "abc", want: "abc"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, formValue(tt.in))
		})
	}
}

func TestCustomTemplates(t *testing.T) {
	dir := t.TempDir()
	layout := filepath.Join(dir, "layout.html")
	dialog := filepath.Join(dir, "dialog.html")
	require.NoError(t, os.WriteFile(layout, []byte(`<main>{{template "dialog" .}}</main>`), 0o600))
	require.NoError(t, os.WriteFile(dialog, []byte(`<custom state="{{.State}}">{{.Message}}</custom>`), 0o600))

	ts := newTestServer(t, testOptions{factoryOpts: []app.FactoryOption{
		app.WithDefaultLayoutFile(layout),
		app.WithDefaultTemplateFile(dialog),
	}})

	resp := ts.do(t, ts.client, http.MethodPost, confirmationsPath+"/unknown/cancel", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `<main><custom state="cancelled">The action was cancelled.</custom></main>`, readBody(t, resp))
}

func TestRouting(t *testing.T) {
	ts := newTestServer(t, testOptions{})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, confirmationsPath, http.StatusMethodNotAllowed},
		{http.MethodPost, confirmationsPath + "/k1", http.StatusMethodNotAllowed},
		{http.MethodGet, confirmationsPath + "/k1/confirm", http.StatusMethodNotAllowed},
		{http.MethodPost, confirmationsPath + "/k1/approve", http.StatusNotFound},
		{http.MethodPost, confirmationsPath + "/k1/confirm/extra", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := ts.do(t, ts.client, tt.method, tt.path, "", nil)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}
