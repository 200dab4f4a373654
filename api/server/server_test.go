package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})
}

func newTestServer(t *testing.T, origins []string) *Server {
	t.Helper()
	srv, err := New(&Config{
		ListenAddr:               "127.0.0.1:0",
		Log:                      slog.New(slog.NewTextHandler(io.Discard, nil)),
		CORSOrigins:              origins,
		GracefulShutdownDuration: time.Second,
	}, pingHandler{})
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, h http.Handler, path string, header http.Header) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	resp := w.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func TestServer_Routes(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	resp, body := get(t, h, "/ping", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", body)

	resp, body = get(t, h, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)

	resp, body = get(t, h, "/livez", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"alive"}`, body)

	resp, _ = get(t, h, "/debug/pprof/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_DrainUndrain(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	resp, body := get(t, h, "/readyz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ready"}`, body)

	_, body = get(t, h, "/drain", nil)
	assert.JSONEq(t, `{"status":"draining"}`, body)
	_, body = get(t, h, "/drain", nil)
	assert.JSONEq(t, `{"status":"already draining"}`, body)

	resp, body = get(t, h, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"status":"not ready"}`, body)

	_, body = get(t, h, "/undrain", nil)
	assert.JSONEq(t, `{"status":"ready"}`, body)
	_, body = get(t, h, "/undrain", nil)
	assert.JSONEq(t, `{"status":"already ready"}`, body)

	resp, _ = get(t, h, "/readyz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_CORS(t *testing.T) {
	origin := http.Header{"Origin": []string{"https://app.example.com"}}

	resp, _ := get(t, newTestServer(t, nil).Handler(), "/ping", origin)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	restricted := newTestServer(t, []string{"https://app.example.com"}).Handler()
	resp, _ = get(t, restricted, "/ping", origin)
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, body := get(t, restricted, "/ping", http.Header{"Origin": []string{"https://evil.example.com"}})
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "pong", body)
}

func TestConfig_WriteTimeout(t *testing.T) {
	tests := []struct {
		name    string
		request time.Duration
		write   time.Duration
		want    time.Duration
	}{
		{name: "unset", want: 0},
		{name: "explicit only", write: time.Minute, want: time.Minute},
		{name: "derived from request timeout", request: 30 * time.Second, want: 30*time.Second + responseMargin},
		{name: "raised to request timeout", request: time.Minute, write: 10 * time.Second, want: time.Minute + responseMargin},
		{name: "longer write kept", request: time.Second, write: 5 * time.Minute, want: 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := New(&Config{
				ListenAddr:     "127.0.0.1:0",
				Log:            slog.New(slog.NewTextHandler(io.Discard, nil)),
				RequestTimeout: tt.request,
				WriteTimeout:   tt.write,
			}, pingHandler{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, srv.srv.WriteTimeout)
		})
	}
}
