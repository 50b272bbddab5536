package devserver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/bundlekit/internal/assets"
	httpmiddleware "github.com/wolfeidau/bundlekit/internal/http"
	"github.com/wolfeidau/bundlekit/internal/manifest"
)

const testMetafile = `{
  "outputs": {
    "dist/app.bundle.js": {"entryPoint": "bundlekit-entry:app", "imports": []}
  }
}`

func newTestServer(t *testing.T, backend string) (*Server, string) {
	t.Helper()
	return newLoggedTestServer(t, backend, zerolog.Nop())
}

func newLoggedTestServer(t *testing.T, backend string, logger zerolog.Logger) (*Server, string) {
	t.Helper()
	root := t.TempDir()

	m, err := manifest.Build(manifest.Development, manifest.Options{Root: root})
	require.NoError(t, err)
	m.DevServer.Proxy[0].Target = backend

	require.NoError(t, os.MkdirAll(m.Output.Path, 0o750))
	bundle := "console.log(\"" + strings.Repeat("bundlekit ", 512) + "\");\n"
	require.NoError(t, os.WriteFile(filepath.Join(m.Output.Path, "app.bundle.js"), []byte(bundle), 0600))

	pipeline, err := assets.New(m, assets.Config{Root: root, Title: "Dev"})
	require.NoError(t, err)
	require.NoError(t, pipeline.LoadMetafile([]byte(testMetafile)))

	srv, err := New(m, pipeline, logger)
	require.NoError(t, err)
	return srv, bundle
}

func TestServer_proxyStripsPrefix(t *testing.T) {
	var gotPath, gotForwarded string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotForwarded = r.Header.Get("X-Forwarded-Host")
		_, _ = io.WriteString(w, "pong")
	}))
	defer backend.Close()

	srv, _ := newTestServer(t, backend.URL)

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "nested path", path: "/api/users/42", expected: "/users/42"},
		{name: "prefix only", path: "/api", expected: "/"},
		{name: "prefix with slash", path: "/api/", expected: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Host = "localhost:3080"
			srv.Handler().ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			require.Equal(t, "pong", rec.Body.String())
			require.Equal(t, tt.expected, gotPath)
			require.Equal(t, "localhost:3080", gotForwarded)
		})
	}
}

func TestServer_proxyBackendDown(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	backend.Close()

	srv, _ := newTestServer(t, backend.URL)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestServer_proxyBackendDownLogsRequest(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	backend.Close()

	var buf bytes.Buffer
	srv, _ := newLoggedTestServer(t, backend.URL, zerolog.New(&buf))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set(httpmiddleware.RequestIDHeader, "req-123")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var failure map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["message"] == "Proxy request failed" {
			failure = entry
		}
	}
	require.NotNil(t, failure)
	require.Equal(t, "req-123", failure["request_id"])
	require.Equal(t, "203.0.113.7", failure["client_ip"])
	require.Equal(t, "/api/users", failure["path"])
}

func TestServer_proxyForwardsRequestContext(t *testing.T) {
	var gotID, gotIP string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(httpmiddleware.RequestIDHeader)
		gotIP = r.Header.Get("X-Real-IP")
	}))
	defer backend.Close()

	srv, _ := newTestServer(t, backend.URL)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, gotID)
	require.Equal(t, rec.Header().Get(httpmiddleware.RequestIDHeader), gotID)
	require.Equal(t, "203.0.113.7", gotIP)
}

func TestServer_runRebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0o750))
	appJS := filepath.Join(src, "app.js")
	require.NoError(t, os.WriteFile(appJS, []byte("console.log(\"first build\");\n"), 0600))

	m, err := manifest.Build(manifest.Development, manifest.Options{Root: root})
	require.NoError(t, err)
	m.Entry = manifest.Entries{{Name: "app", Modules: []string{"app.js"}}}
	m.DevServer.Port = freePort(t)

	pipeline, err := assets.New(m, assets.Config{Root: root, Title: "Dev"})
	require.NoError(t, err)

	srv, err := New(m, pipeline, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	bundle := filepath.Join(root, "dist", "app.bundle.js")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(bundle)
		return err == nil && strings.Contains(string(data), "first build")
	}, 10*time.Second, 50*time.Millisecond)

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(root, "dist", "index.html"))
		return err == nil && strings.Contains(string(data), "/app.bundle.js")
	}, 10*time.Second, 50*time.Millisecond)

	require.NoError(t, os.WriteFile(appJS, []byte("console.log(\"second build\");\n"), 0600))

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(bundle)
		return err == nil && strings.Contains(string(data), "second build")
	}, 10*time.Second, 50*time.Millisecond)

	addr := fmt.Sprintf("http://127.0.0.1:%d/app.bundle.js", m.DevServer.Port)
	require.Eventually(t, func() bool {
		res, err := http.Get(addr) //nolint:noctx
		if err != nil {
			return false
		}
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		return err == nil && res.StatusCode == http.StatusOK && strings.Contains(string(body), "second build")
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServer_staticFiles(t *testing.T) {
	srv, bundle := newTestServer(t, "http://localhost:3000")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app.bundle.js", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, bundle, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get(httpmiddleware.RequestIDHeader))
}

func TestServer_compression(t *testing.T) {
	srv, _ := newTestServer(t, "http://localhost:3000")

	req := httptest.NewRequest(http.MethodGet, "/app.bundle.js", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestServer_historyFallback(t *testing.T) {
	srv, _ := newTestServer(t, "http://localhost:3000")

	for _, p := range []string{"/", "/dashboard", "/jobs/42/events"} {
		t.Run(p, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			require.Contains(t, rec.Body.String(), `src="/app.bundle.js"`)
		})
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/dashboard", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_withoutFallback(t *testing.T) {
	root := t.TempDir()
	m, err := manifest.Build(manifest.Development, manifest.Options{Root: root})
	require.NoError(t, err)
	m.DevServer.HistoryAPIFallback = false

	pipeline, err := assets.New(m, assets.Config{Root: root})
	require.NoError(t, err)
	srv, err := New(m, pipeline, zerolog.Nop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_requiresDevServer(t *testing.T) {
	m := manifest.BuildVendor(manifest.Options{})
	pipeline, err := assets.New(m, assets.DefaultConfig())
	require.NoError(t, err)

	_, err = New(m, pipeline, zerolog.Nop())
	require.ErrorIs(t, err, ErrNoDevServer)
}

func TestNewProxy_invalidRules(t *testing.T) {
	tests := []struct {
		name string
		rule manifest.ProxyRule
	}{
		{name: "relative target", rule: manifest.ProxyRule{Target: "localhost:3000"}},
		{name: "bad rewrite", rule: manifest.ProxyRule{Target: "http://localhost:3000", PathRewrite: map[string]string{"(": ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newProxy(tt.rule)
			require.Error(t, err)
		})
	}
}
