package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/bundlekit/internal/assets"
	httpmiddleware "github.com/wolfeidau/bundlekit/internal/http"
	"github.com/wolfeidau/bundlekit/internal/manifest"
)

// ErrNoDevServer indicates the manifest has no dev server section
var ErrNoDevServer = errors.New("manifest has no dev server configuration")

// Server serves a manifest's output directory during development
type Server struct {
	manifest *manifest.Manifest
	pipeline *assets.Pipeline
	logger   zerolog.Logger
	handler  http.Handler
}

// New wires the static file server, proxy rules and HTML fallback for the manifest
func New(m *manifest.Manifest, pipeline *assets.Pipeline, logger zerolog.Logger) (*Server, error) {
	if m.DevServer == nil {
		return nil, ErrNoDevServer
	}

	s := &Server{
		manifest: m,
		pipeline: pipeline,
		logger:   logger,
	}

	mux := http.NewServeMux()

	for _, rule := range m.DevServer.Proxy {
		proxy, err := newProxy(rule)
		if err != nil {
			return nil, err
		}
		for _, prefix := range rule.Context {
			prefix = "/" + strings.Trim(prefix, "/")
			mux.Handle(prefix, proxy)
			mux.Handle(prefix+"/", proxy)
			logger.Info().Str("path", prefix).Str("target", rule.Target).Msg("Proxy registered")
		}
	}

	static, err := s.staticHandler()
	if err != nil {
		return nil, err
	}
	mux.Handle("/", static)

	var handler http.Handler = mux
	if m.DevServer.Compress {
		handler = gzhttp.GzipHandler(handler)
	}
	s.handler = httpmiddleware.Logging(logger)(handler)

	return s, nil
}

// Handler returns the fully wired HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// staticHandler serves built files under the public path and, with history API
// fallback enabled, answers unknown GET routes with the HTML entry.
func (s *Server) staticHandler() (http.Handler, error) {
	outdir := s.manifest.Output.Path
	public := "/" + strings.Trim(s.manifest.Output.PublicPath, "/")
	files := http.StripPrefix(strings.TrimSuffix(public, "/"), http.FileServer(http.Dir(outdir)))

	var fallback http.Handler = http.NotFoundHandler()
	if s.manifest.DevServer.HistoryAPIFallback {
		index, err := s.pipeline.Handler(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create html handler: %w", err)
		}
		fallback = index
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel, ok := strings.CutPrefix(r.URL.Path, strings.TrimSuffix(public, "/"))
		if ok {
			name := filepath.Join(outdir, filepath.FromSlash(path.Clean("/"+rel)))
			if info, err := os.Stat(name); err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}
		fallback.ServeHTTP(w, r)
	}), nil
}

// Run watches the sources and serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- s.pipeline.Watch(ctx)
	}()

	srv := configureHTTPServer(fmt.Sprintf(":%d", s.manifest.DevServer.Port), s.handler)

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Starting dev server")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-watchErr:
		_ = srv.Close()
		if err != nil {
			return fmt.Errorf("watch failed: %w", err)
		}
		return nil
	case err := <-serveErr:
		cancel()
		<-watchErr
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	err := srv.Shutdown(shutdownCtx)

	// the esbuild context is disposed by the watcher, wait for it
	<-watchErr
	return err
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
