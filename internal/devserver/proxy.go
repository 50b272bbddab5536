package devserver

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"regexp"
	"sort"

	"github.com/rs/zerolog"
	httpmiddleware "github.com/wolfeidau/bundlekit/internal/http"
	"github.com/wolfeidau/bundlekit/internal/manifest"
)

type rewrite struct {
	pattern     *regexp.Regexp
	replacement string
}

// newProxy builds a reverse proxy for a manifest proxy rule. Path rewrites are
// applied in pattern order before the request is forwarded.
func newProxy(rule manifest.ProxyRule) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(rule.Target)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy target %q: %w", rule.Target, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("proxy target %q must be an absolute URL", rule.Target)
	}

	patterns := make([]string, 0, len(rule.PathRewrite))
	for p := range rule.PathRewrite {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	rewrites := make([]rewrite, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid path rewrite %q: %w", p, err)
		}
		rewrites = append(rewrites, rewrite{pattern: re, replacement: rule.PathRewrite[p]})
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !rule.Secure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			p := r.In.URL.Path
			for _, rw := range rewrites {
				p = rw.pattern.ReplaceAllString(p, rw.replacement)
			}
			r.Out.URL.Path = p
			r.Out.URL.RawPath = ""
			r.SetURL(target)
			r.SetXForwarded()

			// carry the access log correlation through to the backend
			if id := httpmiddleware.RequestIDFromContext(r.In.Context()); id != "" {
				r.Out.Header.Set(httpmiddleware.RequestIDHeader, id)
			}
			if ip := httpmiddleware.ClientIPFromContext(r.In.Context()); ip != "" {
				r.Out.Header.Set("X-Real-IP", ip)
			}
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			zerolog.Ctx(r.Context()).Error().Err(err).
				Str("target", rule.Target).
				Str("path", r.URL.Path).
				Msg("Proxy request failed")
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
		},
	}, nil
}
