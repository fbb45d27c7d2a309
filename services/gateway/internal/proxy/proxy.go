package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/orderpay/orderpay/internal/pkg/httpmw"
	"github.com/orderpay/orderpay/internal/pkg/logger"
	"github.com/orderpay/orderpay/internal/pkg/reqctx"
)

const upstreamTimeout = 30 * time.Second

// New creates a reverse proxy to targetHost. When stripPrefix is set it is
// replaced with upstreamPrefix before forwarding ("/payments/accounts" ->
// "/accounts"); otherwise the path passes through unchanged. The Host header
// is rewritten so the upstream sees itself as the origin.
func New(targetHost, stripPrefix, upstreamPrefix string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(targetHost)
	if err != nil {
		return nil, err
	}

	p := httputil.NewSingleHostReverseProxy(target)

	p.Transport = &http.Transport{
		ResponseHeaderTimeout: upstreamTimeout,
	}

	originalDirector := p.Director
	p.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = target.Host

		if stripPrefix != "" && strings.HasPrefix(req.URL.Path, stripPrefix) {
			req.URL.Path = upstreamPrefix + strings.TrimPrefix(req.URL.Path, stripPrefix)
			if req.URL.Path == "" {
				req.URL.Path = "/"
			}
		}

		if rid := reqctx.GetRequestID(req.Context()); rid != "" {
			req.Header.Set(httpmw.HeaderXRequestID, rid)
		}
	}

	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		rid := reqctx.GetRequestID(r.Context())

		logger.Logger.Error().
			Err(err).
			Str("target", targetHost).
			Str("request_id", rid).
			Msg("upstream_proxy_error")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"code":"upstream_unavailable","message":"upstream service unreachable","request_id":"` + rid + `"}}`))
	}

	return p, nil
}
