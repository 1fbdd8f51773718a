package httpclient

import (
	"net"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/elidorascodex/tecflow/internal/infra/config"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// New creates a new HTTP client with the given configuration.
func New(cfg config.HTTPClientConfig) *http.Client {
	return &http.Client{
		Transport: newTransport(cfg),
		Timeout:   cfg.ResponseTimeout,
	}
}

// NewBearer creates a client that sends "Authorization: Bearer <token>" on every request.
func NewBearer(cfg config.HTTPClientConfig, token string) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   newTransport(cfg),
		},
		Timeout: cfg.ResponseTimeout,
	}
}

func newTransport(cfg config.HTTPClientConfig) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
		ForceAttemptHTTP2:   true,
		DisableCompression:  false,
	}
}
