package common

import (
	"github.com/avoskr/issueqa-backend/internal/config"
	pkgHTTP "github.com/avoskr/issueqa-backend/pkg/http"
)

// NewBaseConnector builds a JSON connector from the shared HTTP client
// configuration used by all external-service adapters.
func NewBaseConnector(cfg config.HTTPClientConfig) *pkgHTTP.Connector {
	return pkgHTTP.NewConnector(
		cfg.URL,
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithDialTimeout(cfg.ConnTimeout),
		pkgHTTP.WithKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithRequestLogging(),
		pkgHTTP.WithAuthToken(cfg.Token),
	)
}
