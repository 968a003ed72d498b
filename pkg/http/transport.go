package http

import (
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type authTransport struct {
	token string
	next  http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.next.RoundTrip(clone)
}

// WithAuthToken adds a bearer token to every outbound request. An empty
// token leaves requests untouched.
func WithAuthToken(token string) Option {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &authTransport{token: token, next: rt}
	})
}

type logTransport struct {
	next http.RoundTripper
}

func (t *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctxzap.Debug(req.Context(), "outbound HTTP request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
	)
	return t.next.RoundTrip(req)
}

// WithRequestLogging logs method and URL of every outbound request at
// debug level using the context logger.
func WithRequestLogging() Option {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &logTransport{next: rt}
	})
}
