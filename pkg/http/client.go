package http

import (
	"net"
	"net/http"
	"time"
)

// TransportFunc wraps a RoundTripper with additional behavior.
type TransportFunc func(http.RoundTripper) http.RoundTripper

// Option configures the underlying HTTP client.
type Option func(*clientConfig)

type clientConfig struct {
	dialTimeout           time.Duration
	requestTimeout        time.Duration
	keepAlive             time.Duration
	tlsHandshakeTimeout   time.Duration
	responseHeaderTimeout time.Duration
	idleConnTimeout       time.Duration
	maxIdleConns          int
	maxIdleConnsPerHost   int
	transports            []TransportFunc
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		dialTimeout:           30 * time.Second,
		requestTimeout:        30 * time.Second,
		keepAlive:             90 * time.Second,
		tlsHandshakeTimeout:   10 * time.Second,
		responseHeaderTimeout: 10 * time.Second,
		idleConnTimeout:       90 * time.Second,
		maxIdleConns:          100,
		maxIdleConnsPerHost:   10,
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.dialTimeout = d }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.requestTimeout = d }
}

func WithKeepAlive(d time.Duration) Option {
	return func(c *clientConfig) { c.keepAlive = d }
}

func WithResponseHeaderTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.responseHeaderTimeout = d }
}

func WithIdleConnTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.idleConnTimeout = d }
}

func WithTransport(fn TransportFunc) Option {
	return func(c *clientConfig) { c.transports = append(c.transports, fn) }
}

func newClient(opts ...Option) *http.Client {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	dialer := net.Dialer{
		Timeout:   cfg.dialTimeout,
		KeepAlive: cfg.keepAlive,
	}

	var rt http.RoundTripper = &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.maxIdleConns,
		MaxIdleConnsPerHost:   cfg.maxIdleConnsPerHost,
		TLSHandshakeTimeout:   cfg.tlsHandshakeTimeout,
		ResponseHeaderTimeout: cfg.responseHeaderTimeout,
		IdleConnTimeout:       cfg.idleConnTimeout,
	}

	for _, fn := range cfg.transports {
		rt = fn(rt)
	}

	return &http.Client{
		Timeout:   cfg.requestTimeout,
		Transport: rt,
	}
}
