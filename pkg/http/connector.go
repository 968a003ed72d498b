// Package http provides a small JSON-over-HTTP connector used by the
// external-service adapters. It owns client timeouts, bearer auth and
// outbound request logging so the adapters only deal with typed payloads.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Connector performs JSON requests against a single external service.
type Connector struct {
	baseURL    string
	httpClient *http.Client
}

// NewConnector builds a connector for the given base URL. Options configure
// the underlying client and its transport chain.
func NewConnector(baseURL string, opts ...Option) *Connector {
	return &Connector{
		baseURL:    baseURL,
		httpClient: newClient(opts...),
	}
}

// DoRequest sends reqBody as JSON and decodes the response into respBody.
// Either may be nil. Non-2xx responses become *HTTPError; transport
// failures become *NetworkError.
func (c *Connector) DoRequest(ctx context.Context, method, endpoint string, reqBody, respBody any) error {
	url := c.baseURL + endpoint

	var bodyReader io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(data)}
	}

	if respBody != nil && len(data) > 0 {
		if err := json.Unmarshal(data, respBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// HTTPError is a non-2xx response from the external service.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NetworkError is a transport-level failure (connection refused, timeout).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
