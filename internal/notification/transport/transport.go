// Package transport delivers push payloads to registered endpoints. The wire
// protocol is deliberately simple: an authenticated JSON POST to the opaque
// URL the client registered. Everything above this package treats transport
// as a black box.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fatepack/internal/notification/models"
)

//go:generate mockgen -source=transport.go -destination=mocks/mocks.go -package=mocks

// ErrEndpointGone marks an endpoint the remote side reports as permanently
// invalid (expired subscription, uninstalled app). Callers should prune it.
var ErrEndpointGone = errors.New("push endpoint gone")

// Transport pushes one payload to one endpoint.
type Transport interface {
	Push(ctx context.Context, endpoint *models.Endpoint, payload models.Payload) error
}

// HTTPTransport posts payloads over HTTP. The per-call timeout bounds
// worst-case fan-out latency: one slow endpoint must not stall the batch.
type HTTPTransport struct {
	client *http.Client
}

func NewHTTP(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTransport{client: &http.Client{Timeout: timeout}}
}

func (t *HTTPTransport) Push(ctx context.Context, endpoint *models.Endpoint, payload models.Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if endpoint.Secret != "" {
		req.Header.Set("Authorization", "Bearer "+endpoint.Secret)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("push to endpoint: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("endpoint %s: %w", endpoint.URL, ErrEndpointGone)
	default:
		return fmt.Errorf("push to endpoint: unexpected status %d", resp.StatusCode)
	}
}
