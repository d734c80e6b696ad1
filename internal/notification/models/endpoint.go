package models

import (
	"strings"
	"time"

	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
)

// Endpoint is one registered push target for a resident. A resident may hold
// several (one per device). The URL and secret are opaque to us; only the
// transport knows what to do with them.
type Endpoint struct {
	ID         id.EndpointID `json:"id"`
	ResidentID id.ResidentID `json:"resident_id"`
	URL        string        `json:"url"`
	Secret     string        `json:"-"`
	Device     string        `json:"device,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Payload is the message pushed to endpoints.
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Validate rejects structurally empty payloads. Per-endpoint transport
// failures never surface as errors, so this is the only way Notify can fail.
func (p Payload) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "payload title is required")
	}
	return nil
}

// EndpointOutcome is the per-endpoint result of one fan-out.
type EndpointOutcome struct {
	EndpointID id.EndpointID `json:"endpoint_id"`
	OK         bool          `json:"ok"`
	// Gone marks endpoints the transport reported as permanently invalid,
	// so the caller can prune them from the store.
	Gone  bool   `json:"gone,omitempty"`
	Error string `json:"error,omitempty"`
}

// FanoutResult aggregates one settle-all dispatch.
type FanoutResult struct {
	Sent        int               `json:"sent"`
	Failed      int               `json:"failed"`
	PerEndpoint []EndpointOutcome `json:"per_endpoint"`
}

// NewEndpoint validates and constructs a push endpoint.
func NewEndpoint(endpointID id.EndpointID, residentID id.ResidentID, url, secret, device string, now time.Time) (*Endpoint, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "endpoint url is required")
	}
	if residentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resident id is required")
	}
	return &Endpoint{
		ID:         endpointID,
		ResidentID: residentID,
		URL:        url,
		Secret:     secret,
		Device:     device,
		CreatedAt:  now,
	}, nil
}
