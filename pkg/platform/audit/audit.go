// Package audit records domain events (registrations, moves, deliveries,
// pickups, announcements) on a best-effort trail. Emission must never fail the
// business operation it describes; publishers log and drop on error.
package audit

import (
	"context"
	"time"
)

// Event kinds recorded by the application.
const (
	KindResidentRegistered  = "resident.registered"
	KindResidentMoved       = "resident.moved"
	KindDeliveryRegistered  = "delivery.registered"
	KindDeliveryPickedUp    = "delivery.picked_up"
	KindAnnouncementPosted  = "announcement.posted"
	KindEndpointSubscribed  = "endpoint.subscribed"
	KindEndpointUnsubscribe = "endpoint.unsubscribed"
)

// Event is one audit trail entry.
type Event struct {
	Kind    string            `json:"kind"`
	ActorID string            `json:"actor_id,omitempty"`
	Subject string            `json:"subject,omitempty"`
	Detail  map[string]string `json:"detail,omitempty"`
	At      time.Time         `json:"at"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher accepts events for asynchronous recording.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
