package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Typed UUID identifiers. Keeping each entity's id a distinct type prevents
// mixing up, say, a resident id and an apartment id at compile time.
type (
	ResidentID  uuid.UUID
	ApartmentID uuid.UUID
	BlockID     uuid.UUID
	IntervalID  uuid.UUID
	DeliveryID  uuid.UUID
	PickupID    uuid.UUID
	EndpointID  uuid.UUID
	SessionID   uuid.UUID
)

func (id ResidentID) String() string  { return uuid.UUID(id).String() }
func (id ApartmentID) String() string { return uuid.UUID(id).String() }
func (id BlockID) String() string     { return uuid.UUID(id).String() }
func (id IntervalID) String() string  { return uuid.UUID(id).String() }
func (id DeliveryID) String() string  { return uuid.UUID(id).String() }
func (id PickupID) String() string    { return uuid.UUID(id).String() }
func (id EndpointID) String() string  { return uuid.UUID(id).String() }
func (id SessionID) String() string   { return uuid.UUID(id).String() }

func (id ResidentID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ApartmentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id BlockID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id IntervalID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id DeliveryID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id PickupID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EndpointID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

func (id ResidentID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id ApartmentID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id BlockID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id IntervalID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id DeliveryID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id PickupID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id EndpointID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id SessionID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }

func (id *ResidentID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ApartmentID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *BlockID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *IntervalID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DeliveryID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PickupID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EndpointID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SessionID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }

// ParseResidentID parses a resident id from its string form.
func ParseResidentID(s string) (ResidentID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ResidentID{}, fmt.Errorf("invalid resident id %q: %w", s, err)
	}
	return ResidentID(u), nil
}

// ParseDeliveryID parses a delivery id from its string form.
func ParseDeliveryID(s string) (DeliveryID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return DeliveryID{}, fmt.Errorf("invalid delivery id %q: %w", s, err)
	}
	return DeliveryID(u), nil
}

// ParseApartmentID parses an apartment id from its string form.
func ParseApartmentID(s string) (ApartmentID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ApartmentID{}, fmt.Errorf("invalid apartment id %q: %w", s, err)
	}
	return ApartmentID(u), nil
}

// ParseSessionID parses a session id from its string form.
func ParseSessionID(s string) (SessionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, fmt.Errorf("invalid session id %q: %w", s, err)
	}
	return SessionID(u), nil
}

// ParseEndpointID parses a push endpoint id from its string form.
func ParseEndpointID(s string) (EndpointID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return EndpointID{}, fmt.Errorf("invalid endpoint id %q: %w", s, err)
	}
	return EndpointID(u), nil
}
