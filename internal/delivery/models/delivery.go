package models

import (
	"strings"
	"time"

	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
	platformstrings "fatepack/pkg/platform/strings"
)

// Block is a building within the condominium. Created on first reference and
// immutable afterwards.
type Block struct {
	ID        id.BlockID `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
}

// Apartment is one unit inside a block.
type Apartment struct {
	ID        id.ApartmentID `json:"id"`
	BlockID   id.BlockID     `json:"block_id"`
	Label     string         `json:"label"`
	CreatedAt time.Time      `json:"created_at"`
}

// Delivery is a package received at the front desk for an apartment. Core
// fields are immutable after creation; a pickup may be attached later.
type Delivery struct {
	ID          id.DeliveryID  `json:"id"`
	ApartmentID id.ApartmentID `json:"apartment_id"`
	Company     string         `json:"company"`
	Description string         `json:"description,omitempty"`
	ReceivedBy  string         `json:"received_by"`
	ReceivedAt  time.Time      `json:"received_at"`
	Pickup      *Pickup        `json:"pickup,omitempty"`
}

// Pickup records who collected a delivery and when.
type Pickup struct {
	ID         id.PickupID   `json:"id"`
	DeliveryID id.DeliveryID `json:"delivery_id"`
	PickedUpBy string        `json:"picked_up_by"`
	PickedUpAt time.Time     `json:"picked_up_at"`
}

// PickedUp reports whether the delivery has already been collected.
func (d *Delivery) PickedUp() bool {
	return d.Pickup != nil
}

// Visibility record interface. The resolver orders and deduplicates by Key.
func (d *Delivery) Key() string               { return d.ID.String() }
func (d *Delivery) Apartment() id.ApartmentID { return d.ApartmentID }
func (d *Delivery) OccurredAt() time.Time     { return d.ReceivedAt }

// NormalizeBlockKey reduces a human-entered block name to its canonical
// lookup key. "01", "bloco 01" and "Bloco 01" all refer to the same physical
// block, so the key strips the "bloco" prefix and lowercases the rest.
func NormalizeBlockKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if rest, ok := strings.CutPrefix(key, "bloco "); ok {
		key = strings.TrimSpace(rest)
	}
	return key
}

// NormalizeApartmentKey reduces a human-entered unit label to its canonical
// lookup key within a block.
func NormalizeApartmentKey(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// NewDelivery validates and constructs a delivery. The receiver name is
// capitalized for display consistency.
func NewDelivery(deliveryID id.DeliveryID, apartmentID id.ApartmentID, company, description, receivedBy string, receivedAt time.Time) (*Delivery, error) {
	company = strings.TrimSpace(company)
	receivedBy = strings.TrimSpace(receivedBy)
	if company == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "company is required")
	}
	if receivedBy == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "received_by is required")
	}
	if apartmentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "apartment is required")
	}
	return &Delivery{
		ID:          deliveryID,
		ApartmentID: apartmentID,
		Company:     company,
		Description: strings.TrimSpace(description),
		ReceivedBy:  platformstrings.Capitalize(receivedBy),
		ReceivedAt:  receivedAt,
	}, nil
}

// NewPickup validates and constructs a pickup event.
func NewPickup(pickupID id.PickupID, deliveryID id.DeliveryID, pickedUpBy string, pickedUpAt time.Time) (*Pickup, error) {
	if strings.TrimSpace(pickedUpBy) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "picked_up_by is required")
	}
	return &Pickup{
		ID:         pickupID,
		DeliveryID: deliveryID,
		PickedUpBy: platformstrings.Capitalize(pickedUpBy),
		PickedUpAt: pickedUpAt,
	}, nil
}
