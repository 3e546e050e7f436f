package types

import (
	"encoding/json"
	"time"
)

// ActionKind tags a pending action with the mutation it proposes.
type ActionKind string

const (
	KindReservation    ActionKind = "reservation"
	KindOrder          ActionKind = "order"
	KindBooking        ActionKind = "booking"
	KindPickup         ActionKind = "pickup"
	KindAppointment    ActionKind = "appointment"
	KindClaim          ActionKind = "claim"
	KindContactRequest ActionKind = "contact-request"
)

// ActionStatus is the lifecycle state of a pending action.
type ActionStatus string

const (
	StatusPending   ActionStatus = "pending"
	StatusConfirmed ActionStatus = "confirmed"
	StatusCancelled ActionStatus = "cancelled"
)

// PendingAction is a proposed mutation awaiting explicit user confirmation.
// At most one exists per session; a newer preview replaces an older one.
type PendingAction struct {
	ID        string          `json:"id"`
	Kind      ActionKind      `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Summary   string          `json:"summary"`
	Status    ActionStatus    `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// DecodePayload unmarshals the staged payload into v.
func (p *PendingAction) DecodePayload(v any) error {
	return json.Unmarshal(p.Payload, v)
}
