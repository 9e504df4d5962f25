package model

import "time"

// DomainEvent is an immutable business fact bound for the event gateway.
// The subject selects the gateway route and is not part of the wire body.
type DomainEvent struct {
	EventID       string         `json:"eventId"`
	SchemaVersion string         `json:"schemaVersion"`
	OccurredAt    time.Time      `json:"occurredAt"`
	Source        string         `json:"source"`
	Subject       string         `json:"-"`
	Payload       map[string]any `json:"payload"`
}

// DeadLetter is the operator-visible record of an event that exhausted its
// delivery attempts. It is stored, never silently dropped.
type DeadLetter struct {
	EventID   string    `json:"event_id"`
	Subject   string    `json:"subject"`
	PaymentID int64     `json:"payment_id"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
	FailedAt  time.Time `json:"failed_at"`
}
