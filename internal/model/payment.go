package model

import (
	"errors"
	"time"
)

// Payment statuses. Only the transition to paid produces a domain event.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// ErrPaymentNotFound is returned when a payment id resolves to nothing.
// The delivery orchestrator treats it as a stale reference, not a fault.
var ErrPaymentNotFound = errors.New("payment not found")

// Payment is the minimal record shape the resilience layer needs: enough
// to re-check the business precondition and build the event payload. The
// full treasurer CRUD owns the rest of the schema.
type Payment struct {
	ID        int64     `gorm:"primaryKey"`
	AthleteID int64     `gorm:"column:athlete_id"`
	MatchID   int64     `gorm:"column:match_id"`
	Amount    float64   `gorm:"column:amount"`
	Modality  string    `gorm:"column:modality"`
	Status    string    `gorm:"column:status"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName sets the gorm table name.
func (Payment) TableName() string {
	return "payments"
}
