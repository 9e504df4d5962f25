package biz

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/SarradaHub/pickup-game-manager/internal/model"
	"github.com/SarradaHub/pickup-game-manager/internal/task"
	pkgerrors "github.com/SarradaHub/pickup-game-manager/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

const (
	// EventSource identifies this service in published events.
	EventSource = "pickup-game-manager"

	// SubjectPaymentReceived is the gateway subject for paid payments.
	SubjectPaymentReceived = "finance.payment.received.v1"

	// eventSchemaVersion is the current event envelope version.
	eventSchemaVersion = "v1"

	// deliveryMaxAttempts caps executor retries for configuration faults.
	deliveryMaxAttempts = 3
)

// PaymentRepo reads payment records for the delivery precondition check.
type PaymentRepo interface {
	Get(ctx context.Context, id int64) (*model.Payment, error)
}

// EventPublisher transmits one domain event to the event gateway.
type EventPublisher interface {
	Publish(ctx context.Context, event *model.DomainEvent) error
}

// DeadLetterStore records events that exhausted their delivery attempts.
type DeadLetterStore interface {
	Record(ctx context.Context, letter *model.DeadLetter) error
}

// DeliveryUseCase orchestrates retrying delivery of payment events. It is
// invoked by the task executor and must be safe to execute more than once
// for the same payment: delivery is at-least-once, and dedup is the event
// consumer's responsibility.
type DeliveryUseCase struct {
	payments    PaymentRepo
	publisher   EventPublisher
	deadLetters DeadLetterStore
	currency    string
	logger      *log.Helper
}

// NewDeliveryUseCase creates the delivery orchestrator.
func NewDeliveryUseCase(payments PaymentRepo, publisher EventPublisher, deadLetters DeadLetterStore, logger log.Logger) *DeliveryUseCase {
	currency := os.Getenv("PLATFORM_DEFAULT_CURRENCY")
	if currency == "" {
		currency = "BRL"
	}
	return &DeliveryUseCase{
		payments:    payments,
		publisher:   publisher,
		deadLetters: deadLetters,
		currency:    currency,
		logger:      log.NewHelper(logger),
	}
}

// Deliver publishes the payment-received event for one payment. The
// business fact is re-read at execution time: a payment that vanished or
// is no longer "paid" is skipped silently, with a log line, so stale
// re-deliveries never reach the gateway.
//
// A missing gateway endpoint is signalled retryable so the executor backs
// off and re-invokes; any other publish failure fails the unit of work
// outright.
func (uc *DeliveryUseCase) Deliver(ctx context.Context, paymentID int64) error {
	payment, err := uc.payments.Get(ctx, paymentID)
	if err != nil {
		if errors.Is(err, model.ErrPaymentNotFound) {
			uc.logger.Warnw("msg", "payment vanished before delivery, skipping",
				"payment_id", paymentID)
			return nil
		}
		return err
	}

	if payment.Status != model.PaymentStatusPaid {
		uc.logger.Infow("msg", "payment no longer paid, skipping delivery",
			"payment_id", paymentID,
			"status", payment.Status)
		return nil
	}

	event := uc.buildEvent(payment)
	if err := uc.publisher.Publish(ctx, event); err != nil {
		if errors.Is(err, pkgerrors.ErrMissingConfiguration) {
			return task.Retryable(err)
		}
		return err
	}

	uc.logger.Infow("msg", "payment event delivered",
		"payment_id", paymentID,
		"event_id", event.EventID,
		"subject", event.Subject)
	return nil
}

// NewDeliveryJob wraps Deliver as an executor job for the given payment.
// Exhausted attempts land in the dead-letter store so permanent failures
// stay visible to operators.
func (uc *DeliveryUseCase) NewDeliveryJob(paymentID int64) *task.Job {
	return &task.Job{
		Name:        "publish-payment-received",
		MaxAttempts: deliveryMaxAttempts,
		BaseDelay:   time.Second,
		Run: func(ctx context.Context) error {
			return uc.Deliver(ctx, paymentID)
		},
		OnExhausted: func(ctx context.Context, attempts int, err error) {
			letter := &model.DeadLetter{
				Subject:   SubjectPaymentReceived,
				PaymentID: paymentID,
				Attempts:  attempts,
				LastError: err.Error(),
				FailedAt:  time.Now(),
			}
			if recErr := uc.deadLetters.Record(ctx, letter); recErr != nil {
				uc.logger.Errorw("msg", "failed to record dead letter",
					"payment_id", paymentID,
					"error", recErr.Error())
			}
			uc.logger.Errorw("msg", "payment event delivery failed permanently",
				"payment_id", paymentID,
				"attempts", attempts,
				"error", err.Error())
		},
	}
}

// buildEvent assembles the wire payload for a paid payment.
func (uc *DeliveryUseCase) buildEvent(p *model.Payment) *model.DomainEvent {
	return &model.DomainEvent{
		EventID:       uuid.NewString(),
		SchemaVersion: eventSchemaVersion,
		OccurredAt:    time.Now().UTC(),
		Source:        EventSource,
		Subject:       SubjectPaymentReceived,
		Payload: map[string]any{
			"transactionId": strconv.FormatInt(p.ID, 10),
			"sourceSystem":  EventSource,
			"userId":        strconv.FormatInt(p.AthleteID, 10),
			"matchId":       strconv.FormatInt(p.MatchID, 10),
			"amount":        p.Amount,
			"currency":      uc.currency,
			"status":        "completed",
			"method":        "cash",
			"receivedAt":    p.UpdatedAt.UTC().Format(time.RFC3339),
			"metadata": map[string]any{
				"modality": p.Modality,
			},
		},
	}
}
