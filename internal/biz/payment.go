package biz

import (
	"context"

	"github.com/SarradaHub/pickup-game-manager/internal/model"
	"github.com/SarradaHub/pickup-game-manager/internal/task"

	"github.com/go-kratos/kratos/v2/log"
)

// PaymentMutator transitions payment records.
type PaymentMutator interface {
	MarkPaid(ctx context.Context, id int64) (*model.Payment, error)
}

// PaymentUseCase handles the treasurer's mark-paid flow: persist the
// transition, then hand the event delivery to the background executor so
// the HTTP response never waits on the gateway.
type PaymentUseCase struct {
	payments PaymentMutator
	delivery *DeliveryUseCase
	executor *task.Executor
	logger   *log.Helper
}

// NewPaymentUseCase creates the payment use case.
func NewPaymentUseCase(payments PaymentMutator, delivery *DeliveryUseCase, executor *task.Executor, logger log.Logger) *PaymentUseCase {
	return &PaymentUseCase{
		payments: payments,
		delivery: delivery,
		executor: executor,
		logger:   log.NewHelper(logger),
	}
}

// MarkPaid marks one payment as paid and enqueues the payment-received
// event. The delivery job re-reads the record before publishing, so a
// concurrent reversal between commit and publish is handled there, not
// here.
func (uc *PaymentUseCase) MarkPaid(ctx context.Context, id int64) (*model.Payment, error) {
	payment, err := uc.payments.MarkPaid(ctx, id)
	if err != nil {
		return nil, err
	}

	if payment.Status == model.PaymentStatusPaid {
		if err := uc.executor.Submit(context.WithoutCancel(ctx), uc.delivery.NewDeliveryJob(id)); err != nil {
			// The payment is already committed; losing the enqueue is an
			// operational fault, not a request failure.
			uc.logger.Errorw("msg", "failed to enqueue payment event delivery",
				"payment_id", id,
				"error", err.Error())
		}
	}

	return payment, nil
}
