package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SarradaHub/pickup-game-manager/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// PaymentRepo implements biz.PaymentRepo on top of GORM.
type PaymentRepo struct {
	db     *gorm.DB
	logger *log.Helper
}

// NewPaymentRepo creates a new payment repository.
func NewPaymentRepo(db *gorm.DB, logger log.Logger) *PaymentRepo {
	return &PaymentRepo{
		db:     db,
		logger: log.NewHelper(logger),
	}
}

// Get loads one payment by id. A missing row maps to
// model.ErrPaymentNotFound so callers can distinguish a stale reference
// from an infrastructure fault.
func (r *PaymentRepo) Get(ctx context.Context, id int64) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrPaymentNotFound
		}
		r.logger.Errorf("failed to load payment %d: %v", id, err)
		return nil, fmt.Errorf("failed to load payment %d: %w", id, err)
	}
	return &payment, nil
}

// MarkPaid transitions a pending payment to paid. The status predicate in
// the WHERE clause makes the transition idempotent: a second call finds
// zero pending rows and returns the already-paid record unchanged.
func (r *PaymentRepo) MarkPaid(ctx context.Context, id int64) (*model.Payment, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, model.PaymentStatusPending).
		Updates(map[string]any{
			"status":     model.PaymentStatusPaid,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		r.logger.Errorf("failed to mark payment %d paid: %v", id, res.Error)
		return nil, fmt.Errorf("failed to mark payment %d paid: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the payment does not exist or it already left pending.
		payment, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return payment, nil
	}
	return r.Get(ctx, id)
}
