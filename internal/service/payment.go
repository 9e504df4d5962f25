package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/SarradaHub/pickup-game-manager/internal/biz"
	"github.com/SarradaHub/pickup-game-manager/internal/model"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// OperationMarkPaymentPaid names the mark-paid operation for middleware
// matching.
const OperationMarkPaymentPaid = "/api.v1.PaymentService/MarkPaid"

// PaymentService handles the treasurer's payment endpoints.
type PaymentService struct {
	uc     *biz.PaymentUseCase
	logger *log.Helper
}

// NewPaymentService creates a new PaymentService instance.
func NewPaymentService(uc *biz.PaymentUseCase, logger log.Logger) *PaymentService {
	return &PaymentService{
		uc:     uc,
		logger: log.NewHelper(logger),
	}
}

// paymentReply is the wire shape of a payment in responses.
type paymentReply struct {
	ID        int64   `json:"id"`
	AthleteID int64   `json:"athleteId"`
	MatchID   int64   `json:"matchId"`
	Amount    float64 `json:"amount"`
	Modality  string  `json:"modality"`
	Status    string  `json:"status"`
	UpdatedAt string  `json:"updatedAt"`
}

// markPaidReply wraps the payment with the uniform success flag.
type markPaidReply struct {
	Success bool          `json:"success"`
	Data    *paymentReply `json:"data"`
}

// MarkPaid handles POST /api/v1/payments/{id}/paid.
func (s *PaymentService) MarkPaid(ctx khttp.Context) error {
	khttp.SetOperation(ctx, OperationMarkPaymentPaid)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		id, err := strconv.ParseInt(ctx.Vars().Get("id"), 10, 64)
		if err != nil || id <= 0 {
			return nil, kerrors.BadRequest("INVALID_PAYMENT_ID", "payment id must be a positive integer")
		}
		payment, err := s.uc.MarkPaid(c, id)
		if err != nil {
			if errors.Is(err, model.ErrPaymentNotFound) {
				return nil, kerrors.NotFound("PAYMENT_NOT_FOUND", "payment not found")
			}
			s.logger.Errorw("msg", "failed to mark payment paid",
				"payment_id", id,
				"error", err.Error())
			return nil, kerrors.InternalServer("INTERNAL_ERROR", "failed to update payment")
		}
		return payment, nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}

	payment := out.(*model.Payment)
	return ctx.Result(200, &markPaidReply{
		Success: true,
		Data:    toPaymentReply(payment),
	})
}

func toPaymentReply(p *model.Payment) *paymentReply {
	return &paymentReply{
		ID:        p.ID,
		AthleteID: p.AthleteID,
		MatchID:   p.MatchID,
		Amount:    p.Amount,
		Modality:  p.Modality,
		Status:    p.Status,
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
