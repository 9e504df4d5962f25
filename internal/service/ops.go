package service

import (
	"context"
	"strconv"

	"github.com/SarradaHub/pickup-game-manager/internal/biz"
	"github.com/SarradaHub/pickup-game-manager/internal/data"
	"github.com/SarradaHub/pickup-game-manager/internal/model"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// OperationDeadLetters names the dead-letter listing operation.
const OperationDeadLetters = "/api.v1.OpsService/DeadLetters"

// OpsService serves the health probe and operator endpoints.
type OpsService struct {
	detector    *biz.FaultDetector
	deadLetters *data.DeadLetterStore
	logger      *log.Helper
}

// NewOpsService creates a new OpsService instance.
func NewOpsService(detector *biz.FaultDetector, deadLetters *data.DeadLetterStore, logger log.Logger) *OpsService {
	return &OpsService{
		detector:    detector,
		deadLetters: deadLetters,
		logger:      log.NewHelper(logger),
	}
}

// healthReply is the health probe body. Circuit states are included so
// the registry's HTTP check doubles as a resilience dashboard.
type healthReply struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Circuits map[string]string `json:"circuits"`
}

// watchedServices are the upstreams whose circuit state the health probe
// reports.
var watchedServices = []string{"identity-service"}

// Health handles GET /health. It always reports ok: an open circuit to an
// upstream must not take this instance out of rotation.
func (s *OpsService) Health(ctx khttp.Context) error {
	circuits := make(map[string]string, len(watchedServices))
	for _, name := range watchedServices {
		circuits[name] = s.detector.State(name).Status.String()
	}
	return ctx.Result(200, &healthReply{
		Status:   "ok",
		Service:  biz.EventSource,
		Circuits: circuits,
	})
}

// deadLettersReply lists permanently failed deliveries.
type deadLettersReply struct {
	Success bool                `json:"success"`
	Data    []*model.DeadLetter `json:"data"`
}

// DeadLetters handles GET /api/v1/ops/dead-letters.
func (s *OpsService) DeadLetters(ctx khttp.Context) error {
	limit, _ := strconv.ParseInt(ctx.Query().Get("limit"), 10, 64)

	khttp.SetOperation(ctx, OperationDeadLetters)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		letters, err := s.deadLetters.Pending(c, limit)
		if err != nil {
			s.logger.Errorw("msg", "failed to list dead letters", "error", err.Error())
			return nil, kerrors.InternalServer("INTERNAL_ERROR", "failed to list dead letters")
		}
		return letters, nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}

	letters, _ := out.([]*model.DeadLetter)
	if letters == nil {
		letters = []*model.DeadLetter{}
	}
	return ctx.Result(200, &deadLettersReply{Success: true, Data: letters})
}
