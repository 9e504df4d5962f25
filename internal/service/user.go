package service

import (
	"context"
	"strconv"

	"github.com/SarradaHub/pickup-game-manager/internal/biz"
	"github.com/SarradaHub/pickup-game-manager/internal/model"
	"github.com/SarradaHub/pickup-game-manager/internal/server/middleware"
	pkgerrors "github.com/SarradaHub/pickup-game-manager/pkg/errors"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// Operation names for middleware matching.
const (
	OperationGetUser = "/api.v1.UserService/GetUser"
	OperationMe      = "/api.v1.UserService/Me"
)

// UserService proxies read access to the identity service.
type UserService struct {
	auth   *biz.AuthGatewayUseCase
	logger *log.Helper
}

// NewUserService creates a new UserService instance.
func NewUserService(auth *biz.AuthGatewayUseCase, logger log.Logger) *UserService {
	return &UserService{
		auth:   auth,
		logger: log.NewHelper(logger),
	}
}

// userReply is the wire shape of a user in responses.
type userReply struct {
	ID    int64  `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// GetUser handles GET /api/v1/users/{id}.
func (s *UserService) GetUser(ctx khttp.Context) error {
	khttp.SetOperation(ctx, OperationGetUser)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		id, err := strconv.ParseInt(ctx.Vars().Get("id"), 10, 64)
		if err != nil || id <= 0 {
			return nil, kerrors.BadRequest("INVALID_USER_ID", "user id must be a positive integer")
		}
		user, err := s.auth.GetUser(c, id)
		if err != nil {
			if ge, ok := pkgerrors.IsGateway(err); ok && ge.StatusCode == 404 {
				return nil, kerrors.NotFound("USER_NOT_FOUND", "user not found")
			}
			s.logger.Warnw("msg", "failed to fetch user from identity service",
				"user_id", id,
				"error", err.Error())
			return nil, kerrors.New(502, "UPSTREAM_UNAVAILABLE", "identity service unavailable")
		}
		return user, nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}

	return ctx.Result(200, toUserReply(out.(*model.User)))
}

// Me handles GET /api/v1/me, returning the user resolved during
// authentication. No second identity call is made.
func (s *UserService) Me(ctx khttp.Context) error {
	khttp.SetOperation(ctx, OperationMe)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		user, ok := middleware.UserFromContext(c)
		if !ok {
			return nil, middleware.ErrUnauthorized
		}
		return user, nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}

	return ctx.Result(200, toUserReply(out.(*model.User)))
}

func toUserReply(u *model.User) *userReply {
	return &userReply{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}
