// Package server wires the HTTP transport.
package server

import (
	"encoding/json"
	stdhttp "net/http"

	"github.com/SarradaHub/pickup-game-manager/internal/biz"
	"github.com/SarradaHub/pickup-game-manager/internal/conf"
	"github.com/SarradaHub/pickup-game-manager/internal/server/middleware"
	"github.com/SarradaHub/pickup-game-manager/internal/service"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer)

// errorEnvelope is the uniform failure body. Every error leaving this
// service, including 401s from the auth middleware, carries this shape.
type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// errorEncoder translates Kratos errors into the envelope.
func errorEncoder(w stdhttp.ResponseWriter, _ *stdhttp.Request, err error) {
	se := kerrors.FromError(err)
	body := &errorEnvelope{
		Success: false,
		Message: se.Message,
		Code:    se.Reason,
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(int(se.Code))
	_ = json.NewEncoder(w).Encode(body)
}

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *conf.Server,
	authUC *biz.AuthGatewayUseCase,
	payments *service.PaymentService,
	users *service.UserService,
	ops *service.OpsService,
	logger log.Logger,
) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			middleware.Logging(logger),
			middleware.Auth(authUC, logger),
		),
		http.ErrorEncoder(errorEncoder),
	}
	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, http.Timeout(c.Http.Timeout.AsDuration()))
	}
	srv := http.NewServer(opts...)

	r := srv.Route("/")
	r.GET("/health", ops.Health)
	r.POST("/api/v1/payments/{id}/paid", payments.MarkPaid)
	r.GET("/api/v1/users/{id}", users.GetUser)
	r.GET("/api/v1/me", users.Me)
	r.GET("/api/v1/ops/dead-letters", ops.DeadLetters)

	return srv
}
