// Package middleware provides HTTP middleware for authentication and
// request logging.
package middleware

import (
	"context"
	"strings"

	"github.com/SarradaHub/pickup-game-manager/internal/biz"
	"github.com/SarradaHub/pickup-game-manager/internal/model"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// userContextKey is the context key for the authenticated user.
const userContextKey contextKey = "auth_user"

// publicPaths are served without a token.
var publicPaths = map[string]bool{
	"/health": true,
}

// ErrUnauthorized is the error every authentication failure collapses
// into. Callers never learn whether the token was absent, malformed, or
// rejected upstream.
var ErrUnauthorized = kerrors.New(401, "UNAUTHORIZED", "Unauthorized")

// Auth returns an HTTP middleware that validates the bearer token of
// every request against the identity service and attaches the resolved
// user to the context.
func Auth(authUC *biz.AuthGatewayUseCase, logger log.Logger) middleware.Middleware {
	helper := log.NewHelper(logger)

	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}
			ht, ok := tr.(http.Transporter)
			if !ok {
				return handler(ctx, req)
			}

			httpReq := ht.Request()
			if publicPaths[httpReq.URL.Path] {
				return handler(ctx, req)
			}

			token, ok := bearerToken(httpReq.Header.Get("Authorization"))
			if !ok {
				helper.Debugw("msg", "request rejected, missing or malformed bearer token",
					"path", httpReq.URL.Path)
				return nil, ErrUnauthorized
			}

			result := authUC.Authenticate(ctx, token)
			if !result.Valid {
				helper.Infow("msg", "request rejected, token validation failed",
					"path", httpReq.URL.Path,
					"reason", result.Error)
				return nil, ErrUnauthorized
			}

			return handler(NewUserContext(ctx, result.User), req)
		}
	}
}

// bearerToken extracts the token from an Authorization header. The header
// must be exactly "Bearer <token>"; anything else is rejected rather than
// coerced.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// NewUserContext returns a context carrying the authenticated user.
func NewUserContext(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user attached by Auth.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	return user, ok && user != nil
}
