package biz

import (
	"context"

	"github.com/SarradaHub/pickup-game-manager/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// IdentityClient talks to the external identity service. Implementations
// reduce transport failures to values: ValidateToken never returns an
// error for expected unavailability, only an invalid result with a reason.
type IdentityClient interface {
	// ValidateToken checks a bearer token against the identity service.
	ValidateToken(ctx context.Context, token string) *model.AuthResult

	// GetUser fetches a user record using the service API key. Returns
	// nil when the user cannot be resolved.
	GetUser(ctx context.Context, userID int64) (*model.User, error)
}

// AuthGatewayUseCase gates inbound requests that require authentication.
// Internal failure distinctions (circuit open, transport error, bad body)
// collapse into a uniform unauthorized outcome at this boundary; only a
// human-readable reason survives.
type AuthGatewayUseCase struct {
	identity IdentityClient
	logger   *log.Helper
}

// NewAuthGatewayUseCase creates the authentication gateway use case.
func NewAuthGatewayUseCase(identity IdentityClient, logger log.Logger) *AuthGatewayUseCase {
	return &AuthGatewayUseCase{
		identity: identity,
		logger:   log.NewHelper(logger),
	}
}

// Authenticate validates a bearer token. An empty token is rejected
// immediately without any outbound call.
func (uc *AuthGatewayUseCase) Authenticate(ctx context.Context, token string) *model.AuthResult {
	if token == "" {
		return &model.AuthResult{Valid: false, Error: "token required"}
	}

	result := uc.identity.ValidateToken(ctx, token)
	if !result.Valid {
		uc.logger.Warnw("msg", "token validation failed", "reason", result.Error)
	}
	return result
}

// GetUser resolves a user record through the identity service.
func (uc *AuthGatewayUseCase) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return uc.identity.GetUser(ctx, userID)
}
