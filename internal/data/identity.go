package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/SarradaHub/pickup-game-manager/internal/conf"
	"github.com/SarradaHub/pickup-game-manager/internal/model"
	pkgerrors "github.com/SarradaHub/pickup-game-manager/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// validateResponse is the identity service's token validation body.
type validateResponse struct {
	Success bool `json:"success"`
	Data    struct {
		User json.RawMessage `json:"user"`
	} `json:"data"`
}

// userResponse is the identity service's user lookup body.
type userResponse struct {
	Data json.RawMessage `json:"data"`
}

// IdentityServiceClient calls the external identity service through the
// resilient client. Expected unavailability is reduced to values; the
// gateway boundary never sees an exception for a down identity service.
type IdentityServiceClient struct {
	client *ResilientClient
	cfg    *conf.Identity
	logger *log.Helper
}

// NewIdentityServiceClient creates the identity service client.
func NewIdentityServiceClient(cfg *conf.Identity, client *ResilientClient, logger log.Logger) *IdentityServiceClient {
	return &IdentityServiceClient{
		client: client,
		cfg:    cfg,
		logger: log.NewHelper(logger),
	}
}

// ValidateToken checks a bearer token against the identity service. Any
// failure mode (no endpoint, circuit open, transport fault, non-success
// body, malformed body) yields an invalid result with a reason.
func (c *IdentityServiceClient) ValidateToken(ctx context.Context, token string) *model.AuthResult {
	if token == "" {
		return &model.AuthResult{Valid: false, Error: "token required"}
	}

	resp, err := c.client.Call(ctx, c.cfg.ServiceName, http.MethodPost, "/api/v1/auth/validate",
		map[string]string{"token": token}, nil)
	if err != nil {
		return &model.AuthResult{Valid: false, Error: reasonFor(err)}
	}

	if !resp.Successful() {
		return &model.AuthResult{
			Valid: false,
			Error: fmt.Sprintf("token validation failed (status %d)", resp.StatusCode),
		}
	}

	var body validateResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		malformed := &pkgerrors.MalformedResponseError{Service: c.cfg.ServiceName, Err: err}
		c.logger.Errorw("msg", "identity service returned malformed body", "error", malformed.Error())
		return &model.AuthResult{Valid: false, Error: "malformed identity response"}
	}

	if !body.Success {
		return &model.AuthResult{Valid: false, Error: "token validation failed"}
	}

	user, err := decodeUser(body.Data.User)
	if err != nil {
		c.logger.Errorw("msg", "identity service returned malformed user", "error", err.Error())
		return &model.AuthResult{Valid: false, Error: "malformed identity response"}
	}

	return &model.AuthResult{Valid: true, User: user}
}

// GetUser fetches a user record authenticated with the service API key.
func (c *IdentityServiceClient) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + c.cfg.ServiceAPIKey,
	}

	resp, err := c.client.Call(ctx, c.cfg.ServiceName, http.MethodGet,
		fmt.Sprintf("/api/v1/users/%d", userID), nil, headers)
	if err != nil {
		c.logger.Warnw("msg", "user lookup failed", "user_id", userID, "error", err.Error())
		return nil, err
	}

	if !resp.Successful() {
		return nil, &pkgerrors.GatewayError{
			Service:    c.cfg.ServiceName,
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
		}
	}

	var body userResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, &pkgerrors.MalformedResponseError{Service: c.cfg.ServiceName, Err: err}
	}

	user, err := decodeUser(body.Data)
	if err != nil {
		return nil, &pkgerrors.MalformedResponseError{Service: c.cfg.ServiceName, Err: err}
	}
	return user, nil
}

// decodeUser parses the identity service's user object, keeping the raw
// body alongside the stable fields.
func decodeUser(raw json.RawMessage) (*model.User, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("user object missing")
	}

	var user model.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, err
	}
	user.Raw = raw
	return &user, nil
}

// reasonFor maps call-primitive errors onto the human-readable reasons
// surfaced in unauthorized responses.
func reasonFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, pkgerrors.ErrCircuitOpen):
		return "identity service temporarily unavailable"
	case errors.Is(err, pkgerrors.ErrServiceUnavailable):
		return "identity service unavailable"
	case pkgerrors.IsTransport(err):
		return "identity service unreachable"
	default:
		return err.Error()
	}
}
