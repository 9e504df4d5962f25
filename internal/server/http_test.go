package server

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/SarradaHub/pickup-game-manager/internal/server/middleware"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorEncoder_UnauthorizedEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	errorEncoder(rec, httptest.NewRequest("GET", "/api/v1/me", nil), middleware.ErrUnauthorized)

	assert.Equal(t, 401, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Unauthorized", body["message"])
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestErrorEncoder_NotFoundEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	errorEncoder(rec, httptest.NewRequest("GET", "/api/v1/users/99", nil),
		kerrors.NotFound("USER_NOT_FOUND", "user not found"))

	assert.Equal(t, 404, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "user not found", body["message"])
	assert.Equal(t, "USER_NOT_FOUND", body["code"])
}

func TestErrorEncoder_PlainErrorBecomesInternal(t *testing.T) {
	rec := httptest.NewRecorder()

	errorEncoder(rec, httptest.NewRequest("GET", "/api/v1/me", nil), errors.New("boom"))

	assert.Equal(t, 500, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
}
