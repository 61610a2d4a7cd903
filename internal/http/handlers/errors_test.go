package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"courtreserve/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respondTo(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	RespondDomainError(c, err)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestRespondDomainErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ValidationError{Field: "date"}, http.StatusBadRequest, "validation_error"},
		{domain.NotFoundError{Resource: "court"}, http.StatusNotFound, "not_found"},
		{domain.AuthorizationError{Err: domain.ErrUnauthenticated}, http.StatusUnauthorized, "unauthorized"},
		{domain.AuthorizationError{Action: "book", Err: domain.ErrUserBanned}, http.StatusForbidden, "user_banned"},
		{domain.ConflictError{Resource: "slots", Err: domain.ErrSlotsNoLongerAvailable}, http.StatusConflict, "slots_unavailable"},
		{domain.StoreError(errors.New("dial tcp")), http.StatusServiceUnavailable, "store_unavailable"},
		{domain.UpstreamError{Service: "payment gateway", Err: domain.ErrAmountMismatch}, http.StatusBadGateway, "amount_mismatch"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, body := respondTo(t, tc.err)
		assert.Equal(t, tc.status, status, "%v", tc.err)
		assert.Equal(t, tc.code, body.Code, "%v", tc.err)
	}
}

func TestRespondDomainErrorInternalMessage(t *testing.T) {
	err := fmt.Errorf("register: %w", domain.InternalError{Msg: "issue token", Err: errors.New("key too short")})
	status, body := respondTo(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal error: issue token", body.Error)
	assert.NotContains(t, body.Error, "key too short")

	_, body = respondTo(t, errors.New("secret detail"))
	assert.Equal(t, "internal error", body.Error)
}

func TestRespondDomainErrorCarriesReconciliationID(t *testing.T) {
	err := domain.WithReconciliation(domain.ConflictError{Resource: "slots", Err: domain.ErrSlotsNoLongerAvailable}, "rec-1")
	status, body := respondTo(t, err)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "rec-1", body.ReconciliationID)
}
