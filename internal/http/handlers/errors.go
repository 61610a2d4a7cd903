package handlers

import (
	"errors"
	"net/http"

	"courtreserve/internal/domain"
	"courtreserve/internal/http/middleware"
	"courtreserve/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error            string `json:"error"`
	Code             string `json:"code,omitempty"`
	Details          any    `json:"details,omitempty"`
	ReconciliationID string `json:"reconciliation_id,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	respond(c, status, ErrorResponse{Error: message, Code: code, Details: details})
}

func respond(c *gin.Context, status int, resp ErrorResponse) {
	if resp.Code == "" {
		resp.Code = http.StatusText(status)
	}
	resp.RequestID = middleware.GetRequestID(c)
	c.AbortWithStatusJSON(status, resp)
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	recID := domain.ReconciliationOf(err)
	switch {
	case domain.IsValidation(err):
		var v domain.ValidationError
		errors.As(err, &v)
		respond(c, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "validation_error", Details: gin.H{"field": v.Field}})
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsAuthorization(err) && errors.Is(err, domain.ErrUnauthenticated):
		respondError(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case domain.IsAuthorization(err):
		code := "forbidden"
		if errors.Is(err, domain.ErrUserBanned) {
			code = "user_banned"
		}
		respondError(c, http.StatusForbidden, code, err.Error(), nil)
	case domain.IsConflict(err):
		respond(c, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: conflictCode(err), ReconciliationID: recID})
	case domain.IsUpstream(err) && errors.Is(err, domain.ErrStoreUnavailable):
		utils.LogError(middleware.GetRequestID(c), "http", c.FullPath(), err)
		respond(c, http.StatusServiceUnavailable, ErrorResponse{Error: "store unavailable, try again", Code: "store_unavailable", ReconciliationID: recID})
	case domain.IsUpstream(err):
		utils.LogError(middleware.GetRequestID(c), "http", c.FullPath(), err)
		respond(c, http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: upstreamCode(err), ReconciliationID: recID})
	case domain.IsInternal(err):
		var ie domain.InternalError
		errors.As(err, &ie)
		msg := "internal error"
		if ie.Msg != "" {
			msg += ": " + ie.Msg
		}
		utils.LogError(middleware.GetRequestID(c), "http", c.FullPath(), err)
		respondError(c, http.StatusInternalServerError, "internal_error", msg, nil)
	default:
		utils.LogError(middleware.GetRequestID(c), "http", c.FullPath(), err)
		respondError(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}

func conflictCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrSlotsNoLongerAvailable):
		return "slots_unavailable"
	case errors.Is(err, domain.ErrCodeExhausted):
		return "code_exhausted"
	case errors.Is(err, domain.ErrPaymentTokenUsed):
		return "payment_token_used"
	default:
		return "conflict"
	}
}

func upstreamCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrAmountMismatch):
		return "amount_mismatch"
	case errors.Is(err, domain.ErrPaymentNotCaptured):
		return "payment_not_captured"
	default:
		return "upstream_error"
	}
}
