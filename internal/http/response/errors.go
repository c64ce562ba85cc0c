package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/payments"
	"github.com/diagnosis/inkbook/internal/storage"
	"github.com/diagnosis/inkbook/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Common error codes
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeRateLimit          = "RATE_LIMIT_EXCEEDED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeSlotUnavailable    = "SLOT_UNAVAILABLE"
	CodeSlotExists         = "SLOT_EXISTS"
	CodeAgeVerification    = "AGE_VERIFICATION_REQUIRED"
	CodeUnderage           = "UNDERAGE"
	CodeWaiverRequired     = "WAIVER_REQUIRED"
	CodeCancelWindowClosed = "CANCEL_WINDOW_CLOSED"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
	CodePaymentFailed      = "PAYMENT_FAILED"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	JSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WriteErrorWithDetails writes a structured JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string) {
	JSON(w, statusCode, ErrorResponse{Error: message, Code: code, Details: details})
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message, CodeConflict)
}

type mapping struct {
	err    error
	status int
	code   string
}

var errorTable = []mapping{
	{domain.ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthorized},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, CodeUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden, CodeForbidden},
	{domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrUserExists, http.StatusConflict, CodeEmailExists},
	{domain.ErrSlotUnavailable, http.StatusConflict, CodeSlotUnavailable},
	{domain.ErrSlotExists, http.StatusConflict, CodeSlotExists},
	{domain.ErrConflict, http.StatusConflict, CodeConflict},
	{domain.ErrAgeVerification, http.StatusForbidden, CodeAgeVerification},
	{domain.ErrUnderage, http.StatusForbidden, CodeUnderage},
	{domain.ErrWaiverRequired, http.StatusPreconditionRequired, CodeWaiverRequired},
	{domain.ErrCancelWindowClosed, http.StatusConflict, CodeCancelWindowClosed},
	{domain.ErrPaymentFailed, http.StatusBadGateway, CodePaymentFailed},
	{payments.ErrNotConfigured, http.StatusServiceUnavailable, CodeUnavailable},
	{storage.ErrNotConfigured, http.StatusServiceUnavailable, CodeUnavailable},
}

// FromError maps a service error to its HTTP status. Unknown errors are logged and hidden behind a 500.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		BadRequest(w, ve.Error())
		return
	}
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			WriteError(w, m.status, m.err.Error(), m.code)
			return
		}
	}
	logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
	InternalError(w, "internal server error")
}
