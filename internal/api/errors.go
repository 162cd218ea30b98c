package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wallet-watchdog/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses a JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Common error codes
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodePlanLimitExceeded = "PLAN_LIMIT_EXCEEDED"
	ErrCodeDuplicateEntry    = "DUPLICATE_ENTRY"
	ErrCodeAnalysisFailed    = "ANALYSIS_FAILED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodePaymentFailed     = "PAYMENT_FAILED"
)

// mapServiceError maps service errors to HTTP status codes.
func mapServiceError(err error) (int, string, string, map[string]interface{}) {
	var serviceErr *types.ServiceError
	if errors.As(err, &serviceErr) {
		switch serviceErr.Code {
		case "INVALID_ADDRESS", "INVALID_ADDRESS_FORMAT", "INVALID_CHAIN",
			"INVALID_PLAN", "INVALID_TAG", "INVALID_COMPARISON":
			return http.StatusBadRequest, ErrCodeInvalidInput, serviceErr.Message, serviceErr.Details
		case "REPORT_NOT_FOUND", "ENTRY_NOT_FOUND":
			return http.StatusNotFound, ErrCodeNotFound, serviceErr.Message, serviceErr.Details
		case "DUPLICATE_ENTRY":
			return http.StatusConflict, ErrCodeDuplicateEntry, serviceErr.Message, serviceErr.Details
		case "PLAN_LIMIT_EXCEEDED":
			return http.StatusForbidden, ErrCodePlanLimitExceeded, serviceErr.Message, serviceErr.Details
		case "UNAUTHORIZED":
			return http.StatusUnauthorized, ErrCodeUnauthorized, serviceErr.Message, serviceErr.Details
		case "ANALYSIS_FAILED":
			return http.StatusBadGateway, ErrCodeAnalysisFailed, serviceErr.Message, serviceErr.Details
		case "PAYMENT_FAILED":
			return http.StatusBadGateway, ErrCodePaymentFailed, serviceErr.Message, serviceErr.Details
		default:
			return http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred", nil
		}
	}

	return http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred", nil
}

// respondServiceError maps and sends a service error.
func respondServiceError(w http.ResponseWriter, err error) {
	statusCode, code, message, details := mapServiceError(err)
	respondError(w, statusCode, code, message, details)
}
