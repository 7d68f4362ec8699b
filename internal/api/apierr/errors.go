package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/questforge/pigateway/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeInvalidCredential     = "INVALID_CREDENTIAL"
	CodeRateLimited           = "RATE_LIMITED"
	CodeUpstreamUnavailable   = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamError         = "UPSTREAM_ERROR"
	CodeInvalidPaymentRequest = "INVALID_PAYMENT_REQUEST"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodePaymentNotComplete    = "PAYMENT_NOT_COMPLETE"
	CodePaymentNotFound       = "PAYMENT_NOT_FOUND"
	CodePlayerNotFound        = "PLAYER_NOT_FOUND"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeInternalError         = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError. Messages are fixed
// strings so upstream payloads and credentials never reach a client.
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrInvalidCredential):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredential, "Credential rejected"}}
	case errors.Is(err, model.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, model.ErrRateLimited):
		return &httpError{http.StatusTooManyRequests, APIError{CodeRateLimited, "Too many verification attempts"}}
	case errors.Is(err, model.ErrUpstreamUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeUpstreamUnavailable, "Payment network unavailable"}}
	case errors.Is(err, model.ErrUpstreamError):
		return &httpError{http.StatusBadGateway, APIError{CodeUpstreamError, "Payment network rejected the request"}}
	case errors.Is(err, model.ErrInvalidPaymentRequest):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPaymentRequest, "Invalid payment request"}}
	case errors.Is(err, model.ErrInvalidTransition):
		return &httpError{http.StatusConflict, APIError{CodeInvalidTransition, "Payment is not in a state that permits this action"}}
	case errors.Is(err, model.ErrPaymentNotComplete):
		return &httpError{http.StatusConflict, APIError{CodePaymentNotComplete, "Payment not yet confirmed; retry later"}}
	case errors.Is(err, model.ErrPaymentNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePaymentNotFound, "Payment not found"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
