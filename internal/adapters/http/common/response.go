// Package common holds the response envelope shared by the http
// package and handlers, kept separate so neither imports the other.
package common

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wallethub/ledgercore/internal/domain/ledgererrors"
)

// APIResponse is the one response shape every endpoint returns (spec §6):
// success with data, or failure with error detail.
type APIResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// APIError is the error payload for a failed response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Fields  []FieldError   `json:"fields,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// FieldError reports one request-body field's validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const RequestIDHeader = "X-Request-ID"

// GetRequestID reads the request id middleware stashed in the context.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDHeader); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// Success writes a successful response.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Data:      data,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// Error writes a failed response.
func Error(c *gin.Context, statusCode int, apiErr *APIError) {
	c.JSON(statusCode, APIResponse{
		Success:   false,
		Error:     apiErr,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// ValidationError writes a 400 with per-field detail.
func ValidationError(c *gin.Context, fields []FieldError) {
	Error(c, http.StatusBadRequest, &APIError{
		Code:    "VALIDATION_ERROR",
		Message: "request failed validation",
		Fields:  fields,
	})
}

// kindStatus maps the ledger's error taxonomy onto spec §6's status codes.
var kindStatus = map[ledgererrors.Kind]int{
	ledgererrors.KindValidation:          http.StatusBadRequest,
	ledgererrors.KindAccountNotFound:     http.StatusNotFound,
	ledgererrors.KindAssetMismatch:       http.StatusBadRequest,
	ledgererrors.KindInsufficientBalance: http.StatusUnprocessableEntity,
	ledgererrors.KindDuplicateReference:  http.StatusConflict,
	ledgererrors.KindConfiguration:       http.StatusInternalServerError,
	ledgererrors.KindUnavailable:         http.StatusServiceUnavailable,
}

// HandleLedgerError translates a core error into the matching HTTP
// response. Anything that doesn't carry a recognized Kind is a 500.
func HandleLedgerError(c *gin.Context, err error) {
	kind := ledgererrors.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		Error(c, http.StatusInternalServerError, &APIError{
			Code:    "INTERNAL_ERROR",
			Message: "an unexpected error occurred",
		})
		return
	}
	Error(c, status, &APIError{
		Code:    string(kind),
		Message: err.Error(),
	})
}
