package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorCode defines standard error codes for programmatic handling
type ErrorCode string

const (
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"   // 400 - Malformed request
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"  // 401 - Not authenticated
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"     // 404 - Resource not found
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR" // 500 - Unexpected error
)

// ErrorResponse is the standard error response structure
type ErrorResponse struct {
	Error struct {
		Code    ErrorCode `json:"code"`    // Machine-readable error code
		Message string    `json:"message"` // Human-readable error message
	} `json:"error"`
}

// respondError is the internal helper for error responses
func respondError(c *gin.Context, status int, code ErrorCode, message string) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	c.JSON(status, resp)
}

// RespondBadRequest sends a 400 Bad Request error
func RespondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// RespondUnauthorized sends a 401 Unauthorized error
func RespondUnauthorized(c *gin.Context, message string) {
	respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// RespondNotFound sends a 404 Not Found error
func RespondNotFound(c *gin.Context, message string) {
	respondError(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// RespondInternalError sends a 500 Internal Server Error
func RespondInternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, ErrCodeInternal, message)
}
