package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ApiError error carrying its HTTP status and machine readable code
type ApiError struct {
	StatusCode int
	Message    string
	ErrorCode  string
	Details    interface{}
}

// Error implements error
func (e *ApiError) Error() string {
	return e.Message
}

// NewApiError creates an API error
func NewApiError(message string, statusCode int, errorCode string) *ApiError {
	return &ApiError{
		StatusCode: statusCode,
		Message:    message,
		ErrorCode:  errorCode,
	}
}

// WithDetails attaches extra payload returned next to the error
func (e *ApiError) WithDetails(details interface{}) *ApiError {
	e.Details = details
	return e
}

// CreateNotFoundError resource does not exist
func CreateNotFoundError(resource string) *ApiError {
	return NewApiError(resource+" not found", http.StatusNotFound, "RESOURCE_NOT_FOUND")
}

// CreateUnauthorizedError caller is not authenticated
func CreateUnauthorizedError() *ApiError {
	return NewApiError("unauthorized", http.StatusUnauthorized, "UNAUTHORIZED")
}

// CreateForbiddenError caller lacks the capability
func CreateForbiddenError() *ApiError {
	return NewApiError("insufficient permission", http.StatusForbidden, "INSUFFICIENT_PERMISSION")
}

// CreateBadRequestError malformed request
func CreateBadRequestError(message string) *ApiError {
	return NewApiError(message, http.StatusBadRequest, "BAD_REQUEST")
}

// CreateValidationError request failed a domain rule
func CreateValidationError(message string) *ApiError {
	return NewApiError(message, http.StatusBadRequest, "VALIDATION_FAILED")
}

// HandleError logs err and writes the matching error response
func HandleError(c *gin.Context, err error) {
	if c == nil || err == nil {
		return
	}

	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		event := Logger.Warn()
		if apiErr.StatusCode >= http.StatusInternalServerError {
			event = Logger.Error()
		}
		event.Err(err).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Str("code", apiErr.ErrorCode).
			Msg("api error")

		response := gin.H{"success": false, "error": apiErr.Message}
		if apiErr.ErrorCode != "" {
			response["code"] = apiErr.ErrorCode
		}
		if apiErr.Details != nil {
			response["details"] = apiErr.Details
		}
		c.AbortWithStatusJSON(apiErr.StatusCode, response)
		return
	}

	LogError(err, map[string]interface{}{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}, "unexpected api error")

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   err.Error(),
		"code":    "INTERNAL_ERROR",
	})
}

// SuccessResponse writes the success envelope
func SuccessResponse(c *gin.Context, data interface{}, message string, statusCode ...int) {
	code := http.StatusOK
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	response := gin.H{"success": true}
	if data != nil {
		response["data"] = data
	}
	if message != "" {
		response["message"] = message
	}

	c.JSON(code, response)
}

// ErrorResponse writes a plain error envelope
func ErrorResponse(c *gin.Context, message string, statusCode int) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   message,
	})
}
