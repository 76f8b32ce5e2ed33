package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/KuperOK/Translate-AI-helper/api/model"
)

// Error categories used across the API.
const (
	ErrorTypeValidation   = "VALIDATION_ERROR"
	ErrorTypeUnauthorized = "UNAUTHORIZED_ERROR"
	ErrorTypeNotFound     = "NOT_FOUND_ERROR"
	ErrorTypeConflict     = "CONFLICT_ERROR"
	ErrorTypeUpstream     = "UPSTREAM_ERROR"
	ErrorTypeInternal     = "INTERNAL_ERROR"
)

// AppError carries an error category and its HTTP status.
type AppError struct {
	Type    string
	Message string
	Details string
	Code    int
}

// Error implements the error interface.
func (e AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewValidationError builds a 400 error.
func NewValidationError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadRequest,
	}
}

// NewUnauthorizedError builds a 401 error.
func NewUnauthorizedError(message string) AppError {
	return AppError{Type: ErrorTypeUnauthorized, Message: message, Code: http.StatusUnauthorized}
}

// NewNotFoundError builds a 404 error.
func NewNotFoundError(message string) AppError {
	return AppError{Type: ErrorTypeNotFound, Message: message, Code: http.StatusNotFound}
}

// NewConflictError builds a 409 error.
func NewConflictError(message string) AppError {
	return AppError{Type: ErrorTypeConflict, Message: message, Code: http.StatusConflict}
}

// NewUpstreamError builds a 502 error for completion-provider failures.
func NewUpstreamError(message string) AppError {
	return AppError{Type: ErrorTypeUpstream, Message: message, Code: http.StatusBadGateway}
}

// NewInternalError builds a 500 error.
func NewInternalError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusInternalServerError,
	}
}

// ErrorHandler recovers panics and converts context errors into the common
// response envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.WithFields(logrus.Fields{
					"error": err,
					"stack": string(debug.Stack()),
					"path":  c.Request.URL.Path,
				}).Error("Panic recovered in API request")

				errResp := model.NewErrorResponse(
					http.StatusInternalServerError,
					"An unexpected error occurred",
				)
				if gin.Mode() == gin.DebugMode {
					errResp.Message = fmt.Sprintf("Panic: %v", err)
				}
				errResp.TraceID = traceID(c)

				c.AbortWithStatusJSON(http.StatusInternalServerError, errResp)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		id := traceID(c)

		var appErr AppError
		switch e := err.(type) {
		case AppError:
			appErr = e
		case *AppError:
			appErr = *e
		default:
			appErr = NewInternalError("Internal server error")
			if gin.Mode() == gin.DebugMode {
				appErr.Message = err.Error()
			}
		}

		log.WithFields(logrus.Fields{
			"error_type": appErr.Type,
			"trace_id":   id,
			"path":       c.Request.URL.Path,
		}).Error(appErr.Message)

		errResp := model.NewErrorResponse(appErr.Code, appErr.Message)
		errResp.TraceID = id

		c.AbortWithStatusJSON(appErr.Code, errResp)
	}
}

// HandleError attaches an error to the context for ErrorHandler.
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
}

func traceID(c *gin.Context) string {
	if v, exists := c.Get("TraceID"); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
