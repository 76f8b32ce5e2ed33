package llm

import "fmt"

// LLMError is the typed error for completion-provider failures.
type LLMError struct {
	Code    int    // error code, see ErrCode constants
	Message string // human-readable description
}

// Error implements the error interface.
func (e LLMError) Error() string {
	return fmt.Sprintf("llm error (code=%d): %s", e.Code, e.Message)
}

// Error codes.
const (
	ErrCodeInvalidAPIKey  = 1001 // credential rejected by the provider
	ErrCodeInvalidRequest = 1002 // malformed request
	ErrCodeNetworkError   = 1003 // transport failure
	ErrCodeRateLimited    = 1004 // provider rate limit hit
	ErrCodeServerError    = 1005 // provider-side failure
	ErrCodeTimeout        = 1006 // request deadline exceeded
	ErrCodeEmptyPrompt    = 1007 // nothing to send
)

// Error messages.
const (
	ErrMsgInvalidAPIKey = "invalid API key"
	ErrMsgRateLimited   = "too many requests, rate limit exceeded"
	ErrMsgTimeout       = "request timed out"
	ErrMsgEmptyPrompt   = "prompt cannot be empty"
)

// NewLLMError builds a typed provider error.
func NewLLMError(code int, message string) LLMError {
	return LLMError{Code: code, Message: message}
}

// ErrorCode extracts the LLMError code from err, or 0 when err is not a
// provider error.
func ErrorCode(err error) int {
	if llmErr, ok := err.(LLMError); ok {
		return llmErr.Code
	}
	return 0
}
