package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// ErrorType represents the failure kinds the engagement run distinguishes
type ErrorType string

const (
	ErrorTypeAuth              ErrorType = "auth"
	ErrorTypeRecoveryExhausted ErrorType = "recovery_exhausted"
	ErrorTypeRateLimit         ErrorType = "rate_limit"
	ErrorTypeExtractionEmpty   ErrorType = "extraction_empty"
	ErrorTypeGenerationTimeout ErrorType = "generation_timeout"
	ErrorTypeGeneration        ErrorType = "generation"
	ErrorTypeAction            ErrorType = "action"
	ErrorTypeScrollStall       ErrorType = "scroll_stall"
	ErrorTypeSessionInvalid    ErrorType = "session_invalid"
	ErrorTypeNetwork           ErrorType = "network"
	ErrorTypeConfig            ErrorType = "config"
	ErrorTypeUnsupported       ErrorType = "unsupported"
	ErrorTypeUnknown           ErrorType = "unknown"
)

// Error is a typed failure carrying an optional cause
type Error struct {
	Type    ErrorType
	Message string
	Stage   string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Type, e.Message)
	if e.Stage != "" {
		msg = fmt.Sprintf("%s error in %s: %s", e.Type, e.Stage, e.Message)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a typed error around a cause
func Wrap(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

func AuthenticationFailure(message string) *Error {
	return New(ErrorTypeAuth, message)
}

func RecoveryExhausted(message string, err error) *Error {
	return Wrap(ErrorTypeRecoveryExhausted, message, err)
}

func RateLimitSignal(message string) *Error {
	return New(ErrorTypeRateLimit, message)
}

func ActionFailure(message string, err error) *Error {
	return Wrap(ErrorTypeAction, message, err)
}

func GenerationFailure(message string, err error) *Error {
	return Wrap(ErrorTypeGeneration, message, err)
}

func GenerationTimeout(err error) *Error {
	return Wrap(ErrorTypeGenerationTimeout, "generation timed out", err)
}

func SessionInvalid(message string) *Error {
	return New(ErrorTypeSessionInvalid, message)
}

func PlatformNotSupported(platform string) *Error {
	return New(ErrorTypeUnsupported, fmt.Sprintf("platform not supported: %s", platform))
}

// TypeOf returns the ErrorType of the first typed error in the chain
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given type anywhere in its chain
func Is(err error, t ErrorType) bool {
	for err != nil {
		var typed *Error
		if !stderrors.As(err, &typed) {
			return false
		}
		if typed.Type == t {
			return true
		}
		err = typed.Err
	}
	return false
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeGeneration, ErrorTypeGenerationTimeout:
		return true
	case ErrorTypeAuth, ErrorTypeRecoveryExhausted, ErrorTypeRateLimit, ErrorTypeConfig, ErrorTypeUnsupported:
		return false
	default:
		return false
	}
}

// IsFatal reports whether the error type must abort the whole run
func IsFatal(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeAuth, ErrorTypeRecoveryExhausted, ErrorTypeConfig, ErrorTypeUnsupported:
		return true
	default:
		return false
	}
}

// IsTimeout reports whether err is a deadline expiry, typed or not
func IsTimeout(err error) bool {
	return stderrors.Is(err, context.DeadlineExceeded) || Is(err, ErrorTypeGenerationTimeout)
}
