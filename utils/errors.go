package utils

import (
	"errors"
	"fmt"
)

// CustomError carries an HTTP status code alongside the message so the error
// middleware can map it straight onto a response.
type CustomError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

func (e *CustomError) Error() string {
	return e.Message
}

// NewCustomError is a helper to build a CustomError.
func NewCustomError(statusCode int, message string) *CustomError {
	return &CustomError{StatusCode: statusCode, Message: message}
}

// Pipeline stage outcomes. Stages convert their local failures into one of
// these so the orchestrator can tell an unreachable site from a site that is
// reachable but has no menu.
var (
	ErrNetworkUnreachable     = errors.New("site unreachable")
	ErrBotProtectionDetected  = errors.New("bot protection detected")
	ErrBinaryContentDetected  = errors.New("binary content detected")
	ErrMenuNotFound           = errors.New("menu not found")
	ErrExtractionInsufficient = errors.New("extraction insufficient")
	ErrSelectionEmpty         = errors.New("restaurant selection is empty")
	ErrSelectionTooLarge      = errors.New("restaurant selection exceeds the limit")
)

// AIErrorClass partitions AI provider failures. Only payload-too-large stops
// the model-list fallback early; everything else moves on to the next model.
type AIErrorClass int

const (
	AIErrUnknown AIErrorClass = iota
	AIErrTimeout
	AIErrRateLimited
	AIErrInvalidCredentials
	AIErrMalformedResponse
	AIErrPayloadTooLarge
)

func (c AIErrorClass) String() string {
	switch c {
	case AIErrTimeout:
		return "timeout"
	case AIErrRateLimited:
		return "rate-limited"
	case AIErrInvalidCredentials:
		return "invalid-credentials"
	case AIErrMalformedResponse:
		return "malformed-response"
	case AIErrPayloadTooLarge:
		return "payload-too-large"
	default:
		return "unknown"
	}
}

// AIProviderError wraps a failure from the completion provider with its class
// and the model that produced it.
type AIProviderError struct {
	Class AIErrorClass
	Model string
	Err   error
}

func (e *AIProviderError) Error() string {
	return fmt.Sprintf("ai provider error (%s, model=%s): %v", e.Class, e.Model, e.Err)
}

func (e *AIProviderError) Unwrap() error {
	return e.Err
}

// AIErrorClassOf extracts the class from an error chain.
func AIErrorClassOf(err error) AIErrorClass {
	var aiErr *AIProviderError
	if errors.As(err, &aiErr) {
		return aiErr.Class
	}
	return AIErrUnknown
}
