package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a failure with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "GW-WIRE-4001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// Detailf is WithDetails with formatting.
func (e *DomainError) Detailf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Wire Codec Errors (WIRE)
// ============================================================================

var (
	// ErrUnknownTypeCode indicates a type code with no registered factory.
	// The connection that produced it is desynchronized.
	ErrUnknownTypeCode = NewDomainError("GW-WIRE-4001", "unknown message type code")

	// ErrDuplicateTypeCode indicates a second registration for a code.
	ErrDuplicateTypeCode = NewDomainError("GW-WIRE-4002", "message type code already registered")

	// ErrRegistrySealed indicates registration after the first codec use.
	ErrRegistrySealed = NewDomainError("GW-WIRE-4003", "message registry is sealed")

	// ErrInvalidTypeCode indicates a reserved or otherwise unusable code.
	ErrInvalidTypeCode = NewDomainError("GW-WIRE-4004", "invalid message type code")

	// ErrMessageInFlight indicates a new message was started before the
	// previous one finished.
	ErrMessageInFlight = NewDomainError("GW-WIRE-4090", "another message is in flight")

	// ErrCorruptedPayload indicates a chunked payload that cannot be
	// reconstructed.
	ErrCorruptedPayload = NewDomainError("GW-WIRE-4220", "corrupted chunked payload")
)

// ============================================================================
// Discovery Errors (DISC)
// ============================================================================

var (
	// ErrUnsupportedPayloadType indicates a payload type name or decoder
	// that is not present in the local lookup table.
	ErrUnsupportedPayloadType = NewDomainError("GW-DISC-4150", "unsupported payload type")

	// ErrIncompleteDeserialization indicates a byte fallback that could only
	// be partially decoded.
	ErrIncompleteDeserialization = NewDomainError("GW-DISC-4220", "incomplete deserialization")

	// ErrFallbackMarshal indicates the generic marshaller failed.
	ErrFallbackMarshal = NewDomainError("GW-DISC-5000", "fallback marshal failed")

	// ErrUnknownNode indicates a ring peer that is not a current member.
	ErrUnknownNode = NewDomainError("GW-DISC-4040", "unknown ring node")

	// ErrRingClosed indicates the ring processor has been stopped.
	ErrRingClosed = NewDomainError("GW-DISC-5030", "ring is closed")
)

// ============================================================================
// Metadata Errors (META)
// ============================================================================

var (
	// ErrMetadataNotFound indicates the binary type is not registered.
	ErrMetadataNotFound = NewDomainError("GW-META-4040", "binary metadata not found")

	// ErrMetadataRemovalRejected indicates the coordinator rejected a removal.
	ErrMetadataRemovalRejected = NewDomainError("GW-META-4090", "metadata removal rejected")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrBadRequest indicates malformed admin input.
	ErrBadRequest = NewDomainError("GW-SYS-4000", "bad request")

	// ErrUnauthorized indicates a missing or wrong admin token.
	ErrUnauthorized = NewDomainError("GW-SYS-4010", "unauthorized")

	// ErrTooManyRequests indicates the admin rate limit was hit.
	ErrTooManyRequests = NewDomainError("GW-SYS-4290", "too many requests")

	// ErrInternal indicates an unexpected server failure.
	ErrInternal = NewDomainError("GW-SYS-5000", "internal error")

	// ErrTimeout indicates an operation that did not complete in time.
	ErrTimeout = NewDomainError("GW-SYS-5040", "operation timed out")
)
