package plivostream

import (
	"errors"
	"fmt"
)

// Common error variables
var (
	// ErrNotConnected is returned by send operations when the handler is not
	// in the connected state. No transport write is attempted.
	ErrNotConnected = errors.New("plivostream: not connected")

	// ErrAlreadyServing is returned when Serve is called on a handler that
	// already ran or is running its receive loop. Handlers are single-use.
	ErrAlreadyServing = errors.New("plivostream: handler already serving")

	// ErrNoStream is returned by send operations that need a stream identifier
	// before the start event has delivered one.
	ErrNoStream = errors.New("plivostream: streamId not available, wait for the start event")

	// ErrInvalidConfig is returned when required configuration fields are invalid.
	ErrInvalidConfig = errors.New("plivostream: invalid configuration")

	// ErrMalformedFrame indicates an inbound frame that could not be parsed
	// or classified. It is only ever delivered to error callbacks.
	ErrMalformedFrame = errors.New("plivostream: malformed frame")

	// ErrSendTimeout is returned when an outbound write exceeds the configured
	// send timeout.
	ErrSendTimeout = errors.New("plivostream: send timeout")
)

// ConfigError represents a configuration validation error.
// It reports which configuration field is invalid.
type ConfigError struct {
	Field   string // The configuration field that is invalid
	Value   string // The invalid value (if safe to log)
	Message string // Detailed error message
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("plivostream: invalid config field %q (value: %q): %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("plivostream: invalid config field %q: %s", e.Field, e.Message)
}

// Is implements error matching for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// ProtocolError reports an inbound frame the dispatcher could not process:
// invalid JSON, a non-object body, or a duplicate start frame. It is routed
// to error callbacks and never propagated out of the receive loop.
type ProtocolError struct {
	Reason string // Short description of what was wrong
	Raw    []byte // The offending frame as received
	Cause  error  // The underlying error, if any
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("plivostream: %s: %v", e.Reason, e.Cause)
	}
	return "plivostream: " + e.Reason
}

// Unwrap returns the underlying error.
func (e *ProtocolError) Unwrap() error { return e.Cause }

// Is implements error matching for ProtocolError.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrMalformedFrame
}

// ValidationError reports a recognized event whose payload failed shape
// validation. The typed callback for the event is not invoked.
type ValidationError struct {
	EventType EventType // The event type that failed validation
	Raw       []byte    // The offending frame as received
	Cause     error     // The validator or decoder error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("plivostream: invalid %s payload: %v", e.EventType, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error { return e.Cause }

// Is implements error matching for ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrMalformedFrame
}

// SendError represents a failure of an outbound send operation.
type SendError struct {
	EventType string // The outbound event type, e.g. "playAudio"
	Cause     error  // The underlying error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("plivostream: failed to send %s: %v", e.EventType, e.Cause)
}

// Unwrap returns the underlying error.
func (e *SendError) Unwrap() error { return e.Cause }

// CallbackError wraps a panic recovered from an application callback. It is
// routed to error callbacks so one failing callback cannot abort the receive
// loop or starve later callbacks for the same event.
type CallbackError struct {
	EventType EventType // The event whose callback panicked ("connected"/"disconnected" for lifecycle)
	Recovered any       // The recovered panic value
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("plivostream: %s callback panicked: %v", e.EventType, e.Recovered)
}

// Helper functions for creating specific errors

// NewProtocolError creates a new protocol error.
func NewProtocolError(reason string, raw []byte, cause error) *ProtocolError {
	return &ProtocolError{Reason: reason, Raw: raw, Cause: cause}
}

// NewValidationError creates a new payload validation error.
func NewValidationError(et EventType, raw []byte, cause error) *ValidationError {
	return &ValidationError{EventType: et, Raw: raw, Cause: cause}
}

// NewSendError creates a new send error.
func NewSendError(eventType string, cause error) *SendError {
	return &SendError{EventType: eventType, Cause: cause}
}
