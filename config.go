package plivostream

import "time"

// DefaultSendTimeout bounds each outbound write when Config.SendTimeout is zero.
const DefaultSendTimeout = 15 * time.Second

// Config holds the options for creating a streaming handler.
// The zero value is valid: no logging, default timeouts, no read limit.
type Config struct {
	// Logger receives structured operational events (stream_connected,
	// bad_event_json, callback_panic, ...). If nil, no logging occurs.
	// Use NewLogger or NewLoggerFromEnv to create one.
	Logger *Logger

	// ReadLimit caps the size of a single inbound frame in bytes.
	// Zero keeps the transport's default. Media frames carry base64 audio,
	// so anything below a few KiB will starve the stream.
	ReadLimit int64

	// SendTimeout bounds each outbound write. Zero applies DefaultSendTimeout.
	SendTimeout time.Duration
}

// ValidateConfig checks a configuration for invalid field values.
func ValidateConfig(cfg Config) error {
	if cfg.ReadLimit < 0 {
		return &ConfigError{Field: "ReadLimit", Message: "cannot be negative"}
	}
	if cfg.SendTimeout < 0 {
		return &ConfigError{Field: "SendTimeout", Value: cfg.SendTimeout.String(), Message: "cannot be negative"}
	}
	return nil
}

func (c Config) sendTimeout() time.Duration {
	if c.SendTimeout > 0 {
		return c.SendTimeout
	}
	return DefaultSendTimeout
}
