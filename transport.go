package plivostream

import "context"

// Transport is the capability set a handler needs from its hosting
// environment: receive the next text frame, send a text frame, close.
// Two implementations ship with the SDK — GorillaTransport for sockets
// managed by an HTTP framework, and WebsocketTransport for the standalone
// server library — and both delegate all dispatch to the Handler.
//
// ReadText blocks until a text frame arrives, skipping non-text frames.
// It returns io.EOF on orderly connection closure; any other error is a
// transport fault. Close must be safe to call concurrently with a pending
// ReadText and must unblock it; repeated Close calls are no-ops.
type Transport interface {
	ReadText(ctx context.Context) (string, error)
	WriteText(ctx context.Context, text string) error
	Close() error
}
