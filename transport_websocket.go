package plivostream

import (
	"context"
	"io"
	"net/http"
	"sync"

	"nhooyr.io/websocket"
)

// WebsocketTransport adapts a connection from the standalone nhooyr.io
// websocket server library. Use it when the SDK owns the WebSocket endpoint
// rather than an HTTP framework.
type WebsocketTransport struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// NewWebsocketTransport wraps an accepted (or dialed) nhooyr connection.
func NewWebsocketTransport(conn *websocket.Conn) *WebsocketTransport {
	return &WebsocketTransport{conn: conn}
}

// AcceptHTTP accepts a WebSocket handshake and returns the wrapped
// connection. opts may be nil.
//
//	http.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
//		t, err := plivostream.AcceptHTTP(w, r, nil)
//		...
//		_ = h.Serve(r.Context(), t)
//	})
func AcceptHTTP(w http.ResponseWriter, r *http.Request, opts *websocket.AcceptOptions) (*WebsocketTransport, error) {
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		return nil, err
	}
	return NewWebsocketTransport(conn), nil
}

// ReadText returns the next inbound text frame, skipping binary frames.
func (t *WebsocketTransport) ReadText(ctx context.Context) (string, error) {
	for {
		typ, data, err := t.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return "", io.EOF
			}
			return "", err
		}
		if typ != websocket.MessageText {
			continue
		}
		return string(data), nil
	}
}

// WriteText sends one text frame.
func (t *WebsocketTransport) WriteText(ctx context.Context, text string) error {
	return t.conn.Write(ctx, websocket.MessageText, []byte(text))
}

// SetReadLimit caps the size of a single inbound frame.
func (t *WebsocketTransport) SetReadLimit(n int64) {
	t.conn.SetReadLimit(n)
}

// Close performs an orderly WebSocket closure. Safe to call multiple times
// and concurrently with a pending ReadText.
func (t *WebsocketTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.conn.Close(websocket.StatusNormalClosure, "stopping")
	})
	return t.closeErr
}
