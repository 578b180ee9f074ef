package plivostream

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultUpgrader is the upgrader used by UpgradeHTTP. Media servers dial
// without a browser Origin header, so cross-origin checks are disabled.
// Replace it or call websocket.Upgrader yourself if you need stricter checks.
var DefaultUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// GorillaTransport adapts a framework-managed gorilla/websocket connection.
// Use it when the surrounding HTTP framework (net/http, gin, chi, ...) owns
// the route and the upgrade happens inside one of its handlers.
type GorillaTransport struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// NewGorillaTransport wraps an already-upgraded gorilla connection.
func NewGorillaTransport(conn *websocket.Conn) *GorillaTransport {
	return &GorillaTransport{conn: conn}
}

// UpgradeHTTP upgrades an HTTP request with DefaultUpgrader and returns the
// wrapped connection. Call it from any net/http-compatible handler:
//
//	r.GET("/stream", func(c *gin.Context) {
//		t, err := plivostream.UpgradeHTTP(c.Writer, c.Request)
//		...
//		_ = h.Serve(c.Request.Context(), t)
//	})
func UpgradeHTTP(w http.ResponseWriter, r *http.Request) (*GorillaTransport, error) {
	conn, err := DefaultUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewGorillaTransport(conn), nil
}

// ReadText returns the next inbound text frame, skipping binary and control
// frames. Cancellation reaches a blocked read through Close.
func (t *GorillaTransport) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for {
		typ, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				return "", io.EOF
			}
			return "", err
		}
		if typ != websocket.TextMessage {
			continue
		}
		return string(data), nil
	}
}

// WriteText sends one text frame, honoring the context deadline.
func (t *GorillaTransport) WriteText(ctx context.Context, text string) error {
	if d, ok := ctx.Deadline(); ok {
		if err := t.conn.SetWriteDeadline(d); err != nil {
			return err
		}
	}
	return t.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// SetReadLimit caps the size of a single inbound frame.
func (t *GorillaTransport) SetReadLimit(n int64) {
	t.conn.SetReadLimit(n)
}

// Close sends a best-effort close frame and tears down the connection.
// Safe to call multiple times and concurrently with a pending ReadText.
func (t *GorillaTransport) Close() error {
	t.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}
