package plivostream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// connState tracks the handler lifecycle: Idle until Serve is entered,
// Connected while the receive loop runs, Stopping after Stop is requested,
// Disconnected once the disconnect transition has fired. Disconnected is
// terminal; handlers are single-use.
type connState int

const (
	stateIdle connState = iota
	stateConnected
	stateStopping
	stateDisconnected
)

// Pseudo event types used for lifecycle callbacks in errors and logs.
const (
	eventConnected    EventType = "connected"
	eventDisconnected EventType = "disconnected"
	eventUnknown      EventType = "unknown"
)

// Handler adapts one WebSocket connection carrying the Plivo media-stream
// protocol to an event-callback interface. Register callbacks, then hand a
// Transport to Serve; frames are classified, validated, and fanned out to
// the registered callbacks one at a time, in arrival order.
//
// A Handler owns exactly one connection. Registration methods are safe for
// concurrent use; callbacks execute on the receive-loop goroutine and a slow
// callback delays the next frame.
type Handler struct {
	cfg      Config
	logger   *Logger
	connID   string
	validate *validator.Validate

	stateMu   sync.Mutex
	state     connState
	transport Transport

	writeMu sync.Mutex // serializes transport writes

	idMu      sync.RWMutex
	streamID  string
	callID    string
	accountID string

	// Callback registry. Slices preserve registration order; every
	// registered callback for an event is invoked.
	regMu          sync.RWMutex
	onStart        []func(StartEvent)
	onMedia        []func(MediaEvent)
	onDTMF         []func(DTMFEvent)
	onPlayedStream []func(PlayedStreamEvent)
	onClearedAudio []func(ClearedAudioEvent)
	onEvent        map[EventType][]func(Event)
	onUnknown      []func(Event)
	onConnected    []func()
	onDisconnected []func()
	onError        []func(error)
}

// New creates a handler with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config) (*Handler, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	h := &Handler{
		cfg:      cfg,
		connID:   uuid.NewString(),
		validate: validator.New(),
		onEvent:  make(map[EventType][]func(Event)),
	}
	h.logger = cfg.Logger.With(map[string]any{"conn_id": h.connID})
	return h, nil
}

// Callback registration methods. Multiple callbacks may be registered per
// event; each frame invokes all of them in registration order.

// OnStart registers a callback for the start event.
func (h *Handler) OnStart(fn func(StartEvent)) {
	h.regMu.Lock()
	defer h.regMu.Unlock()
	h.onStart = append(h.onStart, fn)
}

// OnMedia registers a callback for inbound audio chunks.
func (h *Handler) OnMedia(fn func(MediaEvent)) {
	h.regMu.Lock()
	defer h.regMu.Unlock()
	h.onMedia = append(h.onMedia, fn)
}

// OnDTMF registers a callback for detected DTMF digits.
func (h *Handler) OnDTMF(fn func(DTMFEvent)) {
	h.regMu.Lock()
	defer h.regMu.Unlock()
	h.onDTMF = append(h.onDTMF, fn)
}

// OnPlayedStream registers a callback for checkpoint echoes.
func (h *Handler) OnPlayedStream(fn func(PlayedStreamEvent)) {
	h.regMu.Lock()
	defer h.regMu.Unlock()
	h.onPlayedStream = append(h.onPlayedStream, fn)
}

// OnClearedAudio registers a callback for clearAudio acknowledgements.
func (h *Handler) OnClearedAudio(fn func(ClearedAudioEvent)) {
	h.regMu.Lock()
	defer h.regMu.Unlock()
	h.onClearedAudio = append(h.onClearedAudio, fn)
}

// OnEvent registers a generic callback for a recognized event type. Generic
// callbacks receive the raw classified frame and fire before payload
// validation, so they see frames whose typed callbacks are later suppressed.
func (h *Handler) OnEvent(et EventType, fn func(Event)) {
	h.regMu.Lock()
	defer h.regMu.Unlock()
	h.onEvent[et] = append(h.onEvent[et], fn)
}

// OnUnknown registers a callback for frames whose discriminator is missing
// or not a recognized event type. Such frames invoke no other callbacks.
func (h *Handler) OnUnknown(fn func(Event)) {
	h.regMu.Lock()
	defer h.regMu.Unlock()
	h.onUnknown = append(h.onUnknown, fn)
}

// OnConnected registers a callback invoked once when the receive loop starts.
func (h *Handler) OnConnected(fn func()) {
	h.regMu.Lock()
	defer h.regMu.Unlock()
	h.onConnected = append(h.onConnected, fn)
}

// OnDisconnected registers a callback invoked once when the connection ends,
// whether by transport closure, read error, or Stop.
func (h *Handler) OnDisconnected(fn func()) {
	h.regMu.Lock()
	defer h.regMu.Unlock()
	h.onDisconnected = append(h.onDisconnected, fn)
}

// OnError registers a callback for transport errors, malformed frames,
// payload validation failures, and recovered callback panics.
func (h *Handler) OnError(fn func(error)) {
	h.regMu.Lock()
	defer h.regMu.Unlock()
	h.onError = append(h.onError, fn)
}

// Accessors for the stream identifiers latched from the start event.
// They return the empty string until the start event arrives.

// StreamID returns the stream identifier, or "" before the start event.
func (h *Handler) StreamID() string {
	h.idMu.RLock()
	defer h.idMu.RUnlock()
	return h.streamID
}

// CallID returns the call identifier, or "" before the start event.
func (h *Handler) CallID() string {
	h.idMu.RLock()
	defer h.idMu.RUnlock()
	return h.callID
}

// AccountID returns the account identifier, or "" before the start event.
func (h *Handler) AccountID() string {
	h.idMu.RLock()
	defer h.idMu.RUnlock()
	return h.accountID
}

// Connected reports whether the receive loop is running and sends may be issued.
func (h *Handler) Connected() bool {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return h.state == stateConnected
}

// Serve runs the receive loop on the given transport. It fires connected
// callbacks once, reads text frames one at a time in arrival order,
// dispatches each through ProcessMessage, and fires disconnected callbacks
// exactly once on exit. Transport read errors are delivered to error
// callbacks, never returned.
//
// Serve blocks until the transport closes, the context is canceled, or Stop
// is called. A handler serves at most one connection; calling Serve again
// returns ErrAlreadyServing.
func (h *Handler) Serve(ctx context.Context, t Transport) error {
	if t == nil {
		return errors.New("plivostream: transport cannot be nil")
	}
	if ctx == nil {
		return errors.New("plivostream: context cannot be nil")
	}

	h.stateMu.Lock()
	if h.state != stateIdle {
		h.stateMu.Unlock()
		return ErrAlreadyServing
	}
	h.state = stateConnected
	h.transport = t
	h.stateMu.Unlock()

	if h.cfg.ReadLimit > 0 {
		if rl, ok := t.(interface{ SetReadLimit(int64) }); ok {
			rl.SetReadLimit(h.cfg.ReadLimit)
		}
	}

	h.logger.Info("stream_connected", nil)
	h.fireConnected()

	for {
		msg, err := t.ReadText(ctx)
		if err != nil {
			// io.EOF is the transports' signal for an orderly close; a
			// canceled context or a stop-induced closure is not a fault.
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) && h.Connected() {
				h.logger.Error("read_failed", map[string]any{"err": err.Error()})
				h.fireError(err)
			}
			break
		}
		if !h.Connected() {
			// Stopped while blocked in the read; the frame is dropped.
			h.logger.Debug("frame_dropped", map[string]any{"reason": "stopping"})
			break
		}
		h.ProcessMessage([]byte(msg))
		if !h.Connected() {
			// Stop was called from inside a callback. The in-flight frame
			// has finished dispatching; exit before reading the next one.
			break
		}
	}

	h.disconnect()
	return nil
}

// Stop requests the receive loop to exit. It is idempotent and safe to call
// from inside a callback or from any goroutine. In-flight dispatch completes;
// the disconnected transition then fires exactly once via the loop. Calling
// Stop before Serve marks the handler disconnected without firing callbacks.
func (h *Handler) Stop() {
	h.stateMu.Lock()
	switch h.state {
	case stateConnected:
		h.state = stateStopping
		t := h.transport
		h.stateMu.Unlock()
		h.logger.Info("stop_requested", nil)
		// Closing the transport unblocks a pending read.
		if t != nil {
			_ = t.Close()
		}
	case stateIdle:
		h.state = stateDisconnected
		h.stateMu.Unlock()
	default:
		h.stateMu.Unlock()
	}
}

// disconnect performs the Connected/Stopping -> Disconnected transition.
// Guarded so concurrent stop requests and loop exit fire callbacks once.
func (h *Handler) disconnect() {
	h.stateMu.Lock()
	if h.state == stateDisconnected {
		h.stateMu.Unlock()
		return
	}
	h.state = stateDisconnected
	t := h.transport
	h.transport = nil
	h.stateMu.Unlock()

	if t != nil {
		_ = t.Close()
	}
	h.logger.Info("stream_disconnected", nil)
	h.fireDisconnected()
}

// Send primitives. All of them require the Connected state and return a
// *SendError wrapping ErrNotConnected otherwise, without touching the
// transport. Write failures are also fanned out to error callbacks.

// SendMedia queues base64-encoded audio for playback on the stream.
// Defaults to audio/x-mulaw at 8000 Hz; override per call with
// WithContentType and WithSampleRate.
func (h *Handler) SendMedia(ctx context.Context, payload string, opts ...MediaOption) error {
	m := PlayAudioMedia{
		ContentType: DefaultContentType,
		SampleRate:  DefaultSampleRate,
		Payload:     payload,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return h.sendJSON(ctx, "playAudio", PlayAudioEvent{Event: "playAudio", Media: m})
}

// SendCheckpoint places a named marker in the playback queue. The media
// server echoes it back as a playedStream event once all audio queued before
// it has played. Requires the start event to have delivered a stream ID.
func (h *Handler) SendCheckpoint(ctx context.Context, name string) error {
	sid := h.StreamID()
	if sid == "" {
		return NewSendError("checkpoint", ErrNoStream)
	}
	return h.sendJSON(ctx, "checkpoint", CheckpointEvent{Event: "checkpoint", StreamID: sid, Name: name})
}

// SendClearAudio discards all audio queued for playback on the stream.
// Requires the start event to have delivered a stream ID.
func (h *Handler) SendClearAudio(ctx context.Context) error {
	sid := h.StreamID()
	if sid == "" {
		return NewSendError("clearAudio", ErrNoStream)
	}
	return h.sendJSON(ctx, "clearAudio", ClearAudioEvent{Event: "clearAudio", StreamID: sid})
}

// SendJSON serializes v and sends it as a single text frame.
func (h *Handler) SendJSON(ctx context.Context, v any) error {
	return h.sendJSON(ctx, "json", v)
}

// SendText sends a plain text frame as-is.
func (h *Handler) SendText(ctx context.Context, text string) error {
	return h.sendRaw(ctx, "text", text)
}

func (h *Handler) sendJSON(ctx context.Context, eventType string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return NewSendError(eventType, fmt.Errorf("marshal payload: %w", err))
	}
	return h.sendRaw(ctx, eventType, string(b))
}

func (h *Handler) sendRaw(ctx context.Context, eventType, text string) error {
	if ctx == nil {
		return NewSendError(eventType, errors.New("context cannot be nil"))
	}

	h.stateMu.Lock()
	t := h.transport
	connected := h.state == stateConnected
	h.stateMu.Unlock()
	if !connected || t == nil {
		return NewSendError(eventType, ErrNotConnected)
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, h.cfg.sendTimeout())
	defer cancel()

	if err := t.WriteText(ctx, text); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrSendTimeout
		}
		serr := NewSendError(eventType, err)
		h.logger.Error("send_failed", map[string]any{"event": eventType, "err": err.Error()})
		h.fireError(serr)
		return serr
	}
	h.logger.Debug("frame_sent", map[string]any{"event": eventType})
	return nil
}

// Callback fan-out. Snapshots of the registry are taken under the read lock
// so a callback may register further callbacks without deadlocking.

func (h *Handler) fireConnected() {
	h.regMu.RLock()
	cbs := append([]func(){}, h.onConnected...)
	h.regMu.RUnlock()
	for _, fn := range cbs {
		fn := fn
		h.safeInvoke(eventConnected, func() { fn() })
	}
}

func (h *Handler) fireDisconnected() {
	h.regMu.RLock()
	cbs := append([]func(){}, h.onDisconnected...)
	h.regMu.RUnlock()
	for _, fn := range cbs {
		fn := fn
		h.safeInvoke(eventDisconnected, func() { fn() })
	}
}

// fireError invokes every error callback. Panics inside error callbacks are
// swallowed after logging; routing them back through fireError would recurse.
func (h *Handler) fireError(err error) {
	h.regMu.RLock()
	cbs := append([]func(error){}, h.onError...)
	h.regMu.RUnlock()
	for _, fn := range cbs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					h.logger.Error("error_callback_panic", map[string]any{"panic": fmt.Sprint(r)})
				}
			}()
			fn(err)
		}()
	}
}

// safeInvoke runs one callback, converting a panic into a CallbackError
// routed to error callbacks so dispatch continues with the next callback.
func (h *Handler) safeInvoke(et EventType, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("callback_panic", map[string]any{"event": string(et), "panic": fmt.Sprint(r)})
			h.fireError(&CallbackError{EventType: et, Recovered: r})
		}
	}()
	fn()
}
