package plivostream

import "encoding/json"

// ProcessMessage classifies one inbound text frame, validates its payload,
// and invokes the matching callbacks. It never returns an error and never
// panics: parse and validation failures are routed to error callbacks, and
// a panicking callback is recovered and routed the same way before dispatch
// continues with the next registered callback.
//
// Frames arriving after the disconnected transition are dropped without
// invoking any callback.
func (h *Handler) ProcessMessage(raw []byte) {
	h.stateMu.Lock()
	drop := h.state == stateStopping || h.state == stateDisconnected
	h.stateMu.Unlock()
	if drop {
		h.logger.Debug("frame_dropped", map[string]any{"reason": "disconnected"})
		return
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.logger.Warn("bad_event_json", map[string]any{"err": err.Error()})
		h.fireError(NewProtocolError("invalid JSON frame", raw, err))
		return
	}

	et := EventType(env.Event)
	if env.Event == "" || !knownEventTypes[et] {
		h.logger.Debug("unknown_event", map[string]any{"event": env.Event})
		h.dispatchUnknown(Event{Type: et, Raw: raw})
		return
	}

	h.logger.Debug("frame_received", map[string]any{"event": env.Event})

	// Generic per-type callbacks see the classified frame before payload
	// validation, so they observe frames whose typed callbacks get suppressed.
	h.dispatchGeneric(et, Event{Type: et, Raw: raw})

	switch et {
	case EventStart:
		var e StartEvent
		if !h.decode(et, raw, &e) {
			return
		}
		if !h.latchIdentifiers(e.Start) {
			h.logger.Warn("duplicate_start", map[string]any{"stream_id": e.Start.StreamID})
			h.fireError(NewProtocolError("duplicate start frame", raw, nil))
			return
		}
		h.regMu.RLock()
		cbs := append([]func(StartEvent){}, h.onStart...)
		h.regMu.RUnlock()
		for _, fn := range cbs {
			fn := fn
			h.safeInvoke(et, func() { fn(e) })
		}

	case EventMedia:
		var e MediaEvent
		if !h.decode(et, raw, &e) {
			return
		}
		h.regMu.RLock()
		cbs := append([]func(MediaEvent){}, h.onMedia...)
		h.regMu.RUnlock()
		for _, fn := range cbs {
			fn := fn
			h.safeInvoke(et, func() { fn(e) })
		}

	case EventDTMF:
		var e DTMFEvent
		if !h.decode(et, raw, &e) {
			return
		}
		h.regMu.RLock()
		cbs := append([]func(DTMFEvent){}, h.onDTMF...)
		h.regMu.RUnlock()
		for _, fn := range cbs {
			fn := fn
			h.safeInvoke(et, func() { fn(e) })
		}

	case EventPlayedStream:
		var e PlayedStreamEvent
		if !h.decode(et, raw, &e) {
			return
		}
		h.regMu.RLock()
		cbs := append([]func(PlayedStreamEvent){}, h.onPlayedStream...)
		h.regMu.RUnlock()
		for _, fn := range cbs {
			fn := fn
			h.safeInvoke(et, func() { fn(e) })
		}

	case EventClearedAudio:
		var e ClearedAudioEvent
		if !h.decode(et, raw, &e) {
			return
		}
		h.regMu.RLock()
		cbs := append([]func(ClearedAudioEvent){}, h.onClearedAudio...)
		h.regMu.RUnlock()
		for _, fn := range cbs {
			fn := fn
			h.safeInvoke(et, func() { fn(e) })
		}
	}
}

// decode unmarshals and validates a recognized event payload. On failure it
// routes a ValidationError carrying the raw frame to error callbacks and
// reports false; the typed callbacks for the frame must then be skipped.
func (h *Handler) decode(et EventType, raw []byte, v any) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		h.logger.Warn("bad_event_payload", map[string]any{"event": string(et), "err": err.Error()})
		h.fireError(NewValidationError(et, raw, err))
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		h.logger.Warn("bad_event_payload", map[string]any{"event": string(et), "err": err.Error()})
		h.fireError(NewValidationError(et, raw, err))
		return false
	}
	return true
}

// latchIdentifiers stores the stream identifiers from the first start event.
// Reports false if a start event already latched them.
func (h *Handler) latchIdentifiers(s StartData) bool {
	h.idMu.Lock()
	defer h.idMu.Unlock()
	if h.streamID != "" {
		return false
	}
	h.streamID = s.StreamID
	h.callID = s.CallID
	h.accountID = s.AccountID
	return true
}

func (h *Handler) dispatchGeneric(et EventType, ev Event) {
	h.regMu.RLock()
	cbs := append([]func(Event){}, h.onEvent[et]...)
	h.regMu.RUnlock()
	for _, fn := range cbs {
		fn := fn
		h.safeInvoke(et, func() { fn(ev) })
	}
}

func (h *Handler) dispatchUnknown(ev Event) {
	h.regMu.RLock()
	cbs := append([]func(Event){}, h.onUnknown...)
	h.regMu.RUnlock()
	for _, fn := range cbs {
		fn := fn
		h.safeInvoke(eventUnknown, func() { fn(ev) })
	}
}
