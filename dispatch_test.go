package plivostream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	h, err := New(Config{})
	require.NoError(t, err)
	return h
}

func TestProcessMessage_MalformedJSON(t *testing.T) {
	h := newTestHandler(t)

	var errs []error
	h.OnError(func(err error) { errs = append(errs, err) })
	var mediaCalls int
	h.OnMedia(func(MediaEvent) { mediaCalls++ })

	h.ProcessMessage([]byte(`{not json`))

	require.Len(t, errs, 1)
	var perr *ProtocolError
	require.ErrorAs(t, errs[0], &perr)
	assert.True(t, errors.Is(errs[0], ErrMalformedFrame))
	assert.Equal(t, 0, mediaCalls)
}

func TestProcessMessage_NonObjectFrame(t *testing.T) {
	h := newTestHandler(t)

	var errs []error
	h.OnError(func(err error) { errs = append(errs, err) })

	h.ProcessMessage([]byte(`[1,2,3]`))

	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], ErrMalformedFrame))
}

func TestProcessMessage_UnknownEvent(t *testing.T) {
	h := newTestHandler(t)

	var errCalls, startCalls int
	var unknowns []Event
	h.OnError(func(error) { errCalls++ })
	h.OnStart(func(StartEvent) { startCalls++ })
	h.OnUnknown(func(e Event) { unknowns = append(unknowns, e) })

	h.ProcessMessage([]byte(`{"event":"somethingNew","data":1}`))
	h.ProcessMessage([]byte(`{"noDiscriminator":true}`))

	assert.Equal(t, 0, errCalls, "unrecognized event must not invoke error callbacks")
	assert.Equal(t, 0, startCalls)
	require.Len(t, unknowns, 2)
	assert.Equal(t, EventType("somethingNew"), unknowns[0].Type)
	assert.Equal(t, EventType(""), unknowns[1].Type)
}

func TestProcessMessage_MediaInvokedExactlyOnce(t *testing.T) {
	h := newTestHandler(t)

	var got []MediaEvent
	h.OnMedia(func(e MediaEvent) { got = append(got, e) })
	var errCalls int
	h.OnError(func(error) { errCalls++ })

	h.ProcessMessage([]byte(`{
		"event": "media",
		"sequenceNumber": 3,
		"streamId": "S1",
		"media": {"track": "inbound", "timestamp": "120", "chunk": 2, "payload": "c29tZS1hdWRpbw=="}
	}`))

	require.Len(t, got, 1)
	assert.Equal(t, "c29tZS1hdWRpbw==", got[0].Media.Payload)
	assert.Equal(t, "inbound", got[0].Media.Track)
	assert.Equal(t, 2, got[0].Media.Chunk)
	assert.Equal(t, 0, errCalls)
}

func TestProcessMessage_ValidationFailureSkipsTypedCallback(t *testing.T) {
	h := newTestHandler(t)

	var mediaCalls int
	h.OnMedia(func(MediaEvent) { mediaCalls++ })
	var errs []error
	h.OnError(func(err error) { errs = append(errs, err) })

	// media frame missing the required payload field
	raw := `{"event":"media","streamId":"S1","media":{"track":"inbound"}}`
	h.ProcessMessage([]byte(raw))

	assert.Equal(t, 0, mediaCalls)
	require.Len(t, errs, 1)
	var verr *ValidationError
	require.ErrorAs(t, errs[0], &verr)
	assert.Equal(t, EventMedia, verr.EventType)
	assert.JSONEq(t, raw, string(verr.Raw))
}

func TestProcessMessage_StartLatchesIdentifiers(t *testing.T) {
	h := newTestHandler(t)

	assert.Empty(t, h.StreamID())
	assert.Empty(t, h.CallID())
	assert.Empty(t, h.AccountID())

	h.ProcessMessage([]byte(`{"event":"start","start":{"streamId":"S1","callId":"C1","accountId":"A1"}}`))

	assert.Equal(t, "S1", h.StreamID())
	assert.Equal(t, "C1", h.CallID())
	assert.Equal(t, "A1", h.AccountID())
}

func TestProcessMessage_StartCallbacksInRegistrationOrder(t *testing.T) {
	h := newTestHandler(t)

	var order []string
	h.OnStart(func(StartEvent) { order = append(order, "first") })
	h.OnStart(func(StartEvent) { order = append(order, "second") })

	h.ProcessMessage([]byte(`{"event":"start","start":{"streamId":"S1","callId":"C1","accountId":"A1"}}`))

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestProcessMessage_DuplicateStart(t *testing.T) {
	h := newTestHandler(t)

	var startCalls int
	h.OnStart(func(StartEvent) { startCalls++ })
	var errs []error
	h.OnError(func(err error) { errs = append(errs, err) })

	h.ProcessMessage([]byte(`{"event":"start","start":{"streamId":"S1","callId":"C1","accountId":"A1"}}`))
	h.ProcessMessage([]byte(`{"event":"start","start":{"streamId":"S2","callId":"C2","accountId":"A2"}}`))

	assert.Equal(t, 1, startCalls)
	require.Len(t, errs, 1)
	var perr *ProtocolError
	require.ErrorAs(t, errs[0], &perr)

	// the first start stays latched
	assert.Equal(t, "S1", h.StreamID())
	assert.Equal(t, "C1", h.CallID())
}

func TestProcessMessage_CallbackPanicRoutedToError(t *testing.T) {
	h := newTestHandler(t)

	var order []string
	h.OnMedia(func(MediaEvent) { panic("boom") })
	h.OnMedia(func(MediaEvent) { order = append(order, "second") })
	var errs []error
	h.OnError(func(err error) { errs = append(errs, err) })

	h.ProcessMessage([]byte(`{"event":"media","media":{"track":"inbound","payload":"QUJD"}}`))

	// dispatch continued past the panicking callback
	assert.Equal(t, []string{"second"}, order)
	require.Len(t, errs, 1)
	var cerr *CallbackError
	require.ErrorAs(t, errs[0], &cerr)
	assert.Equal(t, EventMedia, cerr.EventType)
	assert.Equal(t, "boom", cerr.Recovered)
}

func TestProcessMessage_GenericCallbacksSeeInvalidPayloads(t *testing.T) {
	h := newTestHandler(t)

	var generic []Event
	h.OnEvent(EventMedia, func(e Event) { generic = append(generic, e) })
	var mediaCalls int
	h.OnMedia(func(MediaEvent) { mediaCalls++ })
	h.OnError(func(error) {})

	// invalid payload: generic callback fires, typed callback does not
	h.ProcessMessage([]byte(`{"event":"media","media":{}}`))

	require.Len(t, generic, 1)
	assert.Equal(t, EventMedia, generic[0].Type)
	assert.Equal(t, 0, mediaCalls)
}

func TestProcessMessage_DTMF(t *testing.T) {
	h := newTestHandler(t)

	var digits []string
	h.OnDTMF(func(e DTMFEvent) { digits = append(digits, e.DTMF.Digit) })

	h.ProcessMessage([]byte(`{"event":"dtmf","dtmf":{"digit":"5"}}`))
	h.ProcessMessage([]byte(`{"event":"dtmf","dtmf":{"digit":"#","track":"inbound","timestamp":"900"}}`))

	assert.Equal(t, []string{"5", "#"}, digits)
}

func TestProcessMessage_PlayedStreamAndClearedAudio(t *testing.T) {
	h := newTestHandler(t)

	var names []string
	h.OnPlayedStream(func(e PlayedStreamEvent) { names = append(names, e.Name) })
	var cleared []string
	h.OnClearedAudio(func(e ClearedAudioEvent) { cleared = append(cleared, e.StreamID) })

	h.ProcessMessage([]byte(`{"event":"playedStream","sequenceNumber":"12","streamId":"S1","name":"greeting-done"}`))
	h.ProcessMessage([]byte(`{"event":"clearedAudio","sequenceNumber":13,"streamId":"S1"}`))

	assert.Equal(t, []string{"greeting-done"}, names)
	assert.Equal(t, []string{"S1"}, cleared)
}

func TestProcessMessage_DroppedAfterDisconnect(t *testing.T) {
	h := newTestHandler(t)

	var calls int
	h.OnMedia(func(MediaEvent) { calls++ })
	h.OnError(func(error) { calls++ })
	h.OnUnknown(func(Event) { calls++ })

	h.Stop() // idle -> disconnected, terminal

	h.ProcessMessage([]byte(`{"event":"media","media":{"track":"inbound","payload":"QUJD"}}`))
	h.ProcessMessage([]byte(`{broken`))
	h.ProcessMessage([]byte(`{"event":"mystery"}`))

	assert.Equal(t, 0, calls, "no callback may fire after disconnection")
}
