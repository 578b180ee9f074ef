package plivostream

import "encoding/json"

// EventType identifies the kind of message received from the Plivo media
// server. The value matches the "event" discriminator field in the frame body.
type EventType string

// Inbound event types sent by the Plivo media server.
const (
	EventStart        EventType = "start"        // Stream established, carries call/stream/account identifiers
	EventMedia        EventType = "media"        // Audio chunk with base64 payload and track metadata
	EventDTMF         EventType = "dtmf"         // Detected DTMF digit
	EventPlayedStream EventType = "playedStream" // Checkpoint echo: all audio queued before it has played
	EventClearedAudio EventType = "clearedAudio" // Acknowledgement of a clearAudio command
)

// knownEventTypes enumerates the discriminator values this SDK classifies.
// Anything else is routed to the unknown bucket.
var knownEventTypes = map[EventType]bool{
	EventStart:        true,
	EventMedia:        true,
	EventDTMF:         true,
	EventPlayedStream: true,
	EventClearedAudio: true,
}

// envelope is used for initial JSON parsing to determine the event type
// before unmarshaling into the specific event struct.
type envelope struct {
	Event string `json:"event"`
}

// Event is a classified inbound frame before payload decoding. It is handed
// to generic per-type callbacks and to the unknown bucket.
type Event struct {
	Type EventType       // Discriminator value, may be unrecognized
	Raw  json.RawMessage // Complete frame body as received
}

// MediaFormat describes the audio encoding negotiated for the stream.
// Optional on the wire, so none of its fields are required.
type MediaFormat struct {
	Encoding   string `json:"encoding"`   // e.g. "audio/x-mulaw"
	SampleRate int    `json:"sampleRate"` // e.g. 8000
}

// StartData carries the stream identifiers delivered with the start event.
type StartData struct {
	CallID      string      `json:"callId" validate:"required"`    // Unique call identifier
	StreamID    string      `json:"streamId" validate:"required"`  // Unique stream identifier
	AccountID   string      `json:"accountId" validate:"required"` // Plivo account ID
	Tracks      []string    `json:"tracks"`                        // Audio tracks, e.g. ["inbound"]
	MediaFormat MediaFormat `json:"mediaFormat"`                   // Negotiated audio format
}

// StartEvent is the first frame of a stream. The handler latches the
// stream/call/account identifiers from it before invoking start callbacks.
type StartEvent struct {
	SequenceNumber int       `json:"sequenceNumber"`
	Event          string    `json:"event"` // Always "start"
	Start          StartData `json:"start" validate:"required"`
	ExtraHeaders   string    `json:"extra_headers"` // Extra headers as a JSON string
}

// MediaData is one chunk of inbound audio.
type MediaData struct {
	Track     string `json:"track" validate:"required"`   // Audio track, e.g. "inbound"
	Timestamp string `json:"timestamp"`                   // Presentation timestamp in ms from stream start
	Chunk     int    `json:"chunk"`                       // Chunk number, starts at 1
	Payload   string `json:"payload" validate:"required"` // Base64 encoded audio data
}

// MediaEvent carries one audio chunk from the media server.
type MediaEvent struct {
	SequenceNumber int       `json:"sequenceNumber"`
	StreamID       string    `json:"streamId"`
	Event          string    `json:"event"` // Always "media"
	Media          MediaData `json:"media" validate:"required"`
	ExtraHeaders   string    `json:"extra_headers"`
}

// DTMFData describes a detected DTMF digit.
type DTMFData struct {
	Track     string `json:"track"`                     // Audio track the digit was detected on
	Digit     string `json:"digit" validate:"required"` // The detected digit, "0"-"9", "*", "#"
	Timestamp string `json:"timestamp"`                 // Timestamp in ms
}

// DTMFEvent is sent when the media server detects a DTMF tone.
type DTMFEvent struct {
	Event          string   `json:"event"` // Always "dtmf"
	SequenceNumber int      `json:"sequenceNumber"`
	StreamID       string   `json:"streamId"`
	DTMF           DTMFData `json:"dtmf" validate:"required"`
	ExtraHeaders   string   `json:"extra_headers"`
}

// PlayedStreamEvent echoes a checkpoint once every audio chunk queued before
// it has finished playing. The sequence number is a string on the wire for
// this event type.
type PlayedStreamEvent struct {
	Event          string `json:"event"` // Always "playedStream"
	SequenceNumber string `json:"sequenceNumber"`
	StreamID       string `json:"streamId"`
	Name           string `json:"name" validate:"required"` // Checkpoint name as sent
}

// ClearedAudioEvent acknowledges a clearAudio command.
type ClearedAudioEvent struct {
	SequenceNumber int    `json:"sequenceNumber"`
	Event          string `json:"event"` // Always "clearedAudio"
	StreamID       string `json:"streamId" validate:"required"`
}
