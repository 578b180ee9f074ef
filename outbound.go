package plivostream

// Default audio parameters for outbound playAudio frames. These match the
// telephony-grade format the media server negotiates unless told otherwise.
const (
	DefaultContentType = "audio/x-mulaw"
	DefaultSampleRate  = 8000
)

// PlayAudioMedia is the media section of an outbound playAudio frame.
type PlayAudioMedia struct {
	ContentType string `json:"contentType"` // e.g. "audio/x-mulaw" or "audio/x-l16"
	SampleRate  int    `json:"sampleRate"`  // e.g. 8000
	Payload     string `json:"payload"`     // Base64 encoded audio data
}

// PlayAudioEvent queues audio for playback on the stream.
type PlayAudioEvent struct {
	Event string         `json:"event"` // Always "playAudio"
	Media PlayAudioMedia `json:"media"`
}

// CheckpointEvent places a named marker in the playback queue. The media
// server echoes it back as a playedStream event once all audio queued before
// the marker has finished playing.
type CheckpointEvent struct {
	Event    string `json:"event"` // Always "checkpoint"
	StreamID string `json:"streamId"`
	Name     string `json:"name"` // Label identifying this checkpoint
}

// ClearAudioEvent discards all audio queued for playback on the stream.
type ClearAudioEvent struct {
	Event    string `json:"event"` // Always "clearAudio"
	StreamID string `json:"streamId"`
}

// MediaOption customizes an outbound playAudio frame.
type MediaOption func(*PlayAudioMedia)

// WithContentType overrides the audio content type for a single SendMedia call.
func WithContentType(ct string) MediaOption {
	return func(m *PlayAudioMedia) { m.ContentType = ct }
}

// WithSampleRate overrides the sample rate for a single SendMedia call.
func WithSampleRate(rate int) MediaOption {
	return func(m *PlayAudioMedia) { m.SampleRate = rate }
}
