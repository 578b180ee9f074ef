package plivostream

import (
	"encoding/base64"
	"encoding/binary"
)

// MediaAssembler collects inbound audio chunks and reassembles them into a
// contiguous byte stream per track. Feed it from a media callback:
//
//	asm := plivostream.NewMediaAssembler()
//	h.OnMedia(func(e plivostream.MediaEvent) { _ = asm.OnMedia(e) })
//	h.OnDisconnected(func() { save(asm.Track("inbound")) })
//
// Not safe for concurrent use; callbacks run on the receive-loop goroutine,
// which is the intended call site.
type MediaAssembler struct{ data map[string][]byte }

// NewMediaAssembler creates a new MediaAssembler instance.
func NewMediaAssembler() *MediaAssembler { return &MediaAssembler{data: make(map[string][]byte)} }

// OnMedia decodes one media chunk and appends it to its track buffer.
func (a *MediaAssembler) OnMedia(e MediaEvent) error {
	b, err := base64.StdEncoding.DecodeString(e.Media.Payload)
	if err != nil {
		return err
	}
	a.data[e.Media.Track] = append(a.data[e.Media.Track], b...)
	return nil
}

// Track retrieves and removes the audio collected for a track so far.
func (a *MediaAssembler) Track(track string) []byte {
	buf := a.data[track]
	delete(a.data, track)
	return buf
}

// Len reports the number of bytes collected so far for a track.
func (a *MediaAssembler) Len(track string) int { return len(a.data[track]) }

// EncodeAudio base64-encodes raw audio bytes into the payload form that
// SendMedia expects.
func EncodeAudio(audio []byte) string { return base64.StdEncoding.EncodeToString(audio) }

// WAV audio format codes.
const (
	wavFormatPCM   = 1
	wavFormatMulaw = 7
)

// WAVFromMulaw wraps raw 8-bit mu-law audio (the media server's default
// encoding) in a WAV container for saving to disk or feeding to players.
func WAVFromMulaw(mulaw []byte, sampleRate int) []byte {
	return wavFile(wavFormatMulaw, 8, sampleRate, mulaw)
}

// WAVFromPCM16Mono wraps raw 16-bit little-endian mono PCM (audio/x-l16)
// in a WAV container.
func WAVFromPCM16Mono(pcm []byte, sampleRate int) []byte {
	return wavFile(wavFormatPCM, 16, sampleRate, pcm)
}

func wavFile(format uint16, bitsPerSample uint16, sampleRate int, data []byte) []byte {
	blockAlign := bitsPerSample / 8 // mono
	byteRate := uint32(sampleRate) * uint32(blockAlign)
	dataLen := uint32(len(data))
	out := make([]byte, 44+len(data))

	// RIFF header
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], 36+dataLen)
	copy(out[8:], []byte("WAVE"))

	// Format chunk
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], format)
	binary.LittleEndian.PutUint16(out[22:], 1) // mono
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], byteRate)
	binary.LittleEndian.PutUint16(out[32:], blockAlign)
	binary.LittleEndian.PutUint16(out[34:], bitsPerSample)

	// Data chunk
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], dataLen)
	copy(out[44:], data)
	return out
}

// DefaultChunkMS is the typical telephony frame duration (20ms).
const DefaultChunkMS = 20

// MulawBytesFor calculates the byte count for mu-law audio of the given
// duration: one byte per sample.
func MulawBytesFor(ms, sampleRate int) int { return ms * sampleRate / 1000 }
