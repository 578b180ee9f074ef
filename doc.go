// Package plivostream provides a server-side Go SDK for Plivo's real-time
// audio streaming protocol (AudioStream) over WebSockets.
//
// The media server connects to your endpoint and streams JSON text frames:
// a start event carrying call/stream/account identifiers, media events with
// base64-encoded audio chunks, dtmf events for detected digits, and echoes
// for checkpoints and clear-audio commands. The SDK classifies and validates
// each frame and fans it out to registered callbacks; outbound primitives
// queue audio for playback, place checkpoints, and clear the playback queue.
//
// Two interchangeable transport adapters cover the common hosting setups:
//   - UpgradeHTTP / GorillaTransport when an HTTP framework (net/http, gin,
//     chi, ...) owns the route and the upgrade happens in one of its handlers.
//   - AcceptHTTP / WebsocketTransport when the standalone nhooyr.io websocket
//     library accepts the connection.
//
// Basic usage:
//
//	h, err := plivostream.New(plivostream.Config{Logger: plivostream.NewLoggerFromEnv()})
//	if err != nil {
//		log.Fatal(err)
//	}
//	h.OnStart(func(e plivostream.StartEvent) {
//		log.Printf("stream %s for call %s", h.StreamID(), h.CallID())
//	})
//	h.OnMedia(func(e plivostream.MediaEvent) {
//		// echo the caller's audio back
//		_ = h.SendMedia(context.Background(), e.Media.Payload)
//	})
//	h.OnDisconnected(func() { log.Println("stream closed") })
//
//	http.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
//		t, err := plivostream.UpgradeHTTP(w, r)
//		if err != nil {
//			return
//		}
//		_ = h.Serve(r.Context(), t)
//	})
//
// Frames are processed strictly one at a time on the receive-loop goroutine;
// malformed frames and callback panics are delivered to OnError callbacks
// and never abort the loop. Stop is idempotent and safe to call from inside
// a callback. There is no internal queueing, retry, or reconnection: a slow
// callback delays the next frame, and reconnecting after a drop is the
// application's responsibility.
package plivostream
