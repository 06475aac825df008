// Package transcribe defines the Provider interface for batch speech-to-text
// backends.
//
// A transcribe provider accepts one complete WAV-encoded audio window per
// call and returns the recognized text. The session layer serializes calls
// per connection, but implementations must still be safe for concurrent use
// because multiple connections share one provider instance.
package transcribe

import "context"

// Provider converts a WAV-encoded audio window to text.
type Provider interface {
	// Transcribe submits wav (a complete RIFF/WAV container) and returns the
	// recognized text, which may be empty when the window holds no speech.
	// Implementations must respect ctx for cancellation and deadlines.
	Transcribe(ctx context.Context, wav []byte) (string, error)
}
