// Package feedback defines the Provider interface for coaching-feedback
// generation backends.
//
// A feedback provider turns a snapshot of the session — the segment just
// transcribed, the transcript so far, the user's declared speaking goals,
// previous feedback, and the latest tone labels — into one short piece of
// real-time coaching text. Calls are best-effort: the session layer emits an
// acknowledgment event whether or not generation succeeds.
package feedback

import "context"

// Payload is the session snapshot a feedback request is built from.
type Payload struct {
	// Segment is the text of the transcription that triggered this request.
	Segment string `json:"segment"`

	// TotalTranscript is the space-joined transcript accumulated so far.
	TotalTranscript string `json:"total_transcript"`

	// UserIntent is the tone the user selected for the session.
	UserIntent string `json:"user_intent"`

	// UserPurpose is the user's declared purpose for speaking.
	UserPurpose string `json:"user_purpose"`

	// AudienceType is the audience the user declared.
	AudienceType string `json:"audience_type"`

	// PreviousFeedback holds all feedback delivered earlier in the session,
	// oldest first.
	PreviousFeedback []string `json:"previous_feedback"`

	// VoiceAnalysis maps tone-analysis tasks to their latest final label.
	// May be empty when no tone result has arrived yet.
	VoiceAnalysis map[string]string `json:"voice_analysis"`
}

// Provider generates one short piece of coaching feedback.
type Provider interface {
	// Generate returns concise coaching text for the payload. An empty
	// string with a nil error is a valid "nothing to say" outcome.
	Generate(ctx context.Context, p Payload) (string, error)
}
