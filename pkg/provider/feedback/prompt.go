package feedback

import (
	"encoding/json"
	"fmt"
)

// SystemPrompt is the role instruction shared by all coaching backends.
const SystemPrompt = "You are an AI speech coach."

// coachInstructions frames how the model should weigh the payload fields.
const coachInstructions = "You are an AI speech coach providing **real-time emotional and behavioral feedback**. " +
	"Analyze the user's **most recent spoken segment** and behavioral metrics to understand their overall **emotional state, focus, and delivery approach**, rather than individual word choices. " +
	"Consider how their tone, pacing, and energy align with their intended tone, purpose, and audience. " +
	"Use the **total transcript so far** and your previous feedback for continuity, but base your response **only on what was just said**. " +
	"If the user has incorporated previous advice or shows signs of improvement, **reinforce that progress with clear, affirming feedback** that strengthens confidence and self-trust. " +
	"If emotional cues suggest hesitation, tension, or low confidence, provide **emotionally supportive and grounding feedback** that helps the user re-center — for example, gentle cues like taking a breath, pausing, or slowing down. " +
	"If the user appears to be drifting away from their intended purpose, tone, or audience focus, offer a **polite, nonjudgmental reminder** to help them realign with their goal — for instance, suggesting they refocus or reconnect with their main message. " +
	"Avoid harsh correction or technical critique. " +
	"Keep feedback concise, compassionate, and immediately grounding, focusing on maintaining emotional steadiness and conversational alignment."

// BuildPrompt renders the user-role prompt for a coaching request. The
// payload is embedded as JSON so the model sees the segment text and tone
// labels together.
func BuildPrompt(p Payload) string {
	segmentJSON, err := json.Marshal(p)
	if err != nil {
		segmentJSON = []byte("{}")
	}
	previousJSON, err := json.Marshal(p.PreviousFeedback)
	if err != nil {
		previousJSON = []byte("[]")
	}
	transcriptJSON, err := json.Marshal(p.TotalTranscript)
	if err != nil {
		transcriptJSON = []byte(`""`)
	}

	return fmt.Sprintf(
		"%s\n\n"+
			"User-selected tone: %s\n"+
			"User purpose: %s\n"+
			"Audience: %s\n"+
			"Current segment data: %s\n"+
			"Previous feedback: %s\n"+
			"Total transcript so far: %s\n\n"+
			"Keep feedback no more than 5 words.",
		coachInstructions,
		p.UserIntent,
		p.UserPurpose,
		p.AudienceType,
		segmentJSON,
		previousJSON,
		transcriptJSON,
	)
}
