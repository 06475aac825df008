package feedback_test

import (
	"strings"
	"testing"

	"github.com/ajaytemal-source/Resonate/pkg/provider/feedback"
)

func TestBuildPrompt_IncludesSessionContext(t *testing.T) {
	t.Parallel()
	prompt := feedback.BuildPrompt(feedback.Payload{
		Segment:          "so today I want to talk about growth",
		TotalTranscript:  "hello everyone so today I want to talk about growth",
		UserIntent:       "confident",
		UserPurpose:      "team update",
		AudienceType:     "colleagues",
		PreviousFeedback: []string{"Slow down slightly"},
		VoiceAnalysis:    map[string]string{"emotion": "neutral"},
	})

	for _, want := range []string{
		"confident",
		"team update",
		"colleagues",
		"so today I want to talk about growth",
		"Slow down slightly",
		`"emotion":"neutral"`,
		"no more than 5 words",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_EmptyPayload(t *testing.T) {
	t.Parallel()
	prompt := feedback.BuildPrompt(feedback.Payload{})
	if prompt == "" {
		t.Error("prompt should not be empty for a zero payload")
	}
	if !strings.Contains(prompt, "Previous feedback: null") && !strings.Contains(prompt, "Previous feedback: []") {
		t.Errorf("prompt should render previous feedback for a zero payload:\n%s", prompt)
	}
}
