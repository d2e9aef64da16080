package insights

import "context"

// MockExtracted is the fixed payload served by the mock completer and
// the /extract-insights-mock endpoint. Integration tests assert on these
// exact values, so it must never change.
var MockExtracted = Insights{
	EnergyLevel:        8,
	DifficultyRating:   7,
	Mood:               "energized",
	Highlights:         []string{"Great core work", "Felt strong", "Good energy"},
	Challenges:         []string{"Hip flexors tight", "Balance poses were tough"},
	BodyFeelings:       []string{"Core engaged", "Hip flexors tight", "Upper body strong"},
	InstructorFeedback: "Amazing coaching and energy",
	Tags:               []string{"core-focused", "flexibility-challenge", "high-energy"},
}

// mockCompletion is MockExtracted as the raw reply a model would send,
// fenced on purpose: the parser must cope with non-compliant output.
const mockCompletion = "```json\n" + `{
  "energy_level": 8,
  "difficulty_rating": 7,
  "mood": "energized",
  "highlights": ["Great core work", "Felt strong", "Good energy"],
  "challenges": ["Hip flexors tight", "Balance poses were tough"],
  "body_feelings": ["Core engaged", "Hip flexors tight", "Upper body strong"],
  "instructor_feedback": "Amazing coaching and energy",
  "tags": ["core-focused", "flexibility-challenge", "high-energy"]
}` + "\n```"

// MockCompleter returns a fixed, deterministic completion without any
// network calls. Used for offline testing of the pipeline.
type MockCompleter struct{}

func (MockCompleter) Name() string  { return "mock" }
func (MockCompleter) Model() string { return "mock" }

func (MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return mockCompletion, nil
}
