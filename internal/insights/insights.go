package insights

// Insights is the structured information extracted from a journal transcript.
// Numeric ratings are passed through as the model produced them; out-of-range
// values are not coerced.
type Insights struct {
	EnergyLevel        int      `json:"energy_level"`
	DifficultyRating   int      `json:"difficulty_rating"`
	Mood               string   `json:"mood"`
	Highlights         []string `json:"highlights"`
	Challenges         []string `json:"challenges"`
	BodyFeelings       []string `json:"body_feelings"`
	InstructorFeedback string   `json:"instructor_feedback"`
	Tags               []string `json:"tags"`
}

// Moods is the fixed vocabulary the extraction prompt asks for.
var Moods = []string{"energized", "tired", "accomplished", "frustrated", "motivated", "relaxed"}

// ValidMood reports whether m is one of the known mood words.
func ValidMood(m string) bool {
	for _, v := range Moods {
		if m == v {
			return true
		}
	}
	return false
}
