package insights

import "strings"

// extractionPrompt is the fixed instruction sent to the LLM, with the
// transcript interpolated at {transcript}.
const extractionPrompt = `You are analyzing a voice journal entry from a fitness class.
Extract the following structured information from the transcript.

Transcript: {transcript}

Please extract and return a JSON object with:
{
  "energy_level": <1-10, how energetic they felt>,
  "difficulty_rating": <1-10, how difficult the class was>,
  "mood": "<one word: energized/tired/accomplished/frustrated/motivated/relaxed>",
  "highlights": ["<positive aspects they mentioned>"],
  "challenges": ["<difficulties or struggles they mentioned>"],
  "body_feelings": ["<how their body felt, specific muscle groups or sensations>"],
  "instructor_feedback": "<any comments about the instructor, or empty string>",
  "tags": ["<relevant tags like 'core-focused', 'cardio-heavy', 'flexibility', 'strength', 'recovery', etc>"]
}

If the transcript is very short or unclear, make reasonable inferences but be conservative with ratings.
Return ONLY valid JSON, no markdown formatting or other text.`

// BuildPrompt interpolates the transcript into the extraction prompt.
func BuildPrompt(transcript string) string {
	return strings.Replace(extractionPrompt, "{transcript}", transcript, 1)
}
