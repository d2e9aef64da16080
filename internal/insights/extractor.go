package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Completer is the interface for LLM completion backends. One attempt
// per call; the extractor never retries.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string  // "anthropic", "openai", "mock"
	Model() string // model identifier for logs
}

// Error is an extraction failure: completion error, malformed JSON, or
// a missing required field. Callers must not persist anything partial.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string { return "extraction failed: " + e.Reason }

func (e *Error) Unwrap() error { return e.Err }

// requiredFields must all be present in the model's JSON object.
// List fields may legitimately be empty, so they are not required.
var requiredFields = []string{"energy_level", "difficulty_rating", "mood"}

// Extractor turns a transcript into structured Insights via an LLM.
type Extractor struct {
	completer Completer
}

// NewExtractor creates an Extractor over the given completion backend.
func NewExtractor(c Completer) *Extractor {
	return &Extractor{completer: c}
}

// Name returns the backing completer's name.
func (e *Extractor) Name() string { return e.completer.Name() }

// Model returns the backing completer's model identifier.
func (e *Extractor) Model() string { return e.completer.Model() }

// Extract sends the fixed prompt with the transcript interpolated and
// parses the reply into Insights. The prompt forbids markdown fencing,
// but models do not always comply, so fences are stripped before parsing.
func (e *Extractor) Extract(ctx context.Context, transcript string) (*Insights, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, &Error{Reason: "empty transcript"}
	}

	raw, err := e.completer.Complete(ctx, BuildPrompt(transcript))
	if err != nil {
		return nil, &Error{Reason: "completion: " + err.Error(), Err: err}
	}

	return Parse(raw)
}

// Parse decodes a model reply into Insights. A reply wrapped in ```json
// fences parses identically to an unwrapped one. Out-of-range numeric
// values pass through unvalidated.
func Parse(raw string) (*Insights, error) {
	cleaned := StripFences(raw)

	// Required-field check first: encoding/json leaves absent fields at
	// their zero value, which is indistinguishable from a present zero.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		return nil, &Error{Reason: fmt.Sprintf("malformed JSON: %v", err), Err: err}
	}
	for _, f := range requiredFields {
		if _, ok := probe[f]; !ok {
			return nil, &Error{Reason: "missing required field " + f}
		}
	}

	var ins Insights
	if err := json.Unmarshal([]byte(cleaned), &ins); err != nil {
		return nil, &Error{Reason: fmt.Sprintf("decode insights: %v", err), Err: err}
	}
	return &ins, nil
}

// StripFences removes markdown code fences and surrounding whitespace
// from a model reply.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
