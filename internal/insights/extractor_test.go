package insights

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// stubCompleter returns a canned reply or error.
type stubCompleter struct {
	reply string
	err   error
	// prompt captured for assertions
	lastPrompt string
}

func (s *stubCompleter) Name() string  { return "stub" }
func (s *stubCompleter) Model() string { return "stub-model" }

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	return s.reply, s.err
}

const validReply = `{
	"energy_level": 8,
	"difficulty_rating": 6,
	"mood": "accomplished",
	"highlights": ["good pace"],
	"challenges": [],
	"body_feelings": ["legs sore"],
	"instructor_feedback": "",
	"tags": ["cardio-heavy"]
}`

func TestExtract(t *testing.T) {
	transcript := "Hot pilates class was amazing today! Energy level was really high, about 8 out of 10."

	t.Run("parses_valid_reply", func(t *testing.T) {
		c := &stubCompleter{reply: validReply}
		ins, err := NewExtractor(c).Extract(context.Background(), transcript)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if ins.EnergyLevel < 1 || ins.EnergyLevel > 10 {
			t.Errorf("EnergyLevel = %d, want 1..10", ins.EnergyLevel)
		}
		if !ValidMood(ins.Mood) {
			t.Errorf("Mood = %q, not in vocabulary", ins.Mood)
		}
		if c.lastPrompt == "" {
			t.Fatal("completer never called")
		}
	})

	t.Run("prompt_embeds_transcript", func(t *testing.T) {
		c := &stubCompleter{reply: validReply}
		if _, err := NewExtractor(c).Extract(context.Background(), transcript); err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if !strings.Contains(c.lastPrompt, transcript) {
			t.Error("prompt does not contain the transcript")
		}
		if strings.Contains(c.lastPrompt, "{transcript}") {
			t.Error("prompt placeholder was not interpolated")
		}
	})

	t.Run("empty_transcript_rejected", func(t *testing.T) {
		c := &stubCompleter{reply: validReply}
		_, err := NewExtractor(c).Extract(context.Background(), "   ")
		var ee *Error
		if !errors.As(err, &ee) {
			t.Fatalf("want *Error, got %v", err)
		}
		if c.lastPrompt != "" {
			t.Error("completer should not be called for empty transcript")
		}
	})

	t.Run("completion_error_wrapped", func(t *testing.T) {
		c := &stubCompleter{err: errors.New("boom")}
		_, err := NewExtractor(c).Extract(context.Background(), transcript)
		var ee *Error
		if !errors.As(err, &ee) {
			t.Fatalf("want *Error, got %v", err)
		}
	})
}

func TestParse(t *testing.T) {
	t.Run("fenced_parses_identically_to_unfenced", func(t *testing.T) {
		plain, err := Parse(validReply)
		if err != nil {
			t.Fatalf("Parse(plain): %v", err)
		}
		fenced, err := Parse("```json\n" + validReply + "\n```")
		if err != nil {
			t.Fatalf("Parse(fenced): %v", err)
		}
		if !reflect.DeepEqual(plain, fenced) {
			t.Errorf("fenced result differs:\nplain:  %+v\nfenced: %+v", plain, fenced)
		}
	})

	t.Run("surrounding_whitespace_ignored", func(t *testing.T) {
		if _, err := Parse("\n\n  " + validReply + "  \n"); err != nil {
			t.Errorf("Parse: %v", err)
		}
	})

	t.Run("malformed_json_fails", func(t *testing.T) {
		_, err := Parse(`{"energy_level": 8,`)
		var ee *Error
		if !errors.As(err, &ee) {
			t.Fatalf("want *Error, got %v", err)
		}
	})

	t.Run("missing_required_field_fails", func(t *testing.T) {
		_, err := Parse(`{"energy_level": 8, "difficulty_rating": 7}`)
		var ee *Error
		if !errors.As(err, &ee) {
			t.Fatalf("want *Error, got %v", err)
		}
	})

	t.Run("out_of_range_passes_through", func(t *testing.T) {
		ins, err := Parse(`{"energy_level": 14, "difficulty_rating": 7, "mood": "energized"}`)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		// Documented latitude: no coercion of out-of-range values.
		if ins.EnergyLevel != 14 {
			t.Errorf("EnergyLevel = %d, want 14 passed through", ins.EnergyLevel)
		}
	})

	t.Run("prose_around_json_fails", func(t *testing.T) {
		if _, err := Parse("Here is the JSON you asked for: " + validReply); err == nil {
			t.Error("expected parse failure for prose-wrapped reply")
		}
	})
}

func TestMockCompleter(t *testing.T) {
	ins, err := NewExtractor(MockCompleter{}).Extract(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !reflect.DeepEqual(*ins, MockExtracted) {
		t.Errorf("mock extraction = %+v, want %+v", *ins, MockExtracted)
	}
	wantTags := []string{"core-focused", "flexibility-challenge", "high-energy"}
	if !reflect.DeepEqual(ins.Tags, wantTags) {
		t.Errorf("Tags = %v, want %v", ins.Tags, wantTags)
	}
}

func TestValidMood(t *testing.T) {
	for _, m := range Moods {
		if !ValidMood(m) {
			t.Errorf("ValidMood(%q) = false", m)
		}
	}
	if ValidMood("ecstatic") {
		t.Error(`ValidMood("ecstatic") = true`)
	}
}
