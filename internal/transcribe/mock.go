package transcribe

import "context"

// MockTranscript is the fixed transcript returned by the mock provider
// and the /transcribe-mock endpoint. Integration tests assert on this
// literal, so it must never change.
const MockTranscript = "This is a mock transcription. Hot pilates class was amazing today! Energy level was really high, about 8 out of 10. Core work was challenging but felt great. Hip flexors were a bit tight but managed to push through."

// MockProvider returns a fixed, deterministic transcript without any
// network calls. Used for offline testing of the pipeline.
type MockProvider struct{}

func (MockProvider) Name() string  { return "mock" }
func (MockProvider) Model() string { return "mock" }

func (MockProvider) Transcribe(ctx context.Context, audio []byte, mimeType string) (*Response, error) {
	if len(audio) == 0 {
		return nil, &Error{Reason: "empty audio payload"}
	}
	return &Response{Text: MockTranscript, Language: "en"}, nil
}
