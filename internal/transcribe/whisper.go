package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// WhisperClient calls an OpenAI-compatible /v1/audio/transcriptions
// endpoint (Groq, OpenAI, or a self-hosted whisper server).
type WhisperClient struct {
	url      string
	apiKey   string
	model    string
	language string
	client   *http.Client
}

// whisperResponse is the parsed JSON response from the endpoint.
type whisperResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// whisperError is the error body returned on non-2xx responses.
type whisperError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewWhisperClient creates a new Whisper HTTP client.
func NewWhisperClient(url, apiKey, model, language string, timeout time.Duration) *WhisperClient {
	if language == "" {
		language = "en"
	}
	return &WhisperClient{
		url:      url,
		apiKey:   apiKey,
		model:    model,
		language: language,
		client:   &http.Client{Timeout: timeout},
	}
}

func (wc *WhisperClient) Name() string  { return "whisper" }
func (wc *WhisperClient) Model() string { return wc.model }

// Transcribe sends the audio payload as multipart/form-data and returns
// the transcript. One attempt, no retries.
func (wc *WhisperClient) Transcribe(ctx context.Context, audio []byte, mimeType string) (*Response, error) {
	if len(audio) == 0 {
		return nil, &Error{Reason: "empty audio payload"}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "audio."+extForMime(mimeType))
	if err != nil {
		return nil, &Error{Reason: "create form file", Err: err}
	}
	if _, err := part.Write(audio); err != nil {
		return nil, &Error{Reason: "write audio data", Err: err}
	}

	w.WriteField("model", wc.model)
	w.WriteField("language", wc.language)
	w.WriteField("response_format", "json")
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wc.url, &buf)
	if err != nil {
		return nil, &Error{Reason: "create request", Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if wc.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+wc.apiKey)
	}

	resp, err := wc.client.Do(req)
	if err != nil {
		return nil, &Error{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Reason: "read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		reason := string(body)
		var we whisperError
		if json.Unmarshal(body, &we) == nil && we.Error.Message != "" {
			reason = we.Error.Message
		}
		return nil, &Error{Reason: reason, StatusCode: resp.StatusCode}
	}

	var result whisperResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &Error{Reason: fmt.Sprintf("decode response: %v", err), Err: err}
	}

	return &Response{
		Text:     result.Text,
		Language: result.Language,
		Duration: result.Duration,
	}, nil
}

// extForMime maps common browser recording MIME types to file extensions.
// The endpoint uses the filename extension to sniff the container format.
func extForMime(mimeType string) string {
	switch mimeType {
	case "audio/webm", "video/webm":
		return "webm"
	case "audio/ogg":
		return "ogg"
	case "audio/mp4", "audio/m4a":
		return "m4a"
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/wav", "audio/x-wav":
		return "wav"
	default:
		return "webm"
	}
}
