package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/truinsights/voicejournal/internal/insights"
	"github.com/truinsights/voicejournal/internal/transcribe"
)

type stubProvider struct {
	text string
	err  error
}

func (p *stubProvider) Transcribe(context.Context, []byte, string) (*transcribe.Response, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &transcribe.Response{Text: p.text}, nil
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Model() string { return "stub" }

func TestTranscribeEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := NewTranscribeHandler(&stubProvider{text: "felt strong today"}, zerolog.Nop())

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, _ := mw.CreateFormFile("audio", "note.webm")
		fw.Write([]byte("opus"))
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.Transcribe(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var resp map[string]string
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["transcript"] != "felt strong today" {
			t.Errorf("transcript = %q", resp["transcript"])
		}
	})

	t.Run("missing_audio", func(t *testing.T) {
		h := NewTranscribeHandler(&stubProvider{}, zerolog.Nop())

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.WriteField("note", "x")
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.Transcribe(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "no audio file provided") {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("upstream_failure_maps_to_502", func(t *testing.T) {
		h := NewTranscribeHandler(&stubProvider{err: &transcribe.Error{Reason: "invalid api key", StatusCode: 401}}, zerolog.Nop())

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, _ := mw.CreateFormFile("audio", "note.webm")
		fw.Write([]byte("opus"))
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.Transcribe(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "invalid api key") {
			t.Errorf("body = %s, want upstream reason surfaced", rec.Body.String())
		}
	})
}

type stubExtractor struct {
	ins *insights.Insights
	err error
}

func (e *stubExtractor) Extract(context.Context, string) (*insights.Insights, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.ins, nil
}

func TestExtractInsightsEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ins := &insights.Insights{EnergyLevel: 8, DifficultyRating: 7, Mood: "energized"}
		h := NewInsightsHandler(&stubExtractor{ins: ins}, zerolog.Nop())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/extract-insights",
			strings.NewReader(`{"transcript":"great class"}`))
		rec := httptest.NewRecorder()
		h.Extract(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Extracted insights.Insights `json:"extracted"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(resp.Extracted, *ins) {
			t.Errorf("extracted = %+v, want %+v", resp.Extracted, *ins)
		}
	})

	t.Run("empty_transcript", func(t *testing.T) {
		h := NewInsightsHandler(&stubExtractor{}, zerolog.Nop())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/extract-insights",
			strings.NewReader(`{"transcript":"  "}`))
		rec := httptest.NewRecorder()
		h.Extract(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("extraction_failure_maps_to_502", func(t *testing.T) {
		h := NewInsightsHandler(&stubExtractor{err: &insights.Error{Reason: "model returned prose", Err: errors.New("parse")}}, zerolog.Nop())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/extract-insights",
			strings.NewReader(`{"transcript":"great class"}`))
		rec := httptest.NewRecorder()
		h.Extract(rec, req)
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "model returned prose") {
			t.Errorf("body = %s", rec.Body.String())
		}
	})
}

func TestMockEndpoints(t *testing.T) {
	t.Run("transcribe_mock", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mockTranscribe(rec, httptest.NewRequest(http.MethodPost, "/api/v1/transcribe-mock", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp map[string]string
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if !strings.HasPrefix(resp["transcript"], "This is a mock transcription.") {
			t.Errorf("transcript = %q", resp["transcript"])
		}
	})

	t.Run("extract_mock", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mockExtract(rec, httptest.NewRequest(http.MethodPost, "/api/v1/extract-insights-mock", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp struct {
			Extracted insights.Insights `json:"extracted"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(resp.Extracted, insights.MockExtracted) {
			t.Errorf("extracted = %+v, want mock payload", resp.Extracted)
		}
		wantTags := []string{"core-focused", "flexibility-challenge", "high-energy"}
		if !reflect.DeepEqual(resp.Extracted.Tags, wantTags) {
			t.Errorf("tags = %v, want %v", resp.Extracted.Tags, wantTags)
		}
	})
}
