package main

import (
	"bytes"
	"context"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedRequest struct {
	Method      string
	Path        string
	Auth        string
	ContentType string
	Body        []byte
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			Auth:        r.Header.Get("Authorization"),
			ContentType: r.Header.Get("Content-Type"),
			Body:        body.Bytes(),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":"not found"}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestPostAudioBuildsMultipartForm(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/v1/journals": `{"id":"0d4b4b2e-7f44-4f5e-9b10-3a1f3b000001","audio_duration_seconds":42}`,
	})
	client := ts.client()

	resp, err := client.postAudio(ctx, "/journals", []byte("opus-bytes"), "audio/webm", 42)
	if err != nil {
		t.Fatalf("postAudio: %v", err)
	}
	var entry journal
	if err := decodeJSON(resp, &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry.AudioDurationSeconds != 42 {
		t.Errorf("duration = %d, want 42", entry.AudioDurationSeconds)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(ts.requests))
	}
	req := ts.requests[0]
	if req.Auth != "Bearer test-token" {
		t.Errorf("auth = %q", req.Auth)
	}
	if !strings.HasPrefix(req.ContentType, "multipart/form-data") {
		t.Fatalf("content-type = %q, want multipart", req.ContentType)
	}

	_, params, _ := mime.ParseMediaType(req.ContentType)
	mr := multipart.NewReader(bytes.NewReader(req.Body), params["boundary"])
	form, err := mr.ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("parse form: %v", err)
	}
	if got := form.Value["duration_seconds"]; len(got) != 1 || got[0] != "42" {
		t.Errorf("duration_seconds = %v, want [42]", got)
	}
	files := form.File["audio"]
	if len(files) != 1 {
		t.Fatalf("audio files = %d, want 1", len(files))
	}
	if files[0].Filename != "recording.webm" {
		t.Errorf("filename = %q", files[0].Filename)
	}
}

func TestPostAudioOmitsZeroDuration(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/v1/transcribe": `{"transcript":"short note"}`,
	})

	_, err := ts.client().postAudio(ctx, "/transcribe", []byte("opus"), "audio/webm", 0)
	if err != nil {
		t.Fatal(err)
	}

	req := ts.requests[0]
	_, params, _ := mime.ParseMediaType(req.ContentType)
	mr := multipart.NewReader(bytes.NewReader(req.Body), params["boundary"])
	form, err := mr.ReadForm(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := form.Value["duration_seconds"]; ok {
		t.Error("duration_seconds sent for a zero duration")
	}
}

func TestDecodeJSONSurfacesServerError(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := ts.client().get(ctx, "/journals/nope")
	if err != nil {
		t.Fatal(err)
	}
	var v map[string]any
	err = decodeJSON(resp, &v)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want status surfaced", err)
	}
}

func TestMimeForFile(t *testing.T) {
	tests := map[string]string{
		"note.mp3":  "audio/mpeg",
		"note.WAV":  "audio/wav",
		"note.ogg":  "audio/ogg",
		"note.m4a":  "audio/mp4",
		"note.webm": "audio/webm",
		"note":      "audio/webm",
	}
	for path, want := range tests {
		if got := mimeForFile(path); got != want {
			t.Errorf("mimeForFile(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestSubmitCommandRequiresFile(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"submit"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for missing file argument")
	}
}
