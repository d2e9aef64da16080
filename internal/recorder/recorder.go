// Package recorder implements the recording session state machine:
//
//	Idle → Recording → (Paused ⇄ Recording) → Stopped → Idle
//
// Platform audio capture sits behind the AudioCapture interface so the
// state handling and duration tracking stay portable.
package recorder

import (
	"context"
	"errors"
	"sync"
	"time"
)

// AudioCapture is the platform capability for microphone capture.
// Implementations accumulate audio across pause/resume and hand back the
// finalized bytes on Stop.
type AudioCapture interface {
	// Start begins capturing from the default input device.
	Start(ctx context.Context) error
	// Pause suspends capture without discarding captured data.
	Pause() error
	// Resume continues a paused capture.
	Resume() error
	// Stop finalizes the capture, returning the audio bytes and MIME type.
	Stop() ([]byte, string, error)
}

// State is the recorder's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ErrDeviceUnavailable wraps capture start failures: permission denied
// or no input device. Recoverable by retrying the permission grant.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// ErrBusy is returned by Start while a capture is already in progress.
// Starting over a live recording is rejected rather than treated as a
// no-op, so callers always know whether a fresh session began.
var ErrBusy = errors.New("recording already in progress")

// ErrNoRecording is returned by Stop when nothing is being recorded.
var ErrNoRecording = errors.New("no recording in progress")

// Recording is a finalized capture artifact.
type Recording struct {
	Data            []byte
	MimeType        string
	DurationSeconds int
}

// Recorder drives an AudioCapture through the recording lifecycle and
// tracks elapsed duration in whole seconds, excluding paused intervals.
type Recorder struct {
	capture AudioCapture
	now     func() time.Time

	mu        sync.Mutex
	state     State
	segStart  time.Time     // start of the current recording segment
	elapsed   time.Duration // accumulated across completed segments
	recording *Recording    // finalized, unsubmitted artifact
}

// New creates a Recorder over the given capture backend.
func New(capture AudioCapture) *Recorder {
	return &Recorder{capture: capture, now: time.Now}
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start begins a new recording session. From Stopped it drops the held
// artifact first, same as an explicit Discard. Returns ErrBusy while
// recording or paused.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateRecording, StatePaused:
		return ErrBusy
	}

	if err := r.capture.Start(ctx); err != nil {
		return errors.Join(ErrDeviceUnavailable, err)
	}

	r.recording = nil
	r.elapsed = 0
	r.segStart = r.now()
	r.state = StateRecording
	return nil
}

// Pause suspends capture and the duration clock. No-op unless recording.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return nil
	}
	if err := r.capture.Pause(); err != nil {
		return err
	}
	r.elapsed += r.now().Sub(r.segStart)
	r.state = StatePaused
	return nil
}

// Resume continues a paused capture. No-op unless paused.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePaused {
		return nil
	}
	if err := r.capture.Resume(); err != nil {
		return err
	}
	r.segStart = r.now()
	r.state = StateRecording
	return nil
}

// Stop finalizes the capture and yields the artifact. The reported
// duration is the whole seconds spent in the Recording state.
func (r *Recorder) Stop() (*Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateRecording:
		r.elapsed += r.now().Sub(r.segStart)
	case StatePaused:
		// clock already accumulated at Pause
	default:
		return nil, ErrNoRecording
	}

	data, mime, err := r.capture.Stop()
	if err != nil {
		r.state = StateIdle
		r.elapsed = 0
		return nil, err
	}

	r.recording = &Recording{
		Data:            data,
		MimeType:        mime,
		DurationSeconds: int(r.elapsed.Seconds()),
	}
	r.state = StateStopped
	return r.recording, nil
}

// Discard drops any finalized-but-unsubmitted recording and returns the
// recorder to Idle. No-op in other states.
func (r *Recorder) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateStopped {
		return
	}
	r.recording = nil
	r.elapsed = 0
	r.state = StateIdle
}

// Recording returns the finalized artifact, or nil if none is held.
func (r *Recorder) Recording() *Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Elapsed returns the whole seconds recorded so far, excluding paused
// intervals. Safe to poll from a UI tick while recording.
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.elapsed
	if r.state == StateRecording {
		d += r.now().Sub(r.segStart)
	}
	return int(d.Seconds())
}
