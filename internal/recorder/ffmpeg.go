package recorder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

// FFmpegCapture records from a system audio input by shelling out to
// ffmpeg. Pause/Resume use SIGSTOP/SIGCONT so ffmpeg itself never sees
// the gap; the captured stream is contiguous.
type FFmpegCapture struct {
	inputFormat string // e.g. "pulse", "alsa", "avfoundation"
	inputDevice string // e.g. "default"

	cmd     *exec.Cmd
	outPath string
}

// NewFFmpegCapture creates a capture backend for the given input.
// Empty arguments fall back to pulse/default, which suits most Linux
// desktops.
func NewFFmpegCapture(inputFormat, inputDevice string) *FFmpegCapture {
	if inputFormat == "" {
		inputFormat = "pulse"
	}
	if inputDevice == "" {
		inputDevice = "default"
	}
	return &FFmpegCapture{inputFormat: inputFormat, inputDevice: inputDevice}
}

func (f *FFmpegCapture) Start(ctx context.Context) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	f.outPath = filepath.Join(os.TempDir(), fmt.Sprintf("vj-capture-%d.webm", time.Now().UnixNano()))

	// ffmpeg -f pulse -i default -ac 1 -c:a libopus out.webm
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-f", f.inputFormat, "-i", f.inputDevice,
		"-ac", "1", "-c:a", "libopus",
		"-y", f.outPath,
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	f.cmd = cmd
	return nil
}

func (f *FFmpegCapture) Pause() error {
	if f.cmd == nil || f.cmd.Process == nil {
		return fmt.Errorf("capture not running")
	}
	return f.cmd.Process.Signal(syscall.SIGSTOP)
}

func (f *FFmpegCapture) Resume() error {
	if f.cmd == nil || f.cmd.Process == nil {
		return fmt.Errorf("capture not running")
	}
	return f.cmd.Process.Signal(syscall.SIGCONT)
}

func (f *FFmpegCapture) Stop() ([]byte, string, error) {
	if f.cmd == nil || f.cmd.Process == nil {
		return nil, "", fmt.Errorf("capture not running")
	}

	// Unfreeze first in case we were paused, then ask ffmpeg to finalize
	// the container cleanly.
	f.cmd.Process.Signal(syscall.SIGCONT)
	f.cmd.Process.Signal(syscall.SIGINT)
	f.cmd.Wait()
	f.cmd = nil

	data, err := os.ReadFile(f.outPath)
	os.Remove(f.outPath)
	if err != nil {
		return nil, "", fmt.Errorf("read capture output: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("capture produced no audio")
	}
	return data, "audio/webm", nil
}
