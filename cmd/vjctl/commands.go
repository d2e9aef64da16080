package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/truinsights/voicejournal/internal/recorder"
)

// journal mirrors the server's journal entry payload.
type journal struct {
	ID                   string    `json:"id"`
	AudioDurationSeconds int       `json:"audio_duration_seconds"`
	Transcript           *string   `json:"transcript"`
	Insights             *insights `json:"insights"`
	CreatedAt            time.Time `json:"created_at"`
}

type insights struct {
	EnergyLevel        int      `json:"energy_level"`
	DifficultyRating   int      `json:"difficulty_rating"`
	Mood               string   `json:"mood"`
	Highlights         []string `json:"highlights"`
	Challenges         []string `json:"challenges"`
	BodyFeelings       []string `json:"body_feelings"`
	InstructorFeedback string   `json:"instructor_feedback"`
	Tags               []string `json:"tags"`
}

// --- record ---

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a voice note and save it as a journal entry",
	Long: `Record a voice note from the default audio input and submit it
as a journal entry. While recording:

  p + Enter   pause
  r + Enter   resume
  Enter       stop and submit

Examples:
  vjctl record
  vjctl record --output note.webm
  vjctl record --input-format alsa --input-device hw:0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFormat, _ := cmd.Flags().GetString("input-format")
		inputDevice, _ := cmd.Flags().GetString("input-device")
		output, _ := cmd.Flags().GetString("output")

		rec := recorder.New(recorder.NewFFmpegCapture(inputFormat, inputDevice))
		if err := rec.Start(cmd.Context()); err != nil {
			return err
		}
		printStep("recording (p=pause, r=resume, Enter=stop)")

		scanner := bufio.NewScanner(os.Stdin)
	input:
		for scanner.Scan() {
			switch strings.TrimSpace(scanner.Text()) {
			case "p":
				if err := rec.Pause(); err == nil {
					printStep("paused at %ds", rec.Elapsed())
				}
			case "r":
				if err := rec.Resume(); err == nil {
					printStep("resumed")
				}
			default:
				break input
			}
		}
		rc, err := rec.Stop()
		if err != nil {
			rec.Discard()
			return fmt.Errorf("recording failed: %w", err)
		}
		printStep("captured %ds of audio", rc.DurationSeconds)

		if output != "" {
			if err := os.WriteFile(output, rc.Data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			printSuccess("Saved recording to %s", output)
			return nil
		}

		client := newAPIClient()
		resp, err := client.postAudio(cmd.Context(), "/journals", rc.Data, rc.MimeType, rc.DurationSeconds)
		if err != nil {
			return err
		}
		var entry journal
		if err := decodeJSON(resp, &entry); err != nil {
			return err
		}
		printSuccess("Journal %s saved, processing queued", entry.ID)
		return nil
	},
}

// --- submit ---

var submitCmd = &cobra.Command{
	Use:   "submit <audio-file>",
	Short: "Submit an audio file as a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		duration, _ := cmd.Flags().GetInt("duration")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading audio: %w", err)
		}

		client := newAPIClient()
		resp, err := client.postAudio(cmd.Context(), "/journals", data, mimeForFile(args[0]), duration)
		if err != nil {
			return err
		}
		var entry journal
		if err := decodeJSON(resp, &entry); err != nil {
			return err
		}
		printSuccess("Journal %s saved, processing queued", entry.ID)
		return nil
	},
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client := newAPIClient()
		resp, err := client.get(cmd.Context(), fmt.Sprintf("/journals?limit=%d", limit))
		if err != nil {
			return err
		}
		var result struct {
			Journals []journal `json:"journals"`
			Count    int       `json:"count"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if result.Count == 0 {
			fmt.Println("no journal entries yet")
			return nil
		}
		for _, j := range result.Journals {
			fmt.Printf("%s  %s  %3ds  %s\n",
				j.ID, j.CreatedAt.Local().Format("2006-01-02 15:04"),
				j.AudioDurationSeconds, summarize(j))
		}
		return nil
	},
}

// --- show ---

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()
		resp, err := client.get(cmd.Context(), "/journals/"+args[0])
		if err != nil {
			return err
		}
		var j journal
		if err := decodeJSON(resp, &j); err != nil {
			return err
		}

		printStatus("Recorded", "%s (%ds)", j.CreatedAt.Local().Format(time.RFC1123), j.AudioDurationSeconds)
		if j.Transcript == nil {
			printStatus("Transcript", "not processed yet")
			return nil
		}
		printStatus("Transcript", "%s", *j.Transcript)
		if j.Insights == nil {
			printStatus("Insights", "pending")
			return nil
		}
		ins := j.Insights
		printStatus("Energy", "%d/10", ins.EnergyLevel)
		printStatus("Difficulty", "%d/10", ins.DifficultyRating)
		printStatus("Mood", "%s", ins.Mood)
		if len(ins.Highlights) > 0 {
			printStatus("Highlights", "%s", strings.Join(ins.Highlights, "; "))
		}
		if len(ins.Challenges) > 0 {
			printStatus("Challenges", "%s", strings.Join(ins.Challenges, "; "))
		}
		if len(ins.BodyFeelings) > 0 {
			printStatus("Body", "%s", strings.Join(ins.BodyFeelings, "; "))
		}
		if ins.InstructorFeedback != "" {
			printStatus("Instructor", "%s", ins.InstructorFeedback)
		}
		if len(ins.Tags) > 0 {
			printStatus("Tags", "%s", strings.Join(ins.Tags, ", "))
		}
		return nil
	},
}

// --- transcribe ---

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Transcribe an audio file without saving a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading audio: %w", err)
		}

		client := newAPIClient()
		resp, err := client.postAudio(cmd.Context(), "/transcribe", data, mimeForFile(args[0]), 0)
		if err != nil {
			return err
		}
		var result struct {
			Transcript string `json:"transcript"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		fmt.Println(result.Transcript)
		return nil
	},
}

// --- queue ---

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show processing queue statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()
		resp, err := client.get(cmd.Context(), "/journals/queue")
		if err != nil {
			return err
		}
		var stats struct {
			Pending   int   `json:"pending"`
			Completed int64 `json:"completed"`
			Partial   int64 `json:"partial"`
			Failed    int64 `json:"failed"`
		}
		if err := decodeJSON(resp, &stats); err != nil {
			return err
		}
		printStatus("Pending", "%d", stats.Pending)
		printStatus("Completed", "%d", stats.Completed)
		printStatus("Partial", "%d", stats.Partial)
		printStatus("Failed", "%d", stats.Failed)
		return nil
	},
}

func init() {
	recordCmd.Flags().String("input-format", "pulse", "ffmpeg input format")
	recordCmd.Flags().String("input-device", "default", "audio input device")
	recordCmd.Flags().String("output", "", "save the recording to a file instead of submitting")
	submitCmd.Flags().Int("duration", 0, "recording duration in seconds")
	listCmd.Flags().Int("limit", 5, "number of entries to list")
}

func mimeForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	}
	return "audio/webm"
}

func summarize(j journal) string {
	switch {
	case j.Insights != nil:
		return fmt.Sprintf("mood=%s energy=%d", j.Insights.Mood, j.Insights.EnergyLevel)
	case j.Transcript != nil:
		t := *j.Transcript
		if len(t) > 48 {
			t = t[:48] + "…"
		}
		return t
	default:
		return "(processing)"
	}
}
