package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/truinsights/voicejournal/internal/insights"
)

// ErrNotFound is returned when a journal does not exist or belongs to
// another user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("journal not found")

// ErrNoTranscript is returned when insights are submitted for a journal
// that has no transcript yet. Insights are derived from the transcript,
// so this ordering is a hard invariant.
var ErrNoTranscript = errors.New("journal has no transcript")

// NewJournal is the input for creating a journal entry. Transcript and
// insights are always unset at creation time.
type NewJournal struct {
	UserID               uuid.UUID
	AudioKey             string
	AudioMime            string
	AudioDurationSeconds int
}

// JournalEntry is the journal representation for API responses.
// Transcript and Insights are nil until processing fills them in.
type JournalEntry struct {
	ID                   uuid.UUID          `json:"id"`
	UserID               uuid.UUID          `json:"user_id"`
	AudioKey             string             `json:"audio_key"`
	AudioMime            string             `json:"audio_mime"`
	AudioDurationSeconds int                `json:"audio_duration_seconds"`
	Transcript           *string            `json:"transcript,omitempty"`
	Insights             *insights.Insights `json:"insights,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

const journalColumns = `id, user_id, audio_key, audio_mime, audio_duration_seconds,
	transcript, extracted, created_at, updated_at`

// InsertJournal creates a journal entry with audio only.
func (db *DB) InsertJournal(ctx context.Context, nj NewJournal) (*JournalEntry, error) {
	if nj.AudioDurationSeconds < 0 {
		return nil, fmt.Errorf("negative audio duration: %d", nj.AudioDurationSeconds)
	}
	mime := nj.AudioMime
	if mime == "" {
		mime = "audio/webm"
	}

	row := db.Pool.QueryRow(ctx, `
		INSERT INTO journals (user_id, audio_key, audio_mime, audio_duration_seconds)
		VALUES ($1, $2, $3, $4)
		RETURNING `+journalColumns,
		nj.UserID, nj.AudioKey, mime, nj.AudioDurationSeconds,
	)
	return scanJournal(row)
}

// SetTranscript stores the transcript for a journal owned by userID.
func (db *DB) SetTranscript(ctx context.Context, id, userID uuid.UUID, transcript string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE journals SET transcript = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`, id, userID, transcript)
	if err != nil {
		return fmt.Errorf("update transcript: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetInsights stores extracted insights for a journal owned by userID.
// Fails with ErrNoTranscript if the journal has no transcript yet: a row
// must never carry insights without the transcript they came from.
func (db *DB) SetInsights(ctx context.Context, id, userID uuid.UUID, ins insights.Insights) error {
	extracted, err := json.Marshal(ins)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}

	// Denormalized columns mirror the jsonb blob for dashboard queries.
	tag, err := db.Pool.Exec(ctx, `
		UPDATE journals SET
			extracted = $3,
			energy_level = $4,
			difficulty_rating = $5,
			mood = $6,
			tags = $7,
			updated_at = now()
		WHERE id = $1 AND user_id = $2 AND transcript IS NOT NULL
	`, id, userID, extracted, ins.EnergyLevel, ins.DifficultyRating, ins.Mood, ins.Tags)
	if err != nil {
		return fmt.Errorf("update insights: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish missing row from transcript-less row.
		var exists bool
		err := db.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM journals WHERE id = $1 AND user_id = $2)`,
			id, userID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check journal: %w", err)
		}
		if exists {
			return ErrNoTranscript
		}
		return ErrNotFound
	}
	return nil
}

// GetJournal returns a single journal owned by userID.
func (db *DB) GetJournal(ctx context.Context, id, userID uuid.UUID) (*JournalEntry, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+journalColumns+`
		FROM journals
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	j, err := scanJournal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return j, err
}

// ListRecentJournals returns the newest journals for a user, newest first.
// The result is a finite snapshot, never more than limit rows.
func (db *DB) ListRecentJournals(ctx context.Context, userID uuid.UUID, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT `+journalColumns+`
		FROM journals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []JournalEntry
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *j)
	}
	if result == nil {
		result = []JournalEntry{}
	}
	return result, rows.Err()
}

// CountJournals returns the total journal count for a user.
func (db *DB) CountJournals(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM journals WHERE user_id = $1`, userID,
	).Scan(&n)
	return n, err
}

func scanJournal(row pgx.Row) (*JournalEntry, error) {
	var j JournalEntry
	var extracted []byte
	err := row.Scan(
		&j.ID, &j.UserID, &j.AudioKey, &j.AudioMime, &j.AudioDurationSeconds,
		&j.Transcript, &extracted, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(extracted) > 0 {
		var ins insights.Insights
		if err := json.Unmarshal(extracted, &ins); err != nil {
			return nil, fmt.Errorf("decode extracted insights: %w", err)
		}
		j.Insights = &ins
	}
	return &j, nil
}
