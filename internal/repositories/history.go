package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/shared"
)

// HistoryRepository stores [models.HistoryEntry] rows. It satisfies session.Journal.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new [HistoryRepository] with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record inserts entry with a generated ID and sequence.
func (r *HistoryRepository) Record(ctx context.Context, entry *models.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "history")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO history (id, sequence, kind, track_id, label, created_at) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query, id, sequence, string(entry.Kind()), entry.TrackID(), entry.Label(), entry.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	entry.SetID(id)
	entry.SetSequence(sequence)
	return nil
}

// List returns up to limit entries, newest first. A limit of zero or less returns everything.
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	query := `
		SELECT id, sequence, kind, track_id, label, created_at
		FROM history
		ORDER BY sequence DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		var (
			id        string
			sequence  int
			kind      string
			trackID   string
			label     string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &sequence, &kind, &trackID, &label, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, models.RestoreHistoryEntry(id, sequence, models.HistoryKind(kind), trackID, label, createdAt))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return entries, nil
}

// ListByKind returns entries of one kind, newest first.
func (r *HistoryRepository) ListByKind(ctx context.Context, kind models.HistoryKind) ([]*models.HistoryEntry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: history kind %q", shared.ErrInvalidArgument, kind)
	}

	entries, err := r.List(ctx, 0)
	if err != nil {
		return nil, err
	}

	filtered := entries[:0]
	for _, e := range entries {
		if e.Kind() == kind {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// Count returns the number of recorded entries.
func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM history").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}

// Clear removes every entry. Sequence numbers keep increasing.
func (r *HistoryRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM history"); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
