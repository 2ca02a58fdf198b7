package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/shared"
)

// setupTestDB opens the in-memory session database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewSessionDatabase()
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestHistoryRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Record", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))
		entry := models.NewHistoryEntry(models.HistoryPlay, "t1", "Song One")

		if err := repo.Record(ctx, entry); err != nil {
			t.Fatalf("failed to record entry: %v", err)
		}

		if entry.ID() == "" {
			t.Error("entry ID should be set after recording")
		}
		if entry.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", entry.Sequence())
		}
	})

	t.Run("Record Rejects Invalid Entries", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))

		if err := repo.Record(ctx, models.NewHistoryEntry(models.HistoryPlay, "", "no track")); err == nil {
			t.Error("expected validation error for play without track")
		}
		if err := repo.Record(ctx, models.NewHistoryEntry("bogus", "", "")); err == nil {
			t.Error("expected validation error for unknown kind")
		}

		count, _ := repo.Count(ctx)
		if count != 0 {
			t.Errorf("expected nothing recorded, got %d", count)
		}
	})

	t.Run("List Newest First", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))

		repo.Record(ctx, models.NewHistoryEntry(models.HistorySearch, "", "rock"))
		repo.Record(ctx, models.NewHistoryEntry(models.HistoryPlay, "t1", "Song One"))
		repo.Record(ctx, models.NewHistoryEntry(models.HistoryMagic, "", "rainy day"))

		entries, err := repo.List(ctx, 0)
		if err != nil {
			t.Fatalf("failed to list entries: %v", err)
		}

		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		if entries[0].Label() != "rainy day" || entries[2].Label() != "rock" {
			t.Errorf("expected newest first, got %s ... %s", entries[0].Label(), entries[2].Label())
		}
		if entries[1].TrackID() != "t1" || entries[1].Kind() != models.HistoryPlay {
			t.Errorf("unexpected middle entry %+v", entries[1])
		}
		if entries[0].CreatedAt().IsZero() {
			t.Error("expected created_at to round-trip")
		}

		limited, err := repo.List(ctx, 2)
		if err != nil {
			t.Fatalf("failed to list entries: %v", err)
		}
		if len(limited) != 2 || limited[0].Sequence() != 3 {
			t.Errorf("expected the two newest entries, got %d", len(limited))
		}
	})

	t.Run("ListByKind", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))

		repo.Record(ctx, models.NewHistoryEntry(models.HistoryPlay, "t1", "One"))
		repo.Record(ctx, models.NewHistoryEntry(models.HistorySearch, "", "q"))
		repo.Record(ctx, models.NewHistoryEntry(models.HistoryPlay, "t2", "Two"))

		plays, err := repo.ListByKind(ctx, models.HistoryPlay)
		if err != nil {
			t.Fatalf("failed to list plays: %v", err)
		}
		if len(plays) != 2 || plays[0].TrackID() != "t2" {
			t.Errorf("expected two plays newest first, got %d", len(plays))
		}

		if _, err := repo.ListByKind(ctx, "bogus"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Clear Keeps Sequence Increasing", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))

		repo.Record(ctx, models.NewHistoryEntry(models.HistorySearch, "", "a"))
		if err := repo.Clear(ctx); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		entry := models.NewHistoryEntry(models.HistorySearch, "", "b")
		repo.Record(ctx, entry)
		if entry.Sequence() != 2 {
			t.Errorf("expected sequence 2 after clear, got %d", entry.Sequence())
		}

		count, err := repo.Count(ctx)
		if err != nil || count != 1 {
			t.Errorf("expected 1 entry, got %d (%v)", count, err)
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewHistoryRepository(db)
		db.Close()

		if err := repo.Record(ctx, models.NewHistoryEntry(models.HistorySearch, "", "x")); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.List(ctx, 0); err == nil {
			t.Error("expected error on closed database")
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(context.Background(), db, "history")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(context.Background(), db, "missing"); err == nil {
		t.Error("expected error for table without a sequence")
	}
}
