package storage

import (
	"context"
	"path/filepath"
	"testing"

	"printpress-server-go/internal/platform/config"
)

func setupTestDB(t *testing.T) JobRepository {
	t.Helper()
	db, err := Open(&config.StorageConfig{
		Enabled: true,
		DSN:     filepath.Join(t.TempDir(), "audit.db"),
	})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	return NewJobRepository(db)
}

func TestJobRepository_SaveAndRecent(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	jobs := []*ResizeJob{
		{RequestID: "a", Status: "completed", TargetWidth: 7200, TargetHeight: 10800, DPI: 300},
		{RequestID: "b", Status: "failed", ErrorCode: "unsupported_format"},
		{RequestID: "c", Status: "completed", Oversized: true},
	}
	for _, j := range jobs {
		if err := repo.Save(ctx, j); err != nil {
			t.Fatalf("save %s: %v", j.RequestID, err)
		}
	}

	recent, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(recent))
	}

	all, err := repo.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent default limit: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}

	completed, err := repo.CountByStatus(ctx, "completed")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if completed != 2 {
		t.Fatalf("expected 2 completed, got %d", completed)
	}
}
