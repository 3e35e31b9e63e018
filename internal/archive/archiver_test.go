package archive

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/draw-together/backend/internal/db"
	"github.com/draw-together/backend/internal/model"
	"github.com/draw-together/backend/internal/repository"
)

func newTestArchiver(t *testing.T) (*Archiver, *repository.ArchiveRepository) {
	t.Helper()

	testDB, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })

	repo := repository.NewArchiveRepository(testDB)
	return NewArchiver(repo, 16), repo
}

func TestArchiverDrainsQueuedRecords(t *testing.T) {
	archiver, repo := newTestArchiver(t)

	var lastID string
	for i := 0; i < 3; i++ {
		op := &model.Operation{
			ID:        fmt.Sprintf("op-%d", i),
			AuthorID:  "session-1",
			Kind:      model.OpKindFreehand,
			Points:    []model.Point{{X: float64(i), Y: float64(i)}},
			Sequence:  int64(i),
			CreatedAt: time.Now(),
		}
		archiver.RecordAppend("art", op)
		lastID = op.ID
	}
	archiver.RecordRemoved(lastID, true)

	// Close waits for the drain goroutine to finish the queue.
	archiver.Close()

	ctx := context.Background()
	count, err := repo.CountOperations(ctx, "art")
	if err != nil {
		t.Fatalf("failed to count operations: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 archived operations, got %d", count)
	}

	archived, err := repo.GetOperation(ctx, lastID)
	if err != nil {
		t.Fatalf("failed to get operation: %v", err)
	}
	if !archived.Removed {
		t.Error("expected removed flag set by drained flip")
	}
}

func TestArchiverIgnoresRecordsAfterClose(t *testing.T) {
	archiver, repo := newTestArchiver(t)
	archiver.Close()

	// Must not panic or block.
	archiver.RecordAppend("art", &model.Operation{
		ID:     "late-op",
		Kind:   model.OpKindFreehand,
		Points: []model.Point{{X: 1, Y: 1}},
	})
	archiver.Close()

	count, err := repo.CountOperations(context.Background(), "art")
	if err != nil {
		t.Fatalf("failed to count operations: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no operations archived after close, got %d", count)
	}
}

func TestArchiverCopiesOperations(t *testing.T) {
	archiver, repo := newTestArchiver(t)

	op := &model.Operation{
		ID:        "op-shared",
		AuthorID:  "session-1",
		Kind:      model.OpKindShape,
		Shape:     &model.Shape{Tool: "line", EndX: 5, EndY: 5},
		CreatedAt: time.Now(),
	}
	archiver.RecordAppend("art", op)

	// Mutating the caller's copy after enqueueing must not leak into
	// the archive.
	op.AuthorID = "someone-else"

	archiver.Close()

	archived, err := repo.GetOperation(context.Background(), "op-shared")
	if err != nil {
		t.Fatalf("failed to get operation: %v", err)
	}
	if archived.Operation.AuthorID != "session-1" {
		t.Errorf("expected archived author session-1, got %s", archived.Operation.AuthorID)
	}
}
