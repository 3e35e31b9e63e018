package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/draw-together/backend/internal/model"
)

// ArchivedOperation is an operation as recorded in the write-behind
// archive, including its undo state and the room it belongs to.
type ArchivedOperation struct {
	RoomID    string          `json:"roomId"`
	Operation model.Operation `json:"operation"`
	Removed   bool            `json:"removed"`
}

// RoomActivity summarizes one room's archived activity.
type RoomActivity struct {
	RoomID     string    `json:"roomId"`
	LastActive time.Time `json:"lastActive"`
	OpCount    int64     `json:"opCount"`
}

// ArchiveRepository provides data access for the operation archive.
type ArchiveRepository struct {
	db *sql.DB
}

// NewArchiveRepository creates a new ArchiveRepository.
func NewArchiveRepository(db *sql.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// InsertOperation records an appended operation and bumps the room's
// activity row.
func (r *ArchiveRepository) InsertOperation(ctx context.Context, roomID string, op *model.Operation) error {
	payload, err := op.PayloadToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize payload: %w", err)
	}

	query := `
		INSERT INTO operations (id, room_id, author_id, kind, seq, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		op.ID,
		roomID,
		op.AuthorID,
		string(op.Kind),
		op.Sequence,
		payload,
		op.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert operation: %w", err)
	}

	activity := `
		INSERT INTO rooms (id, last_active, op_count)
		VALUES (?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET last_active = excluded.last_active, op_count = op_count + 1
	`

	if _, err := r.db.ExecContext(ctx, activity, roomID, op.CreatedAt); err != nil {
		return fmt.Errorf("failed to update room activity: %w", err)
	}

	return nil
}

// SetOperationRemoved flips the removed flag of an archived operation,
// mirroring undo and redo.
func (r *ArchiveRepository) SetOperationRemoved(ctx context.Context, operationID string, removed bool) error {
	query := `UPDATE operations SET removed = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, removed, operationID)
	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return model.ErrOperationNotFound
	}

	return nil
}

// RecentOperations retrieves the newest archived operations of a room,
// newest first, including removed ones.
func (r *ArchiveRepository) RecentOperations(ctx context.Context, roomID string, limit int) ([]*ArchivedOperation, error) {
	query := `
		SELECT id, author_id, kind, seq, payload, removed, created_at
		FROM operations
		WHERE room_id = ?
		ORDER BY seq DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	var ops []*ArchivedOperation
	for rows.Next() {
		archived := &ArchivedOperation{RoomID: roomID}
		var kind string
		var payload sql.NullString

		err := rows.Scan(
			&archived.Operation.ID,
			&archived.Operation.AuthorID,
			&kind,
			&archived.Operation.Sequence,
			&payload,
			&archived.Removed,
			&archived.Operation.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}

		archived.Operation.Kind = model.OpKind(kind)
		if payload.Valid {
			if err := archived.Operation.PayloadFromJSON(payload.String); err != nil {
				return nil, fmt.Errorf("failed to parse payload: %w", err)
			}
		}

		ops = append(ops, archived)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operations: %w", err)
	}

	return ops, nil
}

// GetOperation retrieves one archived operation by id.
func (r *ArchiveRepository) GetOperation(ctx context.Context, operationID string) (*ArchivedOperation, error) {
	query := `
		SELECT id, room_id, author_id, kind, seq, payload, removed, created_at
		FROM operations
		WHERE id = ?
	`

	archived := &ArchivedOperation{}
	var kind string
	var payload sql.NullString

	err := r.db.QueryRowContext(ctx, query, operationID).Scan(
		&archived.Operation.ID,
		&archived.RoomID,
		&archived.Operation.AuthorID,
		&kind,
		&archived.Operation.Sequence,
		&payload,
		&archived.Removed,
		&archived.Operation.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrOperationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}

	archived.Operation.Kind = model.OpKind(kind)
	if payload.Valid {
		if err := archived.Operation.PayloadFromJSON(payload.String); err != nil {
			return nil, fmt.Errorf("failed to parse payload: %w", err)
		}
	}

	return archived, nil
}

// ListRoomActivity retrieves the archived activity summary of every
// room, most recently active first.
func (r *ArchiveRepository) ListRoomActivity(ctx context.Context) ([]*RoomActivity, error) {
	query := `
		SELECT id, last_active, op_count
		FROM rooms
		ORDER BY last_active DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list room activity: %w", err)
	}
	defer rows.Close()

	var activity []*RoomActivity
	for rows.Next() {
		a := &RoomActivity{}
		if err := rows.Scan(&a.RoomID, &a.LastActive, &a.OpCount); err != nil {
			return nil, fmt.Errorf("failed to scan room activity: %w", err)
		}
		activity = append(activity, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating room activity: %w", err)
	}

	return activity, nil
}

// CountOperations returns the number of archived operations for a room.
func (r *ArchiveRepository) CountOperations(ctx context.Context, roomID string) (int64, error) {
	query := `SELECT COUNT(*) FROM operations WHERE room_id = ?`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, roomID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count operations: %w", err)
	}

	return count, nil
}
