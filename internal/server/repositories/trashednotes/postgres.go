package trashednotes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// PostgresRepository implements trash ledger storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const trashedColumns = `id, original_note_id, user_id, title, content, trashed_at, original_updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrashed(row scanner) (*models.TrashedNote, error) {
	t := &models.TrashedNote{}
	var originalUpdatedAt sql.NullTime
	if err := row.Scan(&t.ID, &t.OriginalNoteID, &t.OwnerID, &t.Title, &t.Content, &t.TrashedAt, &originalUpdatedAt); err != nil {
		return nil, err
	}
	if originalUpdatedAt.Valid {
		ts := originalUpdatedAt.Time
		t.OriginalUpdatedAt = &ts
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.TrashedNote) error {
	query := `
		INSERT INTO trashed_notes (id, original_note_id, user_id, title, content, trashed_at, original_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	var originalUpdatedAt sql.NullTime
	if t.OriginalUpdatedAt != nil {
		originalUpdatedAt = sql.NullTime{Time: *t.OriginalUpdatedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.OriginalNoteID, t.OwnerID, t.Title, t.Content, t.TrashedAt, originalUpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, ownerID, id string) (*models.TrashedNote, error) {
	query := `SELECT ` + trashedColumns + ` FROM trashed_notes WHERE id = $1 AND user_id = $2 FOR UPDATE`

	t, err := scanTrashed(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.TrashedNote, error) {
	query := `SELECT ` + trashedColumns + ` FROM trashed_notes
		WHERE user_id = $1
		ORDER BY trashed_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select trashed notes: %w", err)
	}
	defer rows.Close()

	result := make([]*models.TrashedNote, 0)
	for rows.Next() {
		t, err := scanTrashed(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM trashed_notes WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
