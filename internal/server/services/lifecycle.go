package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// LifecycleService moves notes between the active collection and the trash.
// Each move is one transaction: the source row is locked, the target row is
// inserted and the source row is deleted, or nothing happens at all.
//
// The transaction ignores the caller's cancellation and is bounded by
// config.TxTimeout instead.
type LifecycleService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	txTimeout   time.Duration
	log         logging.Logger
	now         func() time.Time
}

func NewLifecycleService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *LifecycleService {
	return &LifecycleService{
		db:          db,
		repomanager: m,
		txTimeout:   cfg.TxTimeout,
		log:         log.With("module", "lifecycle"),
		now:         time.Now,
	}
}

// Trash moves an active note into the trash ledger, keeping its last
// modification time as OriginalUpdatedAt.
func (s *LifecycleService) Trash(ctx context.Context, ownerID, noteID string) error {
	if !isValidID(noteID) {
		return common.ErrNotFoundOrNotOwned
	}

	err := dbx.WithDetachedTx(ctx, s.db, s.txTimeout, nil, func(ctx context.Context, tx dbx.DBTX) error {
		notesRepo := s.repomanager.Notes(tx)
		trashRepo := s.repomanager.TrashedNotes(tx)

		note, err := notesRepo.GetForUpdate(ctx, ownerID, noteID)
		if err != nil {
			return notFoundOrNotOwned(err, "error locking note")
		}

		originalUpdatedAt := note.UpdatedAt
		trashedAt := stamp(s.now)
		if trashedAt.Before(originalUpdatedAt) {
			trashedAt = originalUpdatedAt
		}

		trashed := &models.TrashedNote{
			ID:                uuid.NewString(),
			OriginalNoteID:    note.ID,
			OwnerID:           note.OwnerID,
			Title:             note.Title,
			Content:           note.Content,
			TrashedAt:         trashedAt,
			OriginalUpdatedAt: &originalUpdatedAt,
		}
		if err := trashRepo.Create(ctx, trashed); err != nil {
			return fmt.Errorf("error inserting trashed note: %w", err)
		}
		if err := notesRepo.Delete(ctx, ownerID, note.ID); err != nil {
			return fmt.Errorf("error deleting note: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.txError(ctx, "trash", ownerID, noteID, err)
	}

	s.log.Info(ctx, "note trashed", "user_id", ownerID, "note_id", noteID)
	return nil
}

// Restore turns a trashed note back into an active note with a new id. The
// restored note's UpdatedAt is the value it had when trashed.
func (s *LifecycleService) Restore(ctx context.Context, ownerID, trashedID string) (*models.Note, error) {
	if !isValidID(trashedID) {
		return nil, common.ErrNotFoundOrNotOwned
	}

	var restored *models.Note
	err := dbx.WithDetachedTx(ctx, s.db, s.txTimeout, nil, func(ctx context.Context, tx dbx.DBTX) error {
		notesRepo := s.repomanager.Notes(tx)
		trashRepo := s.repomanager.TrashedNotes(tx)

		trashed, err := trashRepo.GetForUpdate(ctx, ownerID, trashedID)
		if err != nil {
			return notFoundOrNotOwned(err, "error locking trashed note")
		}

		now := stamp(s.now)
		updatedAt := now
		if trashed.OriginalUpdatedAt != nil {
			updatedAt = *trashed.OriginalUpdatedAt
		}

		note := &models.Note{
			ID:        uuid.NewString(),
			OwnerID:   trashed.OwnerID,
			Title:     trashed.Title,
			Content:   trashed.Content,
			CreatedAt: now,
			UpdatedAt: updatedAt,
		}
		if err := notesRepo.Create(ctx, note); err != nil {
			return fmt.Errorf("error inserting note: %w", err)
		}
		if err := trashRepo.Delete(ctx, ownerID, trashed.ID); err != nil {
			return fmt.Errorf("error deleting trashed note: %w", err)
		}

		restored = note
		return nil
	})
	if err != nil {
		return nil, s.txError(ctx, "restore", ownerID, trashedID, err)
	}

	s.log.Info(ctx, "note restored", "user_id", ownerID, "trashed_id", trashedID, "note_id", restored.ID)
	return restored, nil
}

// txError passes ownership failures through and reports everything else as
// a rolled back transaction.
func (s *LifecycleService) txError(ctx context.Context, op, ownerID, id string, err error) error {
	if errors.Is(err, common.ErrNotFoundOrNotOwned) {
		return err
	}
	s.log.Error(ctx, op+" failed", "user_id", ownerID, "id", id, "error", err)
	return fmt.Errorf("%w: %s: %w", common.ErrTransactionFailure, op, err)
}
