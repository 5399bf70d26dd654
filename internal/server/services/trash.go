package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
)

// TrashService reads and purges the trash ledger.
type TrashService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewTrashService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *TrashService {
	return &TrashService{db: db, repomanager: m, log: log.With("module", "trash")}
}

// ListTrashed returns the owner's trashed notes, most recently trashed first.
func (s *TrashService) ListTrashed(ctx context.Context, ownerID string) ([]*models.TrashedNote, error) {
	list, err := s.repomanager.TrashedNotes(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing trashed notes: %w", err)
	}
	return list, nil
}

// EraseForever deletes a trashed note permanently. There is no undo.
func (s *TrashService) EraseForever(ctx context.Context, ownerID, trashedID string) error {
	if !isValidID(trashedID) {
		return common.ErrNotFoundOrNotOwned
	}
	if err := s.repomanager.TrashedNotes(s.db).Delete(ctx, ownerID, trashedID); err != nil {
		return notFoundOrNotOwned(err, "error erasing trashed note")
	}
	s.log.Info(ctx, "trashed note erased", "user_id", ownerID, "trashed_id", trashedID)
	return nil
}
