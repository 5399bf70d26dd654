// Package trashednotes persists the trash ledger: notes that were trashed
// and may still be restored or erased.
package trashednotes

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, note *models.TrashedNote) error
	// GetForUpdate locks the row for the rest of the transaction. Returns
	// common.ErrorNotFound when absent or owned by someone else.
	GetForUpdate(ctx context.Context, ownerID, id string) (*models.TrashedNote, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.TrashedNote, error)
	// Delete removes exactly one row or returns common.ErrorNotFound.
	Delete(ctx context.Context, ownerID, id string) error
}
