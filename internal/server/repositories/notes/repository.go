// Package notes persists active notes. Every query is scoped by owner, so a
// foreign row is indistinguishable from a missing one.
package notes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, note *models.Note) error
	// Get and GetForUpdate return common.ErrorNotFound when the note is
	// absent or owned by someone else. GetForUpdate locks the row until the
	// surrounding transaction ends.
	Get(ctx context.Context, ownerID, id string) (*models.Note, error)
	GetForUpdate(ctx context.Context, ownerID, id string) (*models.Note, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Note, error)
	// Update replaces title and content and moves updated_at forward to now
	// (never backward).
	Update(ctx context.Context, ownerID, id, title, content string, now time.Time) (*models.Note, error)
	// Delete removes exactly one row or returns common.ErrorNotFound.
	Delete(ctx context.Context, ownerID, id string) error
}
