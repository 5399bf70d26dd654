// Package services contains server-side business logic. Services own a
// *sql.DB and a RepositoryManager and bind repositories to either the
// connection or a transaction as each operation requires.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophnotes/internal/server/richtext"
	"github.com/google/uuid"
)

const (
	MaxTitleLength  = 255
	MaxContentBytes = 100 * 1024
)

// NoteService manages the active notes of a user.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sanitizer   *richtext.Sanitizer
	log         logging.Logger
	now         func() time.Time
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager, sanitizer *richtext.Sanitizer, log logging.Logger) *NoteService {
	return &NoteService{
		db:          db,
		repomanager: m,
		sanitizer:   sanitizer,
		log:         log.With("module", "notes"),
		now:         time.Now,
	}
}

// Create stores a new note owned by ownerID.
func (s *NoteService) Create(ctx context.Context, ownerID, title, content string) (*models.Note, error) {
	title, content, err := s.normalize(title, content)
	if err != nil {
		return nil, err
	}

	now := stamp(s.now)
	note := &models.Note{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repomanager.Notes(s.db).Create(ctx, note); err != nil {
		return nil, fmt.Errorf("error creating note: %w", err)
	}
	s.log.Debug(ctx, "note created", "user_id", ownerID, "note_id", note.ID)
	return note, nil
}

func (s *NoteService) Get(ctx context.Context, ownerID, id string) (*models.Note, error) {
	if !isValidID(id) {
		return nil, common.ErrNotFoundOrNotOwned
	}
	note, err := s.repomanager.Notes(s.db).Get(ctx, ownerID, id)
	if err != nil {
		return nil, notFoundOrNotOwned(err, "error reading note")
	}
	return note, nil
}

// ListActive returns the owner's notes, most recently updated first.
func (s *NoteService) ListActive(ctx context.Context, ownerID string) ([]*models.Note, error) {
	list, err := s.repomanager.Notes(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing notes: %w", err)
	}
	return list, nil
}

// Update replaces title and content of a single note. It touches only the
// notes table.
func (s *NoteService) Update(ctx context.Context, ownerID, id, title, content string) (*models.Note, error) {
	if !isValidID(id) {
		return nil, common.ErrNotFoundOrNotOwned
	}
	title, content, err := s.normalize(title, content)
	if err != nil {
		return nil, err
	}

	note, err := s.repomanager.Notes(s.db).Update(ctx, ownerID, id, title, content, stamp(s.now))
	if err != nil {
		return nil, notFoundOrNotOwned(err, "error updating note")
	}
	return note, nil
}

func (s *NoteService) normalize(title, content string) (string, string, error) {
	// titles are plain text: markup is dropped, entities are decoded
	title = s.sanitizer.PlainText(title)
	if title == "" {
		return "", "", fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", "", fmt.Errorf("%w: title is longer than %d characters", common.ErrValidation, MaxTitleLength)
	}

	if strings.TrimSpace(content) == "" {
		return "", "", fmt.Errorf("%w: content is required", common.ErrValidation)
	}
	if len(content) > MaxContentBytes {
		return "", "", fmt.Errorf("%w: content is larger than %d bytes", common.ErrValidation, MaxContentBytes)
	}

	clean := s.sanitizer.Sanitize(content)
	if s.sanitizer.PlainText(clean) == "" {
		return "", "", fmt.Errorf("%w: content is empty", common.ErrValidation)
	}
	return title, clean, nil
}

// stamp reads the clock at the precision PostgreSQL timestamptz keeps, so
// the timestamps returned to callers are the ones that get stored.
func stamp(now func() time.Time) time.Time {
	return now().UTC().Truncate(time.Microsecond)
}

// isValidID rejects ids that cannot exist, so they never reach the database.
func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func notFoundOrNotOwned(err error, msg string) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrNotFoundOrNotOwned
	}
	return fmt.Errorf("%s: %w", msg, err)
}
