package models

import "time"

// Note is an active note, visible and editable by its owner.
type Note struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TrashedNote is a soft-deleted note kept until it is restored or erased.
//
// OriginalUpdatedAt is the note's UpdatedAt at the moment it was trashed.
// It is nil only for rows that predate the column.
type TrashedNote struct {
	ID                string     `json:"id"`
	OriginalNoteID    string     `json:"original_note_id"`
	OwnerID           string     `json:"owner_id"`
	Title             string     `json:"title"`
	Content           string     `json:"content"`
	TrashedAt         time.Time  `json:"trashed_at"`
	OriginalUpdatedAt *time.Time `json:"original_updated_at"`
}
