package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/richtext"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoteService(t *testing.T, rm *fakeRepoManager) *NoteService {
	t.Helper()
	db, _ := newSQLMockDB(t)
	t.Cleanup(func() { db.Close() })
	return NewNoteService(db, rm, richtext.NewSanitizer(), logging.Nop{})
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestNoteService_Create(t *testing.T) {
	rm := newFakeRepoManager()
	s := newNoteService(t, rm)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = fixedClock(now)

	n, err := s.Create(context.Background(), "u1", "  Groceries  ", "<p>milk</p><script>x()</script>")
	require.NoError(t, err)

	_, perr := uuid.Parse(n.ID)
	assert.NoError(t, perr)
	assert.Equal(t, "u1", n.OwnerID)
	assert.Equal(t, "Groceries", n.Title)
	assert.Equal(t, "<p>milk</p>", n.Content)
	assert.True(t, n.CreatedAt.Equal(now))
	assert.True(t, n.UpdatedAt.Equal(now))

	stored, err := s.Get(context.Background(), "u1", n.ID)
	require.NoError(t, err)
	assert.Equal(t, n, stored)
}

func TestNoteService_TimestampsAreWholeMicroseconds(t *testing.T) {
	rm := newFakeRepoManager()
	s := newNoteService(t, rm)
	clock := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)
	want := time.Date(2026, 3, 1, 10, 0, 0, 123456000, time.UTC)
	s.now = fixedClock(clock)

	n, err := s.Create(context.Background(), "u1", "t", "c")
	require.NoError(t, err)
	assert.True(t, n.CreatedAt.Equal(want), "created_at = %v", n.CreatedAt)
	assert.True(t, n.UpdatedAt.Equal(want), "updated_at = %v", n.UpdatedAt)

	s.now = fixedClock(clock.Add(time.Hour))
	upd, err := s.Update(context.Background(), "u1", n.ID, "t2", "c2")
	require.NoError(t, err)
	assert.True(t, upd.UpdatedAt.Equal(want.Add(time.Hour)), "updated_at = %v", upd.UpdatedAt)
	assert.Zero(t, upd.UpdatedAt.Nanosecond()%1000)
}

func TestNoteService_Create_IDsAreUnique(t *testing.T) {
	s := newNoteService(t, newFakeRepoManager())
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n, err := s.Create(context.Background(), "u1", "t", "c")
		require.NoError(t, err)
		require.False(t, seen[n.ID])
		seen[n.ID] = true
	}
}

func TestNoteService_Validation(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
	}{
		{"empty title", "", "body"},
		{"blank title", "   \t", "body"},
		{"empty content", "title", ""},
		{"blank content", "title", "  \n "},
		{"title too long", strings.Repeat("ж", MaxTitleLength+1), "body"},
		{"content too large", "title", strings.Repeat("a", MaxContentBytes+1)},
		{"content only markup", "title", "<p> </p><br>"},
		{"content only script", "title", "<script>alert(1)</script>"},
		{"title only markup", "<b> </b>", "body"},
		{"title only script", "<script>alert(1)</script>", "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := newFakeRepoManager()
			s := newNoteService(t, rm)

			_, err := s.Create(context.Background(), "u1", tt.title, tt.content)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Empty(t, rm.store.notes)
		})
	}
}

func TestNoteService_TitleIsPlainText(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"tags stripped", "<b>Groceries</b>", "Groceries"},
		{"script dropped", "Plan<script>alert(1)</script>", "Plan"},
		{"handler dropped", `<img src=x onerror=alert(1)>Trip`, "Trip"},
		{"ampersand kept", "Tom & Jerry", "Tom & Jerry"},
		{"entities decoded", "5 &gt; 3", "5 > 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := newFakeRepoManager()
			s := newNoteService(t, rm)

			n, err := s.Create(context.Background(), "u1", tt.title, "body")
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.Title)

			upd, err := s.Update(context.Background(), "u1", n.ID, tt.title, "body")
			require.NoError(t, err)
			assert.Equal(t, tt.want, upd.Title)
		})
	}
}

func TestNoteService_Validation_Boundaries(t *testing.T) {
	s := newNoteService(t, newFakeRepoManager())

	_, err := s.Create(context.Background(), "u1", strings.Repeat("ж", MaxTitleLength), "x")
	assert.NoError(t, err)

	_, err = s.Create(context.Background(), "u1", "t", strings.Repeat("a", MaxContentBytes))
	assert.NoError(t, err)
}

func TestNoteService_Create_RepoError(t *testing.T) {
	rm := newFakeRepoManager()
	rm.store.failNoteCreate = errBoom{}
	s := newNoteService(t, rm)

	_, err := s.Create(context.Background(), "u1", "t", "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error creating note")
	assert.ErrorIs(t, err, errBoom{})
}

func TestNoteService_Get_NotOwned(t *testing.T) {
	rm := newFakeRepoManager()
	s := newNoteService(t, rm)

	n, err := s.Create(context.Background(), "alice", "t", "c")
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "bob", n.ID)
	assert.ErrorIs(t, err, common.ErrNotFoundOrNotOwned)

	_, err = s.Get(context.Background(), "alice", uuid.NewString())
	assert.ErrorIs(t, err, common.ErrNotFoundOrNotOwned)

	_, err = s.Get(context.Background(), "alice", "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrNotFoundOrNotOwned)
}

func TestNoteService_ListActive(t *testing.T) {
	rm := newFakeRepoManager()
	s := newNoteService(t, rm)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"a", "b", "c"} {
		s.now = fixedClock(base.Add(time.Duration(i) * time.Minute))
		_, err := s.Create(context.Background(), "u1", title, "x")
		require.NoError(t, err)
	}
	_, err := s.Create(context.Background(), "u2", "other", "x")
	require.NoError(t, err)

	list, err := s.ListActive(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{list[0].Title, list[1].Title, list[2].Title})

	empty, err := s.ListActive(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestNoteService_ListActive_Error(t *testing.T) {
	rm := newFakeRepoManager()
	rm.store.failList = errBoom{}
	s := newNoteService(t, rm)

	_, err := s.ListActive(context.Background(), "u1")
	assert.ErrorIs(t, err, errBoom{})
}

func TestNoteService_Update(t *testing.T) {
	rm := newFakeRepoManager()
	s := newNoteService(t, rm)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = fixedClock(t0)

	n, err := s.Create(context.Background(), "u1", "t", "c")
	require.NoError(t, err)

	s.now = fixedClock(t0.Add(time.Hour))
	upd, err := s.Update(context.Background(), "u1", n.ID, "t2", "<b>c2</b>")
	require.NoError(t, err)
	assert.Equal(t, "t2", upd.Title)
	assert.Equal(t, "<b>c2</b>", upd.Content)
	assert.True(t, upd.UpdatedAt.Equal(t0.Add(time.Hour)))
	assert.True(t, upd.CreatedAt.Equal(t0))
	assert.Equal(t, n.ID, upd.ID)
}

func TestNoteService_Update_ClockSkewNeverMovesBackward(t *testing.T) {
	rm := newFakeRepoManager()
	s := newNoteService(t, rm)
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = fixedClock(t0)

	n, err := s.Create(context.Background(), "u1", "t", "c")
	require.NoError(t, err)

	s.now = fixedClock(t0.Add(-time.Hour))
	upd, err := s.Update(context.Background(), "u1", n.ID, "t2", "c2")
	require.NoError(t, err)
	assert.False(t, upd.UpdatedAt.Before(t0))
}

func TestNoteService_Update_Errors(t *testing.T) {
	rm := newFakeRepoManager()
	s := newNoteService(t, rm)

	n, err := s.Create(context.Background(), "alice", "t", "c")
	require.NoError(t, err)

	_, err = s.Update(context.Background(), "bob", n.ID, "x", "y")
	assert.ErrorIs(t, err, common.ErrNotFoundOrNotOwned)

	_, err = s.Update(context.Background(), "alice", "bogus", "x", "y")
	assert.ErrorIs(t, err, common.ErrNotFoundOrNotOwned)

	_, err = s.Update(context.Background(), "alice", n.ID, "", "y")
	assert.ErrorIs(t, err, common.ErrValidation)

	stored := rm.store.notes[n.ID]
	assert.Equal(t, "t", stored.Title)
	assert.Equal(t, "alice", stored.OwnerID)
}

func TestNoteService_DoesNotBindTransactions(t *testing.T) {
	rm := newFakeRepoManager()
	s := newNoteService(t, rm)

	n, err := s.Create(context.Background(), "u1", "t", "c")
	require.NoError(t, err)
	_, err = s.Update(context.Background(), "u1", n.ID, "t", "c")
	require.NoError(t, err)

	assert.Zero(t, rm.boundTxs)
	assert.Len(t, rm.store.notes, 1)
	assert.IsType(t, &models.Note{}, rm.store.notes[n.ID])
}
