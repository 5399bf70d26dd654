package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	notesrepo "github.com/dmitrijs2005/gophnotes/internal/server/repositories/notes"
	refreshtokensrepo "github.com/dmitrijs2005/gophnotes/internal/server/repositories/refreshtokens"
	trashedrepo "github.com/dmitrijs2005/gophnotes/internal/server/repositories/trashednotes"
	usersrepo "github.com/dmitrijs2005/gophnotes/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// memStore is an in-memory stand-in for the notes and trashed_notes tables.
// It does not roll back; transactional behaviour is checked through sqlmock
// Begin/Commit/Rollback expectations.
type memStore struct {
	mu      sync.Mutex
	notes   map[string]*models.Note
	trashed map[string]*models.TrashedNote

	failNoteCreate    error
	failNoteDelete    error
	failTrashedCreate error
	failTrashedDelete error
	failList          error
}

func newMemStore() *memStore {
	return &memStore{
		notes:   map[string]*models.Note{},
		trashed: map[string]*models.TrashedNote{},
	}
}

type memNotes struct{ s *memStore }

func (r memNotes) Create(_ context.Context, n *models.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failNoteCreate != nil {
		return r.s.failNoteCreate
	}
	cp := *n
	r.s.notes[n.ID] = &cp
	return nil
}

func (r memNotes) Get(_ context.Context, ownerID, id string) (*models.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notes[id]
	if !ok || n.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	cp := *n
	return &cp, nil
}

func (r memNotes) GetForUpdate(ctx context.Context, ownerID, id string) (*models.Note, error) {
	return r.Get(ctx, ownerID, id)
}

func (r memNotes) ListByOwner(_ context.Context, ownerID string) ([]*models.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failList != nil {
		return nil, r.s.failList
	}
	out := make([]*models.Note, 0)
	for _, n := range r.s.notes {
		if n.OwnerID == ownerID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r memNotes) Update(_ context.Context, ownerID, id, title, content string, now time.Time) (*models.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notes[id]
	if !ok || n.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	n.Title, n.Content = title, content
	if now.After(n.UpdatedAt) {
		n.UpdatedAt = now
	}
	cp := *n
	return &cp, nil
}

func (r memNotes) Delete(_ context.Context, ownerID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failNoteDelete != nil {
		return r.s.failNoteDelete
	}
	n, ok := r.s.notes[id]
	if !ok || n.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.s.notes, id)
	return nil
}

type memTrashed struct{ s *memStore }

func (r memTrashed) Create(_ context.Context, t *models.TrashedNote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failTrashedCreate != nil {
		return r.s.failTrashedCreate
	}
	cp := *t
	r.s.trashed[t.ID] = &cp
	return nil
}

func (r memTrashed) GetForUpdate(_ context.Context, ownerID, id string) (*models.TrashedNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.trashed[id]
	if !ok || t.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r memTrashed) ListByOwner(_ context.Context, ownerID string) ([]*models.TrashedNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failList != nil {
		return nil, r.s.failList
	}
	out := make([]*models.TrashedNote, 0)
	for _, t := range r.s.trashed {
		if t.OwnerID == ownerID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrashedAt.After(out[j].TrashedAt) })
	return out, nil
}

func (r memTrashed) Delete(_ context.Context, ownerID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failTrashedDelete != nil {
		return r.s.failTrashedDelete
	}
	t, ok := r.s.trashed[id]
	if !ok || t.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.s.trashed, id)
	return nil
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error
	created   *models.User

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.created = u
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}

func (f *fakeUsersRepo) GetUserByLogin(context.Context, string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	delErr    error
	deleted   []string
	createErr error
	created   []string
}

func (f *fakeRefreshRepo) Create(_ context.Context, _ string, token string, _ time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, token)
	return nil
}

func (f *fakeRefreshRepo) Find(context.Context, string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, token)
	return nil
}

// fakeRepoManager hands out the same fakes whatever DBTX it is given and
// remembers whether the last binding was a transaction.
type fakeRepoManager struct {
	store   *memStore
	users   *fakeUsersRepo
	refresh *fakeRefreshRepo

	mu       sync.Mutex
	boundTxs int
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{store: newMemStore(), users: &fakeUsersRepo{}, refresh: &fakeRefreshRepo{}}
}

func (m *fakeRepoManager) note(db dbx.DBTX) {
	if _, ok := db.(*sql.Tx); ok {
		m.mu.Lock()
		m.boundTxs++
		m.mu.Unlock()
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository     { m.note(db); return m.users }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository {
	m.note(db)
	return m.refresh
}
func (m *fakeRepoManager) Notes(db dbx.DBTX) notesrepo.Repository { m.note(db); return memNotes{m.store} }
func (m *fakeRepoManager) TrashedNotes(db dbx.DBTX) trashedrepo.Repository {
	m.note(db)
	return memTrashed{m.store}
}

