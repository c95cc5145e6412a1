package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/dbx"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/contacts"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// --- databases ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// newTxDB returns a real database that only serves as a transaction source
// for flows that open several units of work.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// --- users repository ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	nextID int64
	byMail map[string]*models.User
	err    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byMail: map[string]*models.User{}}
}

func (f *fakeUsersRepo) put(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		f.nextID++
		u.ID = f.nextID
	}
	cp := *u
	f.byMail[u.Email] = &cp
}

func (f *fakeUsersRepo) get(email string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byMail[email]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (f *fakeUsersRepo) Create(_ context.Context, d *models.UserDraft, avatar *string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.byMail[d.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	f.nextID++
	u := &models.User{ID: f.nextID, UserName: d.UserName, Email: d.Email, Password: d.Password, Avatar: avatar, CreatedAt: time.Now()}
	f.byMail[d.Email] = u
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byMail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) UpdateRefreshToken(_ context.Context, userID int64, token *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, u := range f.byMail {
		if u.ID == userID {
			u.RefreshToken = token
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeUsersRepo) Confirm(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	u, ok := f.byMail[email]
	if !ok {
		return common.ErrorNotFound
	}
	u.Confirmed = true
	return nil
}

func (f *fakeUsersRepo) UpdateAvatar(_ context.Context, email, url string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byMail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Avatar = &url
	cp := *u
	return &cp, nil
}

// --- contacts repository ---

type fakeContactsRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Contact
	err    error

	lastMonth, lastFrom, lastTo int
}

func newFakeContactsRepo() *fakeContactsRepo {
	return &fakeContactsRepo{rows: map[int64]*models.Contact{}}
}

func (f *fakeContactsRepo) owned(userID int64) []*models.Contact {
	var out []*models.Contact
	for _, c := range f.rows {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeContactsRepo) List(_ context.Context, userID int64, offset, limit int) ([]*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	all := f.owned(userID)
	out := []*models.Contact{}
	for i, c := range all {
		if i >= offset && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContactsRepo) Get(_ context.Context, userID, id int64) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.rows[id]
	if !ok || c.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContactsRepo) Create(_ context.Context, userID int64, d *models.ContactDraft) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	c := &models.Contact{ID: f.nextID, UserID: userID, FirstName: d.FirstName, LastName: d.LastName,
		Email: d.Email, Phone: d.Phone, Birthday: d.Birthday, Done: d.Done}
	f.rows[c.ID] = c
	cp := *c
	return &cp, nil
}

func (f *fakeContactsRepo) Update(_ context.Context, userID, id int64, d *models.ContactDraft) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.rows[id]
	if !ok || c.UserID != userID {
		return nil, common.ErrorNotFound
	}
	*c = models.Contact{ID: id, UserID: userID, FirstName: d.FirstName, LastName: d.LastName,
		Email: d.Email, Phone: d.Phone, Birthday: d.Birthday, Done: d.Done}
	cp := *c
	return &cp, nil
}

func (f *fakeContactsRepo) Delete(_ context.Context, userID, id int64) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.rows[id]
	if !ok || c.UserID != userID {
		return nil, common.ErrorNotFound
	}
	delete(f.rows, id)
	return c, nil
}

func (f *fakeContactsRepo) SelectByBirthday(_ context.Context, userID int64, month, dayFrom, dayTo int) ([]*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.lastMonth, f.lastFrom, f.lastTo = month, dayFrom, dayTo
	out := []*models.Contact{}
	for _, c := range f.owned(userID) {
		b := c.Birthday.Time
		if int(b.Month()) == month && b.Day() >= dayFrom && b.Day() <= dayTo {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContactsRepo) FindExact(_ context.Context, userID int64, term string) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.owned(userID) {
		if c.FirstName == term || c.LastName == term || c.Email == term {
			return c, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- repository manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	c *fakeContactsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), c: newFakeContactsRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.u }
func (m *fakeRepoManager) Contacts(dbx.DBTX) contacts.Repository        { return m.c }
