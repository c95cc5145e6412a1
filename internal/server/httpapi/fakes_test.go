package httpapi

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/dmitrijs2005/contactbook/internal/server/services"
)

type fakeAuth struct {
	mu sync.Mutex

	// access token -> user
	sessions map[string]*models.User

	signupErr   error
	signedUp    services.SignupInput
	signupBase  string
	loginEmail  string
	loginPass   string
	loginErr    error
	refreshErr  error
	loggedOut   int64
	confirmErr  error
	confirmed   bool
	requested   string
	requestBase string
	avatarType  string
	avatarData  []byte
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{sessions: map[string]*models.User{
		"alice-token": {ID: 1, UserName: "alice", Email: "alice@x.io", Confirmed: true},
		"bob-token":   {ID: 2, UserName: "bobby", Email: "bob@x.io", Confirmed: true},
	}}
}

func (f *fakeAuth) Signup(_ context.Context, in services.SignupInput, baseURL string) (*models.User, error) {
	f.signedUp, f.signupBase = in, baseURL
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return &models.User{ID: 10, UserName: in.UserName, Email: in.Email}, nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*services.TokenPair, error) {
	f.loginEmail, f.loginPass = email, password
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &services.TokenPair{AccessToken: "acc", RefreshToken: "ref"}, nil
}

func (f *fakeAuth) Refresh(_ context.Context, token string) (*services.TokenPair, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if token != "ref" {
		return nil, common.ErrInvalidRefreshToken
	}
	return &services.TokenPair{AccessToken: "acc2", RefreshToken: "ref2"}, nil
}

func (f *fakeAuth) Logout(_ context.Context, u *models.User) error {
	f.loggedOut = u.ID
	return nil
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.sessions[token]
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	return u, nil
}

func (f *fakeAuth) ConfirmEmail(_ context.Context, token string) (bool, error) {
	if f.confirmErr != nil {
		return false, f.confirmErr
	}
	already := f.confirmed
	f.confirmed = true
	return already, nil
}

func (f *fakeAuth) RequestEmail(_ context.Context, email, baseURL string) (bool, error) {
	f.requested, f.requestBase = email, baseURL
	return email == "alice@x.io", nil
}

func (f *fakeAuth) UpdateAvatar(_ context.Context, u *models.User, contentType string, data []byte) (*models.User, error) {
	f.avatarType, f.avatarData = contentType, data
	url := "http://s3/avatars/1/x"
	cp := *u
	cp.Avatar = &url
	return &cp, nil
}

type fakeContacts struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Contact
	err    error
}

func newFakeContacts() *fakeContacts {
	return &fakeContacts{rows: map[int64]*models.Contact{}}
}

func (f *fakeContacts) owned(userID int64) []*models.Contact {
	out := []*models.Contact{}
	for _, c := range f.rows {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeContacts) List(_ context.Context, userID int64, offset, limit int) ([]*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	all := f.owned(userID)
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeContacts) Get(_ context.Context, userID, id int64) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok || c.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func (f *fakeContacts) Create(_ context.Context, userID int64, d *models.ContactDraft) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c := &models.Contact{ID: f.nextID, UserID: userID, FirstName: d.FirstName, LastName: d.LastName,
		Email: d.Email, Phone: d.Phone, Birthday: d.Birthday, Done: d.Done}
	f.rows[c.ID] = c
	return c, nil
}

func (f *fakeContacts) Update(_ context.Context, userID, id int64, d *models.ContactDraft) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok || c.UserID != userID {
		return nil, common.ErrorNotFound
	}
	*c = models.Contact{ID: id, UserID: userID, FirstName: d.FirstName, LastName: d.LastName,
		Email: d.Email, Phone: d.Phone, Birthday: d.Birthday, Done: d.Done}
	return c, nil
}

func (f *fakeContacts) Delete(_ context.Context, userID, id int64) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok || c.UserID != userID {
		return nil, common.ErrorNotFound
	}
	delete(f.rows, id)
	return c, nil
}

func (f *fakeContacts) UpcomingBirthdays(_ context.Context, userID int64) ([]*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owned(userID), nil
}

func (f *fakeContacts) Search(_ context.Context, userID int64, term string) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.owned(userID) {
		if c.FirstName == term || c.LastName == term || c.Email == term {
			return c, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

var errBoom = errors.New("boom")
