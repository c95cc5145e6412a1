package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/dbx"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/dmitrijs2005/contactbook/internal/server/avatar"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/repomanager"
)

const avatarLookupTimeout = 3 * time.Second

// UserDirectory is the account lookup and mutation service used by the auth
// flows and by token resolution.
type UserDirectory struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	avatars     avatar.Provider
	log         logging.Logger
}

// NewUserDirectory builds a directory. avatars may be nil, in which case new
// accounts get no avatar.
func NewUserDirectory(db *sql.DB, m repomanager.RepositoryManager, avatars avatar.Provider, log logging.Logger) *UserDirectory {
	return &UserDirectory{db: db, repomanager: m, avatars: avatars, log: log}
}

// FindByEmail returns common.ErrorNotFound for unknown addresses.
func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user *models.User
	err := runInTx(ctx, d.db, d.log, "users.find", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = d.repomanager.Users(tx).GetUserByEmail(ctx, email)
		return err
	})
	return user, err
}

// Create stores a new account. The avatar lookup is best effort: when it
// fails the account is created without one.
func (d *UserDirectory) Create(ctx context.Context, draft *models.UserDraft) (*models.User, error) {
	avatarURL := d.lookupAvatar(ctx, draft.Email)

	var user *models.User
	err := runInTx(ctx, d.db, d.log, "users.create", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = d.repomanager.Users(tx).Create(ctx, draft, avatarURL)
		return err
	})
	return user, err
}

// SetRefreshToken stores token for the user; nil clears it.
func (d *UserDirectory) SetRefreshToken(ctx context.Context, userID int64, token *string) error {
	return runInTx(ctx, d.db, d.log, "users.set_refresh_token", func(ctx context.Context, tx dbx.DBTX) error {
		return d.repomanager.Users(tx).UpdateRefreshToken(ctx, userID, token)
	})
}

// MarkConfirmed flags the account as confirmed. Repeated calls are no-ops.
func (d *UserDirectory) MarkConfirmed(ctx context.Context, email string) error {
	return runInTx(ctx, d.db, d.log, "users.confirm", func(ctx context.Context, tx dbx.DBTX) error {
		return d.repomanager.Users(tx).Confirm(ctx, email)
	})
}

func (d *UserDirectory) SetAvatar(ctx context.Context, email, url string) (*models.User, error) {
	var user *models.User
	err := runInTx(ctx, d.db, d.log, "users.set_avatar", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = d.repomanager.Users(tx).UpdateAvatar(ctx, email, url)
		return err
	})
	return user, err
}

func (d *UserDirectory) lookupAvatar(ctx context.Context, email string) *string {
	if d.avatars == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, avatarLookupTimeout)
	defer cancel()

	url, err := d.avatars.Lookup(ctx, email)
	if err != nil {
		d.log.Warn(ctx, "avatar lookup failed", "error", err)
		return nil
	}
	return &url
}
