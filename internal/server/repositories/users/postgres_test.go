package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "username", "email", "password", "confirmed", "avatar", "refresh_token", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*password,\s*avatar\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,.*created_at$`

	avatar := "https://www.gravatar.com/avatar/abc"
	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(q).
		WithArgs("alice", "a@x.com", "hash", &avatar).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(42), "alice", "a@x.com", "hash", false, avatar, nil, created))

	got, err := repo.Create(context.Background(), &models.UserDraft{UserName: "alice", Email: "a@x.com", Password: "hash"}, &avatar)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.False(t, got.Confirmed)
	require.NotNil(t, got.Avatar)
	assert.Equal(t, avatar, *got.Avatar)
	assert.Nil(t, got.RefreshToken)
	assert.Equal(t, created, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_NullAvatar(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WithArgs("alice", "a@x.com", "hash", nil).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(1), "alice", "a@x.com", "hash", false, nil, nil, time.Now()))

	got, err := repo.Create(context.Background(), &models.UserDraft{UserName: "alice", Email: "a@x.com", Password: "hash"}, nil)
	require.NoError(t, err)
	assert.Nil(t, got.Avatar)
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := repo.Create(context.Background(), &models.UserDraft{UserName: "alice", Email: "a@x.com", Password: "hash"}, nil)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.UserDraft{UserName: "alice", Email: "a@x.com", Password: "hash"}, nil)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	q := `(?s)^SELECT\s+id,\s*username,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`

	t.Run("found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		token := "refresh"
		mock.ExpectQuery(q).WithArgs("a@x.com").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(7), "alice", "a@x.com", "hash", true, nil, token, time.Now()))

		got, err := repo.GetUserByEmail(context.Background(), "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.ID)
		assert.True(t, got.Confirmed)
		require.NotNil(t, got.RefreshToken)
		assert.Equal(t, token, *got.RefreshToken)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetUserByEmail(context.Background(), "ghost@x.com")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("a@x.com").WillReturnError(errors.New("db err"))

		_, err := repo.GetUserByEmail(context.Background(), "a@x.com")
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestUpdateRefreshToken(t *testing.T) {
	q := `(?s)^UPDATE\s+users\s+SET\s+refresh_token\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2$`

	t.Run("set", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		token := "tok"
		mock.ExpectExec(q).WithArgs(&token, int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.UpdateRefreshToken(context.Background(), 7, &token))
	})

	t.Run("clear", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WithArgs(nil, int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.UpdateRefreshToken(context.Background(), 7, nil))
	})

	t.Run("missing user", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WithArgs(nil, int64(8)).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.UpdateRefreshToken(context.Background(), 8, nil), common.ErrorNotFound)
	})
}

func TestConfirm(t *testing.T) {
	q := `(?s)^UPDATE\s+users\s+SET\s+confirmed\s*=\s*TRUE\s+WHERE\s+email\s*=\s*\$1$`

	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// Postgres reports matched rows, so a second confirmation still affects one row.
	mock.ExpectExec(q).WithArgs("a@x.com").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("a@x.com").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("ghost@x.com").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Confirm(context.Background(), "a@x.com"))
	require.NoError(t, repo.Confirm(context.Background(), "a@x.com"))
	assert.ErrorIs(t, repo.Confirm(context.Background(), "ghost@x.com"), common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAvatar(t *testing.T) {
	q := `(?s)^UPDATE\s+users\s+SET\s+avatar\s*=\s*\$1\s+WHERE\s+email\s*=\s*\$2\s+RETURNING\s+id,`

	t.Run("updated", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		url := "http://s3/avatars/1.png"
		mock.ExpectQuery(q).WithArgs(url, "a@x.com").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(1), "alice", "a@x.com", "hash", true, url, nil, time.Now()))

		got, err := repo.UpdateAvatar(context.Background(), "a@x.com", url)
		require.NoError(t, err)
		require.NotNil(t, got.Avatar)
		assert.Equal(t, url, *got.Avatar)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("u", "ghost@x.com").WillReturnError(sql.ErrNoRows)

		_, err := repo.UpdateAvatar(context.Background(), "ghost@x.com", "u")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}
