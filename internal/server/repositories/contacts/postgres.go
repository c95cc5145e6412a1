package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/dbx"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
)

const contactColumns = `id, user_id, firstname, lastname, email, phone, birthday, done`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID int64, offset, limit int) ([]*models.Contact, error) {
	query :=
		`SELECT ` + contactColumns + ` FROM contacts
		 WHERE user_id = $1
		 ORDER BY id
		 OFFSET $2 LIMIT $3`

	return r.selectMany(ctx, query, userID, offset, limit)
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id int64) (*models.Contact, error) {
	query :=
		`SELECT ` + contactColumns + ` FROM contacts
		 WHERE id = $1 AND user_id = $2`

	return r.selectOne(ctx, query, id, userID)
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64, draft *models.ContactDraft) (*models.Contact, error) {
	query :=
		`INSERT INTO contacts (user_id, firstname, lastname, email, phone, birthday, done)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`

	c := contactFromDraft(userID, draft)
	err := r.db.QueryRowContext(ctx, query,
		userID, draft.FirstName, draft.LastName, draft.Email, draft.Phone, draft.Birthday.Time, draft.Done).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, userID, id int64, draft *models.ContactDraft) (*models.Contact, error) {
	query :=
		`UPDATE contacts
		 SET firstname = $1, lastname = $2, email = $3, phone = $4, birthday = $5, done = $6
		 WHERE id = $7 AND user_id = $8
		 RETURNING ` + contactColumns

	return r.selectOne(ctx, query,
		draft.FirstName, draft.LastName, draft.Email, draft.Phone, draft.Birthday.Time, draft.Done, id, userID)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id int64) (*models.Contact, error) {
	query :=
		`DELETE FROM contacts
		 WHERE id = $1 AND user_id = $2
		 RETURNING ` + contactColumns

	return r.selectOne(ctx, query, id, userID)
}

func (r *PostgresRepository) SelectByBirthday(ctx context.Context, userID int64, month, dayFrom, dayTo int) ([]*models.Contact, error) {
	query :=
		`SELECT ` + contactColumns + ` FROM contacts
		 WHERE user_id = $1
		   AND EXTRACT(MONTH FROM birthday) = $2
		   AND EXTRACT(DAY FROM birthday) BETWEEN $3 AND $4
		 ORDER BY id`

	return r.selectMany(ctx, query, userID, month, dayFrom, dayTo)
}

func (r *PostgresRepository) FindExact(ctx context.Context, userID int64, term string) (*models.Contact, error) {
	query :=
		`SELECT ` + contactColumns + ` FROM contacts
		 WHERE user_id = $1
		   AND (firstname = $2 OR lastname = $2 OR email = $2)
		 ORDER BY id
		 LIMIT 1`

	return r.selectOne(ctx, query, userID, term)
}

func (r *PostgresRepository) selectOne(ctx context.Context, query string, args ...any) (*models.Contact, error) {
	c := &models.Contact{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Birthday.Time, &c.Done)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.Contact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Contact, 0)
	for rows.Next() {
		c := &models.Contact{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Birthday.Time, &c.Done); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func contactFromDraft(userID int64, d *models.ContactDraft) *models.Contact {
	return &models.Contact{
		UserID:    userID,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Phone:     d.Phone,
		Birthday:  d.Birthday,
		Done:      d.Done,
	}
}
