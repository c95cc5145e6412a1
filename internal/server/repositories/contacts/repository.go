// Package contacts declares the contact store. Every method takes the owning
// user id and filters on it, so one user can never read or modify another
// user's rows.
package contacts

import (
	"context"

	"github.com/dmitrijs2005/contactbook/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, userID int64, offset, limit int) ([]*models.Contact, error)
	Get(ctx context.Context, userID, id int64) (*models.Contact, error)
	Create(ctx context.Context, userID int64, draft *models.ContactDraft) (*models.Contact, error)
	Update(ctx context.Context, userID, id int64, draft *models.ContactDraft) (*models.Contact, error)
	Delete(ctx context.Context, userID, id int64) (*models.Contact, error)

	// SelectByBirthday returns contacts born in month on a day within
	// [dayFrom, dayTo], regardless of year.
	SelectByBirthday(ctx context.Context, userID int64, month, dayFrom, dayTo int) ([]*models.Contact, error)

	// FindExact returns the first contact whose firstname, lastname or email
	// equals term.
	FindExact(ctx context.Context, userID int64, term string) (*models.Contact, error)
}
