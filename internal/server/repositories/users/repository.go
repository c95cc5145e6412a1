// Package users declares the credential store: persistence of user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/contactbook/internal/server/models"
)

// Repository is the credential store contract. Lookups return
// common.ErrorNotFound when no row matches.
type Repository interface {
	Create(ctx context.Context, draft *models.UserDraft, avatar *string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateRefreshToken(ctx context.Context, userID int64, token *string) error
	Confirm(ctx context.Context, email string) error
	UpdateAvatar(ctx context.Context, email string, url string) (*models.User, error)
}
