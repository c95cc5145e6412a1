// Package services contains server-side business logic: the user directory,
// the authentication flows and the contact store. Every operation runs in a
// single database transaction.
package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/dbx"
	"github.com/dmitrijs2005/contactbook/internal/logging"
)

// runInTx executes fn inside dbx.WithTx. Domain errors reach the caller as is;
// anything else is logged here and reported as common.ErrorInternal.
func runInTx(ctx context.Context, db *sql.DB, log logging.Logger, op string, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	err := dbx.WithTx(ctx, db, nil, fn)
	if err == nil {
		return nil
	}
	if common.IsDomainError(err) {
		return err
	}
	log.Error(ctx, "unit of work failed", "op", op, "error", err)
	return common.ErrorInternal
}
