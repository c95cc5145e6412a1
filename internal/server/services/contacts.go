package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/dbx"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/contactbook/internal/timex"
)

// birthdayLookahead is how far ahead UpcomingBirthdays looks.
const birthdayLookahead = 7

// ContactService manages the contacts of one user at a time. Every method
// takes the owner id and never touches rows of other users.
type ContactService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	now         func() time.Time
}

func NewContactService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ContactService {
	return &ContactService{db: db, repomanager: m, log: log, now: time.Now}
}

// List returns up to limit contacts after skipping offset, in id order.
func (s *ContactService) List(ctx context.Context, userID int64, offset, limit int) ([]*models.Contact, error) {
	var out []*models.Contact
	err := runInTx(ctx, s.db, s.log, "contacts.list", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		out, err = s.repomanager.Contacts(tx).List(ctx, userID, offset, limit)
		return err
	})
	return out, err
}

func (s *ContactService) Get(ctx context.Context, userID, id int64) (*models.Contact, error) {
	var c *models.Contact
	err := runInTx(ctx, s.db, s.log, "contacts.get", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		c, err = s.repomanager.Contacts(tx).Get(ctx, userID, id)
		return err
	})
	return c, err
}

func (s *ContactService) Create(ctx context.Context, userID int64, draft *models.ContactDraft) (*models.Contact, error) {
	var c *models.Contact
	err := runInTx(ctx, s.db, s.log, "contacts.create", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		c, err = s.repomanager.Contacts(tx).Create(ctx, userID, draft)
		return err
	})
	if err == nil {
		s.log.Info(ctx, "contact created", "user_id", userID, "contact_id", c.ID)
	}
	return c, err
}

// Update replaces every mutable field of the contact.
func (s *ContactService) Update(ctx context.Context, userID, id int64, draft *models.ContactDraft) (*models.Contact, error) {
	var c *models.Contact
	err := runInTx(ctx, s.db, s.log, "contacts.update", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		c, err = s.repomanager.Contacts(tx).Update(ctx, userID, id, draft)
		return err
	})
	return c, err
}

// Delete removes the contact and returns it as it was.
func (s *ContactService) Delete(ctx context.Context, userID, id int64) (*models.Contact, error) {
	var c *models.Contact
	err := runInTx(ctx, s.db, s.log, "contacts.delete", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		c, err = s.repomanager.Contacts(tx).Delete(ctx, userID, id)
		return err
	})
	if err == nil {
		s.log.Info(ctx, "contact deleted", "user_id", userID, "contact_id", id)
	}
	return c, err
}

// UpcomingBirthdays returns contacts whose birthday falls exactly seven days
// from today, ignoring the year. In non-leap years people born on Feb 29 are
// congratulated on Feb 28.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, userID int64) ([]*models.Contact, error) {
	month, dayFrom, dayTo := birthdayWindow(s.now().AddDate(0, 0, birthdayLookahead))

	var out []*models.Contact
	err := runInTx(ctx, s.db, s.log, "contacts.birthdays", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		out, err = s.repomanager.Contacts(tx).SelectByBirthday(ctx, userID, month, dayFrom, dayTo)
		return err
	})
	return out, err
}

// Search returns the first contact, in id order, whose first name, last name
// or email equals term. No match is common.ErrorNotFound.
func (s *ContactService) Search(ctx context.Context, userID int64, term string) (*models.Contact, error) {
	var c *models.Contact
	err := runInTx(ctx, s.db, s.log, "contacts.search", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		c, err = s.repomanager.Contacts(tx).FindExact(ctx, userID, term)
		return err
	})
	return c, err
}

func birthdayWindow(target time.Time) (month, dayFrom, dayTo int) {
	month, dayFrom, dayTo = int(target.Month()), target.Day(), target.Day()
	if target.Month() == time.February && target.Day() == 28 && !timex.IsLeapYear(target.Year()) {
		dayTo = 29
	}
	return month, dayFrom, dayTo
}
