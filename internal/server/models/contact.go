package models

import "github.com/dmitrijs2005/contactbook/internal/timex"

// Contact is an address-book entry owned by exactly one user.
type Contact struct {
	ID        int64
	UserID    int64
	FirstName string
	LastName  string
	Email     string
	Phone     int64
	Birthday  timex.Date
	Done      bool
}

// ContactDraft holds the mutable fields of a contact. It is used both for
// creation and for full-record replacement.
type ContactDraft struct {
	FirstName string
	LastName  string
	Email     string
	Phone     int64
	Birthday  timex.Date
	Done      bool
}
