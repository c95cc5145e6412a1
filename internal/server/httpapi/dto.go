package httpapi

import (
	"time"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/dmitrijs2005/contactbook/internal/server/services"
	"github.com/dmitrijs2005/contactbook/internal/timex"
)

type signupRequest struct {
	UserName string `json:"username" validate:"required,min=5,max=16"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=6,max=10"`
}

// loginRequest accepts the OAuth2 password form, where the email travels in
// the username field, as well as a JSON body.
type loginRequest struct {
	Email    string `json:"email" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email,max=100"`
}

type contactRequest struct {
	FirstName string      `json:"firstname" validate:"required,max=25"`
	LastName  string      `json:"lastname" validate:"required,max=25"`
	Email     string      `json:"email" validate:"required,email,max=100"`
	Phone     int64       `json:"phone" validate:"required"`
	Birthday  *timex.Date `json:"birthday" validate:"required"`
	Done      bool        `json:"done"`
}

func (c *contactRequest) draft() *models.ContactDraft {
	return &models.ContactDraft{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Birthday:  *c.Birthday,
		Done:      c.Done,
	}
}

type userResponse struct {
	ID        int64     `json:"id"`
	UserName  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, UserName: u.UserName, Email: u.Email, Avatar: u.Avatar, CreatedAt: u.CreatedAt}
}

type signupResponse struct {
	User   userResponse `json:"user"`
	Detail string       `json:"detail"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func newTokenResponse(p *services.TokenPair) tokenResponse {
	return tokenResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, TokenType: common.TokenTypeBearer}
}

type messageResponse struct {
	Message string `json:"message"`
}

type contactResponse struct {
	ID        int64      `json:"id"`
	FirstName string     `json:"firstname"`
	LastName  string     `json:"lastname"`
	Email     string     `json:"email"`
	Phone     int64      `json:"phone"`
	Birthday  timex.Date `json:"birthday"`
	Done      bool       `json:"done"`
}

func newContactResponse(c *models.Contact) contactResponse {
	return contactResponse{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Birthday:  c.Birthday,
		Done:      c.Done,
	}
}

func newContactList(cs []*models.Contact) []contactResponse {
	out := make([]contactResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, newContactResponse(c))
	}
	return out
}
