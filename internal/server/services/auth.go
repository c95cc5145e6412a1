package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/cryptox"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/dmitrijs2005/contactbook/internal/server/auth"
	"github.com/dmitrijs2005/contactbook/internal/server/avatar"
	"github.com/dmitrijs2005/contactbook/internal/server/mailer"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
)

const emailSendTimeout = 30 * time.Second

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SignupInput carries the plaintext credentials of a new account.
type SignupInput struct {
	UserName string
	Email    string
	Password string
}

// AuthService implements the account flows: signup, login, token refresh,
// logout, email confirmation and avatar upload.
type AuthService struct {
	users   *UserDirectory
	tokens  *auth.TokenService
	hasher  *cryptox.PasswordHasher
	mail    mailer.Sender
	avatars avatar.Store
	log     logging.Logger

	wg sync.WaitGroup
}

func NewAuthService(users *UserDirectory, tokens *auth.TokenService, hasher *cryptox.PasswordHasher,
	mail mailer.Sender, avatars avatar.Store, log logging.Logger) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		hasher:  hasher,
		mail:    mail,
		avatars: avatars,
		log:     log,
	}
}

// Signup creates an unconfirmed account and mails a confirmation link in the
// background. An existing email yields common.ErrorAlreadyExists.
func (s *AuthService) Signup(ctx context.Context, in SignupInput, baseURL string) (*models.User, error) {
	_, err := s.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, common.ErrorAlreadyExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.log.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	user, err := s.users.Create(ctx, &models.UserDraft{UserName: in.UserName, Email: in.Email, Password: hash})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user signed up", "user_id", user.ID)
	s.sendConfirmation(ctx, user, baseURL)
	return user, nil
}

// Login checks the credentials and issues a fresh token pair. Unknown
// accounts and wrong passwords both give common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.Password) {
		return nil, common.ErrInvalidCredentials
	}
	if !user.Confirmed {
		return nil, common.ErrEmailNotConfirmed
	}

	return s.issuePair(ctx, user)
}

// Refresh rotates the token pair. A refresh token that differs from the
// stored one revokes the stored token so a leaked token stops working.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	email, err := s.tokens.ResolveRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
		if err := s.users.SetRefreshToken(ctx, user.ID, nil); err != nil {
			return nil, err
		}
		s.log.Warn(ctx, "refresh token mismatch, session revoked", "user_id", user.ID)
		return nil, common.ErrInvalidRefreshToken
	}

	return s.issuePair(ctx, user)
}

// Logout revokes the stored refresh token.
func (s *AuthService) Logout(ctx context.Context, user *models.User) error {
	return s.users.SetRefreshToken(ctx, user.ID, nil)
}

// Authenticate resolves a bearer access token to its user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	return s.tokens.ResolveAccessToken(ctx, accessToken)
}

// ConfirmEmail marks the token's account as confirmed. It reports whether the
// account had already been confirmed.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (bool, error) {
	email, err := s.tokens.ResolveEmailToken(token)
	if err != nil {
		return false, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, common.ErrVerification
		}
		return false, err
	}
	if user.Confirmed {
		return true, nil
	}

	if err := s.users.MarkConfirmed(ctx, email); err != nil {
		return false, err
	}
	s.log.Info(ctx, "email confirmed", "user_id", user.ID)
	return false, nil
}

// RequestEmail re-sends the confirmation link. Unknown addresses are treated
// like unconfirmed ones so callers cannot probe for accounts.
func (s *AuthService) RequestEmail(ctx context.Context, email, baseURL string) (bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	if user.Confirmed {
		return true, nil
	}

	s.sendConfirmation(ctx, user, baseURL)
	return false, nil
}

// UpdateAvatar uploads the image and stores its URL on the account.
func (s *AuthService) UpdateAvatar(ctx context.Context, user *models.User, contentType string, data []byte) (*models.User, error) {
	if s.avatars == nil {
		return nil, common.ErrorInternal
	}

	url, err := s.avatars.Upload(ctx, user.ID, contentType, data)
	if err != nil {
		s.log.Error(ctx, "avatar upload failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	return s.users.SetAvatar(ctx, user.Email, url)
}

// Wait blocks until background emails have been handed off.
func (s *AuthService) Wait() {
	s.wg.Wait()
}

func (s *AuthService) issuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user.Email, 0)
	if err != nil {
		s.log.Error(ctx, "issue access token", "error", err)
		return nil, common.ErrorInternal
	}
	refresh, err := s.tokens.IssueRefreshToken(user.Email, 0)
	if err != nil {
		s.log.Error(ctx, "issue refresh token", "error", err)
		return nil, common.ErrorInternal
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, &refresh); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) sendConfirmation(ctx context.Context, user *models.User, baseURL string) {
	if s.mail == nil {
		return
	}

	token, err := s.tokens.IssueEmailToken(user.Email)
	if err != nil {
		s.log.Error(ctx, "issue email token", "error", err)
		return
	}

	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(bg, emailSendTimeout)
		defer cancel()

		if err := s.mail.SendConfirmation(ctx, user.Email, user.UserName, baseURL, token); err != nil {
			s.log.Error(ctx, "confirmation email failed", "user_id", user.ID, "error", err)
		}
	}()
}
