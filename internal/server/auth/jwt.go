// Package auth issues and verifies the JWTs used by the HTTP API: short-lived
// access tokens, long-lived refresh tokens and email-confirmation tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ScopeAccess  = "access_token"
	ScopeRefresh = "refresh_token"

	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	EmailTokenTTL     = 7 * 24 * time.Hour
)

// Claims carries the registered claims plus the token scope. Subject is the
// user's email. Email tokens leave Scope empty.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// Directory resolves a token subject to a user.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Options configures a TokenService. Zero TTLs select the defaults and an
// empty Algorithm selects HS256.
type Options struct {
	Secret     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	dir        Directory
	now        func() time.Time
}

// NewTokenService validates opts and returns a ready service.
func NewTokenService(opts Options, dir Directory) (*TokenService, error) {
	if opts.Secret == "" {
		return nil, errors.New("token secret is empty")
	}

	alg := opts.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", opts.Algorithm)
	}

	s := &TokenService{
		secret:     []byte(opts.Secret),
		method:     method,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		dir:        dir,
		now:        time.Now,
	}
	if s.accessTTL <= 0 {
		s.accessTTL = DefaultAccessTTL
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = DefaultRefreshTTL
	}
	return s, nil
}

func (s *TokenService) IssueAccessToken(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.accessTTL
	}
	return s.sign(subject, ScopeAccess, ttl)
}

func (s *TokenService) IssueRefreshToken(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.refreshTTL
	}
	return s.sign(subject, ScopeRefresh, ttl)
}

// IssueEmailToken returns a scope-less token valid for seven days.
func (s *TokenService) IssueEmailToken(subject string) (string, error) {
	return s.sign(subject, "", EmailTokenTTL)
}

// ResolveAccessToken returns the user the token was issued to. Every token
// problem, including an unknown subject, yields ErrInvalidCredentials.
func (s *TokenService) ResolveAccessToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, common.ErrInvalidCredentials
	}
	if claims.Scope != ScopeAccess || claims.Subject == "" {
		return nil, common.ErrInvalidCredentials
	}

	user, err := s.dir.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// ResolveRefreshToken returns the subject of a refresh token.
func (s *TokenService) ResolveRefreshToken(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", common.ErrInvalidCredentials
	}
	if claims.Scope != ScopeRefresh {
		return "", common.ErrInvalidScope
	}
	if claims.Subject == "" {
		return "", common.ErrInvalidCredentials
	}
	return claims.Subject, nil
}

// ResolveEmailToken returns the subject of any correctly signed, unexpired
// token. The scope claim is not inspected.
func (s *TokenService) ResolveEmailToken(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *TokenService) sign(subject, scope string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Scope: scope,
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
