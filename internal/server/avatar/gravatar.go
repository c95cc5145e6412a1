// Package avatar resolves and stores user profile pictures: a Gravatar lookup
// used at signup and an S3-compatible store for uploaded images.
package avatar

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const DefaultGravatarBaseURL = "https://www.gravatar.com/avatar/"

// ErrNoAvatar is returned when the email has no Gravatar image.
var ErrNoAvatar = errors.New("no avatar for email")

// Provider looks up a default avatar URL for an email address.
type Provider interface {
	Lookup(ctx context.Context, email string) (string, error)
}

// Gravatar builds image URLs from the md5 of the normalized email. When
// Verify is set it asks the service whether an image really exists.
type Gravatar struct {
	BaseURL string
	Verify  bool
	Client  *http.Client
}

func NewGravatar(verify bool) *Gravatar {
	return &Gravatar{
		BaseURL: DefaultGravatarBaseURL,
		Verify:  verify,
		Client:  &http.Client{Timeout: 3 * time.Second},
	}
}

// Hash returns the Gravatar hash of email.
func Hash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

func (g *Gravatar) Lookup(ctx context.Context, email string) (string, error) {
	url := strings.TrimRight(g.BaseURL, "/") + "/" + Hash(email)
	if !g.Verify {
		return url, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url+"?d=404", nil)
	if err != nil {
		return "", fmt.Errorf("gravatar request: %w", err)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gravatar request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return url, nil
	case http.StatusNotFound:
		return "", ErrNoAvatar
	default:
		return "", fmt.Errorf("gravatar: unexpected status %d", resp.StatusCode)
	}
}
