// Package mailer delivers account emails over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/wneessen/go-mail"
)

// Sender delivers the email-confirmation message.
type Sender interface {
	SendConfirmation(ctx context.Context, to, username, baseURL, token string) error
}

// SMTPOptions configures the SMTP relay.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	SSL      bool
}

var confirmTemplate = template.Must(template.New("confirm").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hi {{.Username}},</p>
<p>Thanks for signing up. Please confirm your email address by following the link below.</p>
<p><a href="{{.Link}}">Confirm email</a></p>
<p>The link is valid for seven days.</p>
</body>
</html>
`))

type SMTPSender struct {
	opts SMTPOptions
	send func(ctx context.Context, m *mail.Msg) error
}

func NewSMTPSender(opts SMTPOptions) *SMTPSender {
	s := &SMTPSender{opts: opts}
	s.send = s.dialAndSend
	return s
}

// ConfirmationLink returns the URL a user follows to confirm the address.
func ConfirmationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/api/auth/confirmed_email/" + token
}

func (s *SMTPSender) SendConfirmation(ctx context.Context, to, username, baseURL, token string) error {
	m, err := s.confirmationMessage(to, username, ConfirmationLink(baseURL, token))
	if err != nil {
		return err
	}
	if err := s.send(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) confirmationMessage(to, username, link string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(s.opts.FromName, s.opts.From); err != nil {
		return nil, fmt.Errorf("mail from: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("mail to: %w", err)
	}
	m.Subject("Confirm your email")

	var body bytes.Buffer
	if err := confirmTemplate.Execute(&body, struct{ Username, Link string }{username, link}); err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	m.SetBodyString(mail.TypeTextHTML, body.String())
	return m, nil
}

func (s *SMTPSender) dialAndSend(ctx context.Context, m *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(s.opts.Port),
		mail.WithUsername(s.opts.Username),
		mail.WithPassword(s.opts.Password),
	}
	if s.opts.Username != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain))
	}
	if s.opts.SSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	c, err := mail.NewClient(s.opts.Host, opts...)
	if err != nil {
		return err
	}
	return c.DialAndSendWithContext(ctx, m)
}
