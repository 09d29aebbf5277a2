package auth

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"time"

	"github.com/domodwyer/mailyak/v3"
	"go.uber.org/zap"
)

const linkSubject = "Your sign-in link"

// Mailer delivers magic links.
type Mailer interface {
	SendMagicLink(ctx context.Context, to, link string, expires time.Time) error
}

// LogMailer writes links to the log instead of sending them. Use it in development only.
type LogMailer struct {
	Logger *zap.Logger
}

// SendMagicLink logs the link at info level.
func (m LogMailer) SendMagicLink(_ context.Context, to, link string, expires time.Time) error {
	m.Logger.Info("magic link issued",
		zap.String("to", to),
		zap.String("link", link),
		zap.Time("expires", expires),
	)
	return nil
}

// SMTPMailer sends links through an SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SendMagicLink emails a plain-text sign-in message to the given address. It gives up before
// dialing when ctx is already done.
func (m SMTPMailer) SendMagicLink(ctx context.Context, to, link string, expires time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.compose(to, link, expires).Send(); err != nil {
		return fmt.Errorf("send magic link email: %w", err)
	}
	return nil
}

func (m SMTPMailer) compose(to, link string, expires time.Time) *mailyak.MailYak {
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	mail := mailyak.New(m.Host+":"+strconv.Itoa(m.Port), auth)
	mail.To(to)
	mail.From(m.From)
	mail.FromName("Cost Desk")
	mail.Subject(linkSubject)
	mail.Plain().Set(fmt.Sprintf(
		"Use the link below to sign in. It expires at %s.\n\n%s\n\nIf you did not ask for this email you can ignore it.\n",
		expires.UTC().Format("02 Jan 2006 15:04 MST"), link,
	))
	return mail
}
