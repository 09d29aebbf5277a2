package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const tokenSubjectPrefix = "token:"

// Options configures a Service.
type Options struct {
	Secret        []byte
	AllowedEmails []string
	LinkBaseURL   string
	LinkTTL       time.Duration
	SessionTTL    time.Duration
	// LoginAttempts is the number of sign-in attempts allowed per key each LoginWindow.
	LoginAttempts int
	LoginWindow   time.Duration
}

// Session is a signed session token and what it grants.
type Session struct {
	Token     string    `json:"-"`
	Subject   string    `json:"subject"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service runs the sign-in flows.
type Service struct {
	policy     *Policy
	tokens     *TokenStore
	signer     *Signer
	limiter    *Limiter
	mailer     Mailer
	logger     *zap.Logger
	linkBase   string
	linkTTL    time.Duration
	sessionTTL time.Duration
}

// NewService wires a Service.
func NewService(opts Options, tokens *TokenStore, mailer Mailer, logger *zap.Logger) *Service {
	return &Service{
		policy:     NewPolicy(opts.AllowedEmails),
		tokens:     tokens,
		signer:     NewSigner(opts.Secret),
		limiter:    NewLimiter(opts.LoginAttempts, opts.LoginWindow),
		mailer:     mailer,
		logger:     logger,
		linkBase:   opts.LinkBaseURL,
		linkTTL:    opts.LinkTTL,
		sessionTTL: opts.SessionTTL,
	}
}

// Tokens returns the access token store.
func (s *Service) Tokens() *TokenStore { return s.tokens }

// RequestLink mails a sign-in link to email when it is on the allow-list.
func (s *Service) RequestLink(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if !s.policy.Allows(email) {
		s.logger.Info("magic link refused", zap.String("email", email))
		return ErrNotAllowed
	}
	if !s.limiter.Allow("email:" + email) {
		return ErrRateLimited
	}

	token, expires, err := s.signer.sign(email, email, MethodMagicLink, audienceLink, s.linkTTL)
	if err != nil {
		return err
	}

	link, err := s.linkURL(token)
	if err != nil {
		return err
	}
	if err := s.mailer.SendMagicLink(ctx, email, link, expires); err != nil {
		return fmt.Errorf("deliver magic link: %w", err)
	}
	return nil
}

func (s *Service) linkURL(token string) (string, error) {
	u, err := url.Parse(s.linkBase)
	if err != nil {
		return "", fmt.Errorf("parse magic link base url: %w", err)
	}
	u = u.JoinPath("auth", "verify")
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// VerifyLink exchanges a magic-link token for a session. The allow-list is checked again so
// removing an address also invalidates links already mailed to it.
func (s *Service) VerifyLink(raw string) (Session, error) {
	claims, err := s.signer.parse(raw, audienceLink)
	if err != nil {
		return Session{}, err
	}
	if !s.policy.Allows(claims.Email) {
		return Session{}, ErrNotAllowed
	}
	return s.newSession(claims.Email, claims.Email, MethodMagicLink)
}

// LoginWithToken exchanges an access token for a session. clientKey identifies the caller for
// rate limiting, typically its address.
func (s *Service) LoginWithToken(ctx context.Context, plaintext, clientKey string) (Session, error) {
	if !s.limiter.Allow("token:" + clientKey) {
		return Session{}, ErrRateLimited
	}

	tok, err := s.tokens.Verify(ctx, plaintext)
	if err != nil {
		if !errors.Is(err, ErrInvalidToken) {
			return Session{}, err
		}
		s.logger.Info("access token rejected", zap.String("client", clientKey))
		return Session{}, ErrInvalidToken
	}
	return s.newSession(tokenSubjectPrefix+tok.ID, "", MethodAccessToken)
}

// Authenticate validates a session token and checks that the grant behind it still stands:
// the email is still allowed, or the access token has not been revoked.
func (s *Service) Authenticate(ctx context.Context, raw string) (*Claims, error) {
	claims, err := s.signer.parse(raw, audienceSession)
	if err != nil {
		return nil, err
	}

	switch claims.Method {
	case MethodMagicLink:
		if !s.policy.Allows(claims.Email) {
			return nil, ErrInvalidToken
		}
	case MethodAccessToken:
		active, err := s.tokens.Active(ctx, strings.TrimPrefix(claims.Subject, tokenSubjectPrefix))
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, ErrInvalidToken
		}
	default:
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) newSession(subject, email, method string) (Session, error) {
	token, expires, err := s.signer.sign(subject, email, method, audienceSession, s.sessionTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, Subject: subject, Method: method, ExpiresAt: expires}, nil
}
