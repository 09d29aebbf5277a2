package auth

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/costdesk/internal/db"
	"github.com/Simplici0/costdesk/internal/migrations"
)

type sentLink struct {
	to      string
	link    string
	expires time.Time
}

type captureMailer struct {
	sent []sentLink
	err  error
}

func (m *captureMailer) SendMagicLink(_ context.Context, to, link string, expires time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentLink{to: to, link: link, expires: expires})
	return nil
}

func newTestTokenStore(t *testing.T) *TokenStore {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database, zap.NewNop()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	store := NewTokenStore(database)
	store.cost = bcrypt.MinCost
	return store
}

func newTestService(t *testing.T, mailer Mailer) *Service {
	t.Helper()

	return NewService(Options{
		Secret:        []byte("test-secret"),
		AllowedEmails: []string{"Owner@Example.com", " ops@example.com "},
		LinkBaseURL:   "https://desk.example.com/app",
		LinkTTL:       15 * time.Minute,
		SessionTTL:    12 * time.Hour,
		LoginAttempts: 3,
		LoginWindow:   time.Hour,
	}, newTestTokenStore(t), mailer, zap.NewNop())
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if u.Path != "/app/auth/verify" {
		t.Fatalf("unexpected link path %q", u.Path)
	}
	return u.Query().Get("token")
}

func TestPolicyAllowsCaseInsensitive(t *testing.T) {
	p := NewPolicy([]string{"Owner@Example.com", "", "  "})
	if p.Len() != 1 {
		t.Fatalf("Len = %d, want 1", p.Len())
	}
	if !p.Allows(" owner@example.COM ") {
		t.Fatalf("expected allowed")
	}
	if p.Allows("intruder@example.com") {
		t.Fatalf("expected refused")
	}
}

func TestLimiterPerKey(t *testing.T) {
	l := NewLimiter(2, time.Hour)
	now := time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("burst should be allowed")
	}
	if l.Allow("a") {
		t.Fatalf("third attempt should be limited")
	}
	if !l.Allow("b") {
		t.Fatalf("other keys are independent")
	}

	now = now.Add(31 * time.Minute)
	if !l.Allow("a") {
		t.Fatalf("attempt should refill after half the window")
	}
}

func TestRequestLinkAndVerify(t *testing.T) {
	mailer := &captureMailer{}
	svc := newTestService(t, mailer)
	ctx := context.Background()

	if err := svc.RequestLink(ctx, "OWNER@example.com"); err != nil {
		t.Fatalf("request link: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].to != "owner@example.com" {
		t.Fatalf("unexpected mail: %+v", mailer.sent)
	}

	session, err := svc.VerifyLink(tokenFromLink(t, mailer.sent[0].link))
	if err != nil {
		t.Fatalf("verify link: %v", err)
	}
	if session.Subject != "owner@example.com" || session.Method != MethodMagicLink || session.Token == "" {
		t.Fatalf("unexpected session: %+v", session)
	}

	claims, err := svc.Authenticate(ctx, session.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if claims.Email != "owner@example.com" {
		t.Fatalf("claims email = %q", claims.Email)
	}

	if _, err := svc.Authenticate(ctx, tokenFromLink(t, mailer.sent[0].link)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("link token used as session: err = %v", err)
	}
	if _, err := svc.VerifyLink(session.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("session token used as link: err = %v", err)
	}
}

func TestRequestLinkRefusesUnknownEmail(t *testing.T) {
	mailer := &captureMailer{}
	svc := newTestService(t, mailer)

	if err := svc.RequestLink(context.Background(), "stranger@example.com"); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("err = %v, want ErrNotAllowed", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("no mail should be sent")
	}
}

func TestRequestLinkRateLimited(t *testing.T) {
	svc := newTestService(t, &captureMailer{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.RequestLink(ctx, "ops@example.com"); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if err := svc.RequestLink(ctx, "ops@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if err := svc.RequestLink(ctx, "owner@example.com"); err != nil {
		t.Fatalf("other address should not be limited: %v", err)
	}
}

func TestExpiredLinkRejected(t *testing.T) {
	mailer := &captureMailer{}
	svc := newTestService(t, mailer)

	if err := svc.RequestLink(context.Background(), "ops@example.com"); err != nil {
		t.Fatalf("request link: %v", err)
	}
	svc.signer.now = func() time.Time { return time.Now().Add(time.Hour) }

	if _, err := svc.VerifyLink(tokenFromLink(t, mailer.sent[0].link)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestTamperedLinkRejected(t *testing.T) {
	mailer := &captureMailer{}
	svc := newTestService(t, mailer)

	if err := svc.RequestLink(context.Background(), "ops@example.com"); err != nil {
		t.Fatalf("request link: %v", err)
	}

	other := NewSigner([]byte("another-secret"))
	forged, _, err := other.sign("ops@example.com", "ops@example.com", MethodMagicLink, audienceLink, time.Minute)
	if err != nil {
		t.Fatalf("sign forged token: %v", err)
	}
	if _, err := svc.VerifyLink(forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestAccessTokenLifecycle(t *testing.T) {
	svc := newTestService(t, &captureMailer{})
	ctx := context.Background()

	tok, plaintext, err := svc.Tokens().Issue(ctx, " warehouse tablet ")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.HasPrefix(plaintext, tokenPrefix) || tok.Label != "warehouse tablet" {
		t.Fatalf("unexpected token: %+v %q", tok, plaintext)
	}

	session, err := svc.LoginWithToken(ctx, plaintext, "10.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Authenticate(ctx, session.Token); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if err := svc.Tokens().Revoke(ctx, tok.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.Authenticate(ctx, session.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("revoked session err = %v, want ErrInvalidToken", err)
	}
	if _, err := svc.LoginWithToken(ctx, plaintext, "10.0.0.1"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("revoked login err = %v, want ErrInvalidToken", err)
	}
	if err := svc.Tokens().Revoke(ctx, tok.ID); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("second revoke err = %v, want ErrTokenNotFound", err)
	}

	list, err := svc.Tokens().List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].RevokedAt == nil {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestLoginWithTokenRateLimited(t *testing.T) {
	svc := newTestService(t, &captureMailer{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.LoginWithToken(ctx, "5504", "10.0.0.9"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("attempt %d err = %v, want ErrInvalidToken", i, err)
		}
	}
	if _, err := svc.LoginWithToken(ctx, "5504", "10.0.0.9"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestRemovingEmailEndsSession(t *testing.T) {
	mailer := &captureMailer{}
	svc := newTestService(t, mailer)
	ctx := context.Background()

	if err := svc.RequestLink(ctx, "ops@example.com"); err != nil {
		t.Fatalf("request link: %v", err)
	}
	session, err := svc.VerifyLink(tokenFromLink(t, mailer.sent[0].link))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	svc.policy = NewPolicy([]string{"owner@example.com"})
	if _, err := svc.Authenticate(ctx, session.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestMailerFailureIsWrapped(t *testing.T) {
	boom := errors.New("relay down")
	svc := newTestService(t, &captureMailer{err: boom})

	err := svc.RequestLink(context.Background(), "ops@example.com")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped relay error", err)
	}
}

func TestSMTPMailerCompose(t *testing.T) {
	m := SMTPMailer{Host: "smtp.example.com", Port: 587, From: "desk@example.com"}
	mail := m.compose("ops@example.com", "https://desk.example.com/auth/verify?token=abc", time.Now())

	buf, err := mail.MimeBuf()
	if err != nil {
		t.Fatalf("build mime: %v", err)
	}
	body := buf.String()
	for _, want := range []string{"ops@example.com", "desk@example.com", linkSubject} {
		if !strings.Contains(body, want) {
			t.Fatalf("message missing %q:\n%s", want, body)
		}
	}
}
