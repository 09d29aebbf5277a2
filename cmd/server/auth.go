package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/costdesk/internal/auth"
)

const sessionCookieName = "costdesk_session"

var errOperatorOnly = errors.New("access tokens can only be managed from an email sign-in")

type sessionKey struct{}

func withSession(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, sessionKey{}, claims)
}

// sessionFrom returns the claims stored by requireSession, or nil.
func sessionFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(sessionKey{}).(*auth.Claims)
	return claims
}

// sessionToken reads the session cookie, falling back to a bearer token for scripted clients.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func (s *server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := sessionToken(r)
		if raw == "" {
			s.writeError(w, r, auth.ErrInvalidToken)
			return
		}

		claims, err := s.auth.Authenticate(r.Context(), raw)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				s.writeError(w, r, err)
				return
			}
			s.clearSessionCookie(w)
			s.writeError(w, r, auth.ErrInvalidToken)
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), claims)))
	})
}

func (s *server) setSessionCookie(w http.ResponseWriter, session auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

type magicLinkRequest struct {
	Email string `json:"email"`
}

func (s *server) handleMagicLink(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		s.writeError(w, r, badRequest("email is required"))
		return
	}

	if err := s.auth.RequestLink(r.Context(), req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// handleVerifyLink is the target of the emailed link: it starts a session and sends the
// browser to the app.
func (s *server) handleVerifyLink(w http.ResponseWriter, r *http.Request) {
	session, err := s.auth.VerifyLink(r.URL.Query().Get("token"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookie(w, session)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type tokenLoginRequest struct {
	Token string `json:"token"`
}

func (s *server) handleTokenLogin(w http.ResponseWriter, r *http.Request) {
	var req tokenLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.auth.LoginWithToken(r.Context(), strings.TrimSpace(req.Token), clientIP(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, session)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type sessionResponse struct {
	Subject   string    `json:"subject"`
	Email     string    `json:"email,omitempty"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *server) handleSession(w http.ResponseWriter, r *http.Request) {
	claims := sessionFrom(r.Context())
	resp := sessionResponse{Subject: claims.Subject, Email: claims.Email, Method: claims.Method}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	writeJSON(w, http.StatusOK, resp)
}

// requireOperator limits a route to sessions started from an allow-listed email, so a
// leaked access token cannot mint more tokens.
func (s *server) requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := sessionFrom(r.Context())
		if claims == nil || claims.Method != auth.MethodMagicLink {
			s.writeError(w, r, errOperatorOnly)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	list, err := s.auth.Tokens().List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []auth.AccessToken{}
	}
	writeJSON(w, http.StatusOK, list)
}

type issueTokenRequest struct {
	Label string `json:"label"`
}

type issueTokenResponse struct {
	auth.AccessToken
	// Token is the plaintext. It is shown once and never stored.
	Token string `json:"token"`
}

func (s *server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	tok, plaintext, err := s.auth.Tokens().Issue(r.Context(), strings.TrimSpace(req.Label))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("access token issued",
		zap.String("token_id", tok.ID),
		zap.String("label", tok.Label),
		zap.String("by", sessionFrom(r.Context()).Email),
	)
	writeJSON(w, http.StatusCreated, issueTokenResponse{AccessToken: tok, Token: plaintext})
}

func (s *server) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.auth.Tokens().Revoke(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("access token revoked",
		zap.String("token_id", id),
		zap.String("by", sessionFrom(r.Context()).Email),
	)
	w.WriteHeader(http.StatusNoContent)
}

// clientIP keys the token login limiter. middleware.RealIP has already rewritten RemoteAddr
// when a proxy header was present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
