package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer          = "costdesk"
	audienceLink    = "magic-link"
	audienceSession = "session"
)

// Sign-in methods recorded on a session.
const (
	MethodMagicLink   = "magic_link"
	MethodAccessToken = "access_token"
)

// Claims are the payload of magic-link and session tokens.
type Claims struct {
	Email  string `json:"email,omitempty"`
	Method string `json:"method"`
	jwt.RegisteredClaims
}

// Signer signs and verifies HS256 tokens for one audience at a time.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner returns a Signer using secret as the HMAC key.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret, now: time.Now}
}

func (s *Signer) sign(subject, email, method, audience string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(ttl)
	claims := Claims{
		Email:  email,
		Method: method,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", audience, err)
	}
	return signed, expires, nil
}

func (s *Signer) parse(raw, audience string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
