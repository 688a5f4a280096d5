package devserver

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// claims mirror the GoTrue access token: sub is the user id, session_id ties
// the token to a revocable session.
type claims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (t tokenIssuer) issue(userID, email, sid string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("missing user id")
	}
	now := t.now()
	expires := now.Add(t.ttl)
	c := claims{
		Email:     email,
		Role:      "authenticated",
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "notekeep-dev",
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

func (t tokenIssuer) verify(token string) (*claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(tok *jwt.Token) (interface{}, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return c, nil
}
