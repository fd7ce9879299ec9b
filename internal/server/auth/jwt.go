// Package auth resolves the caller identity from a bearer token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the decoded caller. It lives for one request only.
type Identity struct {
	UID   string `json:"uid,omitempty"`
	Email string `json:"email,omitempty"`
}

// Decoder turns a raw token into an Identity.
type Decoder interface {
	Decode(token string) (*Identity, error)
}

// Claims carries the identity fields on top of the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	UID   string `json:"uid,omitempty"`
	Email string `json:"email,omitempty"`
}

// JWTDecoder verifies HS256 tokens signed with a shared secret.
type JWTDecoder struct {
	secret []byte
}

func NewJWTDecoder(secret string) *JWTDecoder {
	return &JWTDecoder{secret: []byte(secret)}
}

func (d *JWTDecoder) Decode(token string) (*Identity, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return d.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	uid := claims.UID
	if uid == "" {
		uid = claims.Subject
	}
	return &Identity{UID: uid, Email: claims.Email}, nil
}

// GenerateToken signs an identity token. Used by tooling and tests.
func GenerateToken(id Identity, secret []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
		UID:   id.UID,
		Email: id.Email,
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}
