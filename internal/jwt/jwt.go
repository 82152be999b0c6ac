// Package jwt validates access tokens minted by the identity provider.
// The portal never issues tokens itself; it only checks signatures and
// extracts the subject.
package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	id "github.com/markdevonuk/portal/pkg/domain"
)

// Validator checks HS256 bearer tokens against the shared signing key.
type Validator struct {
	signingKey []byte
	issuer     string
}

func NewValidator(signingKey, issuer string) *Validator {
	return &Validator{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// ValidateToken parses and verifies a token and returns the bound actor.
func (v *Validator) ValidateToken(tokenString string) (id.UserID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}
	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return "", errors.New("token subject is empty")
	}
	return userID, nil
}
