package main

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signing secret and token lifetime, loaded once at startup from config.
// Rotating the secret invalidates every outstanding token; there is no
// revocation mechanism (tokens stay valid until their natural expiry).
var (
	jwtSecret     []byte
	jwtExpiration = 24 * time.Hour
)

// tokenClaims is the claim set embedded in every issued token:
// sub=username plus userId/email/role.
type tokenClaims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func issueToken(u *User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtExpiration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// verifyToken checks signature and expiry and returns the decoded claims.
// Failures are *AuthError values from the token taxonomy; the raw parser
// error text is never surfaced.
func verifyToken(raw string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, mapTokenError(err)
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func mapTokenError(err error) *AuthError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenUnsupported
	default:
		return ErrTokenInvalid
	}
}

// tokenUsername extracts the subject from an already-verified token string.
func tokenUsername(raw string) (string, error) {
	claims, err := verifyToken(raw)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// tokenUserID extracts the numeric user id claim.
func tokenUserID(raw string) (int64, error) {
	claims, err := verifyToken(raw)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}
