// Package auth verifies the bearer credentials presented by chat clients.
// Tokens are HS256 JWTs carrying the numeric user id and email; the signing
// secret is process-wide configuration supplied at startup.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is malformed, has a bad
	// signature, or carries no usable user id.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
	// ErrMissingToken is returned when no credential was presented.
	ErrMissingToken = errors.New("missing token")
	// ErrNoSecret is returned by NewValidator when the secret is empty.
	ErrNoSecret = errors.New("auth: signing secret must not be empty")
)

// Claims is the token payload: {"id": <user id>, "email": "..."} plus the
// registered claims.
type Claims struct {
	UserID uint   `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Validator verifies and issues tokens. It is stateless and safe for
// concurrent use.
type Validator struct {
	secret []byte
	issuer string
}

// NewValidator returns a Validator for HS256 tokens signed with secret.
// A non-empty issuer is both stamped on issued tokens and required on
// validated ones.
func NewValidator(secret, issuer string) (*Validator, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Validator{secret: []byte(secret), issuer: issuer}, nil
}

// Validate verifies token and returns the user id it was issued for.
func (v *Validator) Validate(token string) (uint, error) {
	claims, err := v.Claims(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// Claims verifies token and returns its full claim set.
func (v *Validator) Claims(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Issue signs a token for userID valid for ttl. It is used by the token CLI
// and by tests; production tokens come from the authentication service.
func (v *Validator) Issue(userID uint, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
