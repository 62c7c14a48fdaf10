// Package jwt signs and verifies HS256 access tokens.
package jwt

import (
	"strconv"
	"time"

	errors "github.com/Laisky/errors/v2"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "newsroom"

// ErrInvalidToken token is malformed, expired or signed with another key
var ErrInvalidToken = errors.New("invalid token")

// Instance shared token helper
var Instance *JWT

// JWT token helper
type JWT struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Initialize setup the shared Instance
func Initialize(secret []byte, ttl time.Duration) (err error) {
	if Instance, err = New(secret, ttl, nil); err != nil {
		return errors.Wrap(err, "new jwt")
	}

	return nil
}

// New create a token helper, now defaults to time.Now
func New(secret []byte, ttl time.Duration, now func() time.Time) (*JWT, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		return nil, errors.Errorf("jwt ttl must be positive, got %s", ttl)
	}
	if now == nil {
		now = time.Now
	}

	return &JWT{secret: secret, ttl: ttl, now: now}, nil
}

// Sign issues a token for the user
func (j *JWT) Sign(uid int64, role string) (string, error) {
	now := j.now()
	claims := &UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(uid, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		UserID: uid,
		Role:   role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	return token, nil
}

// Parse verifies the token and returns its claims
func (j *JWT) Parse(token string) (*UserClaims, error) {
	claims := &UserClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) {
			return j.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if claims.UserID <= 0 {
		return nil, errors.Wrap(ErrInvalidToken, "missing uid")
	}

	return claims, nil
}
