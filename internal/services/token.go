package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token verification failures.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenMalformed = errors.New("token malformed")
)

const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"
)

// TokenPair is handed to clients after register, login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Type string `json:"typ"`
}

// TokenIssuer mints and verifies HS256 access and refresh tokens. The two
// kinds use distinct secrets, so one can never stand in for the other.
// Nothing is persisted: a token is valid until it expires.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// Issue signs a fresh access/refresh pair whose subject is userID.
func (i *TokenIssuer) Issue(userID string) (TokenPair, error) {
	access, err := i.sign(userID, accessTokenType, i.accessSecret, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(userID, refreshTokenType, i.refreshSecret, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess returns the subject of a valid access token.
func (i *TokenIssuer) VerifyAccess(raw string) (string, error) {
	return i.verify(raw, accessTokenType, i.accessSecret)
}

// VerifyRefresh returns the subject of a valid refresh token.
func (i *TokenIssuer) VerifyRefresh(raw string) (string, error) {
	return i.verify(raw, refreshTokenType, i.refreshSecret)
}

func (i *TokenIssuer) sign(userID, typ string, secret []byte, ttl time.Duration) (string, error) {
	now := i.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Type: typ,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (i *TokenIssuer) verify(raw, typ string, secret []byte) (string, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", ErrTokenSignature
	default:
		return "", ErrTokenMalformed
	}

	if claims.Type != typ || claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}
