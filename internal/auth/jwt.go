// Package auth issues and verifies the JWT token pairs returned by the
// registration and login endpoints, and provides the request middleware
// that resolves a bearer token to a user.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/seyio/acadex/internal/model"
)

const (
	accessTTL  = 1 * time.Hour
	refreshTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var errInvalidToken = errors.New("invalid token")

// Claims carries the user identity inside a signed token.
type Claims struct {
	UserID    string `json:"uid"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is the access/refresh pair handed to clients.
type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// Service signs and verifies tokens with an HMAC secret.
type Service struct {
	hmac []byte
}

// NewService creates a token service from the shared secret.
func NewService(secret string) *Service {
	return &Service{hmac: []byte(secret)}
}

// IssueTokenPair signs a fresh access/refresh pair for a user.
func (s *Service) IssueTokenPair(u *model.User) (TokenPair, error) {
	access, err := s.sign(u, tokenTypeAccess, accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(u, tokenTypeRefresh, refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *Service) sign(u *model.User, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    u.ID,
		Role:      string(u.Role),
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			Issuer:    "acadex",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.hmac)
}

// ParseAccess verifies a token and ensures it is an access token.
func (s *Service) ParseAccess(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.TokenType != tokenTypeAccess {
		return nil, errInvalidToken
	}
	return c, nil
}
