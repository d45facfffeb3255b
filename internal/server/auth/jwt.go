// Package auth issues and verifies the identity tokens that stand in for the
// institutional single sign-on assertion.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims is the identity asserted by the identity provider.
type UserClaims struct {
	UserID      string `json:"uid"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
	School      string `json:"school,omitempty"`
	Grade       string `json:"grade,omitempty"`
}

// Authenticator turns a bearer token into the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*UserClaims, error)
}

// Claims is the JWT payload: registered claims plus the user identity.
type Claims struct {
	jwt.RegisteredClaims
	UserClaims
}

func GenerateToken(user UserClaims, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserClaims: user,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString and returns its identity.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// verification common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*UserClaims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return &claims.UserClaims, nil
}

// JWTAuthenticator verifies HS256 tokens signed with a shared secret.
type JWTAuthenticator struct {
	secretKey []byte
	validity  time.Duration
}

func NewJWTAuthenticator(secretKey string, validity time.Duration) *JWTAuthenticator {
	return &JWTAuthenticator{secretKey: []byte(secretKey), validity: validity}
}

func (a *JWTAuthenticator) Authenticate(ctx context.Context, token string) (*UserClaims, error) {
	return ParseToken(token, a.secretKey)
}

// Issue signs a token for user with the configured validity.
func (a *JWTAuthenticator) Issue(user UserClaims) (string, error) {
	return GenerateToken(user, a.secretKey, a.validity)
}
