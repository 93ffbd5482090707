package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

// ClaimsKey is the request context key under which the authentication
// middleware stores the verified claims.
const ClaimsKey ctxKey = 1

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Claims carries the verified identity of the caller. Subject is the buyer's
// user id; handlers must read identity from here, never from anywhere else.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
	Email string   `json:"email"`
}

// HasRole reports whether the claims grant the given role.
func (c Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Keys holds the RSA key material for signing and verifying tokens. Services
// that only verify carry just the public key.
type Keys struct {
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
}

func NewKeys(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey) (*Keys, error) {
	if publicKey == nil {
		return nil, errors.New("public key is required to verify tokens")
	}
	return &Keys{PrivateKey: privateKey, PublicKey: publicKey}, nil
}

// GenerateToken signs claims with RS256. Only used by tooling and tests; the
// user service issues production tokens.
func (k *Keys) GenerateToken(claims Claims) (string, error) {
	if k.PrivateKey == nil {
		return "", errors.New("no private key configured")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(k.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a bearer token, returning its claims.
func (k *Keys) VerifyToken(tokenStr string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return k.PublicKey, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}
