package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token roles.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// Token kinds.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrWrongKind    = errors.New("auth: wrong token kind")
)

// Identity is who a token is issued to.
type Identity struct {
	Subject string
	Role    string
	Name    string
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	AccessExp    time.Time `json:"-"`
	RefreshExp   time.Time `json:"-"`
}

// Claims represents JWT payload.
type Claims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// Identity returns the identity the claims were issued for.
func (c Claims) Identity() Identity {
	return Identity{Subject: c.Subject, Role: c.Role, Name: c.Name}
}

// RoleFor maps a backend role onto a token role. Only Admin is privileged.
func RoleFor(backendRole string) string {
	if strings.EqualFold(strings.TrimSpace(backendRole), "admin") {
		return RoleAdmin
	}
	return RoleEmployee
}

// Issue issues signed access and refresh tokens.
func Issue(id Identity, issuer, key string, accessTTL, refreshTTL time.Duration) (TokenPair, error) {
	now := time.Now()
	accessExp := now.Add(accessTTL)
	refreshExp := now.Add(refreshTTL)

	accessToken, err := sign(id, KindAccess, issuer, key, now, accessExp)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := sign(id, KindRefresh, issuer, key, now, refreshExp)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func sign(id Identity, kind, issuer, key string, now, exp time.Time) (string, error) {
	claims := Claims{
		Role: id.Role,
		Name: id.Name,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.Subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}

// Parse validates a token and returns claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.Join(ErrInvalidToken, errors.New("issuer mismatch"))
	}
	return *claims, nil
}

// Refresh exchanges a refresh token for a new pair.
func Refresh(refreshToken, key, issuer string, accessTTL, refreshTTL time.Duration) (TokenPair, error) {
	claims, err := Parse(refreshToken, key, issuer)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.Kind != KindRefresh {
		return TokenPair{}, ErrWrongKind
	}
	return Issue(claims.Identity(), issuer, key, accessTTL, refreshTTL)
}
