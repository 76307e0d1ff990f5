package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kevinaaaquil/novel-tracker/backend/models"
)

// Token types embedded in claims. A token is only usable for the purpose it
// was minted for; Parse rejects any other type.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
	TypeReset   = "reset"
)

// Lifetimes match the cookie max-ages the frontend expects.
const (
	AccessTTL  = 10 * time.Minute
	RefreshTTL = 24 * time.Hour
	ResetTTL   = time.Hour
)

var (
	ErrExpired   = errors.New("token has expired")
	ErrWrongType = errors.New("wrong token type")
	ErrInvalid   = errors.New("invalid token")
)

type Claims struct {
	UserID       string `json:"id"`
	Email        string `json:"email"`
	TokenType    string `json:"type"`
	TokenVersion int    `json:"tokenVersion"`
	jwt.RegisteredClaims
}

// Manager mints and verifies the three token kinds. Each kind is signed with
// its own secret, so an access token can never pass refresh verification even
// before the type check.
type Manager struct {
	AccessSecret  []byte
	RefreshSecret []byte
	ResetSecret   []byte
}

func NewManager(accessSecret, refreshSecret, resetSecret string) *Manager {
	return &Manager{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		ResetSecret:   []byte(resetSecret),
	}
}

// NewAccess mints a short-lived access token carrying the user's current
// token version.
func (m *Manager) NewAccess(user *models.User) (string, error) {
	return m.sign(user, TypeAccess, AccessTTL, m.AccessSecret)
}

// NewRefresh mints a refresh token used only to mint new access tokens.
func (m *Manager) NewRefresh(user *models.User) (string, error) {
	return m.sign(user, TypeRefresh, RefreshTTL, m.RefreshSecret)
}

// NewReset mints a password-reset token for the emailed reset link.
func (m *Manager) NewReset(user *models.User) (string, error) {
	return m.sign(user, TypeReset, ResetTTL, m.ResetSecret)
}

// AccessFromClaims mints a fresh access token from verified refresh claims,
// carrying the embedded token version forward unchanged.
func (m *Manager) AccessFromClaims(c *Claims) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:       c.UserID,
		Email:        c.Email,
		TokenType:    TypeAccess,
		TokenVersion: c.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.AccessSecret)
}

func (m *Manager) sign(user *models.User, tokenType string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:       user.ID.Hex(),
		Email:        user.Email,
		TokenType:    tokenType,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Parse verifies signature and expiry against the secret for wantType and
// checks the embedded type. Returns ErrExpired past the deadline,
// ErrWrongType on a type mismatch, ErrInvalid for anything malformed or
// signed with another key. The token-version comparison against the stored
// user is the caller's job.
func (m *Manager) Parse(tokenString, wantType string) (*Claims, error) {
	var secret []byte
	switch wantType {
	case TypeAccess:
		secret = m.AccessSecret
	case TypeRefresh:
		secret = m.RefreshSecret
	case TypeReset:
		secret = m.ResetSecret
	default:
		return nil, ErrWrongType
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongType
	}
	return claims, nil
}
