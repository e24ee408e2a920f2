// Package auth - jwt.go handles JWT token creation, signing, and verification
// using a shared secret held by an injectable Service, so tests and callers
// never depend on process-global state.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in claims so an access token can never pass as a refresh
// token and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	// ErrInvalidToken covers malformed, expired, and wrongly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenType means a token of the other type was presented.
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims represents the JWT claims structure
type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is one issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// RefreshOutcome reports explicitly whether a refresh happened, so callers can
// distinguish a rotated pair from a rejected token without parsing errors.
type RefreshOutcome struct {
	Refreshed bool
	Tokens    TokenPair
	Reason    string
}

// Service issues and validates tokens with an injected secret.
type Service struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// Config holds Service construction parameters.
type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	DevMode    bool
}

// NewService builds the token service. An empty secret is generated in dev
// mode with a warning; in production it is a startup error.
func NewService(cfg Config) (*Service, error) {
	secret := cfg.Secret
	if secret == "" {
		if !cfg.DevMode {
			return nil, errors.New("JERP_JWT_SECRET is required in production; generate one with: openssl rand -hex 32")
		}
		secret = generateRandomSecret()
		slog.Warn("JERP_JWT_SECRET not set, using auto-generated secret; sessions will not persist across restarts")
	}
	if len(secret) < 32 {
		slog.Warn("JWT secret is shorter than the recommended 32 characters")
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "jalyuzi-erp"
	}
	accessTTL := cfg.AccessTTL
	if accessTTL == 0 {
		accessTTL = 1 * time.Hour
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL == 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &Service{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// IsDevMode reports whether the process runs in a development environment.
func IsDevMode() bool {
	devMode := os.Getenv("DEV_MODE")
	ginMode := os.Getenv("GIN_MODE")
	return devMode == "true" || devMode == "1" || ginMode == "debug"
}

// generateRandomSecret creates a cryptographically secure random secret
func generateRandomSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("dev-fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}

// GenerateTokenPair issues a fresh access/refresh pair for a user.
func (s *Service) GenerateTokenPair(userID, username, role string) (TokenPair, error) {
	access, err := s.sign(userID, username, role, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(userID, username, role, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *Service) sign(userID, username, role, tokenType string, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID:    userID,
		Username:  username,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateAccessToken parses a token and requires the access type.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, TokenTypeAccess)
}

// Refresh validates a refresh token and rotates the pair. A rejected token
// yields Refreshed=false with the reason, not an error: only signing failures
// are errors.
func (s *Service) Refresh(refreshToken string) (RefreshOutcome, error) {
	claims, err := s.validate(refreshToken, TokenTypeRefresh)
	if err != nil {
		return RefreshOutcome{Reason: err.Error()}, nil
	}

	tokens, err := s.GenerateTokenPair(claims.UserID, claims.Username, claims.Role)
	if err != nil {
		return RefreshOutcome{}, err
	}
	return RefreshOutcome{Refreshed: true, Tokens: tokens}, nil
}

func (s *Service) validate(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
