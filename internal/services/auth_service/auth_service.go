package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"timber_threads/internal/lib/jwt"
	"timber_threads/internal/lib/logger/sl"
	"timber_threads/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token revoked or expired")
)

// AuthService gates the admin panel behind the shared retreat password. A
// successful login issues a signed session token recorded in Redis, so logout
// revokes server-side instead of trusting a client-held flag.
type AuthService struct {
	log          *slog.Logger
	tokens       repository.TokenRepository
	passwordHash []byte
	secret       string
	tokenTTL     time.Duration
}

func NewAuthService(log *slog.Logger, tokens repository.TokenRepository, passwordHash, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		log:          log,
		tokens:       tokens,
		passwordHash: []byte(passwordHash),
		secret:       secret,
		tokenTTL:     tokenTTL,
	}
}

// Login compares the supplied password with the configured bcrypt hash and
// issues an admin session token.
func (s *AuthService) Login(ctx context.Context, password string) (string, error) {
	const op = "auth_service.Login"

	log := s.log.With(slog.String("op", op))

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		log.Warn("invalid admin password attempt")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, jti, err := jwt.NewAdminToken(s.secret, s.tokenTTL)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.tokens.SaveAdminToken(ctx, jti, s.tokenTTL); err != nil {
		log.Error("failed to save session token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("admin logged in")
	return token, nil
}

// Verify checks signature, expiry and the Redis allowlist.
func (s *AuthService) Verify(ctx context.Context, token string) error {
	const op = "auth_service.Verify"

	jti, err := jwt.ParseAdminToken(s.secret, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	ok, err := s.tokens.HasAdminToken(ctx, jti)
	if err != nil {
		s.log.Error("failed to check session token", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	return nil
}

// Logout revokes the session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	const op = "auth_service.Logout"

	jti, err := jwt.ParseAdminToken(s.secret, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if err := s.tokens.DeleteAdminToken(ctx, jti); err != nil {
		s.log.Error("failed to delete session token", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("admin logged out", slog.String("op", op))
	return nil
}
