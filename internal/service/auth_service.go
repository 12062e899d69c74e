package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"bank-transfer-saga/internal/core/ports"
	"bank-transfer-saga/pkg/apperror"
)

// AuthServiceImpl implements ports.AuthService for the single configured
// administrator.
type AuthServiceImpl struct {
	username string
	keyHash  string
	hashSvc  ports.HashService
	tokenSvc ports.TokenService
}

// NewAuthService creates a new AuthServiceImpl. keyHash is an Argon2id hash
// as produced by Argon2HashService.Hash.
func NewAuthService(username, keyHash string, hashSvc ports.HashService, tokenSvc ports.TokenService) *AuthServiceImpl {
	return &AuthServiceImpl{
		username: username,
		keyHash:  keyHash,
		hashSvc:  hashSvc,
		tokenSvc: tokenSvc,
	}
}

// Login validates the admin credentials and returns a JWT token.
func (s *AuthServiceImpl) Login(_ context.Context, username, key string) (string, time.Time, error) {
	if s.keyHash == "" || subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) != 1 {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(key, s.keyHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify admin key: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return token, expiry, nil
}
