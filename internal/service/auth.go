// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Resolver (GraphQL layer)  → decodes arguments, shapes results
//	Service (Business layer)  → enforces rules, orchestrates
//	Repository (Data layer)   → reads/writes the database
//
// Services take repository interfaces, never *sqlite.DB or *postgres.Store,
// so tests inject in-memory fakes and main picks the backend.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/hackernews/internal/apperror"
	"github.com/sakif/hackernews/internal/auth"
	"github.com/sakif/hackernews/internal/model"
	"github.com/sakif/hackernews/internal/repository"
)

// Login failure messages shown to clients.
const (
	MsgNoSuchUser      = "No user with the given email exists."
	MsgInvalidPassword = "Invalid Password."
)

// AuthService handles signup and login.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → issue/validate JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Signup creates an account and returns a token for it.
//
//  1. Hash the password (the plaintext never reaches the repository)
//  2. Insert the user; a taken email comes back as apperror.ErrConflict
//  3. Issue a JWT carrying the new user's id
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*model.AuthPayload, error) {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user signed up", slog.Int("userID", user.ID))

	return s.payload(user)
}

// Login checks credentials and returns a fresh token.
//
// Both failure messages are part of the API; clients show them verbatim.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.AuthPayload, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.AuthenticationFailed(MsgNoSuchUser)
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("login with wrong password", slog.Int("userID", user.ID))
			return nil, apperror.AuthenticationFailed(MsgInvalidPassword)
		}
		return nil, fmt.Errorf("service/auth: verifying password for user %d: %w", user.ID, err)
	}

	return s.payload(user)
}

// ValidateToken returns the userId a token was issued for.
func (s *AuthService) ValidateToken(token string) (int, error) {
	return s.tokens.Validate(token)
}

func (s *AuthService) payload(user *model.User) (*model.AuthPayload, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}
	return &model.AuthPayload{Token: token, User: user}, nil
}
