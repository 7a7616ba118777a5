package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/hackernews/internal/model"
	"github.com/sakif/hackernews/internal/repository"
)

// UserService resolves a user's relations. Users are only ever created by
// AuthService.Signup.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/user: getting user %d: %w", id, err)
	}
	return u, nil
}

// Links returns the links u has posted.
func (s *UserService) Links(ctx context.Context, u *model.User) ([]*model.Link, error) {
	links, err := s.users.ListLinksByAuthor(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing links of user %d: %w", u.ID, err)
	}
	return links, nil
}

// Votes returns the links u has voted on.
func (s *UserService) Votes(ctx context.Context, u *model.User) ([]*model.Link, error) {
	links, err := s.users.ListVotedLinks(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing votes of user %d: %w", u.ID, err)
	}
	return links, nil
}
