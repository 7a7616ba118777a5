package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sakif/hackernews/internal/apperror"
	"github.com/sakif/hackernews/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		u.Name, u.Email, u.PasswordHash,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateEmail(u.Email)
		}
		return fmt.Errorf("postgres: inserting user %s: %w", u.Email, err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT id, name, email, password FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %d: %w", id, err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT id, name, email, password FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: fmt.Sprintf("user not found with email %s", email),
			}
		}
		return nil, fmt.Errorf("postgres: getting user by email: %w", err)
	}
	return u, nil
}

func (s *Store) ListLinksByAuthor(ctx context.Context, userID int) ([]*model.Link, error) {
	return s.queryLinks(ctx,
		`SELECT `+linkColumns+` FROM links WHERE posted_by_id = $1 ORDER BY id`, userID)
}

func (s *Store) ListVotedLinks(ctx context.Context, userID int) ([]*model.Link, error) {
	return s.queryLinks(ctx,
		`SELECT l.id, l.description, l.url, l.created_at, l.posted_by_id
		 FROM links l
		 JOIN link_voters v ON v.link_id = l.id
		 WHERE v.user_id = $1
		 ORDER BY l.id`, userID)
}

func (s *Store) ListVoters(ctx context.Context, linkID int) ([]*model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.name, u.email, u.password
		 FROM users u
		 JOIN link_voters v ON v.user_id = u.id
		 WHERE v.link_id = $1
		 ORDER BY u.id`, linkID)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing voters of link %d: %w", linkID, err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning voter: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating voters: %w", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash); err != nil {
		return nil, err
	}
	return &u, nil
}
