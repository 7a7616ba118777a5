package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/hackernews/internal/apperror"
	"github.com/sakif/hackernews/internal/model"
)

const userColumns = `id, name, email, password`

// CreateUser inserts a new user and sets u.ID from the generated rowid.
//
// The email column is UNIQUE, so a second signup with the same address fails
// inside SQLite; we translate that into apperror.DuplicateEmail instead of
// checking first and racing another request.
func (db *DB) CreateUser(ctx context.Context, u *model.User) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (name, email, password) VALUES (?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateEmail(u.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", u.Email, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	u.ID = int(id)

	return nil
}

// GetUserByID retrieves a user by their ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail is used by login. The stored hash is included.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: fmt.Sprintf("user not found with email %s", email),
			}
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

func (db *DB) ListLinksByAuthor(ctx context.Context, userID int) ([]*model.Link, error) {
	return db.queryLinks(ctx,
		`SELECT `+linkColumns+` FROM links WHERE posted_by_id = ? ORDER BY id`, userID)
}

func (db *DB) ListVotedLinks(ctx context.Context, userID int) ([]*model.Link, error) {
	return db.queryLinks(ctx,
		`SELECT `+prefixed("l.", linkColumnList)+`
		 FROM links l
		 JOIN link_voters v ON v.link_id = l.id
		 WHERE v.user_id = ?
		 ORDER BY l.id`, userID)
}

func (db *DB) queryUsers(ctx context.Context, query string, args ...any) ([]*model.User, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying users: %w", err)
	}
	// ALWAYS close rows, or the connection never goes back to the pool.
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash); err != nil {
		return nil, err
	}
	return &u, nil
}
