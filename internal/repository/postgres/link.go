package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/sakif/hackernews/internal/apperror"
	"github.com/sakif/hackernews/internal/model"
	"github.com/sakif/hackernews/internal/repository"
)

const linkColumns = `id, description, url, created_at, posted_by_id`

// CreateLink lets the database assign both the id and created_at.
func (s *Store) CreateLink(ctx context.Context, l *model.Link) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO links (description, url, posted_by_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		l.Description, l.URL, l.PostedByID,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: inserting link: %w", err)
	}
	return nil
}

func (s *Store) GetLinkByID(ctx context.Context, id int) (*model.Link, error) {
	l, err := scanLink(s.pool.QueryRow(ctx,
		`SELECT `+linkColumns+` FROM links WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("link", id)
		}
		return nil, fmt.Errorf("postgres: getting link %d: %w", id, err)
	}
	return l, nil
}

// ListLinks returns one page of the feed. Unlike SQLite, Postgres accepts
// OFFSET without LIMIT, so each clause is only added when the client sent it.
func (s *Store) ListLinks(ctx context.Context, q repository.FeedQuery) ([]*model.Link, error) {
	order, err := q.OrderClause()
	if err != nil {
		return nil, apperror.ValidationFailed("orderBy", err.Error())
	}

	where, args := filterClause(q.Filter)

	var sb strings.Builder
	sb.WriteString(`SELECT ` + linkColumns + ` FROM links` + where + ` ORDER BY ` + order)
	if q.Take != nil {
		args = append(args, *q.Take)
		sb.WriteString(` LIMIT $` + strconv.Itoa(len(args)))
	}
	if q.Skip != nil {
		args = append(args, *q.Skip)
		sb.WriteString(` OFFSET $` + strconv.Itoa(len(args)))
	}

	return s.queryLinks(ctx, sb.String(), args...)
}

func (s *Store) CountLinks(ctx context.Context, filter string) (int, error) {
	where, args := filterClause(filter)

	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM links`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: counting links: %w", err)
	}
	return count, nil
}

func (s *Store) UpdateLink(ctx context.Context, id int, patch repository.LinkPatch) (*model.Link, error) {
	if patch.Empty() {
		return s.GetLinkByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, "description = $"+strconv.Itoa(len(args)))
	}
	if patch.URL != nil {
		args = append(args, *patch.URL)
		sets = append(sets, "url = $"+strconv.Itoa(len(args)))
	}
	args = append(args, id)

	l, err := scanLink(s.pool.QueryRow(ctx,
		`UPDATE links SET `+strings.Join(sets, ", ")+
			` WHERE id = $`+strconv.Itoa(len(args))+
			` RETURNING `+linkColumns,
		args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("link", id)
		}
		return nil, fmt.Errorf("postgres: updating link %d: %w", id, err)
	}
	return l, nil
}

// DeleteLink returns the deleted row; voter rows cascade.
func (s *Store) DeleteLink(ctx context.Context, id int) (*model.Link, error) {
	l, err := scanLink(s.pool.QueryRow(ctx,
		`DELETE FROM links WHERE id = $1 RETURNING `+linkColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("link", id)
		}
		return nil, fmt.Errorf("postgres: deleting link %d: %w", id, err)
	}
	return l, nil
}

func (s *Store) AddVoter(ctx context.Context, linkID, userID int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO link_voters (link_id, user_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		linkID, userID,
	)
	if err != nil {
		return fmt.Errorf("postgres: adding voter %d to link %d: %w", userID, linkID, err)
	}
	return nil
}

func filterClause(filter string) (string, []any) {
	if filter == "" {
		return "", nil
	}
	return ` WHERE (description LIKE $1 ESCAPE '\' OR url LIKE $1 ESCAPE '\')`,
		[]any{repository.LikePattern(filter)}
}

func (s *Store) queryLinks(ctx context.Context, query string, args ...any) ([]*model.Link, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: querying links: %w", err)
	}
	defer rows.Close()

	links := []*model.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating links: %w", err)
	}
	return links, nil
}

// scanLink reads a row in linkColumns order. A NULL posted_by_id leaves
// PostedByID nil.
func scanLink(row pgx.Row) (*model.Link, error) {
	var l model.Link
	if err := row.Scan(&l.ID, &l.Description, &l.URL, &l.CreatedAt, &l.PostedByID); err != nil {
		return nil, err
	}
	return &l, nil
}
