package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/hackernews/internal/apperror"
	"github.com/sakif/hackernews/internal/model"
	"github.com/sakif/hackernews/internal/repository"
)

var linkColumnList = []string{"id", "description", "url", "created_at", "posted_by_id"}

var linkColumns = strings.Join(linkColumnList, ", ")

func prefixed(prefix string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + c
	}
	return strings.Join(out, ", ")
}

// CreateLink inserts l and fills in its ID and CreatedAt.
//
// The timestamp is taken here in UTC rather than left to CURRENT_TIMESTAMP so
// it keeps sub-second precision; ordering by createdAt depends on that.
func (db *DB) CreateLink(ctx context.Context, l *model.Link) error {
	l.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO links (description, url, created_at, posted_by_id) VALUES (?, ?, ?, ?)`,
		l.Description, l.URL, l.CreatedAt, nullableID(l.PostedByID),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting link: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new link id: %w", err)
	}
	l.ID = int(id)

	return nil
}

// GetLinkByID returns apperror.ErrNotFound when no link has that id.
func (db *DB) GetLinkByID(ctx context.Context, id int) (*model.Link, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE id = ?`, id)

	l, err := scanLink(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("link", id)
		}
		return nil, fmt.Errorf("sqlite: getting link %d: %w", id, err)
	}
	return l, nil
}

// ListLinks returns one page of the feed.
//
// PAGINATION:
// SQLite requires a LIMIT before OFFSET; LIMIT -1 means "no limit", which is
// what we want when the client sent skip without take.
func (db *DB) ListLinks(ctx context.Context, q repository.FeedQuery) ([]*model.Link, error) {
	order, err := q.OrderClause()
	if err != nil {
		return nil, apperror.ValidationFailed("orderBy", err.Error())
	}

	where, args := filterClause(q.Filter)

	limit, offset := -1, 0
	if q.Take != nil {
		limit = *q.Take
	}
	if q.Skip != nil {
		offset = *q.Skip
	}
	args = append(args, limit, offset)

	return db.queryLinks(ctx,
		`SELECT `+linkColumns+` FROM links`+where+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		args...)
}

// CountLinks counts links matching filter. It shares the predicate with
// ListLinks so the feed count always agrees with what paging walks over.
func (db *DB) CountLinks(ctx context.Context, filter string) (int, error) {
	where, args := filterClause(filter)

	var count int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM links`+where, args...,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: counting links: %w", err)
	}
	return count, nil
}

// UpdateLink applies the non-nil fields of patch and returns the updated row.
func (db *DB) UpdateLink(ctx context.Context, id int, patch repository.LinkPatch) (*model.Link, error) {
	if patch.Empty() {
		return db.GetLinkByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.URL != nil {
		sets = append(sets, "url = ?")
		args = append(args, *patch.URL)
	}
	args = append(args, id)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE links SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating link %d: %w", id, err)
	}
	if err := expectRow(res, "link", id); err != nil {
		return nil, err
	}

	return db.GetLinkByID(ctx, id)
}

// DeleteLink removes the link and returns the row as it was. Voter rows go
// with it through ON DELETE CASCADE.
func (db *DB) DeleteLink(ctx context.Context, id int) (*model.Link, error) {
	l, err := db.GetLinkByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := db.conn.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: deleting link %d: %w", id, err)
	}
	if err := expectRow(res, "link", id); err != nil {
		return nil, err
	}

	return l, nil
}

// expectRow turns "no rows affected" into a not-found error.
func expectRow(res sql.Result, resource string, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

// AddVoter records a vote. The (link_id, user_id) primary key turns a repeat
// vote into a no-op.
func (db *DB) AddVoter(ctx context.Context, linkID, userID int) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO link_voters (link_id, user_id) VALUES (?, ?)`,
		linkID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding voter %d to link %d: %w", userID, linkID, err)
	}
	return nil
}

func (db *DB) ListVoters(ctx context.Context, linkID int) ([]*model.User, error) {
	return db.queryUsers(ctx,
		`SELECT `+prefixed("u.", []string{"id", "name", "email", "password"})+`
		 FROM users u
		 JOIN link_voters v ON v.user_id = u.id
		 WHERE v.link_id = ?
		 ORDER BY u.id`, linkID)
}

// filterClause builds the WHERE clause for a substring filter over
// description and url. An empty filter matches everything.
func filterClause(filter string) (string, []any) {
	if filter == "" {
		return "", nil
	}
	p := repository.LikePattern(filter)
	return ` WHERE (description LIKE ? ESCAPE '\' OR url LIKE ? ESCAPE '\')`, []any{p, p}
}

func (db *DB) queryLinks(ctx context.Context, query string, args ...any) ([]*model.Link, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying links: %w", err)
	}
	defer rows.Close()

	links := []*model.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating links: %w", err)
	}
	return links, nil
}

func scanLink(s scanner) (*model.Link, error) {
	var (
		l        model.Link
		postedBy sql.NullInt64
	)
	if err := s.Scan(&l.ID, &l.Description, &l.URL, &l.CreatedAt, &postedBy); err != nil {
		return nil, err
	}
	if postedBy.Valid {
		id := int(postedBy.Int64)
		l.PostedByID = &id
	}
	return &l, nil
}

func nullableID(id *int) any {
	if id == nil {
		return nil
	}
	return *id
}
