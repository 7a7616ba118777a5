// Package repository defines the storage contracts the services depend on.
//
// Services only see these interfaces; the sqlite and postgres packages
// provide the implementations. Every method is individually atomic. Missing
// rows are reported as apperror.ErrNotFound and a taken email as
// apperror.ErrConflict, whatever the backend.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/sakif/hackernews/internal/model"
)

type UserRepository interface {
	// CreateUser inserts u and fills in its ID.
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// ListLinksByAuthor returns the links posted by userID in insertion order.
	ListLinksByAuthor(ctx context.Context, userID int) ([]*model.Link, error)
	// ListVotedLinks returns the links userID has voted on.
	ListVotedLinks(ctx context.Context, userID int) ([]*model.Link, error)
}

type LinkRepository interface {
	// CreateLink inserts l and fills in its ID and CreatedAt.
	CreateLink(ctx context.Context, l *model.Link) error
	GetLinkByID(ctx context.Context, id int) (*model.Link, error)
	ListLinks(ctx context.Context, q FeedQuery) ([]*model.Link, error)
	// CountLinks counts links matching filter, ignoring paging.
	CountLinks(ctx context.Context, filter string) (int, error)
	UpdateLink(ctx context.Context, id int, patch LinkPatch) (*model.Link, error)
	// DeleteLink removes the link and its voter rows and returns the link as
	// it was before deletion.
	DeleteLink(ctx context.Context, id int) (*model.Link, error)
	// AddVoter records that userID voted for linkID. Voting twice is a no-op.
	AddVoter(ctx context.Context, linkID, userID int) error
	ListVoters(ctx context.Context, linkID int) ([]*model.User, error)
}

// Store is everything a backend provides.
type Store interface {
	UserRepository
	LinkRepository
	Close() error
}

// LinkPatch carries the fields of a partial link update. A nil field is left
// unchanged.
type LinkPatch struct {
	Description *string
	URL         *string
}

// Empty reports whether the patch would change nothing.
func (p LinkPatch) Empty() bool {
	return p.Description == nil && p.URL == nil
}

// FeedQuery selects one page of the feed.
//
// Skip and Take are nil when the client didn't send them; the values are
// passed to the store as-is.
type FeedQuery struct {
	Filter  string
	Skip    *int
	Take    *int
	OrderBy []model.LinkOrderBy
}

// linkColumns maps orderable fields to their column. Only names from this
// map ever reach an ORDER BY clause.
var linkColumns = map[model.LinkOrderField]string{
	model.OrderByDescription: "description",
	model.OrderByURL:         "url",
	model.OrderByCreatedAt:   "created_at",
}

// OrderClause renders q.OrderBy as an ORDER BY clause (without the keyword).
// Rules apply in slice order and id breaks any remaining tie, so a query
// without rules returns links in insertion order.
func (q FeedQuery) OrderClause() (string, error) {
	parts := make([]string, 0, len(q.OrderBy)+1)
	for _, o := range q.OrderBy {
		if err := o.Validate(); err != nil {
			return "", fmt.Errorf("repository: %w", err)
		}
		dir := "ASC"
		if o.Direction == model.SortDesc {
			dir = "DESC"
		}
		parts = append(parts, linkColumns[o.Field]+" "+dir)
	}
	parts = append(parts, "id ASC")
	return strings.Join(parts, ", "), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern turns a substring filter into a LIKE pattern for use with
// ESCAPE '\'. Wildcards typed by the client match literally.
func LikePattern(filter string) string {
	return "%" + likeEscaper.Replace(filter) + "%"
}
