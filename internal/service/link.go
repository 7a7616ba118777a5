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

// Messages for the guarded and validated link operations.
const (
	MsgPostRequiresLogin = "Cannot post without logging in."
	MsgVoteRequiresLogin = "Cannot vote without logging in."
	MsgEmptyLinkUpdate   = "Neither the new description nor the new url was sent."
)

// LinkService handles the feed, link CRUD and voting.
type LinkService struct {
	links  repository.LinkRepository
	users  repository.UserRepository
	logger *slog.Logger
}

func NewLinkService(links repository.LinkRepository, users repository.UserRepository, logger *slog.Logger) *LinkService {
	return &LinkService{
		links:  links,
		users:  users,
		logger: logger,
	}
}

// FeedParams are the feed query arguments as the client sent them. Nil means
// the argument was omitted.
type FeedParams struct {
	Filter  *string
	Skip    *int
	Take    *int
	OrderBy []model.LinkOrderBy
}

// Feed returns one page of links plus the number of links matching the
// filter. Skip and take are handed to the store unvalidated; the count
// ignores them.
func (s *LinkService) Feed(ctx context.Context, p FeedParams) (*model.Feed, error) {
	q := repository.FeedQuery{Skip: p.Skip, Take: p.Take, OrderBy: p.OrderBy}
	if p.Filter != nil {
		q.Filter = *p.Filter
	}

	links, err := s.links.ListLinks(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("service/link: listing feed: %w", err)
	}

	count, err := s.links.CountLinks(ctx, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("service/link: counting feed: %w", err)
	}

	return &model.Feed{Links: links, Count: count}, nil
}

// GetByID returns the link, or nil when no link has that id. Absence is a
// normal answer for the link query, not an error.
func (s *LinkService) GetByID(ctx context.Context, id int) (*model.Link, error) {
	l, err := s.links.GetLinkByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("service/link: getting link %d: %w", id, err)
	}
	return l, nil
}

// Create posts a link authored by the caller. Anonymous callers get
// apperror.ErrUnauthorized before anything is written.
func (s *LinkService) Create(ctx context.Context, description, url string) (*model.Link, error) {
	userID, err := auth.RequireUser(ctx, MsgPostRequiresLogin)
	if err != nil {
		return nil, err
	}

	l := &model.Link{Description: description, URL: url, PostedByID: &userID}
	if err := s.links.CreateLink(ctx, l); err != nil {
		return nil, fmt.Errorf("service/link: creating link: %w", err)
	}

	s.logger.Info("link created",
		slog.Int("linkID", l.ID),
		slog.Int("userID", userID),
	)

	return l, nil
}

// Update changes description and/or url.
//
// An empty string counts as "not sent", the same as nil. When neither field
// is sent the store is never touched.
func (s *LinkService) Update(ctx context.Context, id int, description, url *string) (*model.Link, error) {
	patch := repository.LinkPatch{
		Description: nonEmpty(description),
		URL:         nonEmpty(url),
	}
	if patch.Empty() {
		return nil, apperror.ValidationFailed("", MsgEmptyLinkUpdate)
	}

	l, err := s.links.UpdateLink(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("service/link: updating link %d: %w", id, err)
	}

	s.logger.Info("link updated", slog.Int("linkID", id))
	return l, nil
}

// Delete removes a link and returns it as it was.
func (s *LinkService) Delete(ctx context.Context, id int) (*model.Link, error) {
	l, err := s.links.DeleteLink(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/link: deleting link %d: %w", id, err)
	}

	s.logger.Info("link deleted", slog.Int("linkID", id))
	return l, nil
}

// Vote records the caller as a voter of linkID and returns the link as it
// reads after the vote, together with the voter.
//
// The read, connect and re-read are separate store calls; the
// (link_id, user_id) key in the store is what keeps concurrent votes from
// double counting.
func (s *LinkService) Vote(ctx context.Context, linkID int) (*model.Vote, error) {
	userID, err := auth.RequireUser(ctx, MsgVoteRequiresLogin)
	if err != nil {
		return nil, err
	}

	if _, err := s.links.GetLinkByID(ctx, linkID); err != nil {
		return nil, fmt.Errorf("service/link: voting on link %d: %w", linkID, err)
	}

	if err := s.links.AddVoter(ctx, linkID, userID); err != nil {
		return nil, fmt.Errorf("service/link: voting on link %d: %w", linkID, err)
	}

	link, err := s.links.GetLinkByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("service/link: reloading link %d: %w", linkID, err)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/link: loading voter %d: %w", userID, err)
	}

	s.logger.Info("vote recorded",
		slog.Int("linkID", linkID),
		slog.Int("userID", userID),
	)

	return &model.Vote{Link: link, User: user}, nil
}

// PostedBy returns the link's author, or nil for links without one.
func (s *LinkService) PostedBy(ctx context.Context, l *model.Link) (*model.User, error) {
	if l.PostedByID == nil {
		return nil, nil
	}

	u, err := s.users.GetUserByID(ctx, *l.PostedByID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("service/link: loading author of link %d: %w", l.ID, err)
	}
	return u, nil
}

func (s *LinkService) Voters(ctx context.Context, l *model.Link) ([]*model.User, error) {
	users, err := s.links.ListVoters(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("service/link: listing voters of link %d: %w", l.ID, err)
	}
	return users, nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
