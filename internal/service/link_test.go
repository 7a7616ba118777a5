package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/hackernews/internal/apperror"
	"github.com/sakif/hackernews/internal/auth"
	"github.com/sakif/hackernews/internal/model"
)

func newTestLinkService(t *testing.T) (*LinkService, *mockStore) {
	t.Helper()
	store := newMockStore()
	return NewLinkService(store, store, testLogger()), store
}

// seedUser stores a user directly and returns a context acting as that user.
func seedUser(t *testing.T, store *mockStore, name string) (*model.User, context.Context) {
	t.Helper()
	u := &model.User{Name: name, Email: name + "@x.com", PasswordHash: "h"}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u, auth.WithUserID(context.Background(), u.ID)
}

// =========================================================================
// FEED TESTS
// =========================================================================

func TestFeed_FilterPagingAndCount(t *testing.T) {
	svc, store := newTestLinkService(t)
	_, ctx := seedUser(t, store, "alice")

	for _, d := range []string{"foo1", "bar", "foo2", "foo3"} {
		_, err := svc.Create(ctx, d, "https://"+d+".example")
		require.NoError(t, err)
	}

	feed, err := svc.Feed(context.Background(), FeedParams{Filter: strPtr("foo"), Skip: intPtr(0), Take: intPtr(2)})
	require.NoError(t, err)

	require.Len(t, feed.Links, 2)
	assert.Equal(t, "foo1", feed.Links[0].Description)
	assert.Equal(t, "foo2", feed.Links[1].Description)
	assert.Equal(t, 3, feed.Count, "count ignores skip/take")
}

func TestFeed_NoArguments(t *testing.T) {
	svc, store := newTestLinkService(t)
	_, ctx := seedUser(t, store, "alice")
	_, err := svc.Create(ctx, "only", "https://only.example")
	require.NoError(t, err)

	feed, err := svc.Feed(context.Background(), FeedParams{})
	require.NoError(t, err)
	assert.Len(t, feed.Links, 1)
	assert.Equal(t, 1, feed.Count)
}

func TestFeed_PassesOrderByThrough(t *testing.T) {
	svc, _ := newTestLinkService(t)

	// The mock ignores ordering; this only checks nothing rejects the rules
	// before they reach the store.
	_, err := svc.Feed(context.Background(), FeedParams{
		OrderBy: []model.LinkOrderBy{{Field: model.OrderByCreatedAt, Direction: model.SortDesc}},
	})
	require.NoError(t, err)
}

func TestFeed_StoreFailure(t *testing.T) {
	svc, store := newTestLinkService(t)
	store.failWith = errors.New("boom")

	_, err := svc.Feed(context.Background(), FeedParams{})
	assert.ErrorContains(t, err, "boom")
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestGetByID_MissingIsNil(t *testing.T) {
	svc, _ := newTestLinkService(t)

	l, err := svc.GetByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, l)
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate_SetsAuthor(t *testing.T) {
	svc, store := newTestLinkService(t)
	alice, ctx := seedUser(t, store, "alice")

	l, err := svc.Create(ctx, "Go", "https://go.dev")
	require.NoError(t, err)

	assert.Positive(t, l.ID)
	require.NotNil(t, l.PostedByID)
	assert.Equal(t, alice.ID, *l.PostedByID)

	author, err := svc.PostedBy(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, "alice", author.Name)
}

func TestCreate_Anonymous(t *testing.T) {
	svc, store := newTestLinkService(t)

	_, err := svc.Create(context.Background(), "Go", "https://go.dev")

	require.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Equal(t, "Cannot post without logging in.", err.Error())
	assert.False(t, store.called("CreateLink"), "guard must run before any write")
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUpdate(t *testing.T) {
	svc, store := newTestLinkService(t)
	_, ctx := seedUser(t, store, "alice")
	l, err := svc.Create(ctx, "old", "https://old.example")
	require.NoError(t, err)

	tests := []struct {
		name            string
		description     *string
		url             *string
		wantDescription string
		wantURL         string
	}{
		{"url only", nil, strPtr("https://new.example"), "old", "https://new.example"},
		{"empty description is ignored", strPtr(""), strPtr("https://newer.example"), "old", "https://newer.example"},
		{"both", strPtr("new"), strPtr("https://b.example"), "new", "https://b.example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Update(context.Background(), l.ID, tt.description, tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDescription, got.Description)
			assert.Equal(t, tt.wantURL, got.URL)
		})
	}
}

func TestUpdate_NothingSent(t *testing.T) {
	svc, store := newTestLinkService(t)

	for _, args := range [][2]*string{{nil, nil}, {strPtr(""), nil}, {strPtr(""), strPtr("")}} {
		_, err := svc.Update(context.Background(), 1, args[0], args[1])
		require.ErrorIs(t, err, apperror.ErrValidation)
		assert.Equal(t, "Neither the new description nor the new url was sent.", err.Error())
	}
	assert.False(t, store.called("UpdateLink"), "no write may happen when nothing was sent")
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newTestLinkService(t)

	_, err := svc.Update(context.Background(), 42, nil, strPtr("https://x.example"))
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDelete_ReturnsPriorState(t *testing.T) {
	svc, store := newTestLinkService(t)
	_, ctx := seedUser(t, store, "alice")
	l, err := svc.Create(ctx, "bye", "https://bye.example")
	require.NoError(t, err)

	deleted, err := svc.Delete(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "bye", deleted.Description)

	got, err := svc.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = svc.Delete(context.Background(), l.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// VOTE TESTS
// =========================================================================

func TestVote(t *testing.T) {
	svc, store := newTestLinkService(t)
	_, aliceCtx := seedUser(t, store, "alice")
	bob, bobCtx := seedUser(t, store, "bob")

	l, err := svc.Create(aliceCtx, "vote me", "https://v.example")
	require.NoError(t, err)

	vote, err := svc.Vote(bobCtx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, vote.Link.ID)
	assert.Equal(t, bob.ID, vote.User.ID)

	voters, err := svc.Voters(context.Background(), vote.Link)
	require.NoError(t, err)
	require.Len(t, voters, 1)
	assert.Equal(t, bob.ID, voters[0].ID)

	// Voting again leaves a single voter row.
	_, err = svc.Vote(bobCtx, l.ID)
	require.NoError(t, err)
	voters, err = svc.Voters(context.Background(), l)
	require.NoError(t, err)
	assert.Len(t, voters, 1)
}

func TestVote_Anonymous(t *testing.T) {
	svc, store := newTestLinkService(t)

	_, err := svc.Vote(context.Background(), 1)

	require.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Equal(t, "Cannot vote without logging in.", err.Error())
	assert.Empty(t, store.calls, "guard must run before any store access")
}

func TestVote_UnknownLink(t *testing.T) {
	svc, store := newTestLinkService(t)
	_, ctx := seedUser(t, store, "alice")

	_, err := svc.Vote(ctx, 404)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.False(t, store.called("AddVoter"))
}

// =========================================================================
// RELATION TESTS
// =========================================================================

func TestPostedBy_NoAuthor(t *testing.T) {
	svc, store := newTestLinkService(t)

	u, err := svc.PostedBy(context.Background(), &model.Link{ID: 1})
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Empty(t, store.calls)

	missing := 99
	u, err = svc.PostedBy(context.Background(), &model.Link{ID: 1, PostedByID: &missing})
	require.NoError(t, err)
	assert.Nil(t, u)
}
