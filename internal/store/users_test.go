package store_test

import (
	"context"
	"testing"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/dkeye/Chat/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *store.UserStore {
	t.Helper()
	s, err := store.OpenUserStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUserStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	u, err := s.CreateUser(ctx, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Empty(t, got.Favorites)

	renamed, err := s.RenameUser(ctx, u.ID, "alicia")
	require.NoError(t, err)
	assert.Equal(t, "alicia", renamed.Username)

	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", got.Username)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	_, err = s.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), domain.ErrUserNotFound)
}

func TestUserStore_Favorites(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	u, err := s.CreateUser(ctx, "bob")
	require.NoError(t, err)

	got, err := s.AddFavorites(ctx, u.ID, []string{"Office", "Kitchen"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Office", "Kitchen"}, got.Favorites)

	got, err = s.AddFavorites(ctx, u.ID, []string{"Kitchen", "", "Lab"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Office", "Kitchen", "Lab"}, got.Favorites)

	stored, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Office", "Kitchen", "Lab"}, stored.Favorites)
}

func TestUserStore_Validation(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.CreateUser(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUsernameEmpty)

	u, err := s.CreateUser(ctx, "carol")
	require.NoError(t, err)
	_, err = s.RenameUser(ctx, u.ID, "this-name-is-definitely-longer-than-36-chars")
	assert.ErrorIs(t, err, domain.ErrUsernameTooLong)

	_, err = s.RenameUser(ctx, "nobody", "x")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = s.AddFavorites(ctx, "nobody", []string{"Office"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
