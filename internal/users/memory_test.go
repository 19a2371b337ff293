package users

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiseman-psychedelics/wiseman-api/internal/shared"
)

func TestMemoryDirectoryInsertAssignsIdentity(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()

	first, err := dir.Insert(ctx, User{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)
	second, err := dir.Insert(ctx, User{Name: "B", Email: "b@x.com"})
	require.NoError(t, err)

	assert.EqualValues(t, 1, first.ID)
	assert.EqualValues(t, 2, second.ID)
	assert.False(t, first.CreatedAt.IsZero())

	found, err := dir.FindByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, "B", found.Name)

	_, err = dir.FindByEmail(ctx, "B@x.com")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMemoryDirectoryEnforcesUniqueEmail(t *testing.T) {
	dir := NewMemoryDirectory()

	const n = 32
	var (
		wg      sync.WaitGroup
		created atomic.Int32
		dupes   atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := dir.Insert(context.Background(), User{Email: "same@x.com"})
			if err == nil {
				created.Add(1)
			} else if assert.ErrorIs(t, err, shared.ErrDuplicateEmail) {
				dupes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, created.Load())
	assert.EqualValues(t, n-1, dupes.Load())
}

func TestMemoryDirectoryListSubscribed(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()
	for _, u := range []User{
		{Email: "a@x.com", IsSubscribed: true},
		{Email: "b@x.com"},
		{Email: "c@x.com", IsSubscribed: true},
	} {
		_, err := dir.Insert(ctx, u)
		require.NoError(t, err)
	}

	subs, err := dir.ListSubscribed(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "a@x.com", subs[0].Email)
	assert.Equal(t, "c@x.com", subs[1].Email)
}

func TestMemoryDirectorySetAdmin(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()
	_, err := dir.Insert(ctx, User{Email: "a@x.com"})
	require.NoError(t, err)

	require.NoError(t, dir.SetAdmin("a@x.com", true))
	u, err := dir.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	require.NotNil(t, u.UpdatedAt)

	assert.ErrorIs(t, dir.SetAdmin("ghost@x.com", true), shared.ErrNotFound)
}

func TestMemoryDirectoryReturnsCopies(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()
	_, err := dir.Insert(ctx, User{Email: "a@x.com"})
	require.NoError(t, err)

	u, err := dir.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	u.IsAdmin = true

	again, err := dir.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, again.IsAdmin)
}

func TestMemoryDirectoryHonoursCancellation(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dir.Insert(ctx, User{Email: "a@x.com"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, shared.ErrUnavailable)

	_, err = dir.FindByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, shared.ErrUnavailable)

	_, err = dir.ListSubscribed(ctx)
	assert.ErrorIs(t, err, shared.ErrUnavailable)
}
