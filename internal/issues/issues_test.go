package issues

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCreateAssignsIdentity(t *testing.T) {
	store := NewMemoryStore()

	issue := &Issue{Username: "alice", Email: "alice@example.com", Message: "wrong item delivered"}
	require.NoError(t, store.Create(context.Background(), issue))

	assert.Equal(t, int64(1), issue.ID)
	assert.True(t, strings.HasPrefix(issue.Reference, "issue-"))
	assert.Equal(t, StatusPending, issue.Status)
	assert.False(t, issue.CreatedAt.IsZero())
	assert.Equal(t, issue.CreatedAt, issue.UpdatedAt)
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := &Issue{Message: "broken screen"}
	second := &Issue{Message: "missing charger"}
	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	listed, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, second.ID, listed[0].ID)
	assert.Equal(t, first.ID, listed[1].ID)
}

func TestMemoryStoreUpdateStatus(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	issue := &Issue{Message: "late delivery"}
	require.NoError(t, store.Create(ctx, issue))

	updated, err := store.UpdateStatus(ctx, issue.ID, StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, updated.Status)
	assert.True(t, !updated.UpdatedAt.Before(updated.CreatedAt))

	_, err = store.UpdateStatus(ctx, issue.ID, "shipped")
	assert.Error(t, err)

	_, err = store.UpdateStatus(ctx, 999, StatusResolved)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	issue := &Issue{Message: "refund not received"}
	require.NoError(t, store.Create(ctx, issue))

	require.NoError(t, store.Delete(ctx, issue.ID))

	listed, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)

	err = store.Delete(ctx, issue.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusInProgress))
	assert.True(t, ValidStatus(StatusResolved))
	assert.False(t, ValidStatus("closed"))
	assert.False(t, ValidStatus(""))
}
