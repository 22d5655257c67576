package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/invoicestack/internal/repository/testhelper"
)

func TestProfileRepository_GetOrCreateUsesDefaultLimit(t *testing.T) {
	db := testhelper.SetupTestDB(t)
	repo := NewProfileRepository(db, 5)
	ctx := context.Background()

	profile, err := repo.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, profile.DocumentCount)
	assert.Equal(t, 5, profile.DocumentLimit)

	// existing rows are not reset
	require.NoError(t, db.Exec("UPDATE profiles SET document_count = 3, document_limit = 10 WHERE user_id = ?", "user-1").Error)
	profile, err = repo.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, profile.DocumentCount)
	assert.Equal(t, 10, profile.DocumentLimit)
}

func TestProfileRepository_IncrementStopsAtLimit(t *testing.T) {
	db := testhelper.SetupTestDB(t)
	repo := NewProfileRepository(db, 2)
	ctx := context.Background()

	_, err := repo.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)

	ok, err := repo.IncrementDocumentCount(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.IncrementDocumentCount(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.IncrementDocumentCount(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	profile, err := repo.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, profile.DocumentCount)
}

func TestProfileRepository_DecrementGivesSlotBack(t *testing.T) {
	db := testhelper.SetupTestDB(t)
	repo := NewProfileRepository(db, 1)
	ctx := context.Background()

	_, err := repo.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)

	ok, err := repo.IncrementDocumentCount(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.DecrementDocumentCount(ctx, "user-1"))
	require.NoError(t, repo.DecrementDocumentCount(ctx, "user-1"))

	profile, err := repo.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, profile.DocumentCount, "count never goes below zero")

	ok, err = repo.IncrementDocumentCount(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
}
