package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDraftRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryDraftRepository(time.Hour)
	repo.now = func() time.Time { return now }

	t.Run("StoresCopies", func(t *testing.T) {
		draft := sampleDraft("m1")
		require.NoError(t, repo.SaveDraft(ctx, draft))
		draft.Participants[0].FirstName = "changed"

		got, err := repo.GetDraft(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, "Ana", got.Participants[0].FirstName)

		got.Participants[1].FirstName = "changed"
		again, err := repo.GetDraft(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, "Luis", again.Participants[1].FirstName)
	})

	t.Run("Expires", func(t *testing.T) {
		require.NoError(t, repo.SaveDraft(ctx, sampleDraft("m2")))
		now = now.Add(61 * time.Minute)
		_, err := repo.GetDraft(ctx, "m2")
		assert.ErrorIs(t, err, ErrDraftNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.SaveDraft(ctx, sampleDraft("m3")))
		require.NoError(t, repo.DeleteDraft(ctx, "m3"))
		_, err := repo.GetDraft(ctx, "m3")
		assert.ErrorIs(t, err, ErrDraftNotFound)
	})

	t.Run("RateLimitWindow", func(t *testing.T) {
		allowed, _ := repo.CheckRateLimit(ctx, "k", 1, time.Minute)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, "k", 1, time.Minute)
		assert.False(t, allowed)

		now = now.Add(time.Minute)
		allowed, _ = repo.CheckRateLimit(ctx, "k", 1, time.Minute)
		assert.True(t, allowed)
	})
}
