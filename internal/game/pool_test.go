package game_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-trivia/backend/internal/game"
	"github.com/aura-trivia/backend/internal/store"
)

func TestPool_SeedsRoomOnce(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	for _, q := range []string{"Q1", "Q2", "Q3"} {
		tmpl := template(q, "A")
		require.NoError(t, mem.CreateQuestion(ctx, &tmpl))
	}
	pool := game.NewPool(mem)

	first, err := pool.RoomQuestions(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, first, 3)
	for _, q := range first {
		require.NotNil(t, q.RoomID)
		assert.Equal(t, "r1", *q.RoomID)
	}

	again, err := pool.RoomQuestions(ctx, "r1")
	require.NoError(t, err)
	assert.ElementsMatch(t, first, again)

	templates, err := pool.Templates(ctx)
	require.NoError(t, err)
	assert.Len(t, templates, 3)
}

func TestPool_UnusedExcludesAskedAndActive(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	for _, q := range []string{"Q1", "Q2", "Q3"} {
		tmpl := template(q, "A")
		require.NoError(t, mem.CreateQuestion(ctx, &tmpl))
	}
	pool := game.NewPool(mem)

	all, err := pool.Unused(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, all, 3)

	require.NoError(t, mem.ActivateQuestion(ctx, "r1", all[0].ID))
	unused, err := pool.Unused(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, unused, 2)

	// deactivated questions stay retired
	require.NoError(t, mem.DeactivateQuestions(ctx, "r1"))
	unused, err = pool.Unused(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, unused, 2)

	other, err := pool.Unused(ctx, "r2")
	require.NoError(t, err)
	assert.Len(t, other, 3)
}

func TestPool_EmptyTemplates(t *testing.T) {
	pool := game.NewPool(store.NewMemory())
	qs, err := pool.Unused(context.Background(), "r1")
	require.NoError(t, err)
	assert.Empty(t, qs)
}
