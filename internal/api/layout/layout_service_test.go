package layout

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLayoutServiceTest() *ServiceImpl {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewServiceImpl(cache.New(cache.NoExpiration, 0), logger)
}

func TestLayoutServiceImpl_State(t *testing.T) {
	service := setupLayoutServiceTest()
	ctx := context.Background()

	state, err := service.State(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, DefaultPaneWidth, state.PaneWidth)
	assert.False(t, state.IsResizing)
}

func TestLayoutServiceImpl_ResizeLifecycle(t *testing.T) {
	service := setupLayoutServiceTest()
	ctx := context.Background()

	state, err := service.BeginResize(ctx, "s1", 0, 1600)
	require.NoError(t, err)
	assert.True(t, state.IsResizing)
	assert.Equal(t, 1600.0, state.ContainerWidth)

	state, err = service.UpdateResize(ctx, "s1", 640)
	require.NoError(t, err)
	assert.Equal(t, 640.0, state.PaneWidth)

	state, err = service.EndResize(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, state.IsResizing)
	assert.Equal(t, 640.0, state.PaneWidth)
}

func TestLayoutServiceImpl_UpdateResize(t *testing.T) {
	ctx := context.Background()

	t.Run("width below the minimum is ignored", func(t *testing.T) {
		service := setupLayoutServiceTest()
		_, err := service.BeginResize(ctx, "s1", 0, 1600)
		require.NoError(t, err)

		state, err := service.UpdateResize(ctx, "s1", 300)
		require.NoError(t, err)
		// The divider sticks at its last legal position, not a clamp.
		assert.Equal(t, DefaultPaneWidth, state.PaneWidth)
	})

	t.Run("width above three quarters of the container is ignored", func(t *testing.T) {
		service := setupLayoutServiceTest()
		_, err := service.BeginResize(ctx, "s1", 0, 1600)
		require.NoError(t, err)

		state, err := service.UpdateResize(ctx, "s1", 1300)
		require.NoError(t, err)
		assert.Equal(t, DefaultPaneWidth, state.PaneWidth)
	})

	t.Run("pointer is resolved against the captured container left", func(t *testing.T) {
		service := setupLayoutServiceTest()
		_, err := service.BeginResize(ctx, "s1", 200, 1600)
		require.NoError(t, err)

		state, err := service.UpdateResize(ctx, "s1", 700)
		require.NoError(t, err)
		assert.Equal(t, 500.0, state.PaneWidth)
	})

	t.Run("ignored when no drag is in flight", func(t *testing.T) {
		service := setupLayoutServiceTest()

		state, err := service.UpdateResize(ctx, "s1", 700)
		require.NoError(t, err)
		assert.Equal(t, DefaultPaneWidth, state.PaneWidth)
	})

	t.Run("overshoot then return keeps tracking", func(t *testing.T) {
		service := setupLayoutServiceTest()
		_, err := service.BeginResize(ctx, "s1", 0, 1600)
		require.NoError(t, err)

		_, err = service.UpdateResize(ctx, "s1", 600)
		require.NoError(t, err)
		_, err = service.UpdateResize(ctx, "s1", 1400) // past the band
		require.NoError(t, err)
		state, err := service.UpdateResize(ctx, "s1", 800) // back inside
		require.NoError(t, err)
		assert.Equal(t, 800.0, state.PaneWidth)
	})
}

func TestLayoutServiceImpl_SessionsAreIndependent(t *testing.T) {
	service := setupLayoutServiceTest()
	ctx := context.Background()

	_, err := service.BeginResize(ctx, "a", 0, 1600)
	require.NoError(t, err)
	_, err = service.UpdateResize(ctx, "a", 700)
	require.NoError(t, err)

	state, err := service.State(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, DefaultPaneWidth, state.PaneWidth)
}
