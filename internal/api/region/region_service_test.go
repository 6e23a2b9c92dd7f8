package region

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-weaver/internal/types"
)

// MockGeocodeService is a mock implementation of geocode.Service
type MockGeocodeService struct {
	mock.Mock
}

func (m *MockGeocodeService) Search(ctx context.Context, query string) ([]types.PlaceResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.PlaceResult), args.Error(1)
}

func setupRegionServiceTest() (*ServiceImpl, *MockGeocodeService) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mockGeo := new(MockGeocodeService)
	service := NewServiceImpl(cache.New(cache.NoExpiration, 0), mockGeo, logger)
	return service, mockGeo
}

func TestRegionServiceImpl_ToggleDrawingMode(t *testing.T) {
	service, _ := setupRegionServiceTest()
	ctx := context.Background()

	state, err := service.ToggleDrawingMode(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, state.DrawingMode)

	state, err = service.ToggleDrawingMode(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, state.DrawingMode)
}

func TestRegionServiceImpl_ToggleDrawingMode_AbandonsDrag(t *testing.T) {
	service, _ := setupRegionServiceTest()
	ctx := context.Background()

	_, err := service.ToggleDrawingMode(ctx, "s1")
	require.NoError(t, err)
	_, err = service.PointerEvent(ctx, "s1", types.PointerDown, types.Coordinate{Lat: 38.7, Lng: -9.1})
	require.NoError(t, err)

	state, err := service.ToggleDrawingMode(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, types.GestureIdle, state.Phase)
	assert.Nil(t, state.Anchor)
	assert.Nil(t, state.Preview)
}

func TestRegionServiceImpl_PointerEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("ignored outside drawing mode", func(t *testing.T) {
		service, _ := setupRegionServiceTest()

		state, err := service.PointerEvent(ctx, "s1", types.PointerDown, types.Coordinate{Lat: 38.7, Lng: -9.1})
		require.NoError(t, err)
		assert.Equal(t, types.GestureIdle, state.Phase)
		assert.Nil(t, state.Anchor)
	})

	t.Run("full drag appends a selection", func(t *testing.T) {
		service, _ := setupRegionServiceTest()
		_, err := service.ToggleDrawingMode(ctx, "s1")
		require.NoError(t, err)

		state, err := service.PointerEvent(ctx, "s1", types.PointerDown, types.Coordinate{Lat: 38.70, Lng: -9.15})
		require.NoError(t, err)
		assert.Equal(t, types.GestureAnchoring, state.Phase)

		state, err = service.PointerEvent(ctx, "s1", types.PointerMove, types.Coordinate{Lat: 38.75, Lng: -9.10})
		require.NoError(t, err)
		assert.Equal(t, types.GesturePreviewing, state.Phase)
		require.NotNil(t, state.Preview)
		assert.Equal(t, 38.75, state.Preview.North)
		assert.Equal(t, 38.70, state.Preview.South)

		state, err = service.PointerEvent(ctx, "s1", types.PointerUp, types.Coordinate{Lat: 38.75, Lng: -9.10})
		require.NoError(t, err)
		assert.Equal(t, types.GestureIdle, state.Phase)
		require.Len(t, state.Selections, 1)
		assert.Equal(t, 38.75, state.Selections[0].North)
		assert.Nil(t, state.Preview)
	})

	t.Run("sub-threshold drag is discarded as a click", func(t *testing.T) {
		service, _ := setupRegionServiceTest()
		_, err := service.ToggleDrawingMode(ctx, "s1")
		require.NoError(t, err)

		// ~30 meters of latitude, well under the 100m threshold.
		_, err = service.PointerEvent(ctx, "s1", types.PointerDown, types.Coordinate{Lat: 38.7000, Lng: -9.15})
		require.NoError(t, err)
		state, err := service.PointerEvent(ctx, "s1", types.PointerUp, types.Coordinate{Lat: 38.7003, Lng: -9.15})
		require.NoError(t, err)
		assert.Empty(t, state.Selections)
		assert.Equal(t, types.GestureIdle, state.Phase)
	})

	t.Run("selection clears the staged destination", func(t *testing.T) {
		service, _ := setupRegionServiceTest()
		_, err := service.StageDestination(ctx, "s1", "Lisbon")
		require.NoError(t, err)
		_, err = service.ToggleDrawingMode(ctx, "s1")
		require.NoError(t, err)

		_, err = service.PointerEvent(ctx, "s1", types.PointerDown, types.Coordinate{Lat: 38.70, Lng: -9.15})
		require.NoError(t, err)
		state, err := service.PointerEvent(ctx, "s1", types.PointerUp, types.Coordinate{Lat: 38.75, Lng: -9.10})
		require.NoError(t, err)
		require.Len(t, state.Selections, 1)
		assert.Empty(t, state.StagedDestination)
	})

	t.Run("unknown phase", func(t *testing.T) {
		service, _ := setupRegionServiceTest()
		_, err := service.ToggleDrawingMode(ctx, "s1")
		require.NoError(t, err)

		_, err = service.PointerEvent(ctx, "s1", types.PointerPhase("hover"), types.Coordinate{})
		require.Error(t, err)
	})
}

func TestRegionServiceImpl_SelectVisibleViewport(t *testing.T) {
	ctx := context.Background()

	t.Run("appends the viewport and clears the staged destination", func(t *testing.T) {
		service, _ := setupRegionServiceTest()
		_, err := service.StageDestination(ctx, "s1", "Lisbon")
		require.NoError(t, err)

		bounds := types.BoundingBox{North: 38.8, South: 38.6, East: -9.0, West: -9.3}
		state, err := service.SelectVisibleViewport(ctx, "s1", bounds)
		require.NoError(t, err)
		require.Len(t, state.Selections, 1)
		assert.Equal(t, bounds, state.Selections[0])
		assert.Empty(t, state.StagedDestination)
	})

	t.Run("rejects inverted bounds", func(t *testing.T) {
		service, _ := setupRegionServiceTest()

		_, err := service.SelectVisibleViewport(ctx, "s1", types.BoundingBox{North: 38.6, South: 38.8})
		require.Error(t, err)

		state, err := service.State(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, state.Selections)
	})
}

func TestRegionServiceImpl_UndoLastSelection(t *testing.T) {
	service, _ := setupRegionServiceTest()
	ctx := context.Background()

	t.Run("no-op on empty stack", func(t *testing.T) {
		state, err := service.UndoLastSelection(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, state.Selections)
	})

	t.Run("removes the most recent selection", func(t *testing.T) {
		first := types.BoundingBox{North: 38.8, South: 38.6, East: -9.0, West: -9.3}
		second := types.BoundingBox{North: 41.2, South: 41.1, East: -8.5, West: -8.7}
		_, err := service.SelectVisibleViewport(ctx, "s1", first)
		require.NoError(t, err)
		_, err = service.SelectVisibleViewport(ctx, "s1", second)
		require.NoError(t, err)

		state, err := service.UndoLastSelection(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, state.Selections, 1)
		assert.Equal(t, first, state.Selections[0])
	})
}

func TestRegionServiceImpl_SearchPlace(t *testing.T) {
	ctx := context.Background()

	t.Run("returns geocode results", func(t *testing.T) {
		service, mockGeo := setupRegionServiceTest()
		expected := []types.PlaceResult{{DisplayName: "Lisbon, Portugal", Lat: 38.72, Lon: -9.14}}
		mockGeo.On("Search", mock.Anything, "Lisbon").Return(expected, nil).Once()

		results := service.SearchPlace(ctx, "Lisbon")
		assert.Equal(t, expected, results)
		mockGeo.AssertExpectations(t)
	})

	t.Run("failure degrades to empty results", func(t *testing.T) {
		service, mockGeo := setupRegionServiceTest()
		mockGeo.On("Search", mock.Anything, "Atlantis").Return(nil, errors.New("service unavailable")).Once()

		results := service.SearchPlace(ctx, "Atlantis")
		assert.Empty(t, results)
		assert.NotNil(t, results)
		mockGeo.AssertExpectations(t)
	})
}

func TestHaversineMeters(t *testing.T) {
	// Lisbon to Porto is roughly 274 km.
	lisbon := types.Coordinate{Lat: 38.7223, Lng: -9.1393}
	porto := types.Coordinate{Lat: 41.1579, Lng: -8.6291}

	d := haversineMeters(lisbon, porto)
	assert.InDelta(t, 274000, d, 5000)

	assert.Zero(t, haversineMeters(lisbon, lisbon))
}
