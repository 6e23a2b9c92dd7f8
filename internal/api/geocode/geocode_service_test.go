package geocode

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGeocodeServiceTest(handler http.HandlerFunc) (*ServiceImpl, *httptest.Server) {
	server := httptest.NewServer(handler)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	service := NewServiceImpl(server.URL, logger)
	return service, server
}

func TestGeocodeServiceImpl_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("parses results with string coordinates", func(t *testing.T) {
		service, server := setupGeocodeServiceTest(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Lisbon", r.URL.Query().Get("q"))
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			assert.NotEmpty(t, r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[
				{
					"display_name": "Lisbon, Portugal",
					"lat": "38.7223",
					"lon": "-9.1393",
					"boundingbox": ["38.6913", "38.7958", "-9.2298", "-9.0863"]
				}
			]`))
		})
		defer server.Close()

		results, err := service.Search(ctx, "Lisbon")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Lisbon, Portugal", results[0].DisplayName)
		assert.InDelta(t, 38.7223, results[0].Lat, 1e-9)
		assert.InDelta(t, -9.1393, results[0].Lon, 1e-9)
		require.NotNil(t, results[0].BoundingBox)
		// Wire order is [south, north, west, east].
		assert.InDelta(t, 38.7958, results[0].BoundingBox.North, 1e-9)
		assert.InDelta(t, 38.6913, results[0].BoundingBox.South, 1e-9)
		assert.InDelta(t, -9.0863, results[0].BoundingBox.East, 1e-9)
		assert.InDelta(t, -9.2298, results[0].BoundingBox.West, 1e-9)
	})

	t.Run("skips results with malformed coordinates", func(t *testing.T) {
		service, server := setupGeocodeServiceTest(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[
				{"display_name": "Bad", "lat": "not-a-number", "lon": "-9.1"},
				{"display_name": "Good", "lat": "38.7", "lon": "-9.1"}
			]`))
		})
		defer server.Close()

		results, err := service.Search(ctx, "somewhere")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Good", results[0].DisplayName)
	})

	t.Run("missing bounding box is left nil", func(t *testing.T) {
		service, server := setupGeocodeServiceTest(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"display_name": "Point", "lat": "38.7", "lon": "-9.1"}]`))
		})
		defer server.Close()

		results, err := service.Search(ctx, "point")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Nil(t, results[0].BoundingBox)
	})

	t.Run("no results", func(t *testing.T) {
		service, server := setupGeocodeServiceTest(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		})
		defer server.Close()

		results, err := service.Search(ctx, "nowhere")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("upstream error status", func(t *testing.T) {
		service, server := setupGeocodeServiceTest(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		defer server.Close()

		_, err := service.Search(ctx, "anywhere")
		require.Error(t, err)
	})

	t.Run("malformed body", func(t *testing.T) {
		service, server := setupGeocodeServiceTest(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		})
		defer server.Close()

		_, err := service.Search(ctx, "anywhere")
		require.Error(t, err)
	})
}

func TestParseBoundingBox(t *testing.T) {
	t.Run("wrong length", func(t *testing.T) {
		assert.Nil(t, parseBoundingBox([]string{"1", "2"}))
	})

	t.Run("inverted latitudes", func(t *testing.T) {
		assert.Nil(t, parseBoundingBox([]string{"40", "38", "-9", "-8"}))
	})

	t.Run("valid", func(t *testing.T) {
		box := parseBoundingBox([]string{"38", "40", "-9", "-8"})
		require.NotNil(t, box)
		assert.Equal(t, 40.0, box.North)
		assert.Equal(t, 38.0, box.South)
	})
}
