package query

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/marquee/internal/kometa"
)

func newCache(t *testing.T) (*Cache, *time.Time) {
	t.Helper()
	c, err := New(8, time.Minute)
	require.NoError(t, err)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestFetchCachesUntilStale(t *testing.T) {
	c, now := newCache(t)
	calls := 0
	fn := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	v, err := Get(context.Background(), c, "runs", fn)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = Get(context.Background(), c, "runs", fn)
	require.NoError(t, err)
	assert.Equal(t, 1, v, "fresh value served from cache")

	*now = now.Add(2 * time.Minute)
	v, err = Get(context.Background(), c, "runs", fn)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "stale value refetched")
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	c, _ := newCache(t)
	boom := errors.New("boom")
	_, err := Get(context.Background(), c, "config", func(context.Context) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestGetTypeMismatch(t *testing.T) {
	c, _ := newCache(t)
	c.Set("config", 42)
	_, err := Get(context.Background(), c, "config", func(context.Context) (string, error) {
		return "unused", nil
	})
	require.Error(t, err)
}

func TestInvalidatePrefix(t *testing.T) {
	c, _ := newCache(t)
	c.Set("runs", 1)
	c.Set("runs/abc", 2)
	c.Set("runs/abc/diff", 3)
	c.Set("runsheet", 4)
	c.Set("config", 5)

	removed := c.Invalidate("runs")
	assert.Equal(t, 3, removed)

	_, ok := c.Peek("runsheet")
	assert.True(t, ok, "sibling with shared prefix text survives")
	_, ok = c.Peek("config")
	assert.True(t, ok)
	_, ok = c.Peek("runs/abc")
	assert.False(t, ok)
}

func TestMutateInvalidatesOnlyOnSuccess(t *testing.T) {
	c, _ := newCache(t)
	c.Set("config", "old")

	err := Mutate(context.Background(), c, func(context.Context) error {
		return errors.New("rejected")
	}, "config")
	require.Error(t, err)
	_, ok := c.Peek("config")
	assert.True(t, ok, "failed mutation keeps cache")

	require.NoError(t, Mutate(context.Background(), c, func(context.Context) error { return nil }, "config"))
	_, ok = c.Peek("config")
	assert.False(t, ok)
}

func TestLRUEviction(t *testing.T) {
	c, err := New(2, time.Minute)
	require.NoError(t, err)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	assert.Equal(t, 2, c.Len())
	_, ok := c.Peek("a")
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "files/Movies.yml", FileKey("Movies.yml"))
	assert.Equal(t, "metadata/Movies/2/alien//", BrowseKey(kometa.BrowseQuery{Library: "Movies", Page: 2, Search: "alien"}))
	assert.Equal(t, "runs/r1", RunKey("r1"))
}

func TestServiceSaveConfigInvalidates(t *testing.T) {
	var configGets, libraryGets atomic.Int32
	r := chi.NewRouter()
	r.Get("/api/config", func(w http.ResponseWriter, _ *http.Request) {
		configGets.Add(1)
		_ = json.NewEncoder(w).Encode(kometa.ConfigFile{Exists: true, Content: "libraries: {}\n"})
	})
	r.Get("/api/libraries", func(w http.ResponseWriter, _ *http.Request) {
		libraryGets.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"libraries": []kometa.Library{{Name: "Movies"}}})
	})
	r.Post("/api/config", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(kometa.SaveResult{Success: true})
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	client, err := kometa.NewClient(server.URL)
	require.NoError(t, err)
	c, err := New(16, time.Minute)
	require.NoError(t, err)
	svc := NewService(client, c)
	ctx := context.Background()

	_, err = svc.Config(ctx)
	require.NoError(t, err)
	_, err = svc.Config(ctx)
	require.NoError(t, err)
	_, err = svc.Libraries(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, configGets.Load())
	assert.EqualValues(t, 1, libraryGets.Load())

	_, err = svc.SaveConfig(ctx, "libraries:\n  Movies: {}\n")
	require.NoError(t, err)

	_, err = svc.Config(ctx)
	require.NoError(t, err)
	_, err = svc.Libraries(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, configGets.Load())
	assert.EqualValues(t, 2, libraryGets.Load())
}

func TestServiceSavePlaylistInvalidatesPlaylists(t *testing.T) {
	var listGets atomic.Int32
	r := chi.NewRouter()
	r.Get("/api/playlists", func(w http.ResponseWriter, _ *http.Request) {
		listGets.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"playlists": []kometa.Playlist{{Name: "Marvel"}}})
	})
	r.Post("/api/playlists/save", func(w http.ResponseWriter, r *http.Request) {
		var body kometa.PlaylistSave
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Name == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Failed to save playlist: disk full"})
			return
		}
		_ = json.NewEncoder(w).Encode(kometa.SaveResult{Success: true})
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	client, err := kometa.NewClient(server.URL)
	require.NoError(t, err)
	c, err := New(16, time.Minute)
	require.NoError(t, err)
	svc := NewService(client, c)
	ctx := context.Background()
	builders := []kometa.PlaylistBuilder{{Source: "plex_all"}}

	_, err = svc.Playlists(ctx)
	require.NoError(t, err)
	_, err = svc.SavePlaylist(ctx, kometa.PlaylistSave{Name: "broken", Builders: builders})
	require.Error(t, err)
	_, err = svc.Playlists(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, listGets.Load(), "failed save must keep the cache")

	_, err = svc.SavePlaylist(ctx, kometa.PlaylistSave{Name: "Weekend", Builders: builders})
	require.NoError(t, err)
	_, err = svc.Playlists(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, listGets.Load())
}
