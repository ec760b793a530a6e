package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/annel0/game-gallery/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeCatalog spins up a RAWG-shaped upstream that records requests.
func newFakeCatalog(t *testing.T) (*httptest.Server, *int64) {
	t.Helper()
	var hits int64

	mux := http.NewServeMux()
	mux.HandleFunc("/games", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 2,
			"results": []map[string]interface{}{
				{"id": 3328, "name": "The Witcher 3: Wild Hunt"},
				{"id": 4200, "name": "Portal 2"},
			},
		})
	})
	mux.HandleFunc("/games/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		if strings.HasSuffix(r.URL.Path, "/stores") {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"count":   1,
				"results": []map[string]interface{}{{"id": 1, "url": "https://store.example/witcher3"}},
			})
			return
		}
		var id int
		fmt.Sscanf(r.URL.Path, "/games/%d", &id)
		if id == 0 {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": id, "name": fmt.Sprintf("Game %d", id), "description_raw": "A game.",
		})
	})
	mux.HandleFunc("/genres", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count":   1,
			"results": []map[string]interface{}{{"id": 4, "name": "Action", "slug": "action"}},
		})
	})
	mux.HandleFunc("/platforms/lists/parents", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count":   1,
			"results": []map[string]interface{}{{"id": 1, "name": "PC", "slug": "pc"}},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestGamesAppliesFixedFilters(t *testing.T) {
	var captured string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]interface{}{"count": 0, "results": []interface{}{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	_, err := c.Games(context.Background(), GamesQuery{Search: "portal", Genres: "puzzle"})
	require.NoError(t, err)

	q, err := url.ParseQuery(captured)
	require.NoError(t, err)
	assert.Equal(t, "1,2,3,4", q.Get("esrb_rating"))
	assert.Equal(t, "210,211", q.Get("exclude_tags"))
	assert.Equal(t, "20", q.Get("page_size"))
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "portal", q.Get("search"))
	assert.Equal(t, "puzzle", q.Get("genres"))
	assert.Equal(t, "test-key", q.Get("key"))
}

func TestGamesClampsPaging(t *testing.T) {
	var captured string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]interface{}{"count": 0, "results": []interface{}{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	_, err := c.Games(context.Background(), GamesQuery{Page: -3, PageSize: 500})
	require.NoError(t, err)

	q, err := url.ParseQuery(captured)
	require.NoError(t, err)
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "20", q.Get("page_size"))
}

func TestGameDetails(t *testing.T) {
	srv, _ := newFakeCatalog(t)
	c := NewClient(srv.URL, "test-key")

	game, err := c.Game(context.Background(), 3328)
	require.NoError(t, err)
	assert.Equal(t, 3328, game.ID)
	assert.Equal(t, "A game.", game.Description)
}

func TestGameStores(t *testing.T) {
	srv, _ := newFakeCatalog(t)
	c := NewClient(srv.URL, "test-key")

	page, err := c.GameStores(context.Background(), 3328)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "https://store.example/witcher3", page.Results[0].URL)
}

func TestGenresAndPlatforms(t *testing.T) {
	srv, _ := newFakeCatalog(t)
	c := NewClient(srv.URL, "test-key")

	genres, err := c.Genres(context.Background())
	require.NoError(t, err)
	require.Len(t, genres.Results, 1)
	assert.Equal(t, "action", genres.Results[0].Slug)

	platforms, err := c.Platforms(context.Background())
	require.NoError(t, err)
	require.Len(t, platforms.Results, 1)
	assert.Equal(t, "pc", platforms.Results[0].Slug)
}

// Second identical request must be served from cache, not the upstream.
func TestCacheReadThrough(t *testing.T) {
	srv, hits := newFakeCatalog(t)
	c := NewClient(srv.URL, "test-key",
		WithCache(cache.NewMemoryCache(), time.Minute))

	_, err := c.Genres(context.Background())
	require.NoError(t, err)
	_, err = c.Genres(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), atomic.LoadInt64(hits))
}

// A corrupt cache entry is treated as a miss: evicted, refetched from
// the upstream, and replaced with the fresh payload.
func TestCacheCorruptEntryFallsThrough(t *testing.T) {
	srv, hits := newFakeCatalog(t)
	mc := cache.NewMemoryCache()
	c := NewClient(srv.URL, "test-key", WithCache(mc, time.Minute))

	key := "catalog:/genres?"
	require.NoError(t, mc.Set(context.Background(), key, []byte("{broken"), time.Minute))

	page, err := c.Genres(context.Background())
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, int64(1), atomic.LoadInt64(hits))

	// Испорченная запись заменена свежей
	data, err := mc.Get(context.Background(), key)
	require.NoError(t, err)
	assert.NotEqual(t, []byte("{broken"), data)
}

// The cache key must not contain the API key.
func TestCacheKeyExcludesAPIKey(t *testing.T) {
	srv, _ := newFakeCatalog(t)
	mc := cache.NewMemoryCache()
	c := NewClient(srv.URL, "super-secret-key", WithCache(mc, time.Minute))

	_, err := c.Genres(context.Background())
	require.NoError(t, err)

	for _, key := range mc.Keys() {
		assert.NotContains(t, key, "super-secret-key")
	}
}

func TestUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	_, err := c.Games(context.Background(), GamesQuery{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestUpstreamUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "test-key",
		WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}))

	_, err := c.Genres(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFavourites(t *testing.T) {
	srv, _ := newFakeCatalog(t)
	c := NewClient(srv.URL, "test-key")

	games := c.Favourites(context.Background())
	require.Len(t, games, len(favouriteGameIDs))

	// Порядок отображения сохраняется
	for i, id := range favouriteGameIDs {
		assert.Equal(t, id, games[i].ID)
	}
}

// Entries that fail to load are dropped, the rest keep their order.
func TestFavourites_PartialFailure(t *testing.T) {
	var served int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id int
		fmt.Sscanf(r.URL.Path, "/games/%d", &id)
		if id == favouriteGameIDs[0] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		atomic.AddInt64(&served, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": id, "name": fmt.Sprintf("Game %d", id)})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	games := c.Favourites(context.Background())

	require.Len(t, games, len(favouriteGameIDs)-1)
	assert.Equal(t, favouriteGameIDs[1], games[0].ID)
}
