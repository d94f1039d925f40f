package music

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 0, time.Second)
}

func TestClient_Search(t *testing.T) {
	t.Run("returns songs", func(t *testing.T) {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/Search", r.URL.Path)
			assert.Equal(t, "晴天", r.URL.Query().Get("keyword"))
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"186016","name":"晴天"}]}`))
		})

		songs, err := c.Search(context.Background(), "  晴天 ")
		require.NoError(t, err)
		require.Len(t, songs, 1)
		assert.Equal(t, "186016", songs[0]["id"])
	})

	t.Run("empty keyword", func(t *testing.T) {
		c := NewClient("http://unused", 0, time.Second)
		_, err := c.Search(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrEmptyKeyword)
	})

	t.Run("no results", func(t *testing.T) {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"data":null}`))
		})
		_, err := c.Search(context.Background(), "zzz")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("upstream error status", func(t *testing.T) {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := c.Search(context.Background(), "晴天")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestClient_Song(t *testing.T) {
	t.Run("resolves url and lyric", func(t *testing.T) {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/Song_V1", r.URL.Path)
			assert.Equal(t, "186016", r.URL.Query().Get("url"))
			assert.Equal(t, "standard", r.URL.Query().Get("level"))
			_, _ = w.Write([]byte(`{"success":true,"data":{"url":"http://cdn/x.mp3","lyric":"[00:00]"}}`))
		})

		info, err := c.Song(context.Background(), "186016")
		require.NoError(t, err)
		assert.Equal(t, "http://cdn/x.mp3", info.URL)
		assert.Equal(t, "[00:00]", info.Lyric)
	})

	t.Run("upstream message is surfaced", func(t *testing.T) {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"message":"版权受限"}`))
		})
		_, err := c.Song(context.Background(), "1")
		require.Error(t, err)
		assert.Equal(t, "版权受限", err.Error())
	})

	t.Run("missing id", func(t *testing.T) {
		c := NewClient("http://unused", 0, time.Second)
		_, err := c.Song(context.Background(), "")
		assert.ErrorIs(t, err, ErrMissingSongID)
	})
}

func TestClient_RespectsContext(t *testing.T) {
	c := NewClient("http://unused", 0.001, time.Second)
	// drain the single burst token
	c.limiter.Allow()
	c.limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Song(ctx, "1")
	assert.Error(t, err)
}
