package newsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/headlines/internal/retry"
)

const topHeadlines = `{
  "status": "ok",
  "articles": [
    {"source": {"id": "the-hindu", "name": "The Hindu"}, "title": "Monsoon arrives", "description": "Rain reaches Kerala.", "url": "https://www.thehindu.com/1"},
    {"source": {"id": null, "name": "NDTV"}, "title": "Monsoon hits Kerala", "description": "Heavy rain in Kerala.", "url": "https://ndtv.com/2"},
    {"source": {"id": null, "name": "Google News"}, "title": "Aggregated", "description": "dup", "url": "https://news.google.com/3"},
    {"source": {"id": "bbc-news", "name": "BBC News"}, "title": "No description", "description": null, "url": "https://bbc.com/4"},
    {"source": {"id": "", "name": "Mint"}, "title": "Empty description", "description": "", "url": "https://livemint.com/5"}
  ]
}`

const everything = `{
  "status": "ok",
  "articles": [
    {"source": {"id": null, "name": "Mint"}, "title": "Markets", "description": "Sensex up.", "url": "https://livemint.com/6"}
  ]
}`

func TestFetch_RunsBothQueriesInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("apiKey"))
		switch r.URL.Path {
		case "/top-headlines":
			assert.Equal(t, "business", q.Get("category"))
			assert.Equal(t, "in", q.Get("country"))
			w.Write([]byte(topHeadlines))
		case "/everything":
			assert.Equal(t, "business india", q.Get("q"))
			assert.Equal(t, "publishedAt", q.Get("sortBy"))
			w.Write([]byte(everything))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "secret", BaseURL: srv.URL, Country: "in", QuerySuffix: "india"})
	got, err := c.Fetch(context.Background(), "business")
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "the-hindu", got[0].Source)
	assert.Equal(t, "NDTV", got[1].Source)
	assert.Equal(t, "Heavy rain in Kerala.", got[1].Description)
	assert.Equal(t, "Mint", got[2].Source)
	assert.Equal(t, "https://livemint.com/6", got[2].URL)
}

func TestFetch_SkipsFailedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/top-headlines" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"status":"error","message":"bad key"}`))
			return
		}
		w.Write([]byte(everything))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "secret", BaseURL: srv.URL})
	got, err := c.Fetch(context.Background(), "general")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Markets", got[0].Title)
}

func TestFetch_StatusNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","code":"rateLimited","message":"slow down"}`))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "secret", BaseURL: srv.URL})
	got, err := c.Fetch(context.Background(), "general")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/top-headlines" && calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"status":"ok","articles":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "secret", BaseURL: srv.URL, Retry: retry.Policy{Attempts: 2, Delay: time.Millisecond}})
	_, err := c.Fetch(context.Background(), "general")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_NoAPIKey(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "http://unused"}).Fetch(context.Background(), "general")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestFetch_DefaultCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/top-headlines" {
			assert.Equal(t, "general", r.URL.Query().Get("category"))
		}
		w.Write([]byte(`{"status":"ok","articles":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(Options{APIKey: "k", BaseURL: srv.URL}).Fetch(context.Background(), "")
	require.NoError(t, err)
}
