package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/headlines/internal/cluster"
	"github.com/deusflow/headlines/internal/metrics"
	"github.com/deusflow/headlines/internal/news"
)

type staticFetcher struct {
	articles []news.RawArticle
	err      error
}

func (f staticFetcher) Fetch(context.Context, string) ([]news.RawArticle, error) {
	return f.articles, f.err
}

// axisEncoder maps each text to a fixed vector; unknown texts get a unique axis.
type axisEncoder struct {
	vectors map[string][]float32
	err     error
}

func (e axisEncoder) EncodeBatch(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := e.vectors[t]; ok {
			out[i] = v
			continue
		}
		v := make([]float32, 16)
		v[i%16] = 1
		out[i] = v
	}
	return out, nil
}

type constLogo string

func (c constLogo) Resolve(context.Context, string) string { return string(c) }

type recordingPublisher struct {
	sent []string
	err  error
}

func (r *recordingPublisher) SendMessage(_ context.Context, text string) error {
	r.sent = append(r.sent, text)
	return r.err
}

var (
	hindu = news.RawArticle{Title: "Monsoon arrives in Kerala", Source: "the-hindu", Description: "Rain reached the coast on Sunday.", URL: "https://www.thehindu.com/a"}
	ndtv  = news.RawArticle{Title: "Kerala monsoon", Source: "NDTV", Description: "The monsoon has reached Kerala, officials said on Sunday.", URL: "https://ndtv.com/b"}
	mint  = news.RawArticle{Title: "Sensex closes higher", Source: "Mint", Description: "Markets gained.", URL: "https://livemint.com/c"}
)

func newTestPipeline(enc axisEncoder, fetchers ...Fetcher) (*Pipeline, *metrics.Metrics) {
	m := metrics.New()
	c := cluster.New(enc, constLogo("https://placehold.co/24x24"))
	return NewPipeline(c, fetchers, WithMetrics(m)), m
}

func TestRun_MergesAcrossFetchers(t *testing.T) {
	enc := axisEncoder{vectors: map[string][]float32{
		hindu.Text(): {1, 0},
		ndtv.Text():  {0.95, 0.05},
		mint.Text():  {0, 1},
	}}
	p, m := newTestPipeline(enc,
		staticFetcher{articles: []news.RawArticle{hindu, mint}},
		staticFetcher{err: errors.New("feed down")},
		staticFetcher{articles: []news.RawArticle{ndtv, {Title: "broken"}}},
	)

	res := p.Run(context.Background(), "general")
	require.Empty(t, res.Error)
	require.Len(t, res.NewsArticles, 2)

	first := res.NewsArticles[0]
	assert.Equal(t, hindu.Title, first.Title)
	assert.Equal(t, ndtv.Description, first.Description)
	require.Len(t, first.Sources, 2)
	assert.Equal(t, "the-hindu", first.Sources[0].Name)
	assert.Equal(t, "NDTV", first.Sources[1].Name)

	assert.Equal(t, mint.Title, res.NewsArticles[1].Title)

	stats := m.GetStats()
	assert.Equal(t, int64(3), stats["articles_fetched"])
	assert.Equal(t, true, stats["is_healthy"])
}

func TestRun_NoArticles(t *testing.T) {
	p, m := newTestPipeline(axisEncoder{}, staticFetcher{})

	res := p.Run(context.Background(), "sports")
	assert.Equal(t, "No articles found for category: sports. Check API key or rate limits.", res.Error)
	assert.NotNil(t, res.NewsArticles)
	assert.Empty(t, res.NewsArticles)
	assert.Equal(t, false, m.GetStats()["is_healthy"])
}

func TestRun_EncoderFailure(t *testing.T) {
	p, _ := newTestPipeline(axisEncoder{err: errors.New("model missing")}, staticFetcher{articles: []news.RawArticle{hindu}})

	res := p.Run(context.Background(), "general")
	assert.True(t, strings.HasPrefix(res.Error, "Failed to fetch news: "), res.Error)
	assert.Contains(t, res.Error, "model missing")
	assert.Empty(t, res.NewsArticles)
}

func TestPublish(t *testing.T) {
	pub := &recordingPublisher{}
	m := metrics.New()
	p := NewPipeline(nil, nil, WithPublisher(pub), WithMetrics(m), WithMaxDigestItems(1))

	res := news.Result{NewsArticles: []news.MergedArticle{
		{Title: "A & B", Description: "d", Sources: []news.SourceRef{{Name: "x", URL: "https://x.com/1"}}},
		{Title: "second", Description: "d"},
	}}
	require.NoError(t, p.Publish(context.Background(), res))
	require.Len(t, pub.sent, 1)
	assert.Contains(t, pub.sent[0], "A &amp; B")
	assert.NotContains(t, pub.sent[0], "second")
	assert.Equal(t, int64(1), m.GetStats()["digests_published"])
}

func TestPublish_SkipsFailedResult(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewPipeline(nil, nil, WithPublisher(pub))

	require.NoError(t, p.Publish(context.Background(), news.Result{Error: "boom"}))
	assert.Empty(t, pub.sent)
}

func TestPublish_Errors(t *testing.T) {
	res := news.Result{NewsArticles: []news.MergedArticle{{Title: "t", Description: "d"}}}

	err := NewPipeline(nil, nil).Publish(context.Background(), res)
	assert.ErrorIs(t, err, ErrNoPublisher)

	pub := &recordingPublisher{err: errors.New("status 500")}
	err = NewPipeline(nil, nil, WithPublisher(pub)).Publish(context.Background(), res)
	assert.ErrorContains(t, err, "status 500")
}

func busyDigest(items, sources int) []news.MergedArticle {
	list := make([]news.MergedArticle, items)
	for i := range list {
		refs := make([]news.SourceRef, sources)
		for j := range refs {
			refs[j] = news.SourceRef{
				Name: fmt.Sprintf("Outlet %d-%d", i, j),
				URL:  fmt.Sprintf("https://www.example%d.com/news/2026/10/19/a-fairly-long-article-slug-%d-%s", i, j, strings.Repeat("x", 60)),
			}
		}
		list[i] = news.MergedArticle{
			Title:       fmt.Sprintf("Story %d with a reasonably long headline", i),
			Description: strings.Repeat("Officials confirmed the details on Sunday. ", 12),
			Sources:     refs,
		}
	}
	return list
}

func TestPublish_BusyClustersFitOneMessage(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewPipeline(nil, nil, WithPublisher(pub), WithMaxDigestItems(5))

	require.NoError(t, p.Publish(context.Background(), news.Result{NewsArticles: busyDigest(5, 12)}))
	require.Len(t, pub.sent, 1)

	msg := pub.sent[0]
	assert.LessOrEqual(t, utf8.RuneCountInString(msg), MaxDigestLength)
	assert.Equal(t, strings.Count(msg, "<a "), strings.Count(msg, "</a>"))
	assert.Equal(t, strings.Count(msg, "<b>"), strings.Count(msg, "</b>"))
	assert.Contains(t, msg, "+7 more")
	assert.Contains(t, msg, "of 5 stories")
	assert.NotContains(t, msg, "5 of 5 stories")
}
