package news

import (
	"net/url"
	"strings"
)

// RawArticle is a single headline as delivered by a fetcher.
type RawArticle struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// SourceRef attributes a merged article to one contributing outlet.
type SourceRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Logo string `json:"logo"`
}

// MergedArticle is the representative record of a group of near-duplicates.
type MergedArticle struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Sources     []SourceRef `json:"sources"`
}

// Result is the envelope handed to presentation layers.
type Result struct {
	NewsArticles []MergedArticle `json:"news_articles"`
	Error        string          `json:"error,omitempty"`
}

// Text is the string fed to the embedding encoder.
func (a RawArticle) Text() string {
	return a.Title + " " + a.Description
}

// Valid reports whether the article carries everything clustering needs.
func (a RawArticle) Valid() bool {
	return strings.TrimSpace(a.Title) != "" &&
		strings.TrimSpace(a.Description) != "" &&
		strings.TrimSpace(a.URL) != ""
}

// FilterValid drops malformed articles, keeping input order.
func FilterValid(articles []RawArticle) []RawArticle {
	out := make([]RawArticle, 0, len(articles))
	for _, a := range articles {
		if a.Valid() {
			out = append(out, a)
		}
	}
	return out
}

// DomainOf extracts the host of rawURL, lowercased with a leading "www." removed.
// Unparseable input yields "".
func DomainOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	return strings.TrimPrefix(host, "www.")
}
