package news

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.BBC.co.uk/news/world-123", "bbc.co.uk"},
		{"http://example.com", "example.com"},
		{"https://news.example.com/a?b=c", "news.example.com"},
		{"https://wwwx.example.com/", "wwwx.example.com"},
		{"https://example.com:8443/path", "example.com:8443"},
		{"not a url", ""},
		{"", ""},
		{"://broken", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DomainOf(tt.in), "DomainOf(%q)", tt.in)
	}
}

func TestText(t *testing.T) {
	a := RawArticle{Title: "Rain in Delhi", Description: "Heavy showers expected."}
	assert.Equal(t, "Rain in Delhi Heavy showers expected.", a.Text())
}

func TestFilterValid(t *testing.T) {
	in := []RawArticle{
		{Title: "A", Description: "a", URL: "https://a.com/1", Source: "a"},
		{Title: "B", Description: "", URL: "https://b.com/1"},
		{Title: " ", Description: "c", URL: "https://c.com/1"},
		{Title: "D", Description: "d", URL: ""},
		{Title: "E", Description: "e", URL: "https://e.com/1"},
	}

	out := FilterValid(in)
	if assert.Len(t, out, 2) {
		assert.Equal(t, "A", out[0].Title)
		assert.Equal(t, "E", out[1].Title)
	}
}
