package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// SearXNG queries a self-hosted SearXNG instance through its JSON API.
type SearXNG struct {
	baseURL    string
	httpClient *http.Client
}

// NewSearXNG creates a SearXNG provider rooted at baseURL, for example
// "http://localhost:8080".
func NewSearXNG(baseURL string) *SearXNG {
	return &SearXNG{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(),
	}
}

func (s *SearXNG) Name() string { return "searxng" }

func (s *SearXNG) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	params := url.Values{"q": {query}, "format": {"json"}}

	results, err := fetch(ctx, s.httpClient, s.Name(), s.baseURL+"/search?"+params.Encode(),
		http.Header{"Accept": {"application/json"}}, decodeSearXNG)
	if err != nil {
		return nil, err
	}
	return limit(results, opts.Count), nil
}

func decodeSearXNG(r io.Reader) ([]Result, error) {
	var page struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(r).Decode(&page); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(page.Results))
	for _, hit := range page.Results {
		results = append(results, Result{Title: hit.Title, URL: hit.URL, Snippet: strings.TrimSpace(hit.Content)})
	}
	return results, nil
}
