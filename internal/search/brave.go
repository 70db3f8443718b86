package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultBraveURL is the Brave web search endpoint.
const DefaultBraveURL = "https://api.search.brave.com/res/v1/web/search"

// Brave queries the Brave Search API. It needs a subscription token.
type Brave struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewBrave creates a Brave Search provider.
func NewBrave(apiKey string) *Brave {
	return &Brave{
		apiKey:     apiKey,
		endpoint:   DefaultBraveURL,
		httpClient: newHTTPClient(),
	}
}

func (b *Brave) Name() string { return "brave" }

func (b *Brave) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	count := opts.Count
	if count <= 0 {
		count = DefaultCount
	}

	params := url.Values{"q": {query}, "count": {strconv.Itoa(count)}}
	header := http.Header{
		"Accept":               {"application/json"},
		"X-Subscription-Token": {b.apiKey},
	}

	results, err := fetch(ctx, b.httpClient, b.Name(), b.endpoint+"?"+params.Encode(), header, decodeBrave)
	if err != nil {
		return nil, err
	}
	return limit(results, count), nil
}

func decodeBrave(r io.Reader) ([]Result, error) {
	var page struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(r).Decode(&page); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(page.Web.Results))
	for _, hit := range page.Web.Results {
		results = append(results, Result{Title: hit.Title, URL: hit.URL, Snippet: strings.TrimSpace(hit.Description)})
	}
	return results, nil
}
