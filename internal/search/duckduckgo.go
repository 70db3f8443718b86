package search

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultDuckDuckGoURL is the keyless HTML endpoint.
const DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo implements the Provider interface by scraping the
// DuckDuckGo HTML results page. It needs no API key.
type DuckDuckGo struct {
	endpoint   string
	httpClient *http.Client
}

// NewDuckDuckGo creates a DuckDuckGo provider. An empty endpoint selects
// [DefaultDuckDuckGoURL].
func NewDuckDuckGo(endpoint string) *DuckDuckGo {
	if endpoint == "" {
		endpoint = DefaultDuckDuckGoURL
	}
	return &DuckDuckGo{endpoint: endpoint, httpClient: newHTTPClient()}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	params := url.Values{"q": {query}}

	sep := "?"
	if strings.Contains(d.endpoint, "?") {
		sep = "&"
	}
	results, err := fetch(ctx, d.httpClient, d.Name(), d.endpoint+sep+params.Encode(),
		http.Header{"Accept": {"text/html"}}, parseDuckDuckGo)
	if err != nil {
		return nil, err
	}
	return limit(results, opts.Count), nil
}

// parseDuckDuckGo pulls results out of the HTML results page. Each
// result is a "result__a" link followed by an optional
// "result__snippet" element. Sponsored results are skipped.
func parseDuckDuckGo(r io.Reader) ([]Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var results []Result
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result--ad"):
				return
			case n.DataAtom == atom.A && hasClass(n, "result__a"):
				results = append(results, Result{
					Title: collapseSpace(textContent(n)),
					URL:   resultURL(attr(n, "href")),
				})
				return
			case hasClass(n, "result__snippet"):
				if len(results) > 0 {
					results[len(results)-1].Snippet = collapseSpace(textContent(n))
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results, nil
}

// resultURL unwraps DuckDuckGo's redirect links
// ("//duckduckgo.com/l/?uddg=<target>") to the target URL.
func resultURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
