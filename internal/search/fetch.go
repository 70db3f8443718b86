package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nugget/chatty/internal/httpkit"
)

// maxResponseBytes caps how much of a results page is decoded.
const maxResponseBytes = 2 << 20

func newHTTPClient() *http.Client {
	return httpkit.NewClient(httpkit.WithTimeout(15 * time.Second))
}

// fetch GETs rawURL on behalf of the named provider and hands a 200
// response body to decode. Every failure is prefixed with the provider
// name.
func fetch(ctx context.Context, client *http.Client, provider, rawURL string, header http.Header, decode func(io.Reader) ([]Result, error)) ([]Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", provider, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", provider, err)
	}
	defer httpkit.DrainAndClose(resp.Body, 64<<10)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: HTTP %d: %s", provider, resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 512))
	}

	results, err := decode(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", provider, err)
	}
	return results, nil
}
