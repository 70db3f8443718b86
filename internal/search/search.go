// Package search provides the web search backends behind the
// google_search tool.
//
// Each backend implements [Provider]. The [Manager] holds the configured
// providers and routes queries to the primary one.
package search

import (
	"context"
	"fmt"
	"sort"
)

// Result is a single search result.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Options are optional parameters for a search query.
type Options struct {
	// Count is the maximum number of results to return.
	// Providers may return fewer. Zero means provider default.
	Count int `json:"count,omitempty"`
}

// DefaultCount is used when Options.Count is zero.
const DefaultCount = 5

// Provider is the interface that search backends implement.
type Provider interface {
	// Name returns the provider identifier (e.g., "duckduckgo", "brave").
	Name() string

	// Search executes a query and returns results.
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}

// Manager holds configured providers and routes searches.
type Manager struct {
	providers map[string]Provider
	primary   string
}

// NewManager creates a search manager. The primary provider name
// determines which backend answers [Manager.Search].
func NewManager(primary string) *Manager {
	return &Manager{
		providers: make(map[string]Provider),
		primary:   primary,
	}
}

// Register adds a provider to the manager.
func (m *Manager) Register(p Provider) {
	m.providers[p.Name()] = p
}

// Search runs a query against the primary provider.
func (m *Manager) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	p, ok := m.providers[m.primary]
	if !ok {
		return nil, fmt.Errorf("search provider %q not configured", m.primary)
	}
	return p.Search(ctx, query, opts)
}

// Primary returns the name of the provider used by Search.
func (m *Manager) Primary() string {
	return m.primary
}

// Providers returns the names of all registered providers, sorted.
func (m *Manager) Providers() []string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snippets returns the non-empty snippets of results in order.
func Snippets(results []Result) []string {
	var out []string
	for _, r := range results {
		if r.Snippet != "" {
			out = append(out, r.Snippet)
		}
	}
	return out
}

func limit(results []Result, count int) []Result {
	if count <= 0 {
		count = DefaultCount
	}
	if len(results) > count {
		return results[:count]
	}
	return results
}
