package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nugget/chatty/internal/offpath"
	"github.com/nugget/chatty/internal/search"
)

// Searcher runs a web search. *search.Manager satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error)
}

// SearchTool answers questions from web search snippets.
type SearchTool struct {
	searcher Searcher
	count    int
	logger   *slog.Logger
}

// NewSearchTool creates the google_search capability. count caps the
// number of results requested; zero means the provider default.
func NewSearchTool(searcher Searcher, count int, logger *slog.Logger) *SearchTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchTool{searcher: searcher, count: count, logger: logger}
}

func (t *SearchTool) ID() ToolID { return GoogleSearch }

func (t *SearchTool) Description() string {
	return "Searches the web for current information. Arguments: 'query' (str)."
}

func (t *SearchTool) Run(ctx context.Context, args map[string]any) (string, error) {
	query, ok := stringArg(args, "query")
	query = strings.TrimSpace(query)
	if !ok || query == "" {
		return "Error: 'query' argument is required for 'google_search'.", nil
	}

	t.logger.Info("searching the web", "query", query)

	results, err := offpath.Run(ctx, func() ([]search.Result, error) {
		return t.searcher.Search(ctx, query, search.Options{Count: t.count})
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return fmt.Sprintf("An error occurred while executing the Google Search tool: %v", err), nil
	}

	if len(results) == 0 {
		return "No search results found.", nil
	}
	snippets := search.Snippets(results)
	if len(snippets) == 0 {
		return "I found results, but no useful snippets to answer your question.", nil
	}
	return strings.Join(snippets, "\n"), nil
}
