package search

import (
	"context"
	"fmt"
)

// PageSize is the most items the provider returns for one call.
const PageSize = 10

// PageRequest is one list call against the provider.
type PageRequest struct {
	Query    string // sent verbatim
	EngineID string // result-set identifier (cx)
	Start    int    // 1-based offset of the first item
	Num      int    // items per page, at most PageSize

	// DisableDuplicateFilter asks the provider to return near-duplicate
	// results it would otherwise collapse.
	DisableDuplicateFilter bool
}

// Item is a single provider hit.
type Item struct {
	Title   string
	Link    string
	Snippet string
}

// Provider is a paginated web search backend.
// An empty, nil-error result means there are no more items.
type Provider interface {
	ListPage(ctx context.Context, req PageRequest) ([]Item, error)
}

// ProviderError is a non-2xx answer from the provider.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("search provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("search provider returned status %d: %s", e.StatusCode, e.Message)
}
