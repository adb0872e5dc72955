package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/linkaudit/internal/utils"
)

// DefaultBaseURL is the Custom Search JSON API host.
const DefaultBaseURL = "https://www.googleapis.com"

const customSearchPath = "/customsearch/v1"

// CustomSearch implements Provider on top of the Google Custom Search JSON API.
type CustomSearch struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// CustomSearchOption configures a CustomSearch client.
type CustomSearchOption func(*CustomSearch)

// WithBaseURL points the client at another host (tests, proxies).
func WithBaseURL(u string) CustomSearchOption {
	return func(c *CustomSearch) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) CustomSearchOption {
	return func(c *CustomSearch) { c.httpClient = hc }
}

// NewCustomSearch creates a client authenticated with apiKey.
func NewCustomSearch(apiKey string, opts ...CustomSearchOption) *CustomSearch {
	c := &CustomSearch{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type customSearchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ListPage performs one cse.list call.
func (c *CustomSearch) ListPage(ctx context.Context, req PageRequest) ([]Item, error) {
	num := req.Num
	if num <= 0 || num > PageSize {
		num = PageSize
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", req.EngineID)
	params.Set("q", req.Query)
	params.Set("start", strconv.Itoa(req.Start))
	params.Set("num", strconv.Itoa(num))
	if req.DisableDuplicateFilter {
		params.Set("filter", "0")
	}

	u := fmt.Sprintf("%s%s?%s", c.baseURL, customSearchPath, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", redactKey(err))
	}
	defer utils.DrainAndClose(resp.Body)

	var body customSearchResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		perr := &ProviderError{StatusCode: resp.StatusCode}
		if decodeErr == nil && body.Error != nil {
			perr.Message = body.Error.Message
		}
		return nil, perr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	items := make([]Item, 0, len(body.Items))
	for _, it := range body.Items {
		items = append(items, Item{
			Title:   it.Title,
			Link:    it.Link,
			Snippet: it.Snippet,
		})
	}
	return items, nil
}

// redactKey strips the request URL (which carries the api key) from
// transport errors before they reach logs.
func redactKey(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s %s: %w", uerr.Op, customSearchPath, uerr.Err)
	}
	return err
}
