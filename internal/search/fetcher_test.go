package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/linkaudit/internal/domain"
)

// stubProvider serves `total` numbered items and records every request.
type stubProvider struct {
	total    int
	failAt   int // start offset that errors, 0 = never
	short    int // if > 0, pages hold at most this many items
	requests []PageRequest
}

func (s *stubProvider) ListPage(_ context.Context, req PageRequest) ([]Item, error) {
	s.requests = append(s.requests, req)
	if s.failAt != 0 && req.Start == s.failAt {
		return nil, errors.New("quota exceeded")
	}
	size := req.Num
	if s.short > 0 && s.short < size {
		size = s.short
	}
	var items []Item
	for i := req.Start; i < req.Start+size && i <= s.total; i++ {
		items = append(items, Item{
			Title:   fmt.Sprintf("title %d", i),
			Link:    fmt.Sprintf("https://ref%d.example/", i),
			Snippet: fmt.Sprintf("snippet %d", i),
		})
	}
	return items, nil
}

type alwaysFailing struct{ calls int }

func (a *alwaysFailing) ListPage(context.Context, PageRequest) ([]Item, error) {
	a.calls++
	return nil, &ProviderError{StatusCode: 403, Message: "API key not valid"}
}

type recordingObserver struct {
	starts    [][2]int
	completes []int
	total     int
	term      Termination
	finished  int
}

func (r *recordingObserver) OnBatchStart(start, end int) {
	r.starts = append(r.starts, [2]int{start, end})
}
func (r *recordingObserver) OnBatchComplete(count int) { r.completes = append(r.completes, count) }
func (r *recordingObserver) OnFinished(total int, t Termination) {
	r.total, r.term = total, t
	r.finished++
}

func newTestFetcher(p Provider) *Fetcher {
	return NewFetcher(p, "engine-1", WithPageDelay(0))
}

func TestFetchTargetReachedDoesNotTrim(t *testing.T) {
	p := &stubProvider{total: 1000}
	out := newTestFetcher(p).Fetch(context.Background(), "q", 25, nil)

	assert.Equal(t, TargetReached, out.Termination.Kind)
	assert.Len(t, out.Records, 30, "result is rounded up to the page size, not trimmed")
	assert.Len(t, p.requests, 3)
	for i, req := range p.requests {
		assert.Equal(t, 1+i*PageSize, req.Start)
		assert.Equal(t, PageSize, req.Num)
		assert.Equal(t, "engine-1", req.EngineID)
	}
}

func TestFetchStopsOnExhaustion(t *testing.T) {
	p := &stubProvider{total: 15}
	out := newTestFetcher(p).Fetch(context.Background(), "q", 50, nil)

	assert.Equal(t, Exhausted, out.Termination.Kind)
	assert.NoError(t, out.Termination.Err)
	assert.Len(t, out.Records, 15)
	assert.Len(t, p.requests, 3, "third page is empty and ends the loop")
}

func TestFetchLengthProperty(t *testing.T) {
	for _, total := range []int{0, 1, 9, 10, 11, 55, 200} {
		for _, target := range []int{1, 5, 10, 11, 50, 100} {
			t.Run(fmt.Sprintf("total=%d/target=%d", total, target), func(t *testing.T) {
				out := newTestFetcher(&stubProvider{total: total}).Fetch(context.Background(), "q", target, nil)
				n := len(out.Records)
				roundedUp := ((target + PageSize - 1) / PageSize) * PageSize

				switch {
				case n == 0:
					assert.Equal(t, 0, total)
				case n >= target:
					assert.Equal(t, TargetReached, out.Termination.Kind)
					assert.LessOrEqual(t, n, roundedUp)
				default:
					assert.Equal(t, Exhausted, out.Termination.Kind)
					assert.Equal(t, total, n)
				}
			})
		}
	}
}

func TestFetchShortPagesEndAtLoopBound(t *testing.T) {
	p := &stubProvider{total: 1000, short: 4}
	out := newTestFetcher(p).Fetch(context.Background(), "q", 20, nil)

	assert.Len(t, p.requests, 2, "no page is requested past start > target")
	assert.Len(t, out.Records, 8)
	assert.Equal(t, Exhausted, out.Termination.Kind)
}

func TestFetchNeverPropagatesErrors(t *testing.T) {
	p := &alwaysFailing{}
	out := newTestFetcher(p).Fetch(context.Background(), "q", 100, nil)

	require.NotNil(t, out.Records)
	assert.Empty(t, out.Records)
	assert.Equal(t, Failed, out.Termination.Kind)
	assert.Equal(t, 1, p.calls)

	var perr *ProviderError
	require.ErrorAs(t, out.Termination.Err, &perr)
	assert.Equal(t, 403, perr.StatusCode)
	assert.Contains(t, out.Termination.String(), "API key not valid")
}

func TestFetchKeepsPartialResultsOnFailure(t *testing.T) {
	p := &stubProvider{total: 1000, failAt: 21}
	out := newTestFetcher(p).Fetch(context.Background(), "q", 50, nil)

	assert.Equal(t, Failed, out.Termination.Kind)
	assert.Len(t, out.Records, 20)
	assert.Equal(t, "https://ref1.example/", out.Records[0].SourceURL)
	assert.Equal(t, "https://ref20.example/", out.Records[19].SourceURL)
}

func TestFetchAlwaysDisablesDuplicateFilter(t *testing.T) {
	p := &stubProvider{total: 1000}
	newTestFetcher(p).Fetch(context.Background(), "q", 100, nil)

	require.Len(t, p.requests, 10)
	for _, req := range p.requests {
		assert.True(t, req.DisableDuplicateFilter, "page start=%d", req.Start)
	}
}

func TestFetchPassesQueryVerbatim(t *testing.T) {
	queries := []string{
		`"example.com" -site:example.com`,
		"link:example.com -site:example.com",
		`  padded "quotes"  & ampersand +plus `,
		"ação é ü 🙂",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			p := &stubProvider{total: 30}
			newTestFetcher(p).Fetch(context.Background(), q, 30, nil)
			for _, req := range p.requests {
				assert.Equal(t, q, req.Query)
			}
		})
	}
}

func TestFetchPreservesProviderOrderAndDefaults(t *testing.T) {
	p := &stubProvider{total: 1000}
	out := newTestFetcher(p).Fetch(context.Background(), "q", 20, nil)

	require.Len(t, out.Records, 20)
	for i, r := range out.Records {
		assert.Equal(t, fmt.Sprintf("https://ref%d.example/", i+1), r.SourceURL)
		assert.Equal(t, domain.StatusPending, r.Status)
		assert.True(t, r.Selected)
	}
}

func TestFetchNotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	newTestFetcher(&stubProvider{total: 15}).Fetch(context.Background(), "q", 30, obs)

	assert.Equal(t, [][2]int{{1, 10}, {11, 20}, {21, 30}}, obs.starts)
	assert.Equal(t, []int{10, 5}, obs.completes)
	assert.Equal(t, 15, obs.total)
	assert.Equal(t, Exhausted, obs.term.Kind)
	assert.Equal(t, 1, obs.finished)
}

func TestFetchHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &stubProvider{total: 1000}
	out := NewFetcher(p, "engine-1").Fetch(ctx, "q", 50, nil)

	assert.Empty(t, p.requests)
	assert.Equal(t, Failed, out.Termination.Kind)
	assert.ErrorIs(t, out.Termination.Err, context.Canceled)
}

func TestFetchTargetBelowOne(t *testing.T) {
	p := &stubProvider{total: 1000}
	out := newTestFetcher(p).Fetch(context.Background(), "q", 0, nil)

	assert.Len(t, p.requests, 1)
	assert.Len(t, out.Records, 10)
	assert.Equal(t, TargetReached, out.Termination.Kind)
}
