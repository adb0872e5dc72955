package search

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/linkaudit/internal/domain"
)

// DefaultPageDelay is the fixed pause before each provider call.
const DefaultPageDelay = 300 * time.Millisecond

// TerminationKind tells why a fetch stopped.
type TerminationKind string

const (
	// Exhausted means the provider had no more items.
	Exhausted TerminationKind = "exhausted"
	// TargetReached means enough records were accumulated.
	TargetReached TerminationKind = "target_reached"
	// Failed means a page call errored; the partial list is kept.
	Failed TerminationKind = "failed"
)

// Termination is the stop cause of a fetch. Err is set only for Failed.
type Termination struct {
	Kind TerminationKind
	Err  error
}

func (t Termination) String() string {
	if t.Kind == Failed && t.Err != nil {
		return string(t.Kind) + ": " + t.Err.Error()
	}
	return string(t.Kind)
}

// Outcome is what a fetch produced.
type Outcome struct {
	Records     []domain.ResultRecord
	Termination Termination
}

// Observer receives advisory progress events from Fetch.
type Observer interface {
	OnBatchStart(start, end int)
	OnBatchComplete(count int)
	OnFinished(total int, t Termination)
}

type nopObserver struct{}

func (nopObserver) OnBatchStart(int, int)       {}
func (nopObserver) OnBatchComplete(int)         {}
func (nopObserver) OnFinished(int, Termination) {}

// Fetcher accumulates provider pages until the target is met.
type Fetcher struct {
	provider  Provider
	engineID  string
	pageDelay time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithPageDelay overrides DefaultPageDelay. Zero disables pacing.
func WithPageDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d >= 0 {
			f.pageDelay = d
		}
	}
}

// NewFetcher creates a fetcher for the given provider and engine ID.
func NewFetcher(p Provider, engineID string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		provider:  p,
		engineID:  engineID,
		pageDelay: DefaultPageDelay,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch requests pages of PageSize starting at 1, 11, 21, ... and stops when
// a page is empty, when at least target records were collected, or when a
// call fails. It never returns an error: failures end the loop and the
// records gathered so far are kept. The result is not trimmed to target.
//
// query is sent exactly as given. Every call disables the provider's
// duplicate filter.
func (f *Fetcher) Fetch(ctx context.Context, query string, target int, obs Observer) Outcome {
	if obs == nil {
		obs = nopObserver{}
	}
	if target < 1 {
		target = 1
	}

	records := make([]domain.ResultRecord, 0, target)
	term := Termination{Kind: Exhausted}

	for start := 1; start <= target; start += PageSize {
		obs.OnBatchStart(start, start+PageSize-1)

		if err := f.pause(ctx); err != nil {
			term = Termination{Kind: Failed, Err: err}
			break
		}

		items, err := f.provider.ListPage(ctx, PageRequest{
			Query:                  query,
			EngineID:               f.engineID,
			Start:                  start,
			Num:                    PageSize,
			DisableDuplicateFilter: true,
		})
		if err != nil {
			term = Termination{Kind: Failed, Err: err}
			break
		}
		if len(items) == 0 {
			term = Termination{Kind: Exhausted}
			break
		}

		for _, it := range items {
			records = append(records, domain.NewResultRecord(it.Title, it.Link, it.Snippet))
		}
		obs.OnBatchComplete(len(items))

		if len(records) >= target {
			term = Termination{Kind: TargetReached}
			break
		}
	}

	obs.OnFinished(len(records), term)
	return Outcome{Records: records, Termination: term}
}

func (f *Fetcher) pause(ctx context.Context) error {
	if f.pageDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(f.pageDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
