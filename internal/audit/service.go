// Package audit runs searches and probes against stored sessions.
//
// It is the single entry point shared by the HTTP handlers and the CLI:
// credentials are checked before any provider call, each search with
// results becomes a new Session, and only one probe batch may run per
// session at a time.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/linkaudit/internal/domain"
	"github.com/MrSnakeDoc/linkaudit/internal/logger"
	"github.com/MrSnakeDoc/linkaudit/internal/metrics"
	"github.com/MrSnakeDoc/linkaudit/internal/probe"
	"github.com/MrSnakeDoc/linkaudit/internal/search"
	"github.com/MrSnakeDoc/linkaudit/internal/session"
)

const (
	// DefaultCount is the target record count when none is given.
	DefaultCount = 50
	// MinCount and MaxCount bound the target record count.
	MinCount = 10
	MaxCount = 100
	// DefaultSessionTTL applies when Config.SessionTTL is zero.
	DefaultSessionTTL = time.Hour
	// DefaultProbeLockTTL bounds a shared-store probe lock when
	// Config.ProbeLockTTL is zero.
	DefaultProbeLockTTL = 15 * time.Minute
)

// ErrProbeInProgress is returned when a probe batch already runs on the session.
var ErrProbeInProgress = errors.New("a probe is already running for this session")

// CredentialSource yields the credentials in force at call time.
type CredentialSource interface {
	Credentials() domain.Credentials
}

// ProviderFactory builds a search provider for one search.
type ProviderFactory func(creds domain.Credentials) search.Provider

// Config wires a Service.
type Config struct {
	Store       session.Store
	Credentials CredentialSource
	Provider    ProviderFactory // nil: Custom Search at SearchBaseURL
	Prober      *probe.Prober   // nil: probe.New()
	Metrics     *metrics.Metrics
	Logger      logger.Logger

	SearchBaseURL string
	PageDelay     time.Duration // zero: search.DefaultPageDelay, negative: no pacing
	SessionTTL    time.Duration
	ProbeLockTTL  time.Duration // expiry of the probe lock in a shared store
}

// SearchRequest describes one search.
type SearchRequest struct {
	Domain string
	Mode   domain.SearchMode
	Query  string // used only with domain.ModeCustom
	Count  int
}

// SearchResult is the outcome of a search.
// Session is nil when the provider returned nothing.
type SearchResult struct {
	Query       string
	Target      int
	Termination search.Termination
	Session     *domain.Session
}

// Service coordinates fetcher, prober and session store.
type Service struct {
	store       session.Store
	creds       CredentialSource
	newProvider ProviderFactory
	prober      *probe.Prober
	metrics     *metrics.Metrics
	logger      logger.Logger
	pageDelay   time.Duration
	ttl         time.Duration
	lockTTL     time.Duration
	now         func() time.Time

	mu      sync.Mutex
	probing map[string]struct{}

	// writeMu serializes read-modify-write cycles on stored sessions so a
	// running probe batch never overwrites a selection change or a delete.
	writeMu sync.Mutex
}

// New creates a Service.
func New(cfg Config) *Service {
	s := &Service{
		store:       cfg.Store,
		creds:       cfg.Credentials,
		newProvider: cfg.Provider,
		prober:      cfg.Prober,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		pageDelay:   cfg.PageDelay,
		ttl:         cfg.SessionTTL,
		lockTTL:     cfg.ProbeLockTTL,
		now:         time.Now,
		probing:     make(map[string]struct{}),
	}

	if s.newProvider == nil {
		baseURL := cfg.SearchBaseURL
		s.newProvider = func(c domain.Credentials) search.Provider {
			var opts []search.CustomSearchOption
			if baseURL != "" {
				opts = append(opts, search.WithBaseURL(baseURL))
			}
			return search.NewCustomSearch(c.APIKey, opts...)
		}
	}
	if s.prober == nil {
		s.prober = probe.New()
	}
	if s.logger == nil {
		s.logger = logger.NewNop()
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	if s.lockTTL <= 0 {
		s.lockTTL = DefaultProbeLockTTL
	}
	switch {
	case s.pageDelay == 0:
		s.pageDelay = search.DefaultPageDelay
	case s.pageDelay < 0:
		s.pageDelay = 0
	}
	return s
}

// ClampCount maps a requested count onto 10..100 in steps of 10.
// Zero or negative means DefaultCount.
func ClampCount(n int) int {
	if n <= 0 {
		return DefaultCount
	}
	if n < MinCount {
		return MinCount
	}
	if n > MaxCount {
		return MaxCount
	}
	return (n + search.PageSize - 1) / search.PageSize * search.PageSize
}

// ResolveQuery returns the normalized domain and the exact provider query.
func ResolveQuery(req SearchRequest) (string, string, error) {
	dom := domain.NormalizeDomain(req.Domain)

	if req.Mode == domain.ModeCustom {
		if strings.TrimSpace(req.Query) == "" {
			return dom, "", domain.ErrEmptyQuery
		}
		return dom, req.Query, nil
	}

	mode := req.Mode
	if mode == "" {
		mode = domain.ModeExact
	}
	q, err := domain.BuildQuery(mode, dom)
	if err != nil {
		return dom, "", err
	}
	return dom, q, nil
}

// Search validates the request, fetches records and stores a new session.
//
// Missing credentials fail before any provider call. Provider failures do
// not surface as errors: they end up in SearchResult.Termination with
// whatever records were already gathered.
func (s *Service) Search(ctx context.Context, req SearchRequest, obs search.Observer) (*SearchResult, error) {
	dom, query, err := ResolveQuery(req)
	if err != nil {
		return nil, err
	}

	creds := s.creds.Credentials()
	if err := creds.Validate(); err != nil {
		s.logger.Warn("search refused, credentials missing")
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = domain.ModeExact
	}
	target := ClampCount(req.Count)

	log := s.logger.With(
		logger.String("domain", dom),
		logger.String("mode", string(mode)),
		logger.Int("target", target))
	log.Info("search started", logger.String("query", query))

	counter := &pageCounter{}
	observers := multiObserver{counter, &logObserver{log: log}}
	if obs != nil {
		observers = append(observers, obs)
	}

	fetcher := search.NewFetcher(s.newProvider(creds), creds.EngineID, search.WithPageDelay(s.pageDelay))
	outcome := fetcher.Fetch(ctx, query, target, observers)

	s.metrics.ObserveSearch(string(outcome.Termination.Kind), counter.pages, len(outcome.Records))

	res := &SearchResult{
		Query:       query,
		Target:      target,
		Termination: outcome.Termination,
	}
	if len(outcome.Records) == 0 {
		log.Warn("search returned no results",
			logger.String("termination", outcome.Termination.String()))
		return res, nil
	}

	now := s.now()
	sess := &domain.Session{
		ID:          uuid.NewString(),
		Domain:      dom,
		Mode:        mode,
		Query:       query,
		Target:      target,
		Termination: outcome.Termination.String(),
		Records:     outcome.Records,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	s.metrics.ObserveSessionCreated()

	log.Info("session created",
		logger.String("session_id", sess.ID),
		logger.Int("records", len(sess.Records)))

	res.Session = sess
	return res, nil
}

// Get returns a stored session.
func (s *Service) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.store.Get(ctx, id)
}

// Delete drops a stored session. A probe batch running on it stops at its
// next status write.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.store.Delete(ctx, id)
}

// SetSelected toggles probing for one record and returns the updated session.
func (s *Service) SetSelected(ctx context.Context, id string, index int, selected bool) (*domain.Session, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.SetSelected(index, selected); err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return sess, nil
}

// Probe checks every record selected when the batch starts and writes each
// status into the stored session as it lands. Only Status and UpdatedAt are
// written; everything else is re-read from the store first.
//
// progress may be nil. Deleting the session stops the batch with
// domain.ErrSessionNotFound. A cancelled ctx stops the batch too; statuses
// already written are kept and the partial session is returned with ctx.Err().
func (s *Service) Probe(ctx context.Context, id string, progress probe.Progress) (*domain.Session, error) {
	release, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	snapshot, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(logger.String("session_id", id))
	log.Info("probe started", logger.Int("selected", len(snapshot.SelectedIndexes())))

	batchCtx, stop := context.WithCancel(ctx)
	defer stop()

	started := s.now()
	last := started
	latest := snapshot
	var writeErr error

	probeErr := s.prober.ProbeSelected(batchCtx, snapshot, func(done, total, index int, rec domain.ResultRecord, c domain.Classification) {
		now := s.now()
		s.metrics.ObserveProbe(string(c.Kind), now.Sub(last))
		last = now

		log.Debug("url probed",
			logger.Int("index", index),
			logger.String("url", rec.SourceURL),
			logger.String("status", c.String()))

		stored, err := s.writeStatus(context.WithoutCancel(ctx), id, index, c.Label())
		if err != nil {
			writeErr = err
			stop()
			return
		}
		latest = stored

		if progress != nil {
			progress(done, total, index, stored.Records[index], c)
		}
	})

	if writeErr != nil {
		if errors.Is(writeErr, domain.ErrSessionNotFound) {
			log.Info("session removed during probe, batch stopped")
			return nil, writeErr
		}
		return latest, writeErr
	}
	if probeErr != nil {
		log.Warn("probe interrupted", logger.Error(probeErr))
		return latest, probeErr
	}

	log.Info("probe finished", logger.Duration("elapsed", s.now().Sub(started)))
	return latest, nil
}

// writeStatus stores one probe label on the current version of the session.
func (s *Service) writeStatus(ctx context.Context, id string, index int, status string) (*domain.Session, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(sess.Records) {
		return nil, domain.ErrRecordOutOfRange
	}
	sess.Records[index].Status = status
	sess.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return sess, nil
}

// acquire claims the probe slot of a session. Stores shared between
// processes also get a store-side lock so replicas exclude each other.
func (s *Service) acquire(ctx context.Context, id string) (func(), error) {
	s.mu.Lock()
	if _, busy := s.probing[id]; busy {
		s.mu.Unlock()
		return nil, ErrProbeInProgress
	}
	s.probing[id] = struct{}{}
	s.mu.Unlock()

	releaseLocal := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.probing, id)
	}

	locker, ok := s.store.(session.Locker)
	if !ok {
		return releaseLocal, nil
	}

	unlock, acquired, err := locker.TryLock(ctx, id, s.lockTTL)
	if err != nil {
		releaseLocal()
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	if !acquired {
		releaseLocal()
		return nil, ErrProbeInProgress
	}
	return func() {
		unlock()
		releaseLocal()
	}, nil
}
