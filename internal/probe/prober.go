package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/linkaudit/internal/domain"
	"github.com/MrSnakeDoc/linkaudit/internal/utils"
)

const (
	// DefaultTimeout bounds a single probe.
	DefaultTimeout = 10 * time.Second

	// BrowserUserAgent is sent on every probe; some servers reject non-browser agents.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Prober issues one GET per URL and classifies the answer.
type Prober struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its Timeout is overwritten.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Prober) { p.client = c }
}

// WithUserAgent overrides BrowserUserAgent.
func WithUserAgent(ua string) Option {
	return func(p *Prober) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// New creates a Prober. Redirects follow the net/http defaults.
func New(opts ...Option) *Prober {
	p := &Prober{
		client:    &http.Client{},
		timeout:   DefaultTimeout,
		userAgent: BrowserUserAgent,
	}
	for _, opt := range opts {
		opt(p)
	}
	c := *p.client
	c.Timeout = p.timeout
	p.client = &c
	return p
}

// Timeout returns the per-URL timeout.
func (p *Prober) Timeout() time.Duration { return p.timeout }

// Probe performs a single attempt against url.
// 200 is Ok, 404 is NotFound, any other code is Other; any failure to get a
// response is TransportError.
func (p *Prober) Probe(ctx context.Context, url string) domain.Classification {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return domain.TransportError()
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.TransportError()
	}
	defer utils.DrainAndClose(resp.Body)

	return domain.Classify(resp.StatusCode)
}
