// Package rates keeps a best-effort cache of exchange rates to RUB.
package rates

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tipbot/internal/models"
)

// Supported lists the currencies that can be converted, besides RUB itself.
var Supported = []string{"USD", "EUR"}

const (
	DefaultStaleAfter = 24 * time.Hour
	DefaultTimeout    = 10 * time.Second
)

// Fetcher retrieves current rates from a remote source.
type Fetcher interface {
	Fetch(ctx context.Context) (map[string]decimal.Decimal, error)
}

// SnapshotStore holds the latest snapshot between refreshes.
type SnapshotStore interface {
	// Load returns the current snapshot. A never-filled store returns the
	// zero snapshot and no error.
	Load(ctx context.Context) (models.RateSnapshot, error)
	Save(ctx context.Context, snapshot models.RateSnapshot) error
}

// RefreshObserver is notified about every refresh attempt.
type RefreshObserver interface {
	ObserveRateRefresh(ok bool)
}

// Provider answers rate lookups, refreshing the snapshot when it is stale.
//
// Two callers that see a stale snapshot at the same time may both refresh.
// Refresh replaces the whole snapshot, so the last one wins and nothing breaks.
type Provider struct {
	fetcher    Fetcher
	store      SnapshotStore
	observer   RefreshObserver
	logger     *slog.Logger
	now        func() time.Time
	staleAfter time.Duration
	timeout    time.Duration
}

// Option configures a Provider.
type Option func(*Provider)

// WithSnapshotStore replaces the default in-memory snapshot store.
func WithSnapshotStore(store SnapshotStore) Option {
	return func(p *Provider) { p.store = store }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithStaleAfter sets how old a snapshot may get before it is refreshed.
func WithStaleAfter(d time.Duration) Option {
	return func(p *Provider) { p.staleAfter = d }
}

// WithTimeout bounds a single refresh.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.timeout = d }
}

// WithLogger sets the logger used for refresh results.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// WithObserver registers a refresh observer, usually the metrics collector.
func WithObserver(o RefreshObserver) Option {
	return func(p *Provider) { p.observer = o }
}

// NewProvider creates a Provider that pulls rates from fetcher.
func NewProvider(fetcher Fetcher, opts ...Option) *Provider {
	p := &Provider{
		fetcher:    fetcher,
		store:      NewMemorySnapshotStore(),
		logger:     slog.Default(),
		now:        time.Now,
		staleAfter: DefaultStaleAfter,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetRate returns how many RUB one unit of code is worth.
// The second result is false when the currency is unsupported or no rate is
// available (for example because every refresh so far has failed).
func (p *Provider) GetRate(ctx context.Context, code string) (decimal.Decimal, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == models.BaseCurrency {
		return decimal.NewFromInt(1), true
	}

	snapshot := p.load(ctx)
	if snapshot.IsStale(p.now(), p.staleAfter) {
		if p.Refresh(ctx) {
			snapshot = p.load(ctx)
		}
	}

	return snapshot.Rate(code)
}

// Refresh fetches fresh rates and replaces the snapshot. Failures are logged
// and leave the previous snapshot untouched; Refresh reports whether the
// snapshot was updated.
func (p *Provider) Refresh(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	fetched, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.logger.Error("Failed to refresh exchange rates", "error", err)
		p.observe(false)
		return false
	}

	snapshot := models.RateSnapshot{
		Rates:       make(map[string]decimal.Decimal, len(Supported)),
		LastUpdated: p.now(),
	}
	for _, code := range Supported {
		if rate, ok := fetched[code]; ok {
			snapshot.Rates[code] = rate
		}
	}

	if err := p.store.Save(ctx, snapshot); err != nil {
		p.logger.Error("Failed to save exchange rates", "error", err)
		p.observe(false)
		return false
	}

	p.logger.Info("Exchange rates refreshed", "rates", len(snapshot.Rates))
	p.observe(true)
	return true
}

func (p *Provider) load(ctx context.Context) models.RateSnapshot {
	snapshot, err := p.store.Load(ctx)
	if err != nil {
		p.logger.Warn("Failed to load exchange rate snapshot", "error", err)
		return models.RateSnapshot{}
	}
	return snapshot
}

func (p *Provider) observe(ok bool) {
	if p.observer != nil {
		p.observer.ObserveRateRefresh(ok)
	}
}
