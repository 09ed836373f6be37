// Package store holds the in-memory product table served to requests. The
// table is warmed from an upstream source on first use.
package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fairyhunter13/product-catalog-service/internal/model"
	"github.com/fairyhunter13/product-catalog-service/internal/obs"
	"github.com/fairyhunter13/product-catalog-service/internal/upstream"
)

// State is the warm-up state of a Repository.
type State int32

const (
	StateCold State = iota
	StateWarming
	StateWarm
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCold:
		return "cold"
	case StateWarming:
		return "warming"
	case StateWarm:
		return "warm"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Repository is a product table indexed 1..n in upstream order.
//
// Reads never fail: until a warm-up succeeds they return no products.
// Every returned product is a private copy.
type Repository struct {
	src   upstream.Source
	snap  Snapshot
	sf    singleflight.Group
	state atomic.Int32

	// loadMu orders warm-ups and reloads so an older payload never
	// replaces a newer one.
	loadMu sync.Mutex

	// reload generations: requested, and the newest one a finished
	// reload started after
	reloadWanted atomic.Uint64
	reloadDone   atomic.Uint64

	waitBudget time.Duration
	cooldown   time.Duration
	failedAt   atomic.Int64

	mu    sync.RWMutex
	table map[int]model.Product
	ids   []int
}

// Option configures a Repository.
type Option func(*Repository)

// WithWaitBudget bounds how long a read waits for a warm-up. When the
// budget runs out the read serves the current table and the warm-up
// continues in the background. Zero waits until the warm-up ends.
func WithWaitBudget(d time.Duration) Option {
	return func(r *Repository) { r.waitBudget = d }
}

// WithRetryCooldown stops reads from retrying a failed warm-up until d
// has passed since the failure. Warmup and Reload ignore it.
func WithRetryCooldown(d time.Duration) Option {
	return func(r *Repository) { r.cooldown = d }
}

// New constructs a cold Repository. snap may be nil.
func New(src upstream.Source, snap Snapshot, opts ...Option) *Repository {
	r := &Repository{src: src, snap: snap, table: make(map[int]model.Product)}
	for _, opt := range opts {
		opt(r)
	}
	r.setState(StateCold)
	return r
}

// State reports the current warm-up state.
func (r *Repository) State() State { return State(r.state.Load()) }

func (r *Repository) setState(s State) {
	r.state.Store(int32(s))
	obs.SourceState.Set(float64(s))
}

// Warmup loads the table unless it is already warm and waits for the
// outcome. Concurrent callers share a single load. It reports whether
// the table is warm.
func (r *Repository) Warmup(ctx context.Context) bool {
	if r.State() == StateWarm {
		return true
	}
	v, _, _ := r.sf.Do("warmup", r.warmupFunc(ctx))
	return v.(bool)
}

func (r *Repository) warmupFunc(ctx context.Context) func() (any, error) {
	// the shared load must not fail because the first caller went away
	ctx = context.WithoutCancel(ctx)
	return func() (any, error) {
		return r.load(ctx, true), nil
	}
}

// Reload fetches from upstream, bypassing any snapshot. A call always
// observes a fetch that started after it was made: reloads requested
// while one is running trigger one more fetch once it ends. On failure a
// previously loaded table keeps being served.
func (r *Repository) Reload(ctx context.Context) bool {
	ctx = context.WithoutCancel(ctx)
	gen := r.reloadWanted.Add(1)
	for {
		v, _, _ := r.sf.Do("reload", func() (any, error) {
			started := r.reloadWanted.Load()
			ok := r.load(ctx, false)
			r.reloadDone.Store(started)
			return ok, nil
		})
		if r.reloadDone.Load() >= gen {
			return v.(bool)
		}
	}
}

// awaitWarm is the read-path warm-up: it honours the retry cooldown and
// the wait budget.
func (r *Repository) awaitWarm(ctx context.Context) {
	switch r.State() {
	case StateWarm:
		return
	case StateFailed:
		if r.cooldown > 0 && time.Since(time.Unix(0, r.failedAt.Load())) < r.cooldown {
			return
		}
	}

	ch := r.sf.DoChan("warmup", r.warmupFunc(ctx))
	var budget <-chan time.Time
	if r.waitBudget > 0 {
		t := time.NewTimer(r.waitBudget)
		defer t.Stop()
		budget = t.C
	}
	select {
	case <-ch:
	case <-ctx.Done():
	case <-budget:
		obs.Logger.Warn().
			Dur("budget", r.waitBudget).
			Str("request_id", obs.RequestIDFromContext(ctx)).
			Msg("warmup_wait_exceeded")
	}
}

func (r *Repository) load(ctx context.Context, useSnapshot bool) bool {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	if useSnapshot && r.State() == StateWarm {
		return true
	}
	if r.State() != StateWarm {
		r.setState(StateWarming)
	}
	products, origin, err := r.fetch(ctx, useSnapshot)
	if err != nil {
		obs.UpstreamFetches.WithLabelValues(origin, "error").Inc()
		if r.hasData() {
			r.setState(StateWarm)
			obs.Logger.Warn().Err(err).Str("origin", origin).Msg("reload_failed_serving_stale")
			return false
		}
		r.failedAt.Store(time.Now().UnixNano())
		r.setState(StateFailed)
		obs.Logger.Warn().Err(err).Str("origin", origin).Msg("warmup_failed")
		return false
	}
	obs.UpstreamFetches.WithLabelValues(origin, "ok").Inc()
	r.replace(products)
	r.setState(StateWarm)
	obs.Logger.Info().Str("origin", origin).Int("products", len(products)).Msg("warmup_complete")
	return true
}

func (r *Repository) fetch(ctx context.Context, useSnapshot bool) ([]model.Product, string, error) {
	if useSnapshot && r.snap != nil {
		products, err := r.snap.Load(ctx)
		if err == nil && len(products) > 0 {
			return products, "snapshot", nil
		}
		if err != nil && !errors.Is(err, ErrSnapshotMiss) {
			obs.Logger.Warn().Err(err).Msg("snapshot_load_failed")
		}
	}
	products, err := r.src.Fetch(ctx)
	if err != nil {
		return nil, r.src.Name(), err
	}
	if r.snap != nil {
		if err := r.snap.Save(ctx, products); err != nil {
			obs.Logger.Warn().Err(err).Msg("snapshot_save_failed")
		}
	}
	return products, r.src.Name(), nil
}

func (r *Repository) replace(products []model.Product) {
	table := make(map[int]model.Product, len(products))
	ids := make([]int, 0, len(products))
	for i, p := range products {
		id := i + 1
		table[id] = p.Clone()
		ids = append(ids, id)
	}
	r.mu.Lock()
	r.table, r.ids = table, ids
	r.mu.Unlock()
	obs.SourceProducts.Set(float64(len(products)))
}

func (r *Repository) hasData() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids) > 0
}

// Select returns every product.
func (r *Repository) Select(ctx context.Context) []model.Product {
	return r.SelectWhere(ctx, nil)
}

// SelectWhere returns the products matching pred; a nil pred matches all.
func (r *Repository) SelectWhere(ctx context.Context, pred model.Predicate) []model.Product {
	r.awaitWarm(ctx)
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Product, 0, len(r.ids))
	for _, id := range r.ids {
		p := r.table[id]
		if pred != nil && !pred(p) {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}

// Get returns the product with the given 1-based id.
func (r *Repository) Get(ctx context.Context, id int) (model.Product, bool) {
	r.awaitWarm(ctx)
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.table[id]
	if !ok {
		return model.Product{}, false
	}
	return p.Clone(), true
}

// Count returns the number of loaded products.
func (r *Repository) Count(ctx context.Context) int {
	r.awaitWarm(ctx)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}
