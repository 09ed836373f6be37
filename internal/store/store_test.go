package store

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/fairyhunter13/product-catalog-service/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	mu       sync.Mutex
	products []model.Product
	err      error
	delay    time.Duration
	calls    atomic.Int32

	// when set, Fetch reports on entered after reading its payload and
	// then blocks until gate is closed
	entered chan struct{}
	gate    chan struct{}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(ctx context.Context) ([]model.Product, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	err := f.err
	out := make([]model.Product, len(f.products))
	for i, p := range f.products {
		out[i] = p.Clone()
	}
	f.mu.Unlock()

	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.gate != nil {
		<-f.gate
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeSource) set(products []model.Product, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products, f.err = products, err
}

type memorySnapshot struct {
	products []model.Product
	loads    int
	saves    int
}

func (s *memorySnapshot) Load(context.Context) ([]model.Product, error) {
	s.loads++
	if s.products == nil {
		return nil, ErrSnapshotMiss
	}
	return s.products, nil
}

func (s *memorySnapshot) Save(_ context.Context, products []model.Product) error {
	s.saves++
	s.products = products
	return nil
}

type gatedSnapshot struct {
	products []model.Product
	entered  chan struct{}
	gate     chan struct{}
}

func (s *gatedSnapshot) Load(context.Context) ([]model.Product, error) {
	s.entered <- struct{}{}
	<-s.gate
	return s.products, nil
}

func (s *gatedSnapshot) Save(context.Context, []model.Product) error { return nil }

func titled(title string) []model.Product {
	return []model.Product{{Title: title, Price: 1, Sizes: []model.Size{model.SizeSmall}, Description: title}}
}

func catalog() []model.Product {
	return []model.Product{
		{Title: "A", Price: 1, Sizes: []model.Size{model.SizeSmall}, Description: "a"},
		{Title: "B", Price: 2, Sizes: []model.Size{model.SizeSmall, model.SizeMedium}, Description: "b"},
		{Title: "C", Price: 3, Sizes: []model.Size{model.SizeLarge}, Description: "c"},
	}
}

func TestRepository_WarmupOnFirstRead(t *testing.T) {
	src := &fakeSource{products: catalog()}
	r := New(src, nil)
	assert.Equal(t, StateCold, r.State())

	got := r.Select(context.Background())
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, StateWarm, r.State())

	_ = r.Select(context.Background())
	assert.Equal(t, 3, r.Count(context.Background()))
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRepository_EmptyUpstreamIsNotWarm(t *testing.T) {
	src := &fakeSource{err: errors.New("no products")}
	r := New(src, nil)

	assert.False(t, r.Warmup(context.Background()))
	assert.Equal(t, StateFailed, r.State())
	assert.Empty(t, r.Select(context.Background()))

	// failed warm-ups are retried on the next read
	src.set(catalog(), nil)
	assert.Len(t, r.Select(context.Background()), 3)
	assert.Equal(t, StateWarm, r.State())
}

func TestRepository_SelectWhere(t *testing.T) {
	r := New(&fakeSource{products: catalog()}, nil)
	got := r.SelectWhere(context.Background(), func(p model.Product) bool { return p.Price >= 2 })
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Title)
	assert.Equal(t, "C", got[1].Title)

	assert.Len(t, r.SelectWhere(context.Background(), nil), 3)
}

func TestRepository_Get(t *testing.T) {
	r := New(&fakeSource{products: catalog()}, nil)
	p, ok := r.Get(context.Background(), 2)
	require.True(t, ok)
	assert.Equal(t, "B", p.Title)

	_, ok = r.Get(context.Background(), 0)
	assert.False(t, ok)
	_, ok = r.Get(context.Background(), 4)
	assert.False(t, ok)
}

func TestRepository_ReturnsCopies(t *testing.T) {
	r := New(&fakeSource{products: catalog()}, nil)
	got := r.Select(context.Background())
	got[0].Description = "<em>a</em>"
	got[0].Sizes[0] = model.SizeLarge

	again := r.Select(context.Background())
	assert.Equal(t, "a", again[0].Description)
	assert.Equal(t, model.SizeSmall, again[0].Sizes[0])
}

func TestRepository_ConcurrentWarmupsCoalesce(t *testing.T) {
	src := &fakeSource{products: catalog(), delay: 50 * time.Millisecond}
	r := New(src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, r.Select(context.Background()), 3)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRepository_CancelledCallerDoesNotFailLoad(t *testing.T) {
	r := New(&fakeSource{products: catalog()}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, r.Warmup(ctx))
}

func TestRepository_ReloadKeepsStaleDataOnFailure(t *testing.T) {
	src := &fakeSource{products: catalog()}
	r := New(src, nil)
	require.True(t, r.Warmup(context.Background()))

	src.set(nil, errors.New("upstream down"))
	assert.False(t, r.Reload(context.Background()))
	assert.Equal(t, StateWarm, r.State())
	assert.Len(t, r.Select(context.Background()), 3)

	src.set(catalog()[:1], nil)
	assert.True(t, r.Reload(context.Background()))
	assert.Equal(t, 1, r.Count(context.Background()))
}

func TestRepository_Snapshot(t *testing.T) {
	snap := &memorySnapshot{}
	src := &fakeSource{products: catalog()}

	first := New(src, snap)
	require.True(t, first.Warmup(context.Background()))
	assert.Equal(t, 1, snap.saves)
	assert.Equal(t, int32(1), src.calls.Load())

	// a second replica warms from the snapshot without calling upstream
	second := New(src, snap)
	require.True(t, second.Warmup(context.Background()))
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 3, second.Count(context.Background()))

	// reload bypasses the snapshot
	require.True(t, second.Reload(context.Background()))
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestRepository_StartRefresh(t *testing.T) {
	src := &fakeSource{products: catalog()}
	r := New(src, nil)
	require.True(t, r.Warmup(context.Background()))

	stop := r.StartRefresh(context.Background(), 10*time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && src.calls.Load() < 3 {
		time.Sleep(10 * time.Millisecond)
	}
	stop()
	assert.GreaterOrEqual(t, src.calls.Load(), int32(3))
}

func TestRepository_ReloadDuringLoadFetchesAgain(t *testing.T) {
	src := &fakeSource{
		products: titled("v1"),
		entered:  make(chan struct{}, 1),
		gate:     make(chan struct{}),
	}
	r := New(src, nil)

	first := make(chan bool)
	go func() { first <- r.Reload(context.Background()) }()
	<-src.entered // the running fetch has read "v1"

	src.set(titled("v2"), nil)
	second := make(chan bool)
	go func() { second <- r.Reload(context.Background()) }()
	require.Eventually(t, func() bool { return r.reloadWanted.Load() == 2 }, time.Second, time.Millisecond)

	close(src.gate)
	assert.True(t, <-first)
	assert.True(t, <-second)

	got := r.Select(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "v2", got[0].Title)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestRepository_ReloadDuringSnapshotWarmupCallsUpstream(t *testing.T) {
	snap := &gatedSnapshot{
		products: titled("from-snapshot"),
		entered:  make(chan struct{}, 1),
		gate:     make(chan struct{}),
	}
	src := &fakeSource{products: titled("from-upstream")}
	r := New(src, snap)

	warm := make(chan bool)
	go func() { warm <- r.Warmup(context.Background()) }()
	<-snap.entered

	reloaded := make(chan bool)
	go func() { reloaded <- r.Reload(context.Background()) }()
	require.Eventually(t, func() bool { return r.reloadWanted.Load() == 1 }, time.Second, time.Millisecond)

	close(snap.gate)
	assert.True(t, <-warm)
	assert.True(t, <-reloaded)

	assert.Equal(t, int32(1), src.calls.Load())
	got := r.Select(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "from-upstream", got[0].Title)
}

func TestRepository_ReadWaitIsBounded(t *testing.T) {
	src := &fakeSource{products: catalog(), gate: make(chan struct{})}
	r := New(src, nil, WithWaitBudget(20*time.Millisecond))

	start := time.Now()
	assert.Empty(t, r.Select(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
	assert.Eventually(t, func() bool { return r.State() == StateWarming }, time.Second, time.Millisecond)

	// the load carries on and later reads see it
	close(src.gate)
	require.Eventually(t, func() bool { return r.State() == StateWarm }, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, r.Select(context.Background()), 3)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRepository_CancelledReadDoesNotWait(t *testing.T) {
	src := &fakeSource{products: catalog(), gate: make(chan struct{})}
	r := New(src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, r.Select(ctx))

	close(src.gate)
	assert.True(t, r.Warmup(context.Background()))
}

func TestRepository_FailedCooldown(t *testing.T) {
	src := &fakeSource{err: errors.New("down")}
	r := New(src, nil, WithRetryCooldown(time.Hour))

	assert.Empty(t, r.Select(context.Background()))
	assert.Equal(t, StateFailed, r.State())
	assert.Empty(t, r.Select(context.Background()))
	_, ok := r.Get(context.Background(), 1)
	assert.False(t, ok)
	assert.Equal(t, int32(1), src.calls.Load())

	// explicit warm-ups ignore the cooldown
	src.set(catalog(), nil)
	assert.True(t, r.Warmup(context.Background()))
	assert.Equal(t, int32(2), src.calls.Load())
	assert.Len(t, r.Select(context.Background()), 3)
}

func TestRepository_CooldownExpires(t *testing.T) {
	src := &fakeSource{err: errors.New("down")}
	r := New(src, nil, WithRetryCooldown(20*time.Millisecond))

	assert.Empty(t, r.Select(context.Background()))
	src.set(catalog(), nil)
	assert.Empty(t, r.Select(context.Background()))

	time.Sleep(30 * time.Millisecond)
	assert.Len(t, r.Select(context.Background()), 3)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "cold", StateCold.String())
	assert.Equal(t, "warming", StateWarming.String())
	assert.Equal(t, "warm", StateWarm.String())
	assert.Equal(t, "failed", StateFailed.String())
}

func TestRedisSnapshot(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	snap, err := NewRedisSnapshot(ctx, RedisConfig{Addr: addr, Key: "catalog:test:products", TTL: time.Minute})
	require.NoError(t, err)
	defer snap.Close()
	require.NoError(t, snap.Clear(ctx))

	_, err = snap.Load(ctx)
	assert.ErrorIs(t, err, ErrSnapshotMiss)

	require.NoError(t, snap.Save(ctx, catalog()))
	got, err := snap.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog(), got)
	require.NoError(t, snap.Clear(ctx))
}
