// Package bridge is the metric-bridging engine: it polls the collector,
// derives per-container metrics from consecutive samples, resolves stable
// SNMP indices, and publishes the result as an immutable snapshot.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"cadbridge"
)

const (
	// defaultCacheTTL bounds how often commands may trigger an upstream
	// poll. A full SNMP walk issues dozens of sequential getnext calls;
	// they all read the same cached snapshot.
	defaultCacheTTL = 5 * time.Second

	// defaultRetention bounds the sample store: entries for containers the
	// upstream stopped reporting are evicted once this old.
	defaultRetention = 30 * time.Minute
)

// Fetcher is the upstream API boundary the engine polls.
type Fetcher interface {
	Containers(ctx context.Context) (map[string][]cadbridge.ContainerSample, error)
	MachineCores(ctx context.Context) (int, error)
}

// Row is one container's derived metrics at its assigned index.
type Row struct {
	Index  int
	Metric cadbridge.DerivedMetric
}

// Snapshot is the immutable result of one poll cycle. Readers share it by
// pointer; a new cycle swaps in a fresh one rather than mutating.
type Snapshot struct {
	// Rows is sorted by ascending index. Empty on a degraded cycle.
	Rows    []Row
	TakenAt time.Time
	Cores   int

	// Err is the upstream failure that degraded this cycle, nil on success.
	Err error
}

// Engine owns all mutable bridge state. Construct one at startup and hand it
// to the protocol adapters; none of its state is reachable any other way.
type Engine struct {
	fetcher   Fetcher
	store     *cadbridge.SampleStore
	indices   *cadbridge.IndexAllocator
	tracer    trace.Tracer
	now       func() time.Time
	cacheTTL  time.Duration
	retention time.Duration

	cores int // cached machine core count, 0 until fetched

	mu   sync.Mutex // serializes poll cycles; one writer at a time
	snap atomic.Pointer[Snapshot]
}

// Option configures an Engine.
type Option func(*Engine)

// WithCacheTTL sets how long Snapshot serves a cached result before polling.
func WithCacheTTL(d time.Duration) Option {
	return func(e *Engine) { e.cacheTTL = d }
}

// WithRetention sets how long unrefreshed samples stay in the store.
func WithRetention(d time.Duration) Option {
	return func(e *Engine) { e.retention = d }
}

// WithIndexAllocator replaces the default unseeded allocator, e.g. with one
// seeded from the persistent index store.
func WithIndexAllocator(a *cadbridge.IndexAllocator) Option {
	return func(e *Engine) { e.indices = a }
}

// WithTracer enables tracing of poll cycles.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(fetcher Fetcher, opts ...Option) *Engine {
	e := &Engine{
		fetcher:   fetcher,
		store:     cadbridge.NewSampleStore(),
		indices:   cadbridge.NewIndexAllocator(nil, nil),
		tracer:    noop.NewTracerProvider().Tracer("cadbridge/bridge"),
		now:       time.Now,
		cacheTTL:  defaultCacheTTL,
		retention: defaultRetention,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Current returns the latest snapshot without polling. Nil before the first
// poll cycle completes.
func (e *Engine) Current() *Snapshot {
	return e.snap.Load()
}

// Snapshot returns the cached snapshot when it is younger than the cache
// TTL, polling otherwise. Degraded snapshots are cached too, so a dead
// upstream is probed at most once per TTL.
func (e *Engine) Snapshot(ctx context.Context) *Snapshot {
	if snap := e.snap.Load(); snap != nil && e.now().Sub(snap.TakenAt) < e.cacheTTL {
		return snap
	}

	snap, err := e.Poll(ctx)
	if err != nil {
		slog.Warn("Poll failed, serving degraded snapshot.", "err", err)
	}
	return snap
}

// Poll runs one full cycle: fetch, derive, index, publish. On upstream
// failure it publishes (and returns) a degraded snapshot with no rows; the
// error is recoverable and the next cycle retries.
func (e *Engine) Poll(ctx context.Context) (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Another caller may have finished a cycle while this one waited.
	if snap := e.snap.Load(); snap != nil && e.now().Sub(snap.TakenAt) < e.cacheTTL {
		return snap, snap.Err
	}

	ctx, span := e.tracer.Start(ctx, "bridge.poll")
	defer span.End()

	snap := e.poll(ctx)
	e.snap.Store(snap)

	if snap.Err != nil {
		span.RecordError(snap.Err)
		span.SetStatus(codes.Error, snap.Err.Error())
		return snap, snap.Err
	}
	span.SetAttributes(attribute.Int("bridge.containers", len(snap.Rows)))
	return snap, nil
}

func (e *Engine) poll(ctx context.Context) *Snapshot {
	now := e.now()

	if e.cores == 0 {
		cores, err := e.fetcher.MachineCores(ctx)
		if err != nil {
			// Not fatal to the cycle; rates normalize against one core
			// until the machine endpoint answers.
			slog.Warn("Fetching machine core count failed.", "err", err)
		} else {
			e.cores = cores
		}
	}
	cores := max(e.cores, 1)

	histories, err := e.fetcher.Containers(ctx)
	if err != nil {
		return &Snapshot{TakenAt: now, Cores: cores, Err: fmt.Errorf("poll: %w", err)}
	}

	names := make([]string, 0, len(histories))
	for name := range histories {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]Row, 0, len(names))
	for _, name := range names {
		history := histories[name]
		if len(history) == 0 {
			continue
		}
		cur := history[len(history)-1]

		stored, hadStored := e.store.Update(name, cur)
		prev := previousSample(history, stored, hadStored)

		rows = append(rows, Row{
			Index:  e.indices.Resolve(name),
			Metric: cadbridge.Derive(prev, cur, cores),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })

	e.store.EvictBefore(now.Add(-e.retention))

	return &Snapshot{Rows: rows, TakenAt: now, Cores: cores}
}

// previousSample picks the reference point for rate derivation: the stored
// sample from the prior cycle when it is usable, else the second-newest
// entry of the in-response history. The latter is what makes a single-shot
// invocation produce a CPU rate at all — the collector returns a short
// history, not just the latest point.
func previousSample(history []cadbridge.ContainerSample, stored cadbridge.ContainerSample, hadStored bool) *cadbridge.ContainerSample {
	cur := history[len(history)-1]

	if hadStored && stored.CPUTotal <= cur.CPUTotal && stored.Timestamp.Before(cur.Timestamp) {
		return &stored
	}
	if len(history) >= 2 {
		prev := history[len(history)-2]
		return &prev
	}
	return nil
}
