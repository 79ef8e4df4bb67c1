package odds

import (
	"context"
	"errors"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/lazharichir/baccarat/baccarat"
	"github.com/lazharichir/baccarat/events"
	"github.com/sanity-io/litter"
	"golang.org/x/sync/singleflight"
)

var (
	ErrRunNotFound    = errors.New("run not found")
	ErrResultNotFound = errors.New("result not found")
)

const (
	DefaultCacheSize = 16
	maxRuns          = 256
)

// ResultStore persists finished results by deck count. LoadResult returns
// ErrResultNotFound when nothing is stored for decks.
type ResultStore interface {
	LoadResult(ctx context.Context, decks int) (*baccarat.Result, error)
	SaveResult(ctx context.Context, result *baccarat.Result) error
}

// Run is one call to Calculate.
type Run struct {
	ID      string
	Decks   int
	Result  *baccarat.Result
	Cached  bool
	Started time.Time
	Elapsed time.Duration
}

// Option configures a Calculator.
type Option func(*Calculator)

func WithWorkers(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithCacheSize bounds how many deck counts keep their result in memory.
func WithCacheSize(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.cacheSize = n
		}
	}
}

func WithResultStore(store ResultStore) Option {
	return func(c *Calculator) {
		c.store = store
	}
}

// WithBaseContext bounds every enumeration the calculator starts. A
// caller's own context only stops that caller waiting.
func WithBaseContext(ctx context.Context) Option {
	return func(c *Calculator) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

func WithEventStore(store events.EventStore) Option {
	return func(c *Calculator) {
		c.events = store
	}
}

// Calculator runs enumerations, records their events and keeps finished
// results. Results are pure functions of the deck count, so a cached result
// is always exact.
type Calculator struct {
	workers   int
	cacheSize int
	events    events.EventStore
	store     ResultStore
	group     singleflight.Group

	ctx       context.Context

	mu       sync.Mutex
	results  map[int]*baccarat.Result
	order    []int // deck counts, oldest first
	runs     map[string]*Run
	runOrder []string // finished and failed runs, oldest first
}

// NewCalculator creates a calculator. Without WithEventStore events go to a
// fresh in-memory store.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		workers:   runtime.GOMAXPROCS(0),
		cacheSize: DefaultCacheSize,
		ctx:       context.Background(),
		results:   make(map[int]*baccarat.Result),
		runs:      make(map[string]*Run),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.events == nil {
		c.events = events.NewInMemoryEventStore()
	}
	return c
}

// Events returns the calculator's event store.
func (c *Calculator) Events() events.EventStore {
	return c.events
}

// Calculate returns the exact odds for a shoe of decks decks, enumerating
// only when neither the memory cache nor the result store has them.
// Concurrent calls for the same deck count share one enumeration. Each Run
// carries its own copy of the result.
func (c *Calculator) Calculate(ctx context.Context, decks int) (*Run, error) {
	return c.CalculateRun(ctx, uuid.NewString(), decks)
}

// CalculateRun is Calculate with a caller-chosen run ID, so a subscriber can
// start filtering the run's events before the first one is emitted.
//
// The shared enumeration runs on the calculator's base context. Cancelling
// ctx abandons only this call; other callers waiting on the same deck count
// still get their result.
func (c *Calculator) CalculateRun(ctx context.Context, runID string, decks int) (*Run, error) {
	if err := baccarat.ValidateDecks(decks); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, errors.New("empty run ID")
	}

	run := &Run{
		ID:      runID,
		Decks:   decks,
		Started: time.Now(),
	}
	c.emit(events.RunStarted{RunID: run.ID, Decks: decks, Workers: c.workers, At: run.Started})

	ch := c.group.DoChan(strconv.Itoa(decks), func() (interface{}, error) {
		return c.resolve(c.ctx, run.ID, decks)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res.Err = ctx.Err()
	}
	if res.Err != nil {
		c.emit(events.RunFailed{RunID: run.ID, Decks: decks, Error: res.Err.Error(), At: time.Now()})
		c.track(run.ID, nil)
		glog.Errorf("run %s: %d decks: %v", run.ID, decks, res.Err)
		return nil, res.Err
	}

	r := res.Val.(resolved)
	result := *r.result
	run.Result = &result
	run.Cached = r.cached || res.Shared
	run.Elapsed = time.Since(run.Started)

	c.track(run.ID, run)
	c.emit(events.RunCompleted{
		RunID:      run.ID,
		Decks:      decks,
		GrandTotal: run.Result.GrandTotal,
		Cached:     run.Cached,
		Elapsed:    run.Elapsed,
		At:         time.Now(),
	})
	glog.Infof("run %s: %d decks done in %s (cached=%v)", run.ID, decks, run.Elapsed, run.Cached)
	return run, nil
}

type resolved struct {
	result *baccarat.Result
	cached bool
}

func (c *Calculator) resolve(ctx context.Context, runID string, decks int) (resolved, error) {
	if r, ok := c.cached(decks); ok {
		return resolved{result: r, cached: true}, nil
	}

	if c.store != nil {
		r, err := c.store.LoadResult(ctx, decks)
		switch {
		case err == nil:
			c.cache(r)
			return resolved{result: r, cached: true}, nil
		case !errors.Is(err, ErrResultNotFound):
			glog.Warningf("run %s: loading stored result: %v", runID, err)
		}
	}

	var done atomic.Int64
	hook := func(s baccarat.ShardReport) {
		n := int(done.Add(1))
		glog.V(1).Infof("run %s: shard %d (%d/%d), %d patterns", runID, s.Shard, n, baccarat.NumShards, s.Patterns)
		c.emit(events.ShardCompleted{
			RunID:    runID,
			Shard:    s.Shard,
			Done:     n,
			Total:    baccarat.NumShards,
			Patterns: s.Patterns,
		})
	}

	glog.Infof("run %s: enumerating %d-deck shoe with %d workers", runID, decks, c.workers)
	r, err := baccarat.Compute(ctx, decks, baccarat.WithWorkers(c.workers), baccarat.WithShardHook(hook))
	if err != nil {
		return resolved{}, err
	}
	if glog.V(2) {
		glog.Info(litter.Sdump(r))
	}

	c.cache(r)
	if c.store != nil {
		if err := c.store.SaveResult(ctx, r); err != nil {
			glog.Warningf("run %s: saving result: %v", runID, err)
		}
	}
	return resolved{result: r}, nil
}

// Run returns a finished run by ID.
func (c *Calculator) Run(id string) (*Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	run, ok := c.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

func (c *Calculator) cached(decks int) (*baccarat.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.results[decks]
	return r, ok
}

func (c *Calculator) cache(r *baccarat.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.results[r.Decks]; ok {
		return
	}
	if len(c.order) >= c.cacheSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.results, oldest)
	}
	c.results[r.Decks] = r
	c.order = append(c.order, r.Decks)
}

// track records a finished run; run is nil for a failed one. Once more
// than maxRuns are tracked the oldest run and its events are dropped.
func (c *Calculator) track(id string, run *Run) {
	c.mu.Lock()
	var evicted string
	if len(c.runOrder) >= maxRuns {
		evicted = c.runOrder[0]
		c.runOrder = c.runOrder[1:]
		delete(c.runs, evicted)
	}
	if run != nil {
		c.runs[id] = run
	}
	c.runOrder = append(c.runOrder, id)
	c.mu.Unlock()

	if evicted != "" {
		if err := c.events.Delete(evicted); err != nil {
			glog.Warningf("dropping events of run %s: %v", evicted, err)
		}
	}
}

func (c *Calculator) emit(e events.Event) {
	if err := c.events.Append(e); err != nil {
		glog.Warningf("recording %s: %v", e.EventName(), err)
	}
}
