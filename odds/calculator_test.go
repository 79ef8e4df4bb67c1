package odds

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lazharichir/baccarat/baccarat"
	"github.com/lazharichir/baccarat/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is a ResultStore backed by a map.
type memoryStore struct {
	mu      sync.Mutex
	results map[int]*baccarat.Result
	saves   int
	loadErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{results: make(map[int]*baccarat.Result)}
}

func (s *memoryStore) LoadResult(ctx context.Context, decks int) (*baccarat.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadErr != nil {
		return nil, s.loadErr
	}
	r, ok := s.results[decks]
	if !ok {
		return nil, ErrResultNotFound
	}
	return r, nil
}

func (s *memoryStore) SaveResult(ctx context.Context, r *baccarat.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves++
	s.results[r.Decks] = r
	return nil
}

func countEvents(evts []events.Event, name string) int {
	n := 0
	for _, e := range evts {
		if e.EventName() == name {
			n++
		}
	}
	return n
}

func TestCalculator_Calculate(t *testing.T) {
	calc := NewCalculator(WithWorkers(4))

	run, err := calc.Calculate(context.Background(), 1)
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 1, run.Decks)
	assert.False(t, run.Cached)
	assert.Equal(t, uint64(14658134400), run.Result.GrandTotal)
	assert.Equal(t, uint64(6737232640), run.Result.Count(baccarat.BankerWin))

	evts, err := calc.Events().LoadEvents(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "run-started", evts[0].EventName())
	assert.Equal(t, baccarat.NumShards, countEvents(evts, "shard-completed"))
	assert.Equal(t, "run-completed", evts[len(evts)-1].EventName())

	completed := evts[len(evts)-1].(events.RunCompleted)
	assert.Equal(t, run.Result.GrandTotal, completed.GrandTotal)
	assert.False(t, completed.Cached)

	got, err := calc.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestCalculator_CachesResults(t *testing.T) {
	calc := NewCalculator()

	first, err := calc.Calculate(context.Background(), 1)
	require.NoError(t, err)

	second, err := calc.Calculate(context.Background(), 1)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Result, second.Result)
	assert.NotSame(t, first.Result, second.Result)

	evts, err := calc.Events().LoadEvents(second.ID)
	require.NoError(t, err)
	assert.Zero(t, countEvents(evts, "shard-completed"))
}

func TestCalculator_CacheEviction(t *testing.T) {
	calc := NewCalculator(WithCacheSize(1))

	one, err := calc.Calculate(context.Background(), 1)
	require.NoError(t, err)
	_, err = calc.Calculate(context.Background(), 2)
	require.NoError(t, err)

	again, err := calc.Calculate(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, again.Cached)
	assert.Equal(t, one.Result, again.Result)
}

func TestCalculator_InvalidDecks(t *testing.T) {
	calc := NewCalculator()

	for _, decks := range []int{0, -3} {
		run, err := calc.Calculate(context.Background(), decks)
		assert.Nil(t, run)
		assert.ErrorIs(t, err, baccarat.ErrInvalidConfiguration)
	}
}

func TestCalculator_TooManyDecksFailsFast(t *testing.T) {
	store := events.NewInMemoryEventStore()
	calc := NewCalculator(WithEventStore(store))

	started := time.Now()
	for _, decks := range []int{baccarat.MaxSafeDecks + 1, 2_000_000, 1 << 30} {
		run, err := calc.Calculate(context.Background(), decks)
		assert.Nil(t, run)
		assert.ErrorIs(t, err, baccarat.ErrArithmeticOverflow, "decks=%d", decks)
	}
	assert.Less(t, time.Since(started), time.Second)
	assert.Zero(t, store.Len())
}

func TestCalculator_CancelledCallerLeavesSharedRunAlone(t *testing.T) {
	store := events.NewInMemoryEventStore()
	calc := NewCalculator(WithEventStore(store), WithWorkers(2))

	type outcome struct {
		run *Run
		err error
	}
	joined := make(chan outcome, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// once the first enumeration is under way, a second caller joins it and
	// the first caller gives up
	var once sync.Once
	store.Subscribe(func(e events.Event) {
		if e.EventName() != "shard-completed" {
			return
		}
		once.Do(func() {
			go func() {
				run, err := calc.Calculate(context.Background(), 8)
				joined <- outcome{run, err}
			}()
			cancel()
		})
	})

	_, err := calc.Calculate(ctx, 8)
	assert.ErrorIs(t, err, context.Canceled)

	other := <-joined
	require.NoError(t, other.err)
	assert.Equal(t, uint64(2292252566437888), other.run.Result.Count(baccarat.BankerWin))
	assert.Equal(t, uint64(4998398275503360), other.run.Result.GrandTotal)
}

func TestCalculator_BaseContextStopsEnumeration(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	cancel()

	calc := NewCalculator(WithBaseContext(base))
	_, err := calc.Calculate(context.Background(), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculator_ResultsAreCopies(t *testing.T) {
	calc := NewCalculator()

	first, err := calc.Calculate(context.Background(), 1)
	require.NoError(t, err)
	first.Result.Tally.Player = 0
	first.Result.Tally.Breakdown[1][0] = 0

	second, err := calc.Calculate(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, uint64(6548674432), second.Result.Tally.Player)
	assert.Equal(t, uint64(68763392), second.Result.Tally.Breakdown[1][0])
}

func TestCalculator_PrunesEventsOfEvictedRuns(t *testing.T) {
	store := events.NewInMemoryEventStore()
	calc := NewCalculator(WithEventStore(store))

	first, err := calc.Calculate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, baccarat.NumShards+2, store.Len())

	for i := 0; i < maxRuns+44; i++ {
		_, err := calc.Calculate(context.Background(), 1)
		require.NoError(t, err)
	}

	// every surviving run is a cached one: run-started and run-completed
	assert.Equal(t, 2*maxRuns, store.Len())

	_, err = calc.Run(first.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)
	evts, err := store.LoadEvents(first.ID)
	require.NoError(t, err)
	assert.Empty(t, evts)
}

func TestCalculator_UsesResultStore(t *testing.T) {
	results := newMemoryStore()

	calc := NewCalculator(WithResultStore(results))
	run, err := calc.Calculate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, results.saves)

	// a fresh calculator finds the stored result instead of enumerating
	fresh := NewCalculator(WithResultStore(results))
	again, err := fresh.Calculate(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, run.Result, again.Result)
	assert.Equal(t, 1, results.saves)

	evts, err := fresh.Events().LoadEvents(again.ID)
	require.NoError(t, err)
	assert.Zero(t, countEvents(evts, "shard-completed"))
}

func TestCalculator_StoreErrorFallsBackToEnumeration(t *testing.T) {
	results := newMemoryStore()
	results.loadErr = errors.New("connection refused")

	calc := NewCalculator(WithResultStore(results))
	run, err := calc.Calculate(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, run.Cached)
	assert.Equal(t, uint64(14658134400), run.Result.GrandTotal)
}

func TestCalculator_CalculateRun(t *testing.T) {
	calc := NewCalculator()

	run, err := calc.CalculateRun(context.Background(), "run-1", 1)
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)

	evts, err := calc.Events().LoadEvents("run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-started", evts[0].EventName())

	_, err = calc.CalculateRun(context.Background(), "", 1)
	assert.Error(t, err)
}

func TestCalculator_RunNotFound(t *testing.T) {
	_, err := NewCalculator().Run("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestCalculator_ConcurrentCallsAgree(t *testing.T) {
	calc := NewCalculator()

	var wg sync.WaitGroup
	runs := make([]*Run, 4)
	errs := make([]error, 4)
	for i := range runs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			runs[i], errs[i] = calc.Calculate(context.Background(), 1)
		}(i)
	}
	wg.Wait()

	for i := range runs {
		require.NoError(t, errs[i])
		assert.Equal(t, runs[0].Result, runs[i].Result)
	}
}
