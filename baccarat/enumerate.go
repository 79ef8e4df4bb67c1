package baccarat

import (
	"context"
	"fmt"
	"runtime"

	"github.com/lazharichir/baccarat/cards"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidConfiguration is returned before enumeration for a bad deck count.
var ErrInvalidConfiguration = cards.ErrInvalidConfiguration

// MaxSafeDecks is the largest deck count whose grand total, the falling
// factorial (52·D)(52·D-1)…(52·D-5), fits in a uint64. Larger shoes fail
// with ErrArithmeticOverflow.
const MaxSafeDecks = 31

const (
	// NumShards splits the pattern space on the two player cards.
	NumShards        = cards.NumPoints * cards.NumPoints
	patternsPerShard = NumPatterns / NumShards
)

// ShardReport describes a finished shard.
type ShardReport struct {
	Shard    int
	Patterns int // patterns with a non-zero weight
	Tally    Tally
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithWorkers sets the number of concurrent workers. Values below 1 fall
// back to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Enumerator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithShardHook registers fn to be called after each shard completes. It may
// be called from several goroutines at once.
func WithShardHook(fn func(ShardReport)) Option {
	return func(e *Enumerator) {
		e.onShard = fn
	}
}

// Enumerator walks every hand pattern and tallies weighted outcomes.
type Enumerator struct {
	shoe    cards.Shoe
	workers int
	onShard func(ShardReport)
}

// NewEnumerator returns an Enumerator over shoe.
func NewEnumerator(shoe cards.Shoe, opts ...Option) *Enumerator {
	e := &Enumerator{
		shoe:    shoe,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers > NumShards {
		e.workers = NumShards
	}
	return e
}

// ValidateDecks rejects deck counts that cannot be enumerated: non-positive
// counts with ErrInvalidConfiguration, counts above MaxSafeDecks with
// ErrArithmeticOverflow.
func ValidateDecks(decks int) error {
	switch {
	case decks <= 0:
		return fmt.Errorf("%w: deck count must be positive, got %d", ErrInvalidConfiguration, decks)
	case decks > MaxSafeDecks:
		return fmt.Errorf("%w: %d decks exceed the %d-deck limit", ErrArithmeticOverflow, decks, MaxSafeDecks)
	}
	return nil
}

// Compute builds a shoe of the given size and enumerates it.
func Compute(ctx context.Context, decks int, opts ...Option) (*Result, error) {
	if err := ValidateDecks(decks); err != nil {
		return nil, err
	}
	shoe, err := cards.NewShoe(decks)
	if err != nil {
		return nil, err
	}
	return NewEnumerator(shoe, opts...).Run(ctx)
}

// Run enumerates all NumPatterns hand patterns. Shards are tallied by a
// fixed pool of workers, each with its own Weigher, and merged in shard
// order once every worker is done.
func (e *Enumerator) Run(ctx context.Context) (*Result, error) {
	if err := ValidateDecks(e.shoe.Decks()); err != nil {
		return nil, err
	}

	freq := e.shoe.Frequencies()
	var size uint64
	for _, n := range freq {
		size += n
	}
	if size != uint64(e.shoe.Size()) {
		return nil, fmt.Errorf("%w: shoe holds %d cards, want %d", ErrInvalidConfiguration, size, e.shoe.Size())
	}
	partials := make([]Tally, NumShards)

	shards := make(chan int)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(shards)
		for s := 0; s < NumShards; s++ {
			select {
			case shards <- s:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < e.workers; i++ {
		g.Go(func() error {
			w := NewWeigher(freq)
			for s := range shards {
				if err := gctx.Err(); err != nil {
					return err
				}
				n, err := tallyShard(w, s, &partials[s])
				if err != nil {
					return fmt.Errorf("shard %d: %w", s, err)
				}
				if e.onShard != nil {
					e.onShard(ShardReport{Shard: s, Patterns: n, Tally: partials[s]})
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Decks: e.shoe.Decks()}
	for s := range partials {
		if err := result.Tally.Merge(&partials[s]); err != nil {
			return nil, err
		}
	}

	total, err := result.Tally.Total()
	if err != nil {
		return nil, err
	}
	result.GrandTotal = total
	return result, nil
}

// tallyShard weighs and resolves every pattern of one shard into t and
// returns how many patterns carried weight.
func tallyShard(w *Weigher, shard int, t *Tally) (int, error) {
	n := 0
	start := shard * patternsPerShard
	for i := start; i < start+patternsPerShard; i++ {
		p := PatternAt(i)

		ways, err := w.Weight(p)
		if err != nil {
			return n, err
		}
		if ways == 0 {
			continue
		}

		if err := t.Record(Resolve(p), ways); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
