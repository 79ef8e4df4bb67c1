package baccarat

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/lazharichir/baccarat/cards"
)

// ErrArithmeticOverflow is returned when an exact count no longer fits in
// 64 bits. See MaxSafeDecks.
var ErrArithmeticOverflow = errors.New("arithmetic overflow")

// MaxCacheEntries bounds a Weigher's memo. A 6-card pattern over 10 value
// classes has C(15,6) = 5005 distinct value multisets.
const MaxCacheEntries = 5005

// Weigher counts the physical draw sequences a hand pattern stands for.
// It is not safe for concurrent use; give each worker its own.
type Weigher struct {
	freq  [cards.NumPoints]uint64
	cache map[uint32]uint64
	limit int
}

// NewWeigher returns a Weigher over the shoe's frequency vector.
func NewWeigher(freq [cards.NumPoints]uint64) *Weigher {
	return &Weigher{
		freq:  freq,
		cache: make(map[uint32]uint64, MaxCacheEntries),
		limit: MaxCacheEntries,
	}
}

// Weight returns the number of ordered ways to draw the six values of p, in
// that order and without replacement, from the shoe. All six positions are
// counted, including third-card slots the rules never draw. A pattern that
// needs more copies of a value than the shoe holds weighs 0.
func (w *Weigher) Weight(p Pattern) (uint64, error) {
	if !p.Valid() {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPattern, p)
	}

	k := p.Counts()
	key := multisetKey(k)
	if ways, ok := w.cache[key]; ok {
		return ways, nil
	}

	ways, err := weigh(k, w.freq)
	if err != nil {
		return 0, err
	}

	if len(w.cache) < w.limit {
		w.cache[key] = ways
	}
	return ways, nil
}

// CacheLen returns the number of memoized multisets.
func (w *Weigher) CacheLen() int {
	return len(w.cache)
}

// weigh multiplies the falling factorials P(n_i, k_i) over all value classes.
func weigh(k, n [cards.NumPoints]uint64) (uint64, error) {
	ways := uint64(1)
	for i := range k {
		if k[i] > n[i] {
			return 0, nil
		}
		f, err := fallingFactorial(n[i], k[i])
		if err != nil {
			return 0, err
		}
		if ways, err = mul(ways, f); err != nil {
			return 0, err
		}
	}
	return ways, nil
}

// fallingFactorial returns n·(n-1)·…·(n-k+1); the empty product is 1.
func fallingFactorial(n, k uint64) (uint64, error) {
	if k > n {
		return 0, nil
	}
	result := uint64(1)
	for i := uint64(0); i < k; i++ {
		var err error
		if result, err = mul(result, n-i); err != nil {
			return 0, err
		}
	}
	return result, nil
}

// SequentialWeight counts the same draw sequences as Weight by depleting a
// copy of the shoe position by position.
func SequentialWeight(p Pattern, freq [cards.NumPoints]uint64) (uint64, error) {
	if !p.Valid() {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPattern, p)
	}

	remaining := freq
	ways := uint64(1)
	for _, v := range p {
		if remaining[v] == 0 {
			return 0, nil
		}
		var err error
		if ways, err = mul(ways, remaining[v]); err != nil {
			return 0, err
		}
		remaining[v]--
	}
	return ways, nil
}

// multisetKey encodes per-value occurrence counts (each 0..6) in base 7.
func multisetKey(k [cards.NumPoints]uint64) uint32 {
	var key uint32
	for i := len(k) - 1; i >= 0; i-- {
		key = key*(PatternSize+1) + uint32(k[i])
	}
	return key
}

func mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrArithmeticOverflow
	}
	return lo, nil
}

func add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}
