package baccarat

import (
	"fmt"

	"github.com/lazharichir/baccarat/cards"
)

// Breakdown counts banker wins indexed [banker_total][player_total].
// Only cells with player < banker can be non-zero.
type Breakdown [cards.NumPoints][cards.NumPoints]uint64

// Cell is one non-zero entry of a Breakdown.
type Cell struct {
	Banker cards.Point
	Player cards.Point
	Ways   uint64
}

// Cells returns the non-zero entries ordered by banker then player total.
func (b *Breakdown) Cells() []Cell {
	var out []Cell
	for banker := 1; banker < cards.NumPoints; banker++ {
		for player := 0; player < banker; player++ {
			if n := b[banker][player]; n > 0 {
				out = append(out, Cell{Banker: cards.Point(banker), Player: cards.Point(player), Ways: n})
			}
		}
	}
	return out
}

// BankerTotal sums banker wins finishing on the given banker total.
func (b *Breakdown) BankerTotal(banker cards.Point) uint64 {
	var sum uint64
	for player := cards.Point(0); player < banker; player++ {
		sum += b[banker][player]
	}
	return sum
}

// Tally accumulates weighted outcomes. Counters only ever grow.
type Tally struct {
	Player    uint64
	Banker    uint64
	Tie       uint64
	Breakdown Breakdown
}

// Count returns the tally for one outcome.
func (t *Tally) Count(o Outcome) uint64 {
	switch o {
	case PlayerWin:
		return t.Player
	case BankerWin:
		return t.Banker
	default:
		return t.Tie
	}
}

// Record adds ways to the outcome of r.
func (t *Tally) Record(r Resolution, ways uint64) error {
	var err error
	switch r.Outcome {
	case PlayerWin:
		t.Player, err = add(t.Player, ways)
	case BankerWin:
		if t.Banker, err = add(t.Banker, ways); err != nil {
			return err
		}
		cell := &t.Breakdown[r.Banker][r.Player]
		*cell, err = add(*cell, ways)
	case Tie:
		t.Tie, err = add(t.Tie, ways)
	default:
		err = fmt.Errorf("unknown outcome %d", r.Outcome)
	}
	return err
}

// Merge adds every counter of other into t.
func (t *Tally) Merge(other *Tally) error {
	var err error
	if t.Player, err = add(t.Player, other.Player); err != nil {
		return err
	}
	if t.Banker, err = add(t.Banker, other.Banker); err != nil {
		return err
	}
	if t.Tie, err = add(t.Tie, other.Tie); err != nil {
		return err
	}
	for b := range t.Breakdown {
		for p := range t.Breakdown[b] {
			if t.Breakdown[b][p], err = add(t.Breakdown[b][p], other.Breakdown[b][p]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Total returns Player + Banker + Tie.
func (t *Tally) Total() (uint64, error) {
	sum, err := add(t.Player, t.Banker)
	if err != nil {
		return 0, err
	}
	return add(sum, t.Tie)
}

// Result is the finished tally of one enumeration.
type Result struct {
	Decks      int
	Tally      Tally
	GrandTotal uint64
}

// Count returns the exact number of weighted sequences ending in o.
func (r *Result) Count(o Outcome) uint64 {
	return r.Tally.Count(o)
}

// Probability returns Count(o) / GrandTotal. It is for display only.
func (r *Result) Probability(o Outcome) float64 {
	return r.Fraction(r.Count(o))
}

// Fraction returns n / GrandTotal.
func (r *Result) Fraction(n uint64) float64 {
	if r.GrandTotal == 0 {
		return 0
	}
	return float64(n) / float64(r.GrandTotal)
}
