package cards

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidConfiguration is returned for a shoe that would hold no cards.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// DeckSize is the number of cards in one deck.
const DeckSize = 52

// Shoe represents multiple decks of cards. The zero Shoe is empty; use
// NewShoe to fill one.
type Shoe struct {
	decks       int
	frequencies [NumPoints]uint64
}

// NewShoe creates a new shoe with a given number of decks. Only the per-point
// counts are kept; Cards materialises the physical stack on demand.
func NewShoe(numDecks int) (Shoe, error) {
	if numDecks <= 0 {
		return Shoe{}, fmt.Errorf("%w: deck count must be positive, got %d", ErrInvalidConfiguration, numDecks)
	}

	s := Shoe{decks: numDecks}
	for p, n := range NewDeck().CountPoints() {
		hi, lo := bits.Mul64(n, uint64(numDecks))
		if hi != 0 {
			return Shoe{}, fmt.Errorf("%w: %d decks do not fit in a shoe", ErrInvalidConfiguration, numDecks)
		}
		s.frequencies[p] = lo
	}
	return s, nil
}

// Decks returns the number of decks the shoe was built from.
func (s Shoe) Decks() int {
	return s.decks
}

// Frequencies returns the number of cards of each value class in the shoe.
// Index 0 counts ten-valued cards (16 per deck), 1..9 count 4 per deck.
func (s Shoe) Frequencies() [NumPoints]uint64 {
	return s.frequencies
}

// Size returns the number of cards in the shoe.
func (s Shoe) Size() int {
	return s.decks * DeckSize
}

// Cards returns every card of the shoe, deck after deck.
func (s Shoe) Cards() Stack {
	cards := make(Stack, 0, s.Size())
	for i := 0; i < s.decks; i++ {
		cards = append(cards, NewDeck()...)
	}
	return cards
}
