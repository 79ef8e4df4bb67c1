package baccarat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lazharichir/baccarat/cards"
)

// PatternSize is the number of positions in a hand pattern.
const PatternSize = 6

// Positions of a hand pattern.
const (
	PlayerFirst = iota
	PlayerSecond
	PlayerThird
	BankerFirst
	BankerSecond
	BankerThird
)

// NumPatterns is the size of the enumerated pattern space (10^6).
const NumPatterns = cards.NumPoints * cards.NumPoints * cards.NumPoints *
	cards.NumPoints * cards.NumPoints * cards.NumPoints

var ErrInvalidPattern = errors.New("invalid hand pattern")

// Pattern is an ordered 6-tuple of value classes: player cards 1..3 followed
// by banker cards 1..3. Third-card slots are always present, whether or not
// the drawing rules use them.
type Pattern [PatternSize]cards.Point

// PatternAt returns the pattern with the given index in [0, NumPatterns).
// Digits are read most significant first, so index 123456 is (1,2,3,4,5,6).
func PatternAt(index int) Pattern {
	var p Pattern
	for i := PatternSize - 1; i >= 0; i-- {
		p[i] = cards.Point(index % cards.NumPoints)
		index /= cards.NumPoints
	}
	return p
}

// Index is the inverse of PatternAt.
func (p Pattern) Index() int {
	index := 0
	for _, v := range p {
		index = index*cards.NumPoints + int(v)
	}
	return index
}

// Valid reports whether every position holds a value class.
func (p Pattern) Valid() bool {
	for _, v := range p {
		if !v.Valid() {
			return false
		}
	}
	return true
}

// Counts returns how many times each value class occurs in the pattern.
func (p Pattern) Counts() [cards.NumPoints]uint64 {
	var k [cards.NumPoints]uint64
	for _, v := range p {
		k[v]++
	}
	return k
}

func (p Pattern) String() string {
	parts := make([]string, PatternSize)
	for i, v := range p {
		parts[i] = v.String()
	}
	return "P[" + strings.Join(parts[:3], " ") + "] B[" + strings.Join(parts[3:], " ") + "]"
}

// PatternFromCards builds a pattern from six physical cards given in
// positional order: player 1, player 2, player third, banker 1, banker 2,
// banker third.
func PatternFromCards(hand []cards.Card) (Pattern, error) {
	if len(hand) != PatternSize {
		return Pattern{}, fmt.Errorf("%w: need %d cards, got %d", ErrInvalidPattern, PatternSize, len(hand))
	}

	var p Pattern
	for i, c := range hand {
		p[i] = c.Point()
	}
	return p, nil
}

// ParsePattern parses six comma or space separated cards, e.g.
// "4s,5d,Kc,2h,3c,9d".
func ParsePattern(s string) (Pattern, []cards.Card, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })

	hand := make([]cards.Card, 0, len(fields))
	for _, f := range fields {
		c, err := cards.CardFromString(f)
		if err != nil {
			return Pattern{}, nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		hand = append(hand, c)
	}

	p, err := PatternFromCards(hand)
	if err != nil {
		return Pattern{}, nil, err
	}
	return p, hand, nil
}
