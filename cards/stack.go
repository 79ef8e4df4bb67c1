package cards

import "strings"

// Stack represents multiple cards
type Stack []Card

// NewStack creates a new stack with a given number of cards
func NewStack(cards ...Card) Stack {
	return cards
}

// Points returns the Baccarat point value of every card, in order.
func (s Stack) Points() []Point {
	points := make([]Point, len(s))
	for i, c := range s {
		points[i] = c.Point()
	}
	return points
}

// CountPoints returns how many cards of each value class the stack holds.
func (s Stack) CountPoints() [NumPoints]uint64 {
	var counts [NumPoints]uint64
	for _, c := range s {
		counts[c.Point()]++
	}
	return counts
}

func (s Stack) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
