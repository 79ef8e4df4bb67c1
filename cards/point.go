package cards

import "fmt"

// NumPoints is the number of Baccarat value classes.
const NumPoints = 10

// Point is a Baccarat value class: 0 stands for every ten-valued card
// (10, J, Q, K) and 1..9 for the face value.
type Point uint8

// Valid reports whether p is one of the ten value classes.
func (p Point) Valid() bool {
	return p < NumPoints
}

func (p Point) String() string {
	return fmt.Sprintf("%d", uint8(p))
}

// Add returns the Baccarat total of p and q (sum folded modulo 10).
func (p Point) Add(q Point) Point {
	return (p + q) % NumPoints
}

// Points lists the ten value classes in ascending order.
func Points() [NumPoints]Point {
	var ps [NumPoints]Point
	for i := range ps {
		ps[i] = Point(i)
	}
	return ps
}
