package cards

import (
	"fmt"
	"strings"
)

// CardFromString creates a card from a string representation
// e.g., "10♠" or "10s" or "10S" or "Ts" -> Card{Suit: Spades, Value: Ten}
func CardFromString(s string) (Card, error) {
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card shorthand: %q", s)
	}

	var suit Suit
	var rank string
	switch {
	case strings.HasSuffix(s, string(Spades)):
		suit, rank = Spades, strings.TrimSuffix(s, string(Spades))
	case strings.HasSuffix(s, string(Hearts)):
		suit, rank = Hearts, strings.TrimSuffix(s, string(Hearts))
	case strings.HasSuffix(s, string(Diamonds)):
		suit, rank = Diamonds, strings.TrimSuffix(s, string(Diamonds))
	case strings.HasSuffix(s, string(Clubs)):
		suit, rank = Clubs, strings.TrimSuffix(s, string(Clubs))
	default:
		rank = s[:len(s)-1]
		switch s[len(s)-1:] {
		case "s", "S":
			suit = Spades
		case "h", "H":
			suit = Hearts
		case "d", "D":
			suit = Diamonds
		case "c", "C":
			suit = Clubs
		default:
			return Card{}, fmt.Errorf("invalid card suit: %q", s[len(s)-1:])
		}
	}

	var value Value
	switch strings.ToUpper(rank) {
	case "A":
		value = Ace
	case "K":
		value = King
	case "Q":
		value = Queen
	case "J":
		value = Jack
	case "10", "T":
		value = Ten
	case "9":
		value = Nine
	case "8":
		value = Eight
	case "7":
		value = Seven
	case "6":
		value = Six
	case "5":
		value = Five
	case "4":
		value = Four
	case "3":
		value = Three
	case "2":
		value = Two
	default:
		return Card{}, fmt.Errorf("invalid card value: %q", rank)
	}

	return Card{Suit: suit, Value: value}, nil
}

// Suit represents a card suit
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Value represents a card rank
type Value string

const (
	Ace   Value = "A"
	King  Value = "K"
	Queen Value = "Q"
	Jack  Value = "J"
	Ten   Value = "10"
	Nine  Value = "9"
	Eight Value = "8"
	Seven Value = "7"
	Six   Value = "6"
	Five  Value = "5"
	Four  Value = "4"
	Three Value = "3"
	Two   Value = "2"
)

// Card represents a playing card
type Card struct {
	Suit  Suit
	Value Value
}

// String returns the string representation of a card
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Value, c.Suit)
}

// Equals checks if two cards are equal
func (c Card) Equals(other Card) bool {
	return c.Suit == other.Suit && c.Value == other.Value
}

// Point returns the Baccarat point value of the card.
func (c Card) Point() Point {
	switch c.Value {
	case Ace:
		return 1
	case Two:
		return 2
	case Three:
		return 3
	case Four:
		return 4
	case Five:
		return 5
	case Six:
		return 6
	case Seven:
		return 7
	case Eight:
		return 8
	case Nine:
		return 9
	default:
		// ten, jack, queen, king
		return 0
	}
}
