package baccarat

import "github.com/lazharichir/baccarat/cards"

// Outcome is the result of a resolved hand.
type Outcome int

const (
	PlayerWin Outcome = iota
	BankerWin
	Tie
)

// Outcomes lists every outcome in reporting order.
var Outcomes = [...]Outcome{PlayerWin, BankerWin, Tie}

func (o Outcome) String() string {
	switch o {
	case PlayerWin:
		return "player"
	case BankerWin:
		return "banker"
	case Tie:
		return "tie"
	default:
		return "unknown"
	}
}

// State is a step of the third-card drawing procedure.
type State int

const (
	StateInitial State = iota
	StatePlayerDecision
	StateBankerDecision
	StateFinal
)

// Resolution is the final state of a hand pattern under the drawing rules.
type Resolution struct {
	Player     cards.Point
	Banker     cards.Point
	PlayerDrew bool
	BankerDrew bool
	Natural    bool
	Outcome    Outcome
}

// Resolve applies the standard third-card rules to p and returns the final
// totals. Slots that are not drawn are ignored.
func Resolve(p Pattern) Resolution {
	var r Resolution

	state := StateInitial
	for state != StateFinal {
		switch state {
		case StateInitial:
			r.Player = p[PlayerFirst].Add(p[PlayerSecond])
			r.Banker = p[BankerFirst].Add(p[BankerSecond])
			state = StatePlayerDecision

		case StatePlayerDecision:
			switch {
			case r.Player >= 8 || r.Banker >= 8:
				// natural on either side, both stand
				r.Natural = true
				state = StateFinal
			case r.Player >= 6:
				// player stands on 6 or 7
				state = StateBankerDecision
			default:
				r.Player = r.Player.Add(p[PlayerThird])
				r.PlayerDrew = true
				state = StateBankerDecision
			}

		case StateBankerDecision:
			if bankerDraws(r.Banker, r.PlayerDrew, p[PlayerThird]) {
				r.Banker = r.Banker.Add(p[BankerThird])
				r.BankerDrew = true
			}
			state = StateFinal
		}
	}

	switch {
	case r.Player > r.Banker:
		r.Outcome = PlayerWin
	case r.Banker > r.Player:
		r.Outcome = BankerWin
	default:
		r.Outcome = Tie
	}
	return r
}

// bankerDraws reports whether the banker takes a third card given its
// two-card total and, when the player drew, the player's third card.
func bankerDraws(banker cards.Point, playerDrew bool, playerThird cards.Point) bool {
	if !playerDrew {
		return banker <= 5
	}

	switch banker {
	case 0, 1, 2:
		return true
	case 3:
		return playerThird != 8
	case 4:
		return playerThird >= 2 && playerThird <= 7
	case 5:
		return playerThird >= 4 && playerThird <= 7
	case 6:
		return playerThird == 6 || playerThird == 7
	default:
		return false
	}
}
