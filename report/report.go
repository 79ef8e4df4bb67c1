package report

import (
	"bufio"
	"encoding/json"
	"io"
	"strconv"

	"github.com/lazharichir/baccarat/baccarat"
	"github.com/lazharichir/baccarat/cards"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BankerSix is the banker total split out of banker wins in the summary.
const BankerSix cards.Point = 6

// WriteText renders the banker-win breakdown, the grand totals and the
// outcome probabilities. Percentages use four decimals.
func WriteText(w io.Writer, r *baccarat.Result) error {
	bw := bufio.NewWriter(w)
	p := message.NewPrinter(language.English)

	for banker := cards.Point(1); banker < cards.NumPoints; banker++ {
		subtotal := r.Tally.Breakdown.BankerTotal(banker)
		if subtotal == 0 {
			continue
		}

		p.Fprintf(bw, "=== Banker final point %d ===\n", banker)
		for player := cards.Point(0); player < banker; player++ {
			n := r.Tally.Breakdown[banker][player]
			if n == 0 {
				continue
			}
			p.Fprintf(bw, "  vs. Player final point %d: %d ways (%s)\n", player, n, percent(r, n))
		}
		p.Fprintf(bw, "  Total ways of Banker winning with %d points: %d ways (%s)\n\n", banker, subtotal, percent(r, subtotal))
	}

	six := r.Tally.Breakdown.BankerTotal(BankerSix)
	other := r.Count(baccarat.BankerWin) - six

	p.Fprintf(bw, "With a shoe of %d decks...\n", r.Decks)
	p.Fprintf(bw, "Total ways Banker can win:    %d\n", r.Count(baccarat.BankerWin))
	p.Fprintf(bw, "Total ways Player can win:    %d\n", r.Count(baccarat.PlayerWin))
	p.Fprintf(bw, "Total ways for a tie:         %d\n", r.Count(baccarat.Tie))
	p.Fprintf(bw, "Total overall possibilities:  %d\n\n", r.GrandTotal)

	p.Fprintf(bw, "P(Player):                      %s\n", percent(r, r.Count(baccarat.PlayerWin)))
	p.Fprintf(bw, "P(Banker):                      %s\n", percent(r, r.Count(baccarat.BankerWin)))
	p.Fprintf(bw, "  of which P(Banker @6):        %s\n", percent(r, six))
	p.Fprintf(bw, "  of which P(Banker @other):    %s\n", percent(r, other))
	p.Fprintf(bw, "P(Tie):                         %s\n", percent(r, r.Count(baccarat.Tie)))

	return bw.Flush()
}

func percent(r *baccarat.Result, n uint64) string {
	return strconv.FormatFloat(100*r.Fraction(n), 'f', 4, 64) + "%"
}

// OutcomeView is one outcome in the JSON view. Ways is a decimal string
// because counts exceed the 2^53 integers JSON numbers carry exactly.
type OutcomeView struct {
	Outcome     string  `json:"outcome"`
	Ways        string  `json:"ways"`
	Probability float64 `json:"probability"`
}

type CellView struct {
	BankerTotal int     `json:"bankerTotal"`
	PlayerTotal int     `json:"playerTotal"`
	Ways        string  `json:"ways"`
	Probability float64 `json:"probability"`
}

// View is the JSON form of a result.
type View struct {
	Decks           int           `json:"decks"`
	GrandTotal      string        `json:"grandTotal"`
	Outcomes        []OutcomeView `json:"outcomes"`
	BankerBreakdown []CellView    `json:"bankerBreakdown"`
	BankerSix       OutcomeView   `json:"bankerSix"`
}

func NewView(r *baccarat.Result) View {
	v := View{
		Decks:      r.Decks,
		GrandTotal: strconv.FormatUint(r.GrandTotal, 10),
	}

	for _, o := range baccarat.Outcomes {
		v.Outcomes = append(v.Outcomes, OutcomeView{
			Outcome:     o.String(),
			Ways:        strconv.FormatUint(r.Count(o), 10),
			Probability: r.Probability(o),
		})
	}

	for _, c := range r.Tally.Breakdown.Cells() {
		v.BankerBreakdown = append(v.BankerBreakdown, CellView{
			BankerTotal: int(c.Banker),
			PlayerTotal: int(c.Player),
			Ways:        strconv.FormatUint(c.Ways, 10),
			Probability: r.Fraction(c.Ways),
		})
	}

	six := r.Tally.Breakdown.BankerTotal(BankerSix)
	v.BankerSix = OutcomeView{
		Outcome:     "banker-6",
		Ways:        strconv.FormatUint(six, 10),
		Probability: r.Fraction(six),
	}
	return v
}

func WriteJSON(w io.Writer, r *baccarat.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewView(r))
}
