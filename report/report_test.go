package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/lazharichir/baccarat/baccarat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneDeck(t *testing.T) *baccarat.Result {
	t.Helper()
	r, err := baccarat.Compute(context.Background(), 1)
	require.NoError(t, err)
	return r
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, oneDeck(t)))
	out := buf.String()

	for _, want := range []string{
		"=== Banker final point 1 ===\n  vs. Player final point 0: 68,763,392 ways (0.4691%)\n",
		"With a shoe of 1 decks...\n",
		"Total ways Banker can win:    6,737,232,640\n",
		"Total ways Player can win:    6,548,674,432\n",
		"Total ways for a tie:         1,372,227,328\n",
		"Total overall possibilities:  14,658,134,400\n",
		"P(Player):                      44.6760%\n",
		"P(Banker):                      45.9624%\n",
		"  of which P(Banker @6):        5.3432%\n",
		"  of which P(Banker @other):    40.6193%\n",
		"P(Tie):                         9.3615%\n",
	} {
		assert.Contains(t, out, want)
	}

	assert.Equal(t, 9, strings.Count(out, "=== Banker final point"))
	assert.NotContains(t, out, "Banker final point 0")
}

func TestWriteText_SkipsEmptyRows(t *testing.T) {
	r := &baccarat.Result{Decks: 1, GrandTotal: 10}
	r.Tally.Banker = 4
	r.Tally.Player = 6
	r.Tally.Breakdown[7][2] = 4

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, r))
	out := buf.String()

	assert.Equal(t, 1, strings.Count(out, "=== Banker final point"))
	assert.Contains(t, out, "  vs. Player final point 2: 4 ways (40.0000%)\n")
	assert.NotContains(t, out, "vs. Player final point 0")
}

func TestWriteJSON(t *testing.T) {
	r := oneDeck(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))

	var v View
	require.NoError(t, json.Unmarshal(buf.Bytes(), &v))

	assert.Equal(t, 1, v.Decks)
	assert.Equal(t, "14658134400", v.GrandTotal)
	require.Len(t, v.Outcomes, 3)
	assert.Equal(t, OutcomeView{Outcome: "player", Ways: "6548674432", Probability: r.Probability(baccarat.PlayerWin)}, v.Outcomes[0])
	assert.Equal(t, "banker", v.Outcomes[1].Outcome)
	assert.Equal(t, "6737232640", v.Outcomes[1].Ways)
	assert.Equal(t, "tie", v.Outcomes[2].Outcome)

	require.Len(t, v.BankerBreakdown, 45)
	assert.Equal(t, CellView{BankerTotal: 1, PlayerTotal: 0, Ways: "68763392", Probability: r.Fraction(68763392)}, v.BankerBreakdown[0])
	assert.Equal(t, "783208320", v.BankerSix.Ways)
}

func TestNewView_LargeCountsStayExact(t *testing.T) {
	r := &baccarat.Result{Decks: 31, GrandTotal: 17383788087618214080}
	v := NewView(r)
	assert.Equal(t, "17383788087618214080", v.GrandTotal)
}
