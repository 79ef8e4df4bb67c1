package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShoe(t *testing.T) {
	for _, decks := range []int{1, 2, 6, 8} {
		shoe, err := NewShoe(decks)
		require.NoError(t, err)

		freq := shoe.Frequencies()
		assert.Equal(t, uint64(16*decks), freq[0])
		for p := 1; p < NumPoints; p++ {
			assert.Equal(t, uint64(4*decks), freq[p])
		}

		var sum uint64
		for _, n := range freq {
			sum += n
		}
		assert.Equal(t, uint64(52*decks), sum)
		assert.Equal(t, 52*decks, shoe.Size())
		assert.Equal(t, decks, shoe.Decks())
		assert.Equal(t, shoe.Frequencies(), shoe.Cards().CountPoints())
	}
}

func TestNewShoe_InvalidDeckCount(t *testing.T) {
	for _, decks := range []int{0, -1, -8} {
		_, err := NewShoe(decks)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	}
}

func TestShoe_FrequenciesAreACopy(t *testing.T) {
	shoe, err := NewShoe(1)
	require.NoError(t, err)

	freq := shoe.Frequencies()
	freq[0] = 0

	assert.Equal(t, uint64(16), shoe.Frequencies()[0])
}

func TestNewShoe_LargeDeckCountIsCheap(t *testing.T) {
	shoe, err := NewShoe(1 << 30)
	require.NoError(t, err)
	assert.Equal(t, uint64(16)<<30, shoe.Frequencies()[0])
	assert.Equal(t, 1<<30, shoe.Decks())
}

func TestShoe_Zero(t *testing.T) {
	var shoe Shoe
	assert.Zero(t, shoe.Decks())
	assert.Zero(t, shoe.Size())
	assert.Empty(t, shoe.Cards())
	assert.Equal(t, [NumPoints]uint64{}, shoe.Frequencies())
}
