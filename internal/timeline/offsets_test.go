package timeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offsetsOf(ps []Placement) map[string]float64 {
	out := make(map[string]float64, len(ps))
	for _, p := range ps {
		out[p.BlockID] = p.Offset
	}
	return out
}

func TestLayoutBlocks(t *testing.T) {
	durations := map[string]float64{"A": 10, "B": 5, "C": 20}

	t.Run("back to back in order", func(t *testing.T) {
		ps, total, err := LayoutBlocks([]string{"A", "B", "C"}, durations)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"A": 0, "B": 10, "C": 15}, offsetsOf(ps))
		assert.Equal(t, 35.0, total)
		for i, p := range ps {
			assert.Equal(t, i, p.Position)
		}
	})

	t.Run("reorder changes offsets not total", func(t *testing.T) {
		ps, total, err := LayoutBlocks([]string{"C", "A", "B"}, durations)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"C": 0, "A": 20, "B": 30}, offsetsOf(ps))
		assert.Equal(t, 35.0, total)
	})

	t.Run("total equals last offset plus duration", func(t *testing.T) {
		ps, total, err := LayoutBlocks([]string{"B", "C", "A"}, durations)
		require.NoError(t, err)
		last := ps[len(ps)-1]
		assert.Equal(t, last.Offset+last.Duration, total)
	})

	t.Run("removal equals never having the block", func(t *testing.T) {
		without := map[string]float64{"A": 10, "C": 20}
		removed, _, err := LayoutBlocks([]string{"A", "C"}, durations)
		require.NoError(t, err)
		fresh, _, err := LayoutBlocks([]string{"A", "C"}, without)
		require.NoError(t, err)
		assert.Equal(t, fresh, removed)
	})

	t.Run("empty channel", func(t *testing.T) {
		ps, total, err := LayoutBlocks(nil, durations)
		require.NoError(t, err)
		assert.Empty(t, ps)
		assert.Zero(t, total)
	})

	t.Run("zero duration blocks share an offset", func(t *testing.T) {
		ps, total, err := LayoutBlocks([]string{"Z", "A"}, map[string]float64{"Z": 0, "A": 10})
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"Z": 0, "A": 0}, offsetsOf(ps))
		assert.Equal(t, 10.0, total)
	})

	t.Run("fractional seconds", func(t *testing.T) {
		ps, total, err := LayoutBlocks([]string{"x", "y"}, map[string]float64{"x": 1.5, "y": 2.25})
		require.NoError(t, err)
		assert.Equal(t, 1.5, ps[1].Offset)
		assert.Equal(t, 3.75, total)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, _, err := LayoutBlocks([]string{"A", "nope"}, durations)
		assert.ErrorIs(t, err, ErrInvalidReference)
		assert.Contains(t, err.Error(), "nope")
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, _, err := LayoutBlocks([]string{"A", "B", "A"}, durations)
		assert.ErrorIs(t, err, ErrDuplicateBlock)
	})

	t.Run("negative or NaN duration", func(t *testing.T) {
		_, _, err := LayoutBlocks([]string{"n"}, map[string]float64{"n": -1})
		assert.ErrorIs(t, err, ErrInvalidDuration)
		_, _, err = LayoutBlocks([]string{"n"}, map[string]float64{"n": math.NaN()})
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})
}

func TestTotalDuration(t *testing.T) {
	durations := map[string]float64{"A": 10, "B": 5, "C": 20}

	total, err := TotalDuration([]string{"A", "B", "C"}, durations)
	require.NoError(t, err)
	assert.Equal(t, 35.0, total)

	total, err = TotalDuration(nil, durations)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = TotalDuration([]string{"A", "D"}, durations)
	assert.ErrorIs(t, err, ErrInvalidReference)

	// Block ids form a set: a repeat is rejected like in LayoutBlocks.
	_, err = TotalDuration([]string{"A", "A"}, map[string]float64{"A": 10})
	assert.ErrorIs(t, err, ErrDuplicateBlock)
	_, _, layoutErr := LayoutBlocks([]string{"A", "A"}, map[string]float64{"A": 10})
	assert.ErrorIs(t, layoutErr, ErrDuplicateBlock)
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00"},
		{35, "00:00:35"},
		{61.9, "00:01:01"},
		{3600, "01:00:00"},
		{3*3600 + 25*60 + 7, "03:25:07"},
		{-4, "00:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatClock(tt.in), "FormatClock(%v)", tt.in)
	}
}
