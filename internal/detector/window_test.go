package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowWeightedRatioAllTrue(t *testing.T) {
	w := NewWindow(10)
	for i := 0; i < 10; i++ {
		w.Push(true)
	}
	assert.InDelta(t, 1.0, w.WeightedRatio(), 1e-9)
}

func TestWindowWeightedRatioAllFalse(t *testing.T) {
	w := NewWindow(10)
	for i := 0; i < 10; i++ {
		w.Push(false)
	}
	assert.Zero(t, w.WeightedRatio())
}

func TestWindowWeightedRatioFavorsRecent(t *testing.T) {
	// Same number of true frames, but at the tail they must weigh more.
	older := NewWindow(10)
	newer := NewWindow(10)
	for i := 0; i < 10; i++ {
		older.Push(i < 5)
		newer.Push(i >= 5)
	}
	assert.Greater(t, newer.WeightedRatio(), older.WeightedRatio())
}

func TestWindowTailRun(t *testing.T) {
	w := NewWindow(10)
	for _, v := range []bool{true, false, true, true, true} {
		w.Push(v)
	}
	assert.Equal(t, 3, w.TailRun())

	w.Push(false)
	assert.Equal(t, 0, w.TailRun())
}

func TestWindowEviction(t *testing.T) {
	w := NewWindow(3)
	for _, v := range []bool{true, true, true, false, false} {
		w.Push(v)
	}
	// Only the last three frames remain: true, false, false.
	require.Equal(t, 3, w.Len())
	assert.InDelta(t, 1.0/3.0, w.TrueFraction(), 1e-9)
	assert.Equal(t, 0, w.TailRun())
}

func TestWindowWarmupUsesActualLength(t *testing.T) {
	w := NewWindow(20)
	w.Push(true)
	w.Push(true)
	// Two frames present: ratios are over 2, not over capacity.
	assert.InDelta(t, 1.0, w.WeightedRatio(), 1e-9)
	assert.InDelta(t, 1.0, w.TrueFraction(), 1e-9)
	assert.Equal(t, 2, w.TailRun())
}

func TestWindowLastSixOfTenTriggers(t *testing.T) {
	// threshold_ratio=0.4, min_duration_frames=5: six trailing true frames
	// hold, four do not.
	six := NewWindow(10)
	four := NewWindow(10)
	for i := 0; i < 10; i++ {
		six.Push(i >= 4)
		four.Push(i >= 6)
	}

	assert.Greater(t, six.WeightedRatio(), 0.4)
	assert.Greater(t, six.TailRun(), 5)

	assert.False(t, four.TailRun() > 5)
}
