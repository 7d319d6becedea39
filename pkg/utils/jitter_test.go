package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJitter_ZeroFractionReturnsBase(t *testing.T) {
	t.Parallel()
	assert.Equal(t, time.Minute, Jitter(time.Minute, 0))
}

func TestJitter_StaysWithinBounds(t *testing.T) {
	t.Parallel()
	base := time.Minute
	for i := 0; i < 200; i++ {
		got := Jitter(base, 0.1)
		assert.GreaterOrEqual(t, got, base-time.Second*6)
		assert.LessOrEqual(t, got, base+time.Second*6)
	}
}

func TestJitter_ClampsFractionAboveOne(t *testing.T) {
	t.Parallel()
	base := time.Minute
	got := Jitter(base, 2.0)
	assert.GreaterOrEqual(t, got, time.Duration(0))
	assert.LessOrEqual(t, got, 2*base)
}

func TestJitterUp_NeverBelowBase(t *testing.T) {
	t.Parallel()
	base := time.Minute
	for i := 0; i < 200; i++ {
		got := JitterUp(base, 0.25)
		assert.GreaterOrEqual(t, got, base)
		assert.LessOrEqual(t, got, base+base/4)
	}
}

func TestJitterUp_ZeroFractionReturnsBase(t *testing.T) {
	t.Parallel()
	assert.Equal(t, time.Minute, JitterUp(time.Minute, 0))
}

func TestJitteredTicker_TicksAndStops(t *testing.T) {
	t.Parallel()
	ch, stop := JitteredTicker(10*time.Millisecond, 0.1)

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a tick within 2s")
	}

	stop()
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after stop")
}
