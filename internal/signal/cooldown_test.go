package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownTracker(t *testing.T) {
	clock := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	tracker := NewCooldownTracker(4 * time.Hour)
	tracker.now = func() time.Time { return clock }

	assert.True(t, tracker.ShouldEmit("AAPL", "1d", SideLong), "unseen key emits")

	tracker.Record("AAPL", "1d", SideLong)
	assert.False(t, tracker.ShouldEmit("AAPL", "1d", SideLong))

	// The key is (symbol, timeframe, side); siblings are unaffected.
	assert.True(t, tracker.ShouldEmit("AAPL", "1d", SideShort))
	assert.True(t, tracker.ShouldEmit("AAPL", "4h", SideLong))
	assert.True(t, tracker.ShouldEmit("MSFT", "1d", SideLong))

	// Exactly at the period boundary is still inside the window.
	clock = clock.Add(4 * time.Hour)
	assert.False(t, tracker.ShouldEmit("AAPL", "1d", SideLong))

	clock = clock.Add(time.Second)
	assert.True(t, tracker.ShouldEmit("AAPL", "1d", SideLong))
}

func TestCooldownRecordResetsWindow(t *testing.T) {
	clock := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	tracker := NewCooldownTracker(time.Hour)
	tracker.now = func() time.Time { return clock }

	tracker.Record("AAPL", "1d", SideLong)
	clock = clock.Add(30 * time.Minute)
	tracker.Record("AAPL", "1d", SideLong)

	clock = clock.Add(45 * time.Minute)
	assert.False(t, tracker.ShouldEmit("AAPL", "1d", SideLong), "window restarts on each record")
}
