package signal

import (
	"sync"
	"time"
)

type cooldownKey struct {
	symbol    string
	timeframe string
	side      Side
}

// CooldownTracker deduplicates emissions: once a (symbol, timeframe, side)
// fires, the same key stays quiet for the cooldown period. State is
// process-wide and resets on restart. Good enough for a single-process
// polling loop; concurrent processes would race and are out of scope.
type CooldownTracker struct {
	mu     sync.Mutex
	period time.Duration
	last   map[cooldownKey]time.Time
	now    func() time.Time
}

func NewCooldownTracker(period time.Duration) *CooldownTracker {
	return &CooldownTracker{
		period: period,
		last:   make(map[cooldownKey]time.Time),
		now:    time.Now,
	}
}

// ShouldEmit reports whether the key is outside its cooldown window.
func (t *CooldownTracker) ShouldEmit(symbol, timeframe string, side Side) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.last[cooldownKey{symbol, timeframe, side}]
	if !ok {
		return true
	}
	return t.now().Sub(last) > t.period
}

// Record marks the key as just emitted.
func (t *CooldownTracker) Record(symbol, timeframe string, side Side) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[cooldownKey{symbol, timeframe, side}] = t.now()
}
