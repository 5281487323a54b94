package game

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Timers holds at most one pending question timer per room (thread-safe).
type Timers struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	unit   time.Duration
	logger *zap.Logger
}

// NewTimers creates a timer registry; unit is the length of one timer second
// (time.Second outside of tests).
func NewTimers(unit time.Duration, logger *zap.Logger) *Timers {
	if unit <= 0 {
		unit = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Timers{timers: make(map[string]*time.Timer), unit: unit, logger: logger}
}

// Schedule runs fire after seconds timer units, replacing the room's pending timer.
func (t *Timers) Schedule(room string, seconds int, fire func()) {
	d := time.Duration(seconds) * t.unit
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev := t.timers[room]; prev != nil {
		prev.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.timers[room] == timer {
			delete(t.timers, room)
		}
		t.mu.Unlock()
		fire()
	})
	t.timers[room] = timer
	t.logger.Debug("question timer scheduled", zap.String("room", room), zap.Duration("after", d))
}

// Stop cancels the room's pending timer, if any.
func (t *Timers) Stop(room string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer := t.timers[room]; timer != nil {
		timer.Stop()
		delete(t.timers, room)
	}
}

// Pending reports whether room has a timer waiting to fire.
func (t *Timers) Pending(room string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timers[room] != nil
}
