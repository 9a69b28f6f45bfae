package service

import (
	"sync"
	"time"
)

const (
	DefaultWatchdogPeriod = 2 * time.Second
	watchdogQueueDepth    = 10
	watchdogSignal        = 4
)

// Watchdog is a one-shot timer that posts to a bounded queue when it fires.
// The control loop polls the queue without blocking and re-arms the timer.
type Watchdog struct {
	period time.Duration
	queue  chan uint8

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatchdog creates an unarmed watchdog. depth <= 0 uses the default queue depth.
func NewWatchdog(period time.Duration, depth int) *Watchdog {
	if period <= 0 {
		period = DefaultWatchdogPeriod
	}
	if depth <= 0 {
		depth = watchdogQueueDepth
	}
	return &Watchdog{period: period, queue: make(chan uint8, depth)}
}

// Arm (re)starts the timer for one period.
func (w *Watchdog) Arm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.period, w.fire)
}

func (w *Watchdog) fire() {
	select {
	case w.queue <- watchdogSignal:
	default:
	}
}

// Poll reports whether a signal was queued, without blocking.
func (w *Watchdog) Poll() (uint8, bool) {
	select {
	case v := <-w.queue:
		return v, true
	default:
		return 0, false
	}
}

// Stop cancels a pending timer.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
