package pomodoro

import (
	"sync"
	"time"
)

// Scheduler arms and cancels the engine's repeating tick.
type Scheduler interface {
	// Start begins calling tick every interval, replacing any armed tick.
	Start(tick func())
	// Stop cancels the armed tick. It must not wait for a tick in flight,
	// since the engine may call it from inside tick.
	Stop()
}

// TickerScheduler drives ticks from a time.Ticker on its own goroutine.
type TickerScheduler struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &TickerScheduler{interval: interval}
}

func (s *TickerScheduler) Start(tick func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
	}
	stop := make(chan struct{})
	s.stop = stop

	go func() {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				tick()
			}
		}
	}()
}

func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}
