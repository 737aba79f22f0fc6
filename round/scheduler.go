package round

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates a 60Hz display refresh.
const DefaultFrameInterval = 16 * time.Millisecond

// Scheduler invokes fn repeatedly until the returned handle is canceled.
type Scheduler interface {
	Schedule(fn func(ts time.Time)) Handle
}

// Handle cancels scheduled ticks. Cancel must not block and may be called more than once.
type Handle interface {
	Cancel()
}

// FrameScheduler ticks on a fixed wall-clock interval from its own goroutine.
type FrameScheduler struct {
	interval time.Duration
}

func NewFrameScheduler(interval time.Duration) *FrameScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameScheduler{interval: interval}
}

func (s *FrameScheduler) Schedule(fn func(ts time.Time)) Handle {
	h := &frameHandle{done: make(chan struct{})}
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.done:
				return
			case ts := <-ticker.C:
				// select picks randomly when both are ready; re-check so a canceled handle never fires.
				select {
				case <-h.done:
					return
				default:
				}
				fn(ts)
			}
		}
	}()
	return h
}

type frameHandle struct {
	once sync.Once
	done chan struct{}
}

func (h *frameHandle) Cancel() {
	h.once.Do(func() { close(h.done) })
}
