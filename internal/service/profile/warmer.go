package profile

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Warmer fetches profiles in the background so a later request finds them
// in the cache. Work beyond the queue capacity is dropped.
type Warmer struct {
	source  Source
	timeout time.Duration
	queue   chan string
	pool    *pool.Pool
	logger  *zap.Logger

	mu      sync.RWMutex
	stopped bool
}

func NewWarmer(source Source, workers, queueSize int, timeout time.Duration, logger *zap.Logger) *Warmer {
	if workers <= 0 {
		workers = 1
	}
	w := &Warmer{
		source:  source,
		timeout: timeout,
		queue:   make(chan string, queueSize),
		pool:    pool.New().WithMaxGoroutines(workers),
		logger:  logger,
	}
	for i := 0; i < workers; i++ {
		w.pool.Go(w.work)
	}
	return w
}

// Warm enqueues handle and reports whether it was accepted.
func (w *Warmer) Warm(handle string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return false
	}

	select {
	case w.queue <- handle:
		return true
	default:
		w.logger.Debug("Profile warm queue full", zap.String("handle", handle))
		return false
	}
}

// Stop drains the queue and waits for the workers.
func (w *Warmer) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.queue)
	w.mu.Unlock()

	w.pool.Wait()
}

func (w *Warmer) work() {
	for handle := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		if _, err := w.source.FetchProfile(ctx, handle); err != nil {
			w.logger.Warn("Profile warm-up failed", zap.String("handle", handle), zap.Error(err))
		}
		cancel()
	}
}
