package cache

import (
	"sync"
	"time"

	applog "tracker/internal/log"
)

// Cleaner is implemented by caches that can drop their expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps the registered caches until stopped.
type Manager struct {
	logger   *applog.Logger
	caches   map[string]Cleaner
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool
}

func NewManager(logger *applog.Logger) *Manager {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Manager{
		logger: logger.WithComponent(applog.ComponentCache),
		caches: make(map[string]Cleaner),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Register adds a named cache to the sweep. It must be called before
// StartCleanup.
func (m *Manager) Register(name string, c Cleaner) {
	m.caches[name] = c
}

// StartCleanup sweeps every interval in a background goroutine.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.run(interval)
}

func (m *Manager) run(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) sweep() int {
	total := 0
	for name, c := range m.caches {
		if n := c.CleanExpired(); n > 0 {
			m.logger.Debug("Expired cache entries removed", "cache", name, "count", n)
			total += n
		}
	}
	return total
}

// Stop ends the sweep and waits for it to exit. It is safe to call more
// than once and without a prior StartCleanup.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		if m.started {
			<-m.done
		}
	})
}
