package watchdog

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go-logbot/internal/logging"
)

// ProbeFunc returns the last time a component showed signs of life.
type ProbeFunc func() time.Time

type Watchdog struct {
	mu            sync.RWMutex
	components    map[string]*ComponentHealth
	checkInterval time.Duration
	running       uint32
	done          chan struct{}
	now           func() time.Time
}

type ComponentHealth struct {
	Name          string
	LastHeartbeat int64
	IsHealthy     uint32
	Threshold     time.Duration
	probe         ProbeFunc
}

func NewWatchdog(checkInterval time.Duration) *Watchdog {
	return &Watchdog{
		components:    make(map[string]*ComponentHealth),
		checkInterval: checkInterval,
		now:           time.Now,
	}
}

// RegisterComponent tracks a component that reports through Heartbeat.
func (w *Watchdog) RegisterComponent(name string, threshold time.Duration) {
	w.register(name, threshold, nil)
}

// RegisterProbe tracks a component whose liveness is polled on every check.
func (w *Watchdog) RegisterProbe(name string, threshold time.Duration, probe ProbeFunc) {
	w.register(name, threshold, probe)
}

func (w *Watchdog) register(name string, threshold time.Duration, probe ProbeFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.components[name] = &ComponentHealth{
		Name:      name,
		IsHealthy: 1,
		Threshold: threshold,
		probe:     probe,
	}
}

func (w *Watchdog) Heartbeat(name string) {
	w.mu.RLock()
	comp, exists := w.components[name]
	w.mu.RUnlock()
	if exists {
		atomic.StoreInt64(&comp.LastHeartbeat, w.now().UnixNano())
	}
}

func (w *Watchdog) Start() {
	if !atomic.CompareAndSwapUint32(&w.running, 0, 1) {
		return
	}
	w.done = make(chan struct{})
	go w.monitorLoop(w.done)
}

func (w *Watchdog) monitorLoop(done chan struct{}) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			w.checkAllComponents()
		}
	}
}

// checkAllComponents logs only on transitions so a dead gateway does not
// flood the log file.
func (w *Watchdog) checkAllComponents() {
	now := w.now()

	w.mu.RLock()
	defer w.mu.RUnlock()

	for name, comp := range w.components {
		if comp.probe != nil {
			if t := comp.probe(); !t.IsZero() {
				atomic.StoreInt64(&comp.LastHeartbeat, t.UnixNano())
			}
		}

		lastBeat := atomic.LoadInt64(&comp.LastHeartbeat)
		if lastBeat == 0 {
			continue
		}

		elapsed := now.Sub(time.Unix(0, lastBeat))
		if elapsed > comp.Threshold {
			if atomic.CompareAndSwapUint32(&comp.IsHealthy, 1, 0) {
				logging.Error("Watchdog: %s unhealthy (no heartbeat for %v)", name, elapsed.Round(time.Second))
			}
		} else if atomic.CompareAndSwapUint32(&comp.IsHealthy, 0, 1) {
			logging.Info("Watchdog: %s recovered", name)
		}
	}
}

func (w *Watchdog) IsHealthy(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if comp, exists := w.components[name]; exists {
		return atomic.LoadUint32(&comp.IsHealthy) == 1
	}
	return false
}

func (w *Watchdog) Stop() {
	if atomic.CompareAndSwapUint32(&w.running, 1, 0) {
		close(w.done)
	}
}

func (w *Watchdog) GetStatus() map[string]bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	status := make(map[string]bool, len(w.components))
	for name, comp := range w.components {
		status[name] = atomic.LoadUint32(&comp.IsHealthy) == 1
	}
	return status
}

// Names returns the registered components in sorted order.
func (w *Watchdog) Names() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.components))
	for name := range w.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
