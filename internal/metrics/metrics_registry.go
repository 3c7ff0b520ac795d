package metrics

import (
	"sync/atomic"
	"time"
)

// DispatchCounters is shared by the event handlers and the dispatcher.
type DispatchCounters struct {
	eventsReceived  uint64
	recordsProduced uint64
	delivered       uint64
	failed          uint64
	unrouted        uint64
	latency         *LatencyHistogram
	startTime       time.Time
}

func NewDispatchCounters() *DispatchCounters {
	return &DispatchCounters{
		latency:   NewLatencyHistogram(),
		startTime: time.Now(),
	}
}

func (c *DispatchCounters) EventReceived()  { atomic.AddUint64(&c.eventsReceived, 1) }
func (c *DispatchCounters) RecordProduced() { atomic.AddUint64(&c.recordsProduced, 1) }
func (c *DispatchCounters) Unrouted()       { atomic.AddUint64(&c.unrouted, 1) }
func (c *DispatchCounters) Failed()         { atomic.AddUint64(&c.failed, 1) }

func (c *DispatchCounters) Delivered(took time.Duration) {
	atomic.AddUint64(&c.delivered, 1)
	c.latency.Record(took)
}

type Snapshot struct {
	EventsReceived  uint64
	RecordsProduced uint64
	Delivered       uint64
	Failed          uint64
	Unrouted        uint64
	Latency         LatencyStats
	Since           time.Time
}

func (c *DispatchCounters) Snapshot() Snapshot {
	return Snapshot{
		EventsReceived:  atomic.LoadUint64(&c.eventsReceived),
		RecordsProduced: atomic.LoadUint64(&c.recordsProduced),
		Delivered:       atomic.LoadUint64(&c.delivered),
		Failed:          atomic.LoadUint64(&c.failed),
		Unrouted:        atomic.LoadUint64(&c.unrouted),
		Latency:         c.latency.GetStats(),
		Since:           c.startTime,
	}
}

// Rate is events received per second since start.
func (s Snapshot) Rate(now time.Time) float64 {
	elapsed := now.Sub(s.Since).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.EventsReceived) / elapsed
}
