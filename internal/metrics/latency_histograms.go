package metrics

import (
	"sync/atomic"
	"time"
)

// LatencyHistogram tracks delivery round trips in millisecond buckets.
type LatencyHistogram struct {
	buckets [6]uint64
	max     uint64
	count   uint64
	sum     uint64
}

func NewLatencyHistogram() *LatencyHistogram {
	return &LatencyHistogram{}
}

func (lh *LatencyHistogram) Record(d time.Duration) {
	ns := uint64(d.Nanoseconds())
	atomic.AddUint64(&lh.count, 1)
	atomic.AddUint64(&lh.sum, ns)

	for {
		oldMax := atomic.LoadUint64(&lh.max)
		if ns <= oldMax {
			break
		}
		if atomic.CompareAndSwapUint64(&lh.max, oldMax, ns) {
			break
		}
	}

	atomic.AddUint64(&lh.buckets[bucketIndex(d)], 1)
}

func bucketIndex(d time.Duration) int {
	switch {
	case d < 50*time.Millisecond:
		return 0
	case d < 100*time.Millisecond:
		return 1
	case d < 250*time.Millisecond:
		return 2
	case d < 500*time.Millisecond:
		return 3
	case d < time.Second:
		return 4
	default:
		return 5
	}
}

func (lh *LatencyHistogram) GetStats() LatencyStats {
	count := atomic.LoadUint64(&lh.count)
	sum := atomic.LoadUint64(&lh.sum)

	avg := uint64(0)
	if count > 0 {
		avg = sum / count
	}

	return LatencyStats{
		Max:   time.Duration(atomic.LoadUint64(&lh.max)),
		Avg:   time.Duration(avg),
		Count: count,
	}
}

type LatencyStats struct {
	Max   time.Duration
	Avg   time.Duration
	Count uint64
}
