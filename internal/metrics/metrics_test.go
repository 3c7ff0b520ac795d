package metrics

import (
	"testing"
	"time"
)

func TestDispatchCountersSnapshot(t *testing.T) {
	c := NewDispatchCounters()
	c.EventReceived()
	c.EventReceived()
	c.RecordProduced()
	c.Unrouted()
	c.Failed()
	c.Delivered(20 * time.Millisecond)
	c.Delivered(40 * time.Millisecond)

	s := c.Snapshot()
	if s.EventsReceived != 2 || s.RecordsProduced != 1 || s.Unrouted != 1 || s.Failed != 1 || s.Delivered != 2 {
		t.Errorf("snapshot = %+v", s)
	}
	if s.Latency.Count != 2 || s.Latency.Avg != 30*time.Millisecond || s.Latency.Max != 40*time.Millisecond {
		t.Errorf("latency = %+v", s.Latency)
	}
}

func TestSnapshotRate(t *testing.T) {
	s := Snapshot{EventsReceived: 10, Since: time.Unix(100, 0)}
	if got := s.Rate(time.Unix(105, 0)); got != 2 {
		t.Errorf("rate = %v", got)
	}
	if got := s.Rate(time.Unix(100, 0)); got != 0 {
		t.Errorf("rate at start = %v", got)
	}
}

func TestBucketIndex(t *testing.T) {
	if bucketIndex(10*time.Millisecond) != 0 || bucketIndex(2*time.Second) != 5 {
		t.Error("bucket boundaries moved")
	}
}
