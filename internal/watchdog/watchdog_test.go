package watchdog

import (
	"testing"
	"time"
)

func TestProbeMarksUnhealthyAndRecovers(t *testing.T) {
	base := time.Unix(1700000000, 0)
	now := base
	last := base

	w := NewWatchdog(time.Minute)
	w.now = func() time.Time { return now }
	w.RegisterProbe("gateway", 90*time.Second, func() time.Time { return last })

	w.checkAllComponents()
	if !w.IsHealthy("gateway") {
		t.Fatal("fresh probe reported unhealthy")
	}

	now = base.Add(2 * time.Minute)
	w.checkAllComponents()
	if w.IsHealthy("gateway") {
		t.Fatal("stale probe reported healthy")
	}

	last = now
	w.checkAllComponents()
	if !w.IsHealthy("gateway") {
		t.Fatal("probe did not recover")
	}
}

func TestHeartbeatComponent(t *testing.T) {
	base := time.Unix(1700000000, 0)
	now := base

	w := NewWatchdog(time.Minute)
	w.now = func() time.Time { return now }
	w.RegisterComponent("dispatcher", time.Second)

	// No heartbeat yet means nothing to judge.
	now = base.Add(time.Hour)
	w.checkAllComponents()
	if !w.IsHealthy("dispatcher") {
		t.Fatal("component without heartbeats marked unhealthy")
	}

	w.Heartbeat("dispatcher")
	now = now.Add(5 * time.Second)
	w.checkAllComponents()
	if w.IsHealthy("dispatcher") {
		t.Fatal("missed heartbeat not detected")
	}
}

func TestUnknownComponent(t *testing.T) {
	w := NewWatchdog(time.Minute)
	w.Heartbeat("missing")
	if w.IsHealthy("missing") {
		t.Error("unknown component reported healthy")
	}
	if len(w.GetStatus()) != 0 {
		t.Error("status lists unregistered components")
	}
}

func TestStartStop(t *testing.T) {
	w := NewWatchdog(time.Millisecond)
	w.RegisterComponent("b", time.Hour)
	w.RegisterComponent("a", time.Hour)
	w.Start()
	w.Start()
	w.Stop()
	w.Stop()

	names := w.Names()
	if len(names) != 2 || names[0] != "a" {
		t.Errorf("names = %v", names)
	}
}
