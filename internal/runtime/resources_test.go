package runtime

import (
	"testing"
	"time"
)

func TestResourceTracker_Snapshot(t *testing.T) {
	tracker := newResourceTracker()

	first := tracker.Snapshot()
	if first.CPUPercent != 0 {
		t.Errorf("expected 0 CPU percent on first snapshot, got %f", first.CPUPercent)
	}
	if first.MemoryBytes == 0 {
		t.Error("expected non-zero heap bytes")
	}
	if first.Goroutines == 0 {
		t.Error("expected non-zero goroutine count")
	}

	time.Sleep(10 * time.Millisecond)

	second := tracker.Snapshot()
	if second.CPUPercent < 0 {
		t.Errorf("expected non-negative CPU percent, got %f", second.CPUPercent)
	}
}

func TestResourceTracker_SnapshotNilTracker(t *testing.T) {
	var tracker *resourceTracker

	snap := tracker.Snapshot()

	if snap != (ResourceUsage{}) {
		t.Errorf("expected zero ResourceUsage for nil tracker, got %+v", snap)
	}
}

func TestResourceTracker_SnapshotWithoutSamples(t *testing.T) {
	tracker := &resourceTracker{}

	snap := tracker.Snapshot()

	if snap.Goroutines == 0 {
		t.Error("expected goroutines to be sampled when no samples are configured")
	}
	if len(tracker.samples) != 3 {
		t.Errorf("expected default samples to be installed, got %d", len(tracker.samples))
	}
	if snap.MemoryBytes == 0 {
		t.Error("expected heap bytes to be sampled")
	}
}
