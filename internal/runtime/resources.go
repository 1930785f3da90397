package runtime

import (
	"runtime"
	"runtime/metrics"
	"sync"
	"time"
)

const (
	metricCPUSeconds = "/sched/cpu:seconds"
	metricHeapBytes  = "/memory/classes/heap/objects:bytes"
	metricGoroutines = "/sched/goroutines:goroutines"
)

// resourceTracker samples process CPU, heap and goroutine counts for handler
// stats. It reads runtime/metrics only, so sampling never stops the world.
type resourceTracker struct {
	mu             sync.Mutex
	samples        []metrics.Sample
	lastCPUSeconds float64
	lastSample     time.Time
	numCPU         float64
}

func newResourceTracker() *resourceTracker {
	return &resourceTracker{
		samples: defaultSamples(),
		numCPU:  float64(runtime.NumCPU()),
	}
}

func defaultSamples() []metrics.Sample {
	return []metrics.Sample{
		{Name: metricCPUSeconds},
		{Name: metricHeapBytes},
		{Name: metricGoroutines},
	}
}

func (r *resourceTracker) Snapshot() ResourceUsage {
	if r == nil {
		return ResourceUsage{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.samples) == 0 {
		r.samples = defaultSamples()
	}
	if r.numCPU == 0 {
		r.numCPU = float64(runtime.NumCPU())
	}
	metrics.Read(r.samples)
	now := time.Now()

	var usage ResourceUsage
	for _, sample := range r.samples {
		switch sample.Name {
		case metricCPUSeconds:
			if sample.Value.Kind() != metrics.KindFloat64 {
				continue
			}
			cpuSeconds := sample.Value.Float64()
			if !r.lastSample.IsZero() {
				if wall := now.Sub(r.lastSample).Seconds(); wall > 0 && r.numCPU > 0 {
					usage.CPUPercent = (cpuSeconds - r.lastCPUSeconds) / wall / r.numCPU * 100
				}
			}
			r.lastCPUSeconds = cpuSeconds
		case metricHeapBytes:
			if sample.Value.Kind() == metrics.KindUint64 {
				usage.MemoryBytes = sample.Value.Uint64()
			}
		case metricGoroutines:
			if sample.Value.Kind() == metrics.KindUint64 {
				usage.Goroutines = int(sample.Value.Uint64())
			}
		}
	}
	if usage.Goroutines == 0 {
		usage.Goroutines = runtime.NumGoroutine()
	}
	r.lastSample = now

	return usage
}
