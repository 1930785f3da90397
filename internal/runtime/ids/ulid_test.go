package ids

import (
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestNewSequentialOrdering(t *testing.T) {
	const total = 100
	generated := make([]string, total)
	for i := 0; i < total; i++ {
		generated[i] = New()
	}

	for i := 0; i < total; i++ {
		if len(generated[i]) != 26 {
			t.Fatalf("expected ULID length 26, got %d", len(generated[i]))
		}
		if _, err := ulid.Parse(generated[i]); err != nil {
			t.Fatalf("expected valid ULID, got %v", err)
		}
	}

	for i := 1; i < total; i++ {
		if generated[i-1] >= generated[i] {
			t.Fatalf("expected ULIDs to be strictly increasing, %s >= %s", generated[i-1], generated[i])
		}
	}
}

func TestNewConcurrentUniqueness(t *testing.T) {
	const goroutines = 10
	const perGoroutine = 20

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := New()
				mu.Lock()
				if _, ok := seen[id]; ok {
					t.Errorf("duplicate ULID generated: %s", id)
				} else {
					seen[id] = struct{}{}
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if expected := goroutines * perGoroutine; len(seen) != expected {
		t.Fatalf("expected %d unique ULIDs, got %d", expected, len(seen))
	}
}

func TestTime(t *testing.T) {
	before := time.Now().Add(-time.Second)
	ts, err := Time(New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts.Before(before) {
		t.Fatalf("expected recent timestamp, got %v", ts)
	}

	if _, err := Time("not-a-ulid"); err == nil {
		t.Fatal("expected parse error")
	}
}
