// Package counter holds the field value counter writers.
package counter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cockroachdb/apd/v3"
)

// Writer increments the counter for one observed field value.
type Writer interface {
	Increment(ctx context.Context, name, value string, amount float64) error
}

// Store is a Writer that can also read back and reset counters.
type Store interface {
	Writer
	Counts(ctx context.Context, name string) (map[string]float64, error)
	Reset(ctx context.Context, name string) error
}

// Lister is implemented by stores that can enumerate their counters.
type Lister interface {
	Names() []string
}

// ExactReader is implemented by stores that keep exact decimal totals.
type ExactReader interface {
	Total(name, value string) string
}

// ErrInvalidIncrement rejects empty counter names.
var ErrInvalidIncrement = errors.New("counter: counter name is required")

var decimalCtx = apd.BaseContext.WithPrecision(34)

// Memory keeps exact decimal totals in process.
type Memory struct {
	mu       sync.RWMutex
	counters map[string]map[string]*apd.Decimal
}

var (
	_ Store       = (*Memory)(nil)
	_ Lister      = (*Memory)(nil)
	_ ExactReader = (*Memory)(nil)
)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{counters: make(map[string]map[string]*apd.Decimal)}
}

func (m *Memory) Increment(_ context.Context, name, value string, amount float64) error {
	if name == "" {
		return ErrInvalidIncrement
	}
	var delta apd.Decimal
	if _, err := delta.SetFloat64(amount); err != nil {
		return fmt.Errorf("counter: invalid amount %v: %w", amount, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	values, ok := m.counters[name]
	if !ok {
		values = make(map[string]*apd.Decimal)
		m.counters[name] = values
	}
	total, ok := values[value]
	if !ok {
		total = new(apd.Decimal)
		values[value] = total
	}
	if _, err := decimalCtx.Add(total, total, &delta); err != nil {
		return fmt.Errorf("counter: add: %w", err)
	}
	return nil
}

// Counts returns a snapshot of the totals for name.
func (m *Memory) Counts(_ context.Context, name string) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	values := m.counters[name]
	out := make(map[string]float64, len(values))
	for value, total := range values {
		f, err := total.Float64()
		if err != nil {
			return nil, fmt.Errorf("counter: convert %s/%s: %w", name, value, err)
		}
		out[value] = f
	}
	return out, nil
}

// Total returns the exact decimal total for one value.
func (m *Memory) Total(name, value string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if total, ok := m.counters[name][value]; ok {
		return total.Text('f')
	}
	return "0"
}

// Names lists known counters in sorted order.
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.counters))
	for name := range m.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Memory) Reset(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counters, name)
	return nil
}

// Fanout forwards every increment to all writers and joins their errors.
type Fanout []Writer

func (f Fanout) Increment(ctx context.Context, name, value string, amount float64) error {
	var errs []error
	for _, w := range f {
		if err := w.Increment(ctx, name, value, amount); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
