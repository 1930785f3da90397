package counter

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus exports increments as a counter vector labelled by counter name
// and field value.
type Prometheus struct {
	vec *prometheus.CounterVec
}

// NewPrometheus registers the field value counter vector. A nil registerer
// uses the default registry. Registering twice reuses the existing vector.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "field_value_counter_total",
		Help: "Occurrences of field values seen by the field value counter sink.",
	}, []string{"counter", "value"})

	if err := reg.Register(vec); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		vec = existing
	}
	return &Prometheus{vec: vec}, nil
}

func (p *Prometheus) Increment(_ context.Context, name, value string, amount float64) error {
	if name == "" {
		return ErrInvalidIncrement
	}
	p.vec.WithLabelValues(name, value).Add(amount)
	return nil
}

// Collector exposes the underlying vector, mainly for tests.
func (p *Prometheus) Collector() *prometheus.CounterVec {
	return p.vec
}
