package metrics

import (
	"math"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// AverageMeter computes a weighted running average.
type AverageMeter struct {
	sum   float64
	count int
	round int
}

// NewAverageMeter creates a meter whose smoothed value is rounded to round
// decimal digits. A negative round disables rounding.
func NewAverageMeter(round int) *AverageMeter {
	return &AverageMeter{round: round}
}

// Update adds value with weight n.
func (m *AverageMeter) Update(value float64, n int) {
	m.sum += value * float64(n)
	m.count += n
}

// Avg returns the weighted average, or 0 before the first positive weight.
func (m *AverageMeter) Avg() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// Count returns the accumulated weight.
func (m *AverageMeter) Count() int {
	return m.count
}

// SmoothedValue returns Avg rounded to the meter's precision.
func (m *AverageMeter) SmoothedValue() float64 {
	return Round(m.Avg(), m.round)
}

// Reset clears the meter.
func (m *AverageMeter) Reset() {
	m.sum = 0
	m.count = 0
}

// Round rounds v half away from zero to digits decimal places.
func Round(v float64, digits int) float64 {
	if digits < 0 {
		return v
	}
	p := math.Pow10(digits)
	return math.Round(v*p) / p
}

// Value is a smoothed metric as read from an Aggregator.
type Value struct {
	Name   string
	Value  float64
	Weight int
}

// Aggregator is a Sink that keeps one AverageMeter per metric name in the
// order names were first logged. It is safe for concurrent use.
type Aggregator struct {
	mu     sync.Mutex
	meters *orderedmap.OrderedMap[string, *AverageMeter]
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{meters: orderedmap.New[string, *AverageMeter]()}
}

// LogScalar implements Sink.
func (a *Aggregator) LogScalar(name string, value float64, weight int, round int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	meter, ok := a.meters.Get(name)
	if !ok {
		meter = NewAverageMeter(round)
		a.meters.Set(name, meter)
	}
	meter.Update(value, weight)
}

// Get returns the smoothed value of name.
func (a *Aggregator) Get(name string) (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	meter, ok := a.meters.Get(name)
	if !ok {
		return 0, false
	}
	return meter.SmoothedValue(), true
}

// SmoothedValues returns every metric in first-logged order.
func (a *Aggregator) SmoothedValues() []Value {
	a.mu.Lock()
	defer a.mu.Unlock()

	values := make([]Value, 0, a.meters.Len())
	for pair := a.meters.Oldest(); pair != nil; pair = pair.Next() {
		values = append(values, Value{
			Name:   pair.Key,
			Value:  pair.Value.SmoothedValue(),
			Weight: pair.Value.Count(),
		})
	}
	return values
}

// Reset drops all meters.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.meters = orderedmap.New[string, *AverageMeter]()
}
