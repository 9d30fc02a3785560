// Package metrics holds per-step logging records and their reduction into
// scalar metrics reported in bits.
package metrics

import (
	"encoding/json"
	"sort"
)

// Record keys produced by the loss criterion.
const (
	KeyLoss       = "loss"
	KeyLL         = "ll"
	KeyKL         = "kl"
	KeyNTokens    = "ntokens"
	KeyNSentences = "nsentences"
	KeySampleSize = "sample_size"
)

// Record is an immutable mapping from metric names to unreduced values.
//
// A Record is produced once per forward pass and only ever summed with
// other records. The zero value is an empty record.
type Record struct {
	values map[string]float64
}

// NewRecord creates a Record holding a copy of values.
func NewRecord(values map[string]float64) Record {
	r := Record{values: make(map[string]float64, len(values))}
	for k, v := range values {
		r.values[k] = v
	}
	return r
}

// Get returns the value of name, or 0 if it is missing.
func (r Record) Get(name string) float64 {
	return r.values[name]
}

// Has reports whether name is present.
func (r Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// With returns a copy of r with name set to value.
func (r Record) With(name string, value float64) Record {
	out := NewRecord(r.values)
	out.values[name] = value
	return out
}

// Names returns the metric names in sorted order.
func (r Record) Names() []string {
	names := make([]string, 0, len(r.values))
	for k := range r.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of metrics in r.
func (r Record) Len() int {
	return len(r.values)
}

// MarshalJSON encodes r as a flat JSON object.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.values)
}

// UnmarshalJSON decodes a flat JSON object of numbers.
func (r *Record) UnmarshalJSON(data []byte) error {
	var values map[string]float64
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*r = NewRecord(values)
	return nil
}
