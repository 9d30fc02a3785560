package metrics

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scalar struct {
	Name   string
	Value  float64
	Weight int
	Round  int
}

type recordingSink struct {
	logged []scalar
}

func (s *recordingSink) LogScalar(name string, value float64, weight int, round int) {
	s.logged = append(s.logged, scalar{Name: name, Value: value, Weight: weight, Round: round})
}

func TestRecord_Immutable(t *testing.T) {
	values := map[string]float64{KeyLoss: 1.5}
	r := NewRecord(values)
	values[KeyLoss] = 99

	assert.InDelta(t, 1.5, r.Get(KeyLoss), 0)
	assert.InDelta(t, 0, r.Get(KeyKL), 0)
	assert.False(t, r.Has(KeyKL))

	r2 := r.With(KeyKL, 0.25)
	assert.False(t, r.Has(KeyKL))
	assert.True(t, r2.Has(KeyKL))
	assert.Equal(t, []string{KeyKL, KeyLoss}, r2.Names())
	assert.Equal(t, 2, r2.Len())
}

func TestRecord_JSON(t *testing.T) {
	r := NewRecord(map[string]float64{KeyLoss: 2, KeySampleSize: 4})
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"loss": 2, "sample_size": 4}`, string(data))

	var decoded Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.InDelta(t, 4, decoded.Get(KeySampleSize), 0)

	empty, err := json.Marshal(Record{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(empty))
}

func TestReduceMetrics(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    []scalar
	}{
		{
			name: "single record",
			records: []Record{
				NewRecord(map[string]float64{KeyLoss: 3, KeyLL: 2, KeyKL: 1, KeySampleSize: 1}),
			},
			want: []scalar{
				{Name: KeyLoss, Value: 3 / math.Ln2, Weight: 1, Round: 3},
				{Name: KeyLL, Value: 2 / math.Ln2, Weight: 1, Round: 3},
				{Name: KeyKL, Value: 1 / math.Ln2, Weight: 1, Round: 3},
			},
		},
		{
			name: "total over total sample size",
			records: []Record{
				NewRecord(map[string]float64{KeyLoss: 2 * 1.2, KeyLL: 2 * 1.0, KeyKL: 2 * 0.2, KeySampleSize: 2}),
				NewRecord(map[string]float64{KeyLoss: 3 * 1.2, KeyLL: 3 * 1.0, KeyKL: 3 * 0.2, KeySampleSize: 3}),
			},
			want: []scalar{
				{Name: KeyLoss, Value: 1.2 / math.Ln2, Weight: 5, Round: 3},
				{Name: KeyLL, Value: 1.0 / math.Ln2, Weight: 5, Round: 3},
				{Name: KeyKL, Value: 0.2 / math.Ln2, Weight: 5, Round: 3},
			},
		},
		{
			name: "missing fields count as zero",
			records: []Record{
				NewRecord(map[string]float64{KeyLoss: 4, KeySampleSize: 2}),
				NewRecord(map[string]float64{KeySampleSize: 2}),
			},
			want: []scalar{
				{Name: KeyLoss, Value: 1 / math.Ln2, Weight: 4, Round: 3},
				{Name: KeyLL, Value: 0, Weight: 4, Round: 3},
				{Name: KeyKL, Value: 0, Weight: 4, Round: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			ReduceMetrics(tt.records, sink)
			if diff := cmp.Diff(tt.want, sink.logged, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("ReduceMetrics mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAverageMeter(t *testing.T) {
	m := NewAverageMeter(3)
	assert.InDelta(t, 0, m.Avg(), 0)

	m.Update(1.0, 1)
	m.Update(2.0, 3)
	assert.Equal(t, 4, m.Count())
	assert.InDelta(t, 1.75, m.Avg(), 1e-12)

	m.Update(0.0001, 0)
	assert.InDelta(t, 1.75, m.SmoothedValue(), 1e-12)

	m.Reset()
	assert.Equal(t, 0, m.Count())
}

func TestRound(t *testing.T) {
	assert.InDelta(t, 1.443, Round(1/math.Ln2, 3), 1e-12)
	assert.InDelta(t, -0.5, Round(-0.4996, 3), 1e-12)
	assert.InDelta(t, 0.123456, Round(0.123456, -1), 0)
}

func TestAggregator_ReduceInto(t *testing.T) {
	agg := NewAggregator()
	records := []Record{
		NewRecord(map[string]float64{KeyLoss: 2, KeyLL: 1.5, KeyKL: 0.5, KeySampleSize: 2}),
	}
	ReduceMetrics(records, agg)
	ReduceMetrics(records, agg)

	got := agg.SmoothedValues()
	want := []Value{
		{Name: KeyLoss, Value: Round(1/math.Ln2, 3), Weight: 4},
		{Name: KeyLL, Value: Round(0.75/math.Ln2, 3), Weight: 4},
		{Name: KeyKL, Value: Round(0.25/math.Ln2, 3), Weight: 4},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("SmoothedValues mismatch (-want +got):\n%s", diff)
	}

	v, ok := agg.Get(KeyKL)
	require.True(t, ok)
	assert.InDelta(t, 0.361, v, 1e-12)

	agg.Reset()
	_, ok = agg.Get(KeyKL)
	assert.False(t, ok)
	assert.Empty(t, agg.SmoothedValues())
}

func TestAggregator_Concurrent(t *testing.T) {
	agg := NewAggregator()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.LogScalar("loss", 1, 1, 3)
		}()
	}
	wg.Wait()

	v, ok := agg.Get("loss")
	require.True(t, ok)
	assert.InDelta(t, 1, v, 0)
	assert.Equal(t, 8, agg.SmoothedValues()[0].Weight)
}

func TestMultiSink(t *testing.T) {
	a, b := &recordingSink{}, NewAggregator()
	MultiSink{a, b}.LogScalar(KeyLoss, 2, 3, 3)

	require.Len(t, a.logged, 1)
	assert.Equal(t, scalar{Name: KeyLoss, Value: 2, Weight: 3, Round: 3}, a.logged[0])
	v, ok := b.Get(KeyLoss)
	require.True(t, ok)
	assert.InDelta(t, 2, v, 0)
}
