package metrics

import "math"

// RoundDigits is the number of decimal digits reduced metrics are logged with.
const RoundDigits = 3

// Sink receives reduced scalar metrics.
type Sink interface {
	// LogScalar records value for name with the given aggregation weight,
	// to be displayed rounded to round decimal digits.
	LogScalar(name string, value float64, weight int, round int)
}

// ReduceMetrics aggregates logging records from data-parallel workers.
//
// The loss, ll and kl fields are summed over all records, divided by the
// total sample_size and converted from nats to bits. Each is logged to sink
// with the total sample_size as weight. Missing fields count as zero.
//
// The total sample_size must be positive; an empty record list or all-zero
// sample sizes is a caller error.
func ReduceMetrics(records []Record, sink Sink) {
	var lossSum, llSum, klSum, sampleSize float64
	for _, r := range records {
		lossSum += r.Get(KeyLoss)
		llSum += r.Get(KeyLL)
		klSum += r.Get(KeyKL)
		sampleSize += r.Get(KeySampleSize)
	}

	weight := int(sampleSize)
	sink.LogScalar(KeyLoss, lossSum/sampleSize/math.Ln2, weight, RoundDigits)
	sink.LogScalar(KeyLL, llSum/sampleSize/math.Ln2, weight, RoundDigits)
	sink.LogScalar(KeyKL, klSum/sampleSize/math.Ln2, weight, RoundDigits)
}

// MultiSink forwards every scalar to each of its sinks.
type MultiSink []Sink

// LogScalar implements Sink.
func (m MultiSink) LogScalar(name string, value float64, weight int, round int) {
	for _, s := range m {
		s.LogScalar(name, value, weight, round)
	}
}
