// Package train drives data-parallel Neural Process steps.
//
// A step evaluates the criterion on one sample per model replica
// concurrently and reduces the resulting logging records once. Gradient
// computation and parameter updates are not part of a step.
package train

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/born-ml/anp/internal/data"
	"github.com/born-ml/anp/internal/metrics"
	"github.com/born-ml/anp/internal/np"
	"github.com/born-ml/anp/internal/tensor"
)

// ErrNoReplicas is returned by New when no model replica is given.
var ErrNoReplicas = errors.New("no model replicas")

// StepResult summarizes one step.
type StepResult struct {
	Step       int
	SampleSize int
	Records    []metrics.Record
	Metrics    []metrics.Value
}

// Trainer runs steps over a set of model replicas. Each replica is used by
// one goroutine at a time.
type Trainer[B tensor.Backend] struct {
	replicas  []np.Model[B]
	criterion *np.Criterion[B]
	source    data.Source[B]
	sink      metrics.Sink
	logger    *zap.Logger
	runID     uuid.UUID
	step      int
}

// New creates a Trainer. Reduced metrics of every step are logged to sink.
// A nil logger disables logging.
func New[B tensor.Backend](replicas []np.Model[B], source data.Source[B], sink metrics.Sink, logger *zap.Logger) (*Trainer[B], error) {
	if len(replicas) == 0 {
		return nil, ErrNoReplicas
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.New()
	return &Trainer[B]{
		replicas:  replicas,
		criterion: np.NewCriterion[B](),
		source:    source,
		sink:      sink,
		logger:    logger.With(zap.String("run_id", runID.String())),
		runID:     runID,
	}, nil
}

// RunID identifies this trainer in logs.
func (t *Trainer[B]) RunID() uuid.UUID {
	return t.runID
}

// Step evaluates one sample per replica and reduces the records.
func (t *Trainer[B]) Step(ctx context.Context) (*StepResult, error) {
	samples := make([]*np.Sample[B], len(t.replicas))
	for i := range samples {
		sample, err := t.source.Next()
		if err != nil {
			return nil, fmt.Errorf("step %d: next sample: %w", t.step, err)
		}
		samples[i] = sample
	}

	records := make([]metrics.Record, len(t.replicas))
	g, ctx := errgroup.WithContext(ctx)
	for i, replica := range t.replicas {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			loss, sampleSize, record, err := t.criterion.Forward(replica, samples[i])
			if err != nil {
				return fmt.Errorf("replica %d: %w", i, err)
			}
			t.logger.Debug("replica forward",
				zap.Int("step", t.step),
				zap.Int("replica", i),
				zap.Float64("loss", loss),
				zap.Int("sample_size", sampleSize),
			)
			records[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("step %d: %w", t.step, err)
	}

	sampleSize := 0
	for _, r := range records {
		sampleSize += int(r.Get(metrics.KeySampleSize))
	}
	if sampleSize == 0 {
		return nil, fmt.Errorf("step %d: total sample size is zero", t.step)
	}

	stepMetrics := metrics.NewAggregator()
	metrics.ReduceMetrics(records, metrics.MultiSink{t.sink, stepMetrics})
	values := stepMetrics.SmoothedValues()

	fields := []zap.Field{zap.Int("step", t.step), zap.Int("sample_size", sampleSize)}
	for _, v := range values {
		fields = append(fields, zap.Float64(v.Name, v.Value))
	}
	t.logger.Info("step", fields...)

	result := &StepResult{Step: t.step, SampleSize: sampleSize, Records: records, Metrics: values}
	t.step++
	return result, nil
}

// Run performs steps until the count is reached or ctx is done.
func (t *Trainer[B]) Run(ctx context.Context, steps int) error {
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}
