package distribution

import (
	"fmt"
	"math"

	"github.com/born-ml/anp/internal/tensor"
)

// KL returns the elementwise divergence KL(p ‖ q) over the batch shape.
//
// Supported pairs are Normal‖Normal and Categorical‖Categorical with equal
// batch shapes. Other pairs return ErrNotImplemented.
func KL[B tensor.Backend](p, q Distribution[B]) (*tensor.Tensor[float32, B], error) {
	switch p := p.(type) {
	case *Normal[B]:
		if q, ok := q.(*Normal[B]); ok {
			return klNormalNormal(p, q)
		}
	case *Categorical[B]:
		if q, ok := q.(*Categorical[B]); ok {
			return klCategoricalCategorical(p, q)
		}
	}
	return nil, fmt.Errorf("%w: KL(%T ‖ %T)", ErrNotImplemented, p, q)
}

// klNormalNormal computes 0.5·(r + d² − 1 − log r) with r = (σp/σq)² and
// d = (μp − μq)/σq. Identical operands give exactly zero.
func klNormalNormal[B tensor.Backend](p, q *Normal[B]) (*tensor.Tensor[float32, B], error) {
	if !p.BatchShape().Equal(q.BatchShape()) {
		return nil, tensor.NewShapeMismatch("kl normal", q.BatchShape(), p.BatchShape(), "batch shapes differ")
	}
	pLoc, pScale := p.loc.Data(), p.scale.Data()
	qLoc, qScale := q.loc.Data(), q.scale.Data()

	out := make([]float64, len(pLoc))
	for i := range pLoc {
		ratio := float64(pScale[i]) / float64(qScale[i])
		varRatio := ratio * ratio
		d := (float64(pLoc[i]) - float64(qLoc[i])) / float64(qScale[i])
		out[i] = 0.5 * (varRatio + d*d - 1 - math.Log(varRatio))
	}
	return fromFloat64(out, p.BatchShape(), p.loc.Backend()), nil
}

func klCategoricalCategorical[B tensor.Backend](p, q *Categorical[B]) (*tensor.Tensor[float32, B], error) {
	if !p.logits.Shape().Equal(q.logits.Shape()) {
		return nil, tensor.NewShapeMismatch("kl categorical", q.logits.Shape(), p.logits.Shape(), "logit shapes differ")
	}
	out := make([]float64, p.BatchShape().NumElements())
	for i := range out {
		lp, lq := p.logNormalized(i), q.logNormalized(i)
		kl := 0.0
		for j := range lp {
			kl += math.Exp(lp[j]) * (lp[j] - lq[j])
		}
		out[i] = kl
	}
	return fromFloat64(out, p.BatchShape(), p.logits.Backend()), nil
}
