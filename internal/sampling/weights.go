package sampling

import (
	"math"

	"github.com/ensimdb/ensim/internal/model"
)

// ModelWeights computes, for each ensemble member, a weight proportional to
// the member's posterior predictive likelihood of the evidence. Weights are
// non-negative and sum to 1.
//
// Empty evidence yields exact uniform weights (the unconditional case).
// A member assigning the evidence zero likelihood gets weight 0. If every
// member assigns zero likelihood, weights fall back to uniform so a caller
// can still draw (the conditional is undefined; the size-prior fallback in
// the row sampler applies).
func ModelWeights(ens *model.Ensemble, evidence []Condition) ([]float64, error) {
	if ens == nil || ens.Len() == 0 {
		return nil, ErrEmptyEnsemble
	}

	n := ens.Len()
	weights := make([]float64, n)

	if len(evidence) == 0 {
		for i := range weights {
			weights[i] = 1.0 / float64(n)
		}
		return weights, nil
	}

	byID := make(map[int]any, len(evidence))
	for _, cond := range evidence {
		byID[cond.Column.ID] = cond.Value
	}

	logliks := make([]float64, n)
	for i, m := range ens.Models {
		ll, err := m.EvidenceLogLikelihood(byID)
		if err != nil {
			return nil, err
		}
		logliks[i] = ll
	}

	lse := model.LogSumExp(logliks)
	if math.IsInf(lse, -1) {
		for i := range weights {
			weights[i] = 1.0 / float64(n)
		}
		return weights, nil
	}

	for i, ll := range logliks {
		weights[i] = math.Exp(ll - lse)
	}
	return weights, nil
}
