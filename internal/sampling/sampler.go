package sampling

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/ensimdb/ensim/internal/catalog"
	"github.com/ensimdb/ensim/internal/model"
)

// DrawRow samples one row of target values from a single model, conditioned
// on the evidence. Views touched by the targets are visited in ascending
// index order; within each, a category is drawn from its evidence posterior,
// then every target owned by that view is drawn from the chosen category's
// leaf. Target values appear in request order.
//
// The rng stream is consumed in a fixed order (one category draw per touched
// view, then one value draw per target), so identical inputs and rng state
// reproduce the row exactly.
func DrawRow(m *model.Model, evidence map[int]any, targets []catalog.Column, rng *rand.Rand) ([]any, error) {
	touched := make(map[int]bool, len(targets))
	for _, col := range targets {
		vi, ok := m.ViewOf(col.ID)
		if !ok {
			return nil, fmt.Errorf("%w: column %q not in model %q", catalog.ErrUnknownColumn, col.Name, m.ID)
		}
		touched[vi] = true
	}

	viewOrder := make([]int, 0, len(touched))
	for vi := range touched {
		viewOrder = append(viewOrder, vi)
	}
	sort.Ints(viewOrder)

	chosen := make(map[int]int, len(viewOrder))
	for _, vi := range viewOrder {
		k, err := m.Views[vi].SampleCategory(evidence, rng)
		if err != nil {
			return nil, err
		}
		chosen[vi] = k
	}

	row := make([]any, len(targets))
	for i, col := range targets {
		vi, _ := m.ViewOf(col.ID)
		cat := &m.Views[vi].Categories[chosen[vi]]
		row[i] = cat.Dists[col.ID].Draw(rng)
	}
	return row, nil
}
