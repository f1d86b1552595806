package model

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/ensimdb/ensim/internal/catalog"
)

// Category is one row cluster within a view: a relative size and a fitted
// leaf distribution per column of the view.
type Category struct {
	// Size is the number of rows assigned to the category during training.
	Size float64

	// Dists maps column ID to the category's leaf distribution.
	Dists map[int]Distribution
}

// View is a partition block of columns with its own row clustering.
type View struct {
	// Columns lists the IDs of the columns the view owns.
	Columns []int

	// Categories are the view's row clusters. At least one.
	Categories []Category

	logSizes  []float64
	logTotal  float64
	columnSet map[int]bool
}

// finalize precomputes the category log sizes and the column set.
func (v *View) finalize() error {
	if len(v.Categories) == 0 {
		return fmt.Errorf("view needs at least one category")
	}
	v.logSizes = make([]float64, len(v.Categories))
	total := 0.0
	for i, cat := range v.Categories {
		if cat.Size <= 0 || math.IsNaN(cat.Size) {
			return fmt.Errorf("category %d: size must be positive, got %v", i, cat.Size)
		}
		v.logSizes[i] = math.Log(cat.Size)
		total += cat.Size
	}
	v.logTotal = math.Log(total)
	v.columnSet = make(map[int]bool, len(v.Columns))
	for _, id := range v.Columns {
		v.columnSet[id] = true
	}
	for i, cat := range v.Categories {
		for _, id := range v.Columns {
			if _, ok := cat.Dists[id]; !ok {
				return fmt.Errorf("category %d: missing distribution for column %d", i, id)
			}
		}
	}
	return nil
}

// CategoryLogPosterior returns the unnormalized log posterior over the view's
// categories given the evidence values falling inside this view:
// log(size_k) + sum of evidence log-densities under category k.
// With no evidence the posterior reduces to the size prior.
func (v *View) CategoryLogPosterior(evidence map[int]any) ([]float64, error) {
	logp := make([]float64, len(v.Categories))
	copy(logp, v.logSizes)
	for colID, val := range evidence {
		if !v.columnSet[colID] {
			continue
		}
		for k := range v.Categories {
			ld, err := v.Categories[k].Dists[colID].LogDensity(val)
			if err != nil {
				return nil, err
			}
			logp[k] += ld
		}
	}
	return logp, nil
}

// SampleCategory draws a category index from the posterior given the
// evidence. If the evidence is impossible under every category, the draw
// falls back to the size prior so a row can still be produced.
func (v *View) SampleCategory(evidence map[int]any, rng *rand.Rand) (int, error) {
	logp, err := v.CategoryLogPosterior(evidence)
	if err != nil {
		return 0, err
	}
	if k := sampleLogIndex(logp, rng); k >= 0 {
		return k, nil
	}
	return sampleLogIndex(v.logSizes, rng), nil
}

// sampleLogIndex draws an index proportional to exp(logp). Returns -1 if
// every entry is -Inf.
func sampleLogIndex(logp []float64, rng *rand.Rand) int {
	lse := LogSumExp(logp)
	if math.IsInf(lse, -1) {
		return -1
	}
	u := rng.Float64()
	acc := 0.0
	for i, lp := range logp {
		acc += math.Exp(lp - lse)
		if u < acc {
			return i
		}
	}
	// Rounding can leave u marginally above acc.
	for i := len(logp) - 1; i >= 0; i-- {
		if !math.IsInf(logp[i], -1) {
			return i
		}
	}
	return -1
}

// Model is one trained ensemble member: a partition of columns into views,
// each with its own categories. Models are read-only during simulation.
type Model struct {
	// ID is the member's stable identifier, unique within an ensemble.
	ID string

	// Views partition the model's columns.
	Views []View

	colView map[int]int
}

// NewModel validates the views and builds the column-to-view index.
func NewModel(id string, views []View) (*Model, error) {
	if id == "" {
		return nil, fmt.Errorf("model id must not be empty")
	}
	m := &Model{ID: id, Views: views, colView: make(map[int]int)}
	for vi := range m.Views {
		if err := m.Views[vi].finalize(); err != nil {
			return nil, fmt.Errorf("model %q view %d: %w", id, vi, err)
		}
		for _, colID := range m.Views[vi].Columns {
			if prev, dup := m.colView[colID]; dup {
				return nil, fmt.Errorf("model %q: column %d appears in views %d and %d", id, colID, prev, vi)
			}
			m.colView[colID] = vi
		}
	}
	return m, nil
}

// ViewOf returns the index of the view owning the column, or false if the
// column is absent from the model's schema.
func (m *Model) ViewOf(colID int) (int, bool) {
	vi, ok := m.colView[colID]
	return vi, ok
}

// HasColumn reports whether the model's schema includes the column.
func (m *Model) HasColumn(colID int) bool {
	_, ok := m.colView[colID]
	return ok
}

// EvidenceLogLikelihood computes the log posterior predictive probability of
// the evidence under this model: per view, marginalize over categories
// weighted by relative size; combine across views additively in log space
// (views are independent blocks).
//
// Returns -Inf if the model assigns the evidence zero likelihood, and
// catalog.ErrUnknownColumn if an evidence column is absent from the schema.
func (m *Model) EvidenceLogLikelihood(evidence map[int]any) (float64, error) {
	if len(evidence) == 0 {
		return 0, nil
	}

	// Only views containing evidence columns contribute.
	touched := make(map[int]bool)
	for colID := range evidence {
		vi, ok := m.colView[colID]
		if !ok {
			return 0, fmt.Errorf("%w: column %d not in model %q", catalog.ErrUnknownColumn, colID, m.ID)
		}
		touched[vi] = true
	}

	total := 0.0
	for vi := range touched {
		view := &m.Views[vi]
		logp, err := view.CategoryLogPosterior(evidence)
		if err != nil {
			return 0, err
		}
		// P(evidence | view) = sum_k (size_k / total) * prod p(e | k)
		total += LogSumExp(logp) - view.logTotal
	}
	return total, nil
}
