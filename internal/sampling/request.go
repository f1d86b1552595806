package sampling

import (
	"fmt"

	"github.com/ensimdb/ensim/internal/catalog"
	"github.com/ensimdb/ensim/internal/model"
)

// Condition is one observed column/value pair conditioning a simulation.
type Condition struct {
	Column catalog.Column
	Value  any
}

// Request is an immutable simulation request: an ensemble snapshot, typed
// evidence, ordered target columns, a row count, and a random seed.
// Construct with NewRequest; a Request that exists is valid.
type Request struct {
	ensemble     *model.Ensemble
	evidence     []Condition
	targets      []catalog.Column
	n            int
	seed         uint64
	echoEvidence bool

	evidenceByID map[int]any
}

// NewRequest validates and freezes a simulation request.
//
// Rules: n must be non-negative; at least one target column; no column may
// be both evidence and target; no duplicate targets or evidence columns;
// every evidence value must fit its column's domain.
func NewRequest(ens *model.Ensemble, evidence []Condition, targets []catalog.Column, n int, seed uint64, echoEvidence bool) (*Request, error) {
	if ens == nil || ens.Len() == 0 {
		return nil, ErrEmptyEnsemble
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRowCount, n)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("request needs at least one target column")
	}

	evidenceCols := make(map[int]bool, len(evidence))
	evidenceByID := make(map[int]any, len(evidence))
	normalized := make([]Condition, 0, len(evidence))
	for _, cond := range evidence {
		if evidenceCols[cond.Column.ID] {
			return nil, fmt.Errorf("duplicate evidence column %q", cond.Column.Name)
		}
		v, err := cond.Column.Domain.Normalize(cond.Value)
		if err != nil {
			return nil, fmt.Errorf("evidence column %q: %w", cond.Column.Name, err)
		}
		evidenceCols[cond.Column.ID] = true
		evidenceByID[cond.Column.ID] = v
		normalized = append(normalized, Condition{Column: cond.Column, Value: v})
	}

	targetCols := make(map[int]bool, len(targets))
	frozenTargets := make([]catalog.Column, len(targets))
	copy(frozenTargets, targets)
	for _, col := range frozenTargets {
		if evidenceCols[col.ID] {
			return nil, fmt.Errorf("%w: %q", ErrColumnOverlap, col.Name)
		}
		if targetCols[col.ID] {
			return nil, fmt.Errorf("duplicate target column %q", col.Name)
		}
		targetCols[col.ID] = true
	}

	return &Request{
		ensemble:     ens,
		evidence:     normalized,
		targets:      frozenTargets,
		n:            n,
		seed:         seed,
		echoEvidence: echoEvidence,
		evidenceByID: evidenceByID,
	}, nil
}

// Ensemble returns the request's ensemble snapshot.
func (r *Request) Ensemble() *model.Ensemble { return r.ensemble }

// Evidence returns a copy of the typed evidence conditions.
func (r *Request) Evidence() []Condition {
	out := make([]Condition, len(r.evidence))
	copy(out, r.evidence)
	return out
}

// Targets returns a copy of the ordered target columns.
func (r *Request) Targets() []catalog.Column {
	out := make([]catalog.Column, len(r.targets))
	copy(out, r.targets)
	return out
}

// N returns the requested row count.
func (r *Request) N() int { return r.n }

// Seed returns the request's random seed.
func (r *Request) Seed() uint64 { return r.seed }

// EchoEvidence reports whether the evidence columns should be echoed into
// the result schema ahead of the targets.
func (r *Request) EchoEvidence() bool { return r.echoEvidence }
