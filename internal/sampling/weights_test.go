package sampling

import (
	"errors"
	"math"
	"testing"

	"github.com/ensimdb/ensim/internal/model"
)

func TestModelWeights_EmptyEvidence(t *testing.T) {
	ens := testEnsemble(t)

	w, err := ModelWeights(ens, nil)
	if err != nil {
		t.Fatalf("ModelWeights: %v", err)
	}
	// Exactly uniform, not approximately.
	if w[0] != 0.5 || w[1] != 0.5 {
		t.Errorf("weights = %v, want [0.5 0.5]", w)
	}
}

func TestModelWeights_EmptyEnsemble(t *testing.T) {
	if _, err := ModelWeights(nil, nil); !errors.Is(err, ErrEmptyEnsemble) {
		t.Errorf("error = %v, want ErrEmptyEnsemble", err)
	}
	if _, err := ModelWeights(&model.Ensemble{ID: "e"}, nil); !errors.Is(err, ErrEmptyEnsemble) {
		t.Errorf("error = %v, want ErrEmptyEnsemble", err)
	}
}

func TestModelWeights_ZeroLikelihoodMember(t *testing.T) {
	species, _ := testColumns(t)
	ens := testEnsemble(t)

	// m1 is pure "a", m2 is pure "b": evidence species=b rules out m1.
	w, err := ModelWeights(ens, []Condition{{Column: species, Value: "b"}})
	if err != nil {
		t.Fatalf("ModelWeights: %v", err)
	}
	if w[0] != 0 {
		t.Errorf("w[m1] = %v, want 0", w[0])
	}
	if math.Abs(w[1]-1) > 1e-12 {
		t.Errorf("w[m2] = %v, want 1", w[1])
	}
}

func TestModelWeights_SumToOne(t *testing.T) {
	_, mass := testColumns(t)
	ens := testEnsemble(t)

	// Numeric evidence between the two means gives both models positive
	// weight, with m1 favored.
	w, err := ModelWeights(ens, []Condition{{Column: mass, Value: 3.0}})
	if err != nil {
		t.Fatalf("ModelWeights: %v", err)
	}

	sum := 0.0
	for _, wi := range w {
		if wi < 0 {
			t.Errorf("negative weight %v", wi)
		}
		sum += wi
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("sum = %v, want 1", sum)
	}
	if w[0] <= w[1] {
		t.Errorf("mass=3 should favor m1 (mean 0) over m2 (mean 10): %v", w)
	}
}

func TestModelWeights_LikelihoodRatio(t *testing.T) {
	_, mass := testColumns(t)
	ens := testEnsemble(t)

	// At the midpoint both gaussians are equidistant, so weights are equal.
	w, err := ModelWeights(ens, []Condition{{Column: mass, Value: 5.0}})
	if err != nil {
		t.Fatalf("ModelWeights: %v", err)
	}
	if math.Abs(w[0]-0.5) > 1e-9 || math.Abs(w[1]-0.5) > 1e-9 {
		t.Errorf("weights at midpoint = %v, want [0.5 0.5]", w)
	}
}

func TestModelWeights_AllImpossibleFallsBackToUniform(t *testing.T) {
	species, _ := testColumns(t)

	// Both members are pure "a"; species=b has zero likelihood everywhere.
	ens := &model.Ensemble{
		ID:      "test",
		Version: 1,
		Models: []*model.Model{
			pureModel(t, "m1", "a", 0),
			pureModel(t, "m2", "a", 10),
		},
	}

	w, err := ModelWeights(ens, []Condition{{Column: species, Value: "b"}})
	if err != nil {
		t.Fatalf("ModelWeights: %v", err)
	}
	if w[0] != 0.5 || w[1] != 0.5 {
		t.Errorf("weights = %v, want uniform fallback [0.5 0.5]", w)
	}
}
