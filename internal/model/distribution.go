// Package model defines ensemble members for the simulation core: views
// partitioning columns, categories partitioning rows within a view, and the
// fitted leaf distributions categories carry per column. Models are immutable
// once loaded and safe for concurrent read access.
package model

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/ensimdb/ensim/internal/catalog"
)

// Distribution is a fitted leaf distribution for one column within one
// category. Implementations are immutable.
type Distribution interface {
	// LogDensity returns the log probability (or density) of v.
	// Values outside the distribution's support yield -Inf.
	// A value of the wrong dynamic type yields catalog.ErrDomainMismatch.
	LogDensity(v any) (float64, error)

	// Draw samples one value from the distribution.
	Draw(rng *rand.Rand) any
}

// Categorical is a finite distribution over string values.
// Weights are normalized at construction; iteration order is fixed by
// sorting values so that draws are deterministic for a given rng stream.
type Categorical struct {
	values  []string
	weights []float64
	index   map[string]int
}

// NewCategorical builds a categorical distribution from value weights.
// Weights must be non-negative with a positive sum.
func NewCategorical(weights map[string]float64) (*Categorical, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("categorical distribution needs at least one value")
	}

	values := make([]string, 0, len(weights))
	for v := range weights {
		values = append(values, v)
	}
	sort.Strings(values)

	total := 0.0
	for _, v := range values {
		w := weights[v]
		if w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("categorical weight for %q must be non-negative, got %v", v, w)
		}
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("categorical weights must sum to a positive value")
	}

	c := &Categorical{
		values:  values,
		weights: make([]float64, len(values)),
		index:   make(map[string]int, len(values)),
	}
	for i, v := range values {
		c.weights[i] = weights[v] / total
		c.index[v] = i
	}
	return c, nil
}

// LogDensity returns the log probability of the string value v.
func (c *Categorical) LogDensity(v any) (float64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("%w: categorical distribution expects a string, got %T", catalog.ErrDomainMismatch, v)
	}
	i, ok := c.index[s]
	if !ok || c.weights[i] == 0 {
		return math.Inf(-1), nil
	}
	return math.Log(c.weights[i]), nil
}

// Draw samples a value proportional to the weights.
func (c *Categorical) Draw(rng *rand.Rand) any {
	u := rng.Float64()
	acc := 0.0
	for i, w := range c.weights {
		acc += w
		if u < acc {
			return c.values[i]
		}
	}
	// Guard against accumulated rounding leaving u just above acc.
	return c.values[len(c.values)-1]
}

// Prob returns the normalized probability of value v (0 if absent).
func (c *Categorical) Prob(v string) float64 {
	if i, ok := c.index[v]; ok {
		return c.weights[i]
	}
	return 0
}

// Gaussian is a normal distribution with fixed mean and variance.
type Gaussian struct {
	Mean     float64
	Variance float64
}

// NewGaussian builds a Gaussian leaf. Variance must be positive.
func NewGaussian(mean, variance float64) (*Gaussian, error) {
	if variance <= 0 || math.IsNaN(variance) || math.IsInf(variance, 0) {
		return nil, fmt.Errorf("gaussian variance must be positive and finite, got %v", variance)
	}
	return &Gaussian{Mean: mean, Variance: variance}, nil
}

const log2Pi = 1.8378770664093453

// LogDensity returns the log density of the numeric value v.
func (g *Gaussian) LogDensity(v any) (float64, error) {
	x, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: gaussian distribution expects a float64, got %T", catalog.ErrDomainMismatch, v)
	}
	d := x - g.Mean
	return -0.5 * (log2Pi + math.Log(g.Variance) + d*d/g.Variance), nil
}

// Draw samples from the normal distribution.
func (g *Gaussian) Draw(rng *rand.Rand) any {
	return g.Mean + rng.NormFloat64()*math.Sqrt(g.Variance)
}

// LogSumExp computes log(sum(exp(xs))) without underflow.
// Returns -Inf for an empty or all -Inf input.
func LogSumExp(xs []float64) float64 {
	max := math.Inf(-1)
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	if math.IsInf(max, -1) {
		return max
	}
	sum := 0.0
	for _, x := range xs {
		sum += math.Exp(x - max)
	}
	return max + math.Log(sum)
}
