package model

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/ensimdb/ensim/internal/catalog"
)

func TestNewCategorical_Normalizes(t *testing.T) {
	c, err := NewCategorical(map[string]float64{"a": 2, "b": 6})
	if err != nil {
		t.Fatalf("NewCategorical: %v", err)
	}

	if got := c.Prob("a"); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("Prob(a) = %v, want 0.25", got)
	}
	if got := c.Prob("b"); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("Prob(b) = %v, want 0.75", got)
	}
	if got := c.Prob("missing"); got != 0 {
		t.Errorf("Prob(missing) = %v, want 0", got)
	}
}

func TestNewCategorical_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		weights map[string]float64
	}{
		{"empty", map[string]float64{}},
		{"negative weight", map[string]float64{"a": -1, "b": 2}},
		{"zero sum", map[string]float64{"a": 0, "b": 0}},
		{"nan weight", map[string]float64{"a": math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCategorical(tt.weights); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestCategorical_LogDensity(t *testing.T) {
	c, err := NewCategorical(map[string]float64{"a": 1, "b": 3})
	if err != nil {
		t.Fatalf("NewCategorical: %v", err)
	}

	ld, err := c.LogDensity("b")
	if err != nil {
		t.Fatalf("LogDensity(b): %v", err)
	}
	if math.Abs(ld-math.Log(0.75)) > 1e-12 {
		t.Errorf("LogDensity(b) = %v, want log(0.75)", ld)
	}

	ld, err = c.LogDensity("zzz")
	if err != nil {
		t.Fatalf("LogDensity(zzz): %v", err)
	}
	if !math.IsInf(ld, -1) {
		t.Errorf("LogDensity(zzz) = %v, want -Inf", ld)
	}

	if _, err := c.LogDensity(3.0); !errors.Is(err, catalog.ErrDomainMismatch) {
		t.Errorf("LogDensity(3.0) error = %v, want ErrDomainMismatch", err)
	}
}

func TestCategorical_DrawDeterministicAndDistributed(t *testing.T) {
	c, err := NewCategorical(map[string]float64{"a": 1, "b": 3})
	if err != nil {
		t.Fatalf("NewCategorical: %v", err)
	}

	// Same seed, same draws.
	r1 := rand.New(rand.NewPCG(7, 0))
	r2 := rand.New(rand.NewPCG(7, 0))
	for i := 0; i < 100; i++ {
		if c.Draw(r1) != c.Draw(r2) {
			t.Fatal("draws diverged under identical rng streams")
		}
	}

	// Empirical frequency of "b" should approach 0.75.
	rng := rand.New(rand.NewPCG(11, 0))
	const n = 20000
	count := 0
	for i := 0; i < n; i++ {
		if c.Draw(rng) == "b" {
			count++
		}
	}
	freq := float64(count) / n
	if math.Abs(freq-0.75) > 0.02 {
		t.Errorf("empirical frequency of b = %v, want ~0.75", freq)
	}
}

func TestGaussian_LogDensity(t *testing.T) {
	g, err := NewGaussian(2.0, 4.0)
	if err != nil {
		t.Fatalf("NewGaussian: %v", err)
	}

	// At the mean: -0.5*(log(2*pi) + log(variance)).
	want := -0.5 * (log2Pi + math.Log(4.0))
	got, err := g.LogDensity(2.0)
	if err != nil {
		t.Fatalf("LogDensity: %v", err)
	}
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("LogDensity(mean) = %v, want %v", got, want)
	}

	if _, err := g.LogDensity("2.0"); !errors.Is(err, catalog.ErrDomainMismatch) {
		t.Errorf("LogDensity(string) error = %v, want ErrDomainMismatch", err)
	}
}

func TestNewGaussian_Rejections(t *testing.T) {
	for _, variance := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := NewGaussian(0, variance); err == nil {
			t.Errorf("NewGaussian(0, %v): expected error", variance)
		}
	}
}

func TestGaussian_DrawMoments(t *testing.T) {
	g, err := NewGaussian(10.0, 9.0)
	if err != nil {
		t.Fatalf("NewGaussian: %v", err)
	}

	rng := rand.New(rand.NewPCG(3, 0))
	const n = 20000
	sum, sumSq := 0.0, 0.0
	for i := 0; i < n; i++ {
		x := g.Draw(rng).(float64)
		sum += x
		sumSq += x * x
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	if math.Abs(mean-10.0) > 0.1 {
		t.Errorf("sample mean = %v, want ~10", mean)
	}
	if math.Abs(variance-9.0) > 0.5 {
		t.Errorf("sample variance = %v, want ~9", variance)
	}
}

func TestLogSumExp(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"two equal", []float64{math.Log(0.5), math.Log(0.5)}, 0},
		{"large magnitudes", []float64{-1000, -1000}, -1000 + math.Log(2)},
		{"single", []float64{-3}, -3},
		{"all -Inf", []float64{math.Inf(-1), math.Inf(-1)}, math.Inf(-1)},
		{"empty", nil, math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LogSumExp(tt.in)
			if math.IsInf(tt.want, -1) {
				if !math.IsInf(got, -1) {
					t.Errorf("LogSumExp(%v) = %v, want -Inf", tt.in, got)
				}
				return
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("LogSumExp(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
