package sampling

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"

	"github.com/ensimdb/ensim/internal/logging"
)

// Config tunes the aggregate sampler.
type Config struct {
	// Workers is the number of goroutines drawing rows. Defaults to
	// GOMAXPROCS when zero or negative.
	Workers int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{Workers: runtime.GOMAXPROCS(0)}
}

// Engine draws simulated rows from an ensemble. It is stateless across
// requests and safe for concurrent use.
type Engine struct {
	workers int
	trace   *logging.TraceLogger
}

// NewEngine creates a sampling engine. trace may be nil.
func NewEngine(cfg Config, trace *logging.TraceLogger) *Engine {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{workers: workers, trace: trace}
}

// Draw produces exactly req.N() rows of target values, each drawn from one
// ensemble member picked proportionally to the evidence weights. Row i is
// seeded as (req.Seed(), i) independently of scheduling, so output is
// byte-for-byte reproducible for a given seed regardless of worker count.
//
// Cancellation is cooperative: the context is checked between row draws and
// a partial result is never returned. Returns ErrCancelled when the context
// ends the run.
func (e *Engine) Draw(ctx context.Context, req *Request) ([][]any, error) {
	weights, err := ModelWeights(req.Ensemble(), req.Evidence())
	if err != nil {
		return nil, err
	}

	n := req.N()
	rows := make([][]any, n)
	if n == 0 {
		return rows, nil
	}

	cum := make([]float64, len(weights))
	acc := 0.0
	for i, w := range weights {
		acc += w
		cum[i] = acc
	}

	models := req.Ensemble().Models
	targets := req.Targets()

	workers := e.workers
	if workers > n {
		workers = n
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	indices := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if ctx.Err() != nil {
					return
				}
				// Seed per draw index, not per worker, so scheduling
				// cannot change the output.
				rng := rand.New(rand.NewPCG(req.Seed(), uint64(i)))
				mi := pickModel(cum, rng.Float64())
				row, err := DrawRow(models[mi], req.evidenceByID, targets, rng)
				if err != nil {
					fail(fmt.Errorf("draw %d (model %q): %w", i, models[mi].ID, err))
					return
				}
				rows[i] = row
				e.trace.Log(map[string]any{
					"event": "draw",
					"index": i,
					"model": models[mi].ID,
				})
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case indices <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indices)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return rows, nil
}

// pickModel maps u in [0,1) onto the cumulative weight vector.
func pickModel(cum []float64, u float64) int {
	for i, c := range cum {
		if u < c {
			return i
		}
	}
	return len(cum) - 1
}
