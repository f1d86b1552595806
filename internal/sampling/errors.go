// Package sampling implements the conditional-simulation core: evidence
// weighting across ensemble members, single-model posterior predictive row
// draws, and the multi-model aggregate sampler.
package sampling

import "errors"

// ErrEmptyEnsemble is returned when a simulation is requested against an
// ensemble with no members.
var ErrEmptyEnsemble = errors.New("empty ensemble")

// ErrInvalidRowCount is returned when a request's row count is negative or
// exceeds the configured cap. Validated before any sampling begins.
var ErrInvalidRowCount = errors.New("invalid row count")

// ErrColumnOverlap is returned when a column appears both as evidence and as
// a target. A column is either given or requested, never both.
var ErrColumnOverlap = errors.New("column is both evidence and target")

// ErrCancelled is returned when cooperative cancellation is observed between
// row draws. It is not an internal failure; callers can distinguish a user
// abort from an error with errors.Is.
var ErrCancelled = errors.New("simulation cancelled")
