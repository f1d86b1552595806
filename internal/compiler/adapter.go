package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/ensimdb/ensim/internal/catalog"
	"github.com/ensimdb/ensim/internal/materialize"
	"github.com/ensimdb/ensim/internal/model"
	"github.com/ensimdb/ensim/internal/sampling"
	"github.com/ensimdb/ensim/internal/storage"
)

// Adapter lowers parsed SIMULATE statements onto the sampling and storage
// layers: it resolves column names, types evidence literals, snapshots the
// ensemble, and materializes the result.
type Adapter struct {
	catalog  *catalog.Catalog
	provider *model.Provider
	mat      *materialize.Materializer
	dest     storage.Engine
	maxRows  int
	log      *slog.Logger
}

// NewAdapter wires an adapter. maxRows caps LIMIT; zero means no cap.
// log may be nil.
func NewAdapter(cat *catalog.Catalog, provider *model.Provider, mat *materialize.Materializer, dest storage.Engine, maxRows int, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		catalog:  cat,
		provider: provider,
		mat:      mat,
		dest:     dest,
		maxRows:  maxRows,
		log:      log,
	}
}

// Run parses and executes one SIMULATE query.
func (a *Adapter) Run(ctx context.Context, query string) (storage.TableHandle, error) {
	stmt, err := Parse(query)
	if err != nil {
		return storage.TableHandle{}, err
	}
	return a.Simulate(ctx, stmt)
}

// Simulate executes a parsed statement. Without a CREATE TABLE prefix the
// result goes to an anonymous temporary table. Evidence columns are echoed
// into the result ahead of the targets.
func (a *Adapter) Simulate(ctx context.Context, stmt *SimulateStatement) (storage.TableHandle, error) {
	req, err := a.compile(stmt)
	if err != nil {
		return storage.TableHandle{}, err
	}

	spec := storage.DestinationSpec{Temporary: true}
	if stmt.Into != nil {
		spec = storage.DestinationSpec{Name: stmt.Into.Name, Temporary: stmt.Into.Temporary}
	}

	a.log.Info("executing simulation",
		"modelset", stmt.ModelSet,
		"targets", len(stmt.Targets),
		"given", len(stmt.Given),
		"rows", stmt.Limit,
	)
	return a.mat.Materialize(ctx, req, a.dest, spec)
}

// compile resolves and validates a statement into a sampling request.
func (a *Adapter) compile(stmt *SimulateStatement) (*sampling.Request, error) {
	ens := a.provider.Snapshot()
	if ens == nil {
		return nil, sampling.ErrEmptyEnsemble
	}
	if stmt.ModelSet != "" && stmt.ModelSet != ens.ID {
		return nil, fmt.Errorf("unknown model set %q", stmt.ModelSet)
	}

	if a.maxRows > 0 && stmt.Limit > a.maxRows {
		return nil, fmt.Errorf("%w: %d exceeds the configured cap of %d",
			sampling.ErrInvalidRowCount, stmt.Limit, a.maxRows)
	}

	targets := make([]catalog.Column, 0, len(stmt.Targets))
	for _, name := range stmt.Targets {
		col, err := a.catalog.Resolve(name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, col)
	}

	evidence := make([]sampling.Condition, 0, len(stmt.Given))
	for _, g := range stmt.Given {
		col, err := a.catalog.Resolve(g.Column)
		if err != nil {
			return nil, err
		}
		v, err := col.Domain.Coerce(g.Literal)
		if err != nil {
			return nil, fmt.Errorf("evidence %s = %q: %w", g.Column, g.Literal, err)
		}
		evidence = append(evidence, sampling.Condition{Column: col, Value: v})
	}

	seed := stmt.Seed
	if !stmt.HasSeed {
		seed = rand.Uint64()
	}

	return sampling.NewRequest(ens, evidence, targets, stmt.Limit, seed, len(evidence) > 0)
}
