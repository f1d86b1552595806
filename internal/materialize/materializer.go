// Package materialize turns a simulation request into a visible result
// table. Visibility is all-or-nothing: the destination is staged, populated
// row by row, and finalized only after every row landed. Any failure or
// cancellation drops the staged table so readers never see a partial result.
package materialize

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ensimdb/ensim/internal/catalog"
	"github.com/ensimdb/ensim/internal/sampling"
	"github.com/ensimdb/ensim/internal/storage"
)

// Materializer drives a sampling engine and writes its output into a
// storage destination.
type Materializer struct {
	engine *sampling.Engine
	log    *slog.Logger
}

// NewMaterializer creates a materializer. log may be nil.
func NewMaterializer(engine *sampling.Engine, log *slog.Logger) *Materializer {
	if log == nil {
		log = slog.Default()
	}
	return &Materializer{engine: engine, log: log}
}

// ResultColumns returns the output schema of a request: echoed evidence
// columns first (when requested), then the targets in request order.
func ResultColumns(req *sampling.Request) []catalog.Column {
	var cols []catalog.Column
	if req.EchoEvidence() {
		for _, cond := range req.Evidence() {
			cols = append(cols, cond.Column)
		}
	}
	return append(cols, req.Targets()...)
}

// Materialize draws req.N() rows and writes them to a new destination in
// dest. Rows are appended in draw order. On any failure, including
// cancellation, the staged destination is dropped and the error returned;
// the table either exists complete or not at all.
func (m *Materializer) Materialize(ctx context.Context, req *sampling.Request, dest storage.Engine, spec storage.DestinationSpec) (storage.TableHandle, error) {
	name := spec.Name
	if name == "" {
		id := uuid.New()
		name = "sim_" + hex.EncodeToString(id[:8])
	}

	schema := storage.Schema{
		Name:      name,
		Columns:   ResultColumns(req),
		Temporary: spec.Temporary,
	}

	h, err := dest.CreateDestination(ctx, schema)
	if err != nil {
		return storage.TableHandle{}, fmt.Errorf("creating destination: %w", err)
	}

	if err := m.populate(ctx, req, dest, h); err != nil {
		if dropErr := dest.DropDestination(context.WithoutCancel(ctx), h); dropErr != nil {
			m.log.Error("dropping failed destination", "table", name, "error", dropErr)
		}
		return storage.TableHandle{}, err
	}

	if err := dest.FinalizeDestination(ctx, h); err != nil {
		if dropErr := dest.DropDestination(context.WithoutCancel(ctx), h); dropErr != nil {
			m.log.Error("dropping failed destination", "table", name, "error", dropErr)
		}
		return storage.TableHandle{}, fmt.Errorf("finalizing destination: %w", err)
	}

	m.log.Info("materialized simulation", "table", name, "rows", req.N(), "temporary", spec.Temporary)
	return h, nil
}

// populate draws all rows and appends them in order.
func (m *Materializer) populate(ctx context.Context, req *sampling.Request, dest storage.Engine, h storage.TableHandle) error {
	rows, err := m.engine.Draw(ctx, req)
	if err != nil {
		return err
	}

	var echo []any
	if req.EchoEvidence() {
		for _, cond := range req.Evidence() {
			echo = append(echo, cond.Value)
		}
	}

	for i, row := range rows {
		out := row
		if len(echo) > 0 {
			out = make([]any, 0, len(echo)+len(row))
			out = append(out, echo...)
			out = append(out, row...)
		}
		if err := dest.AppendRow(ctx, h, out); err != nil {
			return fmt.Errorf("appending row %d: %w", i, err)
		}
	}
	return nil
}
