package mcp

import (
	"context"
	"fmt"
	"sort"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ensimdb/ensim/internal/sampling"
)

const previewRows = 20

// registerTools registers the simulation tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "ensim_simulate",
		Description: "Execute a SIMULATE statement and return the result table with a row preview",
	}, s.handleSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "ensim_models",
		Description: "List ensemble members with their posterior weights, optionally conditioned on evidence",
	}, s.handleModels)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "ensim_columns",
		Description: "List the modeled columns and their domains",
	}, s.handleColumns)
}

func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (*sdk.CallToolResult, SimulateOutput, error) {
	h, err := s.adapter.Run(ctx, args.Query)
	if err != nil {
		return nil, SimulateOutput{}, err
	}

	schema, err := s.dest.Describe(ctx, h)
	if err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("describing result: %w", err)
	}
	rows, err := s.dest.ReadRows(ctx, h)
	if err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("reading result: %w", err)
	}

	names := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		names[i] = col.Name
	}
	preview := rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}

	return nil, SimulateOutput{
		Table:     h.Name,
		Temporary: h.Temporary,
		Rows:      len(rows),
		Columns:   names,
		Preview:   preview,
	}, nil
}

func (s *Server) handleModels(ctx context.Context, req *sdk.CallToolRequest, args ModelsInput) (*sdk.CallToolResult, ModelsOutput, error) {
	ens := s.provider.Snapshot()
	if ens == nil {
		return nil, ModelsOutput{}, sampling.ErrEmptyEnsemble
	}

	// Sort evidence columns for stable condition order.
	cols := make([]string, 0, len(args.Given))
	for name := range args.Given {
		cols = append(cols, name)
	}
	sort.Strings(cols)

	evidence := make([]sampling.Condition, 0, len(cols))
	for _, name := range cols {
		col, err := s.catalog.Resolve(name)
		if err != nil {
			return nil, ModelsOutput{}, err
		}
		v, err := col.Domain.Coerce(args.Given[name])
		if err != nil {
			return nil, ModelsOutput{}, fmt.Errorf("evidence %s = %q: %w", name, args.Given[name], err)
		}
		evidence = append(evidence, sampling.Condition{Column: col, Value: v})
	}

	weights, err := sampling.ModelWeights(ens, evidence)
	if err != nil {
		return nil, ModelsOutput{}, err
	}

	out := ModelsOutput{Ensemble: ens.ID, Version: ens.Version}
	for i, m := range ens.Models {
		out.Models = append(out.Models, ModelWeight{ID: m.ID, Weight: weights[i]})
	}
	return nil, out, nil
}

func (s *Server) handleColumns(ctx context.Context, req *sdk.CallToolRequest, args ColumnsInput) (*sdk.CallToolResult, ColumnsOutput, error) {
	var out ColumnsOutput
	for _, col := range s.catalog.Columns() {
		out.Columns = append(out.Columns, ColumnInfo{
			Name:   col.Name,
			Kind:   string(col.Domain.Kind),
			Values: col.Domain.Values,
		})
	}
	return nil, out, nil
}
