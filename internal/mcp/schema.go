package mcp

// SimulateInput defines the input for the ensim_simulate tool.
type SimulateInput struct {
	Query string `json:"query" jsonschema:"description=SIMULATE statement to execute e.g. SIMULATE mass FROM penguins GIVEN species = 'gentoo' LIMIT 10,required"`
}

// SimulateOutput defines the output for the ensim_simulate tool.
type SimulateOutput struct {
	Table     string   `json:"table" jsonschema:"description=Name of the result table"`
	Temporary bool     `json:"temporary" jsonschema:"description=Whether the table is session-scoped"`
	Rows      int      `json:"rows" jsonschema:"description=Number of simulated rows"`
	Columns   []string `json:"columns" jsonschema:"description=Result columns in order"`
	Preview   [][]any  `json:"preview,omitempty" jsonschema:"description=Up to 20 result rows"`
}

// ModelsInput defines the input for the ensim_models tool.
type ModelsInput struct {
	Given map[string]string `json:"given,omitempty" jsonschema:"description=Optional evidence as column to literal pairs; weights are conditioned on it"`
}

// ModelsOutput defines the output for the ensim_models tool.
type ModelsOutput struct {
	Ensemble string        `json:"ensemble" jsonschema:"description=Ensemble identifier"`
	Version  int           `json:"version" jsonschema:"description=Ensemble snapshot version"`
	Models   []ModelWeight `json:"models" jsonschema:"description=Per-member posterior weights"`
}

// ModelWeight is one ensemble member's weight.
type ModelWeight struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
}

// ColumnsInput defines the input for the ensim_columns tool.
type ColumnsInput struct{}

// ColumnsOutput defines the output for the ensim_columns tool.
type ColumnsOutput struct {
	Columns []ColumnInfo `json:"columns" jsonschema:"description=Catalog columns in declaration order"`
}

// ColumnInfo describes one catalog column.
type ColumnInfo struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Values []string `json:"values,omitempty"`
}
