// Package compiler parses SIMULATE statements and lowers them onto the
// sampling and storage layers.
package compiler

// SimulateStatement is the parsed form of a SIMULATE query:
//
//	[CREATE [TEMP] TABLE <name> AS]
//	SIMULATE <col> [, <col> ...]
//	FROM <modelset>
//	[GIVEN <col> = <literal> [, <col> = <literal> ...]]
//	LIMIT <n>
//	[USING SEED <s>]
type SimulateStatement struct {
	// Targets are the column names to simulate, in query order.
	Targets []string

	// ModelSet names the ensemble to draw from.
	ModelSet string

	// Given are the evidence clauses, in query order.
	Given []GivenClause

	// Limit is the number of rows to simulate.
	Limit int

	// Seed is the random seed when HasSeed is set.
	Seed    uint64
	HasSeed bool

	// Into describes the destination table, nil for an anonymous
	// temporary result.
	Into *DestinationClause
}

// GivenClause is one evidence condition. The literal is untyped text; the
// adapter coerces it against the column's domain.
type GivenClause struct {
	Column  string
	Literal string
}

// DestinationClause is the CREATE TABLE prefix of a statement.
type DestinationClause struct {
	Name      string
	Temporary bool
}
