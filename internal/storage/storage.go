// Package storage defines the result-table engine: destinations that
// simulated rows are written into, with staged visibility so a partially
// written table is never observable.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ensimdb/ensim/internal/catalog"
)

// ErrDestinationWrite is returned when writing to a destination fails.
// The materializer drops the destination when it sees this error.
var ErrDestinationWrite = errors.New("destination write failed")

// ErrUnknownTable is returned when a named result table does not exist or
// has not been finalized yet.
var ErrUnknownTable = errors.New("unknown result table")

// ErrDuplicateTable is returned when a destination name is already taken.
var ErrDuplicateTable = errors.New("result table already exists")

// Schema describes a destination's shape before creation.
type Schema struct {
	// Name is the user-visible table name.
	Name string

	// Columns are the result columns in output order.
	Columns []catalog.Column

	// Temporary destinations live for the engine's lifetime only.
	Temporary bool
}

// TableHandle identifies a created destination. Handles are value types.
type TableHandle struct {
	ID        uuid.UUID
	Name      string
	Temporary bool
}

// DestinationSpec is the compiler's description of where results go.
type DestinationSpec struct {
	// Name of the destination table. Empty means the engine assigns a
	// generated name.
	Name string

	// Temporary requests a session-scoped table.
	Temporary bool
}

// Engine stores simulation results. Destinations go through a staged
// lifecycle: CreateDestination, any number of AppendRow calls, then either
// FinalizeDestination or DropDestination. A destination is invisible to
// Lookup, Describe and ReadRows until finalized; a dropped destination
// leaves no trace. Implementations are safe for concurrent use.
type Engine interface {
	CreateDestination(ctx context.Context, schema Schema) (TableHandle, error)
	AppendRow(ctx context.Context, h TableHandle, row []any) error
	FinalizeDestination(ctx context.Context, h TableHandle) error
	DropDestination(ctx context.Context, h TableHandle) error

	// Lookup resolves a finalized table by name.
	Lookup(ctx context.Context, name string) (TableHandle, error)
	// Describe returns the schema of a finalized table.
	Describe(ctx context.Context, h TableHandle) (Schema, error)
	// ReadRows returns all rows of a finalized table in insertion order.
	ReadRows(ctx context.Context, h TableHandle) ([][]any, error)
	// List returns the handles of all finalized tables.
	List(ctx context.Context) ([]TableHandle, error)

	Close() error
}
