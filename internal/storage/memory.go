package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ensimdb/ensim/internal/catalog"
)

// MemoryEngine is an in-memory Engine used in tests and as a scratch
// destination for callers that never persist results.
type MemoryEngine struct {
	mu     sync.Mutex
	tables map[uuid.UUID]*memTable
	byName map[string]*memTable

	// FailAppendAt makes the Nth AppendRow call fail (1-based) with
	// ErrDestinationWrite. Zero disables injection.
	FailAppendAt int
	appendCalls  int
}

type memTable struct {
	handle    TableHandle
	columns   []catalog.Column
	rows      [][]any
	finalized bool
}

// NewMemoryEngine creates an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		tables: make(map[uuid.UUID]*memTable),
		byName: make(map[string]*memTable),
	}
}

func (e *MemoryEngine) CreateDestination(ctx context.Context, schema Schema) (TableHandle, error) {
	if schema.Name == "" {
		return TableHandle{}, fmt.Errorf("destination name must not be empty")
	}
	if len(schema.Columns) == 0 {
		return TableHandle{}, fmt.Errorf("destination needs at least one column")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, taken := e.byName[schema.Name]; taken {
		return TableHandle{}, fmt.Errorf("%w: %q", ErrDuplicateTable, schema.Name)
	}

	h := TableHandle{ID: uuid.New(), Name: schema.Name, Temporary: schema.Temporary}
	t := &memTable{
		handle:  h,
		columns: append([]catalog.Column(nil), schema.Columns...),
	}
	e.tables[h.ID] = t
	e.byName[schema.Name] = t
	return h, nil
}

func (e *MemoryEngine) AppendRow(ctx context.Context, h TableHandle, row []any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.appendCalls++
	if e.FailAppendAt > 0 && e.appendCalls >= e.FailAppendAt {
		return fmt.Errorf("%w: injected failure at append %d", ErrDestinationWrite, e.appendCalls)
	}

	t, ok := e.tables[h.ID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, h.Name)
	}
	if t.finalized {
		return fmt.Errorf("%w: %q is finalized", ErrDestinationWrite, h.Name)
	}
	if len(row) != len(t.columns) {
		return fmt.Errorf("%w: row has %d values, destination %q has %d columns",
			ErrDestinationWrite, len(row), h.Name, len(t.columns))
	}
	t.rows = append(t.rows, append([]any(nil), row...))
	return nil
}

func (e *MemoryEngine) FinalizeDestination(ctx context.Context, h TableHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tables[h.ID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, h.Name)
	}
	t.finalized = true
	return nil
}

func (e *MemoryEngine) DropDestination(ctx context.Context, h TableHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tables[h.ID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, h.Name)
	}
	delete(e.tables, h.ID)
	delete(e.byName, t.handle.Name)
	return nil
}

func (e *MemoryEngine) Lookup(ctx context.Context, name string) (TableHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.byName[name]
	if !ok || !t.finalized {
		return TableHandle{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return t.handle, nil
}

func (e *MemoryEngine) Describe(ctx context.Context, h TableHandle) (Schema, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tables[h.ID]
	if !ok || !t.finalized {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownTable, h.Name)
	}
	return Schema{
		Name:      t.handle.Name,
		Columns:   append([]catalog.Column(nil), t.columns...),
		Temporary: t.handle.Temporary,
	}, nil
}

func (e *MemoryEngine) ReadRows(ctx context.Context, h TableHandle) ([][]any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tables[h.ID]
	if !ok || !t.finalized {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, h.Name)
	}
	out := make([][]any, len(t.rows))
	for i, row := range t.rows {
		out[i] = append([]any(nil), row...)
	}
	return out, nil
}

func (e *MemoryEngine) List(ctx context.Context) ([]TableHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []TableHandle
	for _, t := range e.tables {
		if t.finalized {
			out = append(out, t.handle)
		}
	}
	return out, nil
}

func (e *MemoryEngine) Close() error { return nil }

// Len reports the number of tables, finalized or not. Test helper.
func (e *MemoryEngine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tables)
}
