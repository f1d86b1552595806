package storage

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ensimdb/ensim/internal/catalog"
)

// SQLiteEngine implements Engine on a SQLite results database. Each
// destination gets its own data table; the result_tables registry tracks
// lifecycle so unfinalized tables stay invisible. Temporary destinations
// use TEMP tables and a session-local registry, so they vanish on Close.
type SQLiteEngine struct {
	mu     sync.Mutex
	db     *sql.DB
	byID   map[uuid.UUID]*destEntry
	byName map[string]*destEntry
}

// destEntry tracks a destination created in this session.
type destEntry struct {
	handle    TableHandle
	dataTable string
	columns   []catalog.Column
	finalized bool
}

// columnJSON is the registry serialization of one result column.
type columnJSON struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Values []string `json:"values,omitempty"`
}

// NewSQLiteEngine opens (or creates) the results database at dbPath.
// Registry rows left unfinalized by a crashed run are swept on open.
func NewSQLiteEngine(dbPath string) (*SQLiteEngine, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening results database: %w", err)
	}
	// Single connection: SQLite works best with one writer, and TEMP tables
	// must stay on the connection that created them.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	e := &SQLiteEngine{
		db:     db,
		byID:   make(map[uuid.UUID]*destEntry),
		byName: make(map[string]*destEntry),
	}
	if err := e.sweepUnfinalized(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sweeping unfinalized tables: %w", err)
	}
	return e, nil
}

// sweepUnfinalized drops data tables whose registry rows were never
// finalized. They are leftovers from an interrupted run.
func (e *SQLiteEngine) sweepUnfinalized(ctx context.Context) error {
	rows, err := e.db.QueryContext(ctx, `SELECT id, data_table FROM result_tables WHERE finalized = 0`)
	if err != nil {
		return err
	}
	type stale struct{ id, dataTable string }
	var stales []stale
	for rows.Next() {
		var s stale
		if err := rows.Scan(&s.id, &s.dataTable); err != nil {
			rows.Close()
			return err
		}
		stales = append(stales, s)
	}
	rows.Close()

	for _, s := range stales {
		if _, err := e.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(s.dataTable))); err != nil {
			return err
		}
		if _, err := e.db.ExecContext(ctx, `DELETE FROM result_tables WHERE id = ?`, s.id); err != nil {
			return err
		}
	}
	return nil
}

// CreateDestination stages a new result table. It is invisible until
// FinalizeDestination.
func (e *SQLiteEngine) CreateDestination(ctx context.Context, schema Schema) (TableHandle, error) {
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
	var one int
	err := e.db.QueryRowContext(ctx, `SELECT 1 FROM result_tables WHERE name = ?`, schema.Name).Scan(&one)
	if err == nil {
		return TableHandle{}, fmt.Errorf("%w: %q", ErrDuplicateTable, schema.Name)
	}
	if err != sql.ErrNoRows {
		return TableHandle{}, fmt.Errorf("checking destination name: %w", err)
	}

	id := uuid.New()
	dataTable := "res_" + hex.EncodeToString(id[:8])

	defs := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(col.Name), sqlType(col.Domain.Kind))
	}
	create := "CREATE TABLE"
	if schema.Temporary {
		create = "CREATE TEMP TABLE"
	}
	stmt := fmt.Sprintf("%s %s (%s)", create, quoteIdent(dataTable), strings.Join(defs, ", "))
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return TableHandle{}, fmt.Errorf("creating destination table: %w", err)
	}

	if !schema.Temporary {
		colsJSON, err := marshalColumns(schema.Columns)
		if err != nil {
			return TableHandle{}, err
		}
		_, err = e.db.ExecContext(ctx, `
			INSERT INTO result_tables (id, name, data_table, finalized, columns, created_at)
			VALUES (?, ?, ?, 0, ?, datetime('now'))
		`, id.String(), schema.Name, dataTable, colsJSON)
		if err != nil {
			e.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(dataTable)))
			return TableHandle{}, fmt.Errorf("registering destination: %w", err)
		}
	}

	h := TableHandle{ID: id, Name: schema.Name, Temporary: schema.Temporary}
	entry := &destEntry{
		handle:    h,
		dataTable: dataTable,
		columns:   append([]catalog.Column(nil), schema.Columns...),
	}
	e.byID[id] = entry
	e.byName[schema.Name] = entry
	return h, nil
}

// AppendRow writes one row to a staged destination. Values must match the
// destination's columns in order.
func (e *SQLiteEngine) AppendRow(ctx context.Context, h TableHandle, row []any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.byID[h.ID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, h.Name)
	}
	if entry.finalized {
		return fmt.Errorf("%w: %q is finalized", ErrDestinationWrite, h.Name)
	}
	if len(row) != len(entry.columns) {
		return fmt.Errorf("%w: row has %d values, destination %q has %d columns",
			ErrDestinationWrite, len(row), h.Name, len(entry.columns))
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(row)), ", ")
	stmt := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(entry.dataTable), placeholders)
	if _, err := e.db.ExecContext(ctx, stmt, row...); err != nil {
		return fmt.Errorf("%w: %v", ErrDestinationWrite, err)
	}
	return nil
}

// FinalizeDestination makes a staged destination visible.
func (e *SQLiteEngine) FinalizeDestination(ctx context.Context, h TableHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.byID[h.ID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, h.Name)
	}
	if entry.finalized {
		return nil
	}
	if !entry.handle.Temporary {
		if _, err := e.db.ExecContext(ctx, `UPDATE result_tables SET finalized = 1 WHERE id = ?`, h.ID.String()); err != nil {
			return fmt.Errorf("finalizing destination: %w", err)
		}
	}
	entry.finalized = true
	return nil
}

// DropDestination removes a destination and its data, staged or finalized.
func (e *SQLiteEngine) DropDestination(ctx context.Context, h TableHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	dataTable := ""
	if entry, ok := e.byID[h.ID]; ok {
		dataTable = entry.dataTable
		delete(e.byID, h.ID)
		delete(e.byName, entry.handle.Name)
	} else {
		err := e.db.QueryRowContext(ctx, `SELECT data_table FROM result_tables WHERE id = ?`, h.ID.String()).Scan(&dataTable)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %q", ErrUnknownTable, h.Name)
		}
		if err != nil {
			return fmt.Errorf("resolving destination: %w", err)
		}
	}

	if _, err := e.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(dataTable))); err != nil {
		return fmt.Errorf("dropping destination table: %w", err)
	}
	if !h.Temporary {
		if _, err := e.db.ExecContext(ctx, `DELETE FROM result_tables WHERE id = ?`, h.ID.String()); err != nil {
			return fmt.Errorf("deregistering destination: %w", err)
		}
	}
	return nil
}

// Lookup resolves a finalized table by name.
func (e *SQLiteEngine) Lookup(ctx context.Context, name string) (TableHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if entry, ok := e.byName[name]; ok {
		if !entry.finalized {
			return TableHandle{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
		}
		return entry.handle, nil
	}

	var idStr string
	err := e.db.QueryRowContext(ctx, `SELECT id FROM result_tables WHERE name = ? AND finalized = 1`, name).Scan(&idStr)
	if err == sql.ErrNoRows {
		return TableHandle{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	if err != nil {
		return TableHandle{}, fmt.Errorf("resolving table name: %w", err)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return TableHandle{}, fmt.Errorf("parsing table id: %w", err)
	}
	return TableHandle{ID: id, Name: name}, nil
}

// Describe returns the schema of a finalized table.
func (e *SQLiteEngine) Describe(ctx context.Context, h TableHandle) (Schema, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.resolveFinalized(ctx, h)
	if err != nil {
		return Schema{}, err
	}
	return Schema{
		Name:      entry.handle.Name,
		Columns:   append([]catalog.Column(nil), entry.columns...),
		Temporary: entry.handle.Temporary,
	}, nil
}

// ReadRows returns all rows of a finalized table in insertion order.
func (e *SQLiteEngine) ReadRows(ctx context.Context, h TableHandle) ([][]any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.resolveFinalized(ctx, h)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", quoteIdent(entry.dataTable))
	rows, err := e.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		scan := make([]any, len(entry.columns))
		for i, col := range entry.columns {
			switch col.Domain.Kind {
			case catalog.DomainCategorical:
				scan[i] = new(string)
			default:
				scan[i] = new(float64)
			}
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make([]any, len(scan))
		for i, v := range scan {
			switch p := v.(type) {
			case *string:
				row[i] = *p
			case *float64:
				row[i] = *p
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// List returns handles of all finalized tables, persistent then temporary.
func (e *SQLiteEngine) List(ctx context.Context) ([]TableHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows, err := e.db.QueryContext(ctx, `SELECT id, name FROM result_tables WHERE finalized = 1 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var out []TableHandle
	for rows.Next() {
		var idStr, name string
		if err := rows.Scan(&idStr, &name); err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parsing table id: %w", err)
		}
		out = append(out, TableHandle{ID: id, Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, entry := range e.byName {
		if entry.handle.Temporary && entry.finalized {
			out = append(out, entry.handle)
		}
	}
	return out, nil
}

// Close closes the results database. Temporary tables vanish with the
// connection.
func (e *SQLiteEngine) Close() error {
	return e.db.Close()
}

// resolveFinalized finds a finalized destination by handle, checking the
// session map first, then the registry. Caller holds the lock.
func (e *SQLiteEngine) resolveFinalized(ctx context.Context, h TableHandle) (*destEntry, error) {
	if entry, ok := e.byID[h.ID]; ok {
		if !entry.finalized {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTable, h.Name)
		}
		return entry, nil
	}

	var name, dataTable, colsJSON string
	err := e.db.QueryRowContext(ctx, `
		SELECT name, data_table, columns FROM result_tables WHERE id = ? AND finalized = 1
	`, h.ID.String()).Scan(&name, &dataTable, &colsJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, h.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving destination: %w", err)
	}

	columns, err := unmarshalColumns(colsJSON)
	if err != nil {
		return nil, err
	}
	return &destEntry{
		handle:    TableHandle{ID: h.ID, Name: name},
		dataTable: dataTable,
		columns:   columns,
		finalized: true,
	}, nil
}

func marshalColumns(cols []catalog.Column) (string, error) {
	specs := make([]columnJSON, len(cols))
	for i, col := range cols {
		specs[i] = columnJSON{Name: col.Name, Kind: string(col.Domain.Kind), Values: col.Domain.Values}
	}
	data, err := json.Marshal(specs)
	if err != nil {
		return "", fmt.Errorf("marshaling columns: %w", err)
	}
	return string(data), nil
}

func unmarshalColumns(colsJSON string) ([]catalog.Column, error) {
	var specs []columnJSON
	if err := json.Unmarshal([]byte(colsJSON), &specs); err != nil {
		return nil, fmt.Errorf("unmarshaling columns: %w", err)
	}
	cols := make([]catalog.Column, len(specs))
	for i, spec := range specs {
		cols[i] = catalog.Column{
			ID:     i,
			Name:   spec.Name,
			Domain: catalog.Domain{Kind: catalog.DomainKind(spec.Kind), Values: spec.Values},
		}
	}
	return cols, nil
}

func sqlType(kind catalog.DomainKind) string {
	if kind == catalog.DomainNumeric {
		return "REAL"
	}
	return "TEXT"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
