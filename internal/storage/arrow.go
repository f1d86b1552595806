package storage

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/ensimdb/ensim/internal/catalog"
)

// ArrowSchema maps a result-table schema to an Arrow schema: categorical
// columns become utf8, numeric columns float64.
func ArrowSchema(schema Schema) *arrow.Schema {
	fields := make([]arrow.Field, len(schema.Columns))
	for i, col := range schema.Columns {
		dt := arrow.DataType(arrow.PrimitiveTypes.Float64)
		if col.Domain.Kind == catalog.DomainCategorical {
			dt = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{Name: col.Name, Type: dt}
	}
	return arrow.NewSchema(fields, nil)
}

// BuildArrowRecord converts result rows into a single Arrow record.
// The caller must Release the record.
func BuildArrowRecord(schema Schema, rows [][]any) (arrow.Record, error) {
	arrowSchema := ArrowSchema(schema)
	builder := array.NewRecordBuilder(memory.DefaultAllocator, arrowSchema)
	defer builder.Release()

	for ri, row := range rows {
		if len(row) != len(schema.Columns) {
			return nil, fmt.Errorf("row %d has %d values, schema has %d columns", ri, len(row), len(schema.Columns))
		}
		for ci, col := range schema.Columns {
			switch col.Domain.Kind {
			case catalog.DomainCategorical:
				s, ok := row[ci].(string)
				if !ok {
					return nil, fmt.Errorf("row %d column %q: expected string, got %T", ri, col.Name, row[ci])
				}
				builder.Field(ci).(*array.StringBuilder).Append(s)
			default:
				f, ok := row[ci].(float64)
				if !ok {
					return nil, fmt.Errorf("row %d column %q: expected float64, got %T", ri, col.Name, row[ci])
				}
				builder.Field(ci).(*array.Float64Builder).Append(f)
			}
		}
	}
	return builder.NewRecord(), nil
}

// WriteArrowFile exports result rows to an Arrow IPC file at path.
func WriteArrowFile(path string, schema Schema, rows [][]any) error {
	rec, err := BuildArrowRecord(schema, rows)
	if err != nil {
		return err
	}
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating arrow file: %w", err)
	}
	defer f.Close()

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(rec.Schema()))
	if err != nil {
		return fmt.Errorf("creating arrow writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return fmt.Errorf("writing arrow record: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing arrow writer: %w", err)
	}
	return nil
}
