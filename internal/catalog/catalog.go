// Package catalog defines the column catalog consumed by the simulation
// core: column handles, value domains, and name resolution. The catalog is
// loaded once from a YAML file and is read-only afterwards.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrUnknownColumn is returned when a referenced column is absent from the
// catalog or from a model's schema.
var ErrUnknownColumn = errors.New("unknown column")

// ErrDomainMismatch is returned when a value's type or range does not match
// the column's declared domain.
var ErrDomainMismatch = errors.New("domain mismatch")

// DomainKind identifies the statistical type of a column.
type DomainKind string

const (
	// DomainCategorical columns take one of a fixed set of string values.
	DomainCategorical DomainKind = "categorical"
	// DomainNumeric columns take real values.
	DomainNumeric DomainKind = "numeric"
)

// Domain describes the value domain of a column.
type Domain struct {
	Kind DomainKind `yaml:"kind"`
	// Values enumerates the admissible values for categorical columns.
	Values []string `yaml:"values,omitempty"`
}

// Contains reports whether v is one of the categorical domain's values.
func (d Domain) Contains(v string) bool {
	for _, dv := range d.Values {
		if dv == v {
			return true
		}
	}
	return false
}

// Normalize checks v against the domain and returns its canonical
// representation (string for categorical, float64 for numeric).
// Integer values are widened to float64 for numeric columns.
func (d Domain) Normalize(v any) (any, error) {
	switch d.Kind {
	case DomainCategorical:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected categorical value, got %T", ErrDomainMismatch, v)
		}
		if !d.Contains(s) {
			return nil, fmt.Errorf("%w: %q is not in the categorical domain", ErrDomainMismatch, s)
		}
		return s, nil
	case DomainNumeric:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		default:
			return nil, fmt.Errorf("%w: expected numeric value, got %T", ErrDomainMismatch, v)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported domain kind %q", ErrDomainMismatch, d.Kind)
	}
}

// Coerce parses a textual literal into the domain's canonical representation.
// Used by the query compiler to type condition literals.
func (d Domain) Coerce(literal string) (any, error) {
	switch d.Kind {
	case DomainNumeric:
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not numeric", ErrDomainMismatch, literal)
		}
		return f, nil
	case DomainCategorical:
		return d.Normalize(literal)
	default:
		return nil, fmt.Errorf("%w: unsupported domain kind %q", ErrDomainMismatch, d.Kind)
	}
}

// Column is a resolved column handle: a stable identifier plus the declared
// domain. Handles are value types and safe to copy.
type Column struct {
	ID     int
	Name   string
	Domain Domain
}

// columnSpec is the YAML shape of one catalog entry.
type columnSpec struct {
	Name   string   `yaml:"name"`
	Kind   string   `yaml:"kind"`
	Values []string `yaml:"values,omitempty"`
}

type catalogFile struct {
	Columns []columnSpec `yaml:"columns"`
}

// Catalog resolves column names to handles. It is immutable after creation
// and safe for concurrent use.
type Catalog struct {
	columns []Column
	byName  map[string]Column
}

// New builds a catalog from ordered column definitions. Column IDs are
// assigned by position. Duplicate names and empty categorical domains are
// rejected.
func New(specs []Column) (*Catalog, error) {
	c := &Catalog{
		columns: make([]Column, 0, len(specs)),
		byName:  make(map[string]Column, len(specs)),
	}
	for i, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("column %d: name must not be empty", i)
		}
		if _, dup := c.byName[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", spec.Name)
		}
		switch spec.Domain.Kind {
		case DomainCategorical:
			if len(spec.Domain.Values) == 0 {
				return nil, fmt.Errorf("column %q: categorical domain needs at least one value", spec.Name)
			}
		case DomainNumeric:
		default:
			return nil, fmt.Errorf("column %q: unknown domain kind %q", spec.Name, spec.Domain.Kind)
		}
		col := Column{ID: i, Name: spec.Name, Domain: spec.Domain}
		c.columns = append(c.columns, col)
		c.byName[col.Name] = col
	}
	return c, nil
}

// LoadFromFile loads a catalog from a YAML file of the form:
//
//	columns:
//	  - name: species
//	    kind: categorical
//	    values: [adelie, gentoo, chinstrap]
//	  - name: mass
//	    kind: numeric
func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}

	specs := make([]Column, 0, len(file.Columns))
	for _, cs := range file.Columns {
		specs = append(specs, Column{
			Name:   cs.Name,
			Domain: Domain{Kind: DomainKind(cs.Kind), Values: cs.Values},
		})
	}
	return New(specs)
}

// Resolve returns the handle for a column name.
func (c *Catalog) Resolve(name string) (Column, error) {
	col, ok := c.byName[name]
	if !ok {
		return Column{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return col, nil
}

// Columns returns all column handles in declaration order.
// The returned slice is a copy.
func (c *Catalog) Columns() []Column {
	out := make([]Column, len(c.columns))
	copy(out, c.columns)
	return out
}

// Len returns the number of columns in the catalog.
func (c *Catalog) Len() int { return len(c.columns) }
