package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// testCatalog builds a small two-column catalog, failing the test on error.
func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New([]Column{
		{Name: "species", Domain: Domain{Kind: DomainCategorical, Values: []string{"adelie", "gentoo"}}},
		{Name: "mass", Domain: Domain{Kind: DomainNumeric}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestResolve(t *testing.T) {
	c := testCatalog(t)

	col, err := c.Resolve("species")
	if err != nil {
		t.Fatalf("Resolve(species): %v", err)
	}
	if col.ID != 0 || col.Name != "species" {
		t.Errorf("Resolve(species) = %+v, want ID 0", col)
	}
	if col.Domain.Kind != DomainCategorical {
		t.Errorf("species kind = %q, want categorical", col.Domain.Kind)
	}

	col, err = c.Resolve("mass")
	if err != nil {
		t.Fatalf("Resolve(mass): %v", err)
	}
	if col.ID != 1 {
		t.Errorf("mass ID = %d, want 1", col.ID)
	}
}

func TestResolve_Unknown(t *testing.T) {
	c := testCatalog(t)

	_, err := c.Resolve("nope")
	if !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("Resolve(nope) error = %v, want ErrUnknownColumn", err)
	}
}

func TestNew_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		specs []Column
	}{
		{"duplicate name", []Column{
			{Name: "a", Domain: Domain{Kind: DomainNumeric}},
			{Name: "a", Domain: Domain{Kind: DomainNumeric}},
		}},
		{"empty name", []Column{
			{Name: "", Domain: Domain{Kind: DomainNumeric}},
		}},
		{"empty categorical domain", []Column{
			{Name: "a", Domain: Domain{Kind: DomainCategorical}},
		}},
		{"unknown kind", []Column{
			{Name: "a", Domain: Domain{Kind: "boolean"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.specs); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDomainNormalize(t *testing.T) {
	cat := Domain{Kind: DomainCategorical, Values: []string{"red", "blue"}}
	num := Domain{Kind: DomainNumeric}

	tests := []struct {
		name    string
		domain  Domain
		in      any
		want    any
		wantErr bool
	}{
		{"categorical ok", cat, "red", "red", false},
		{"categorical outside domain", cat, "green", nil, true},
		{"categorical wrong type", cat, 3.5, nil, true},
		{"numeric float", num, 3.5, 3.5, false},
		{"numeric int widened", num, 3, float64(3), false},
		{"numeric int64 widened", num, int64(7), float64(7), false},
		{"numeric wrong type", num, "3.5", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.domain.Normalize(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrDomainMismatch) {
					t.Errorf("Normalize(%v) error = %v, want ErrDomainMismatch", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%v): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDomainCoerce(t *testing.T) {
	cat := Domain{Kind: DomainCategorical, Values: []string{"red", "blue"}}
	num := Domain{Kind: DomainNumeric}

	if v, err := num.Coerce("2.25"); err != nil || v != 2.25 {
		t.Errorf("Coerce(2.25) = %v, %v; want 2.25", v, err)
	}
	if _, err := num.Coerce("abc"); !errors.Is(err, ErrDomainMismatch) {
		t.Errorf("Coerce(abc) error = %v, want ErrDomainMismatch", err)
	}
	if v, err := cat.Coerce("blue"); err != nil || v != "blue" {
		t.Errorf("Coerce(blue) = %v, %v; want blue", v, err)
	}
	if _, err := cat.Coerce("green"); !errors.Is(err, ErrDomainMismatch) {
		t.Errorf("Coerce(green) error = %v, want ErrDomainMismatch", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")

	content := `
columns:
  - name: species
    kind: categorical
    values: [adelie, gentoo, chinstrap]
  - name: mass
    kind: numeric
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	col, err := c.Resolve("species")
	if err != nil {
		t.Fatalf("Resolve(species): %v", err)
	}
	if len(col.Domain.Values) != 3 {
		t.Errorf("species values = %v, want 3 entries", col.Domain.Values)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestColumnsReturnsCopy(t *testing.T) {
	c := testCatalog(t)

	cols := c.Columns()
	cols[0].Name = "mutated"

	again, _ := c.Resolve("species")
	if again.Name != "species" {
		t.Error("catalog was mutated through Columns() result")
	}
}
