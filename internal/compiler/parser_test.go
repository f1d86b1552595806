package compiler

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse_Minimal(t *testing.T) {
	stmt, err := Parse("SIMULATE mass FROM penguins LIMIT 10")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := &SimulateStatement{
		Targets:  []string{"mass"},
		ModelSet: "penguins",
		Limit:    10,
	}
	if !reflect.DeepEqual(stmt, want) {
		t.Errorf("stmt = %+v, want %+v", stmt, want)
	}
}

func TestParse_Full(t *testing.T) {
	stmt, err := Parse(`CREATE TABLE heavy_birds AS
		SIMULATE mass, island FROM penguins
		GIVEN species = 'gentoo', region = north
		LIMIT 100 USING SEED 42;`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := &SimulateStatement{
		Targets:  []string{"mass", "island"},
		ModelSet: "penguins",
		Given: []GivenClause{
			{Column: "species", Literal: "gentoo"},
			{Column: "region", Literal: "north"},
		},
		Limit:   100,
		Seed:    42,
		HasSeed: true,
		Into:    &DestinationClause{Name: "heavy_birds"},
	}
	if !reflect.DeepEqual(stmt, want) {
		t.Errorf("stmt = %+v, want %+v", stmt, want)
	}
}

func TestParse_TempTable(t *testing.T) {
	stmt, err := Parse("CREATE TEMP TABLE scratch AS SIMULATE mass FROM penguins LIMIT 5")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stmt.Into == nil || !stmt.Into.Temporary || stmt.Into.Name != "scratch" {
		t.Errorf("Into = %+v, want temporary scratch", stmt.Into)
	}
}

func TestParse_NumericGiven(t *testing.T) {
	stmt, err := Parse("SIMULATE species FROM penguins GIVEN mass = 4200.5 LIMIT 1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmt.Given) != 1 || stmt.Given[0].Literal != "4200.5" {
		t.Errorf("Given = %+v", stmt.Given)
	}
}

func TestParse_KeywordsCaseInsensitive(t *testing.T) {
	stmt, err := Parse("simulate Mass from penguins limit 3")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// Keywords fold, identifiers keep their case.
	if stmt.Targets[0] != "Mass" {
		t.Errorf("target = %q, want Mass", stmt.Targets[0])
	}
}

func TestParse_NegativeLimitParses(t *testing.T) {
	// The parser accepts the value; the adapter rejects it.
	stmt, err := Parse("SIMULATE mass FROM penguins LIMIT -5")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stmt.Limit != -5 {
		t.Errorf("Limit = %d, want -5", stmt.Limit)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"empty", ""},
		{"missing from", "SIMULATE mass LIMIT 10"},
		{"missing limit", "SIMULATE mass FROM penguins"},
		{"missing targets", "SIMULATE FROM penguins LIMIT 10"},
		{"dangling comma", "SIMULATE mass, FROM penguins LIMIT 10"},
		{"given without value", "SIMULATE mass FROM penguins GIVEN species = LIMIT 10"},
		{"given without equals", "SIMULATE mass FROM penguins GIVEN species gentoo LIMIT 10"},
		{"unterminated string", "SIMULATE mass FROM penguins GIVEN species = 'gentoo LIMIT 10"},
		{"seed not a number", "SIMULATE mass FROM penguins LIMIT 10 USING SEED abc"},
		{"negative seed", "SIMULATE mass FROM penguins LIMIT 10 USING SEED -1"},
		{"trailing garbage", "SIMULATE mass FROM penguins LIMIT 10 extra"},
		{"create without as", "CREATE TABLE t SIMULATE mass FROM penguins LIMIT 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.query); !errors.Is(err, ErrSyntax) {
				t.Errorf("Parse(%q) = %v, want ErrSyntax", tt.query, err)
			}
		})
	}
}
