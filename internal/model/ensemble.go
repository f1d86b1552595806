package model

import (
	"fmt"
	"os"

	"github.com/ensimdb/ensim/internal/catalog"
	"gopkg.in/yaml.v3"
)

// Ensemble is an ordered, read-only collection of independently trained
// models over the same catalog. Order matters only for deterministic replay
// under a fixed seed.
type Ensemble struct {
	// ID names the model set the ensemble was trained for.
	ID string

	// Version is the snapshot version; it changes whenever the backing
	// ensemble file is reloaded.
	Version int

	// Models are the ensemble members, unique by ID.
	Models []*Model
}

// Len returns the number of ensemble members.
func (e *Ensemble) Len() int { return len(e.Models) }

// distributionSpec is the YAML shape of one leaf distribution.
type distributionSpec struct {
	Kind     string             `yaml:"kind"`
	Weights  map[string]float64 `yaml:"weights,omitempty"`
	Mean     float64            `yaml:"mean,omitempty"`
	Variance float64            `yaml:"variance,omitempty"`
}

type categorySpec struct {
	Size  float64                     `yaml:"size"`
	Dists map[string]distributionSpec `yaml:"distributions"`
}

type viewSpec struct {
	Columns    []string       `yaml:"columns"`
	Categories []categorySpec `yaml:"categories"`
}

type modelSpec struct {
	ID    string     `yaml:"id"`
	Views []viewSpec `yaml:"views"`
}

type ensembleFile struct {
	ID      string      `yaml:"id"`
	Version int         `yaml:"version"`
	Models  []modelSpec `yaml:"models"`
}

// LoadFromFile loads an ensemble from a YAML file, resolving column names
// through the catalog and validating every model. The file must describe at
// least one model.
func LoadFromFile(path string, cat *catalog.Catalog) (*Ensemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ensemble file: %w", err)
	}

	var file ensembleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing ensemble file: %w", err)
	}

	return buildEnsemble(&file, cat)
}

func buildEnsemble(file *ensembleFile, cat *catalog.Catalog) (*Ensemble, error) {
	if file.ID == "" {
		return nil, fmt.Errorf("ensemble id must not be empty")
	}
	if len(file.Models) == 0 {
		return nil, fmt.Errorf("ensemble %q describes no models", file.ID)
	}

	ens := &Ensemble{ID: file.ID, Version: file.Version}
	seen := make(map[string]bool, len(file.Models))
	for _, ms := range file.Models {
		if seen[ms.ID] {
			return nil, fmt.Errorf("duplicate model id %q", ms.ID)
		}
		seen[ms.ID] = true

		views := make([]View, 0, len(ms.Views))
		for vi, vs := range ms.Views {
			view, err := buildView(&vs, cat)
			if err != nil {
				return nil, fmt.Errorf("model %q view %d: %w", ms.ID, vi, err)
			}
			views = append(views, view)
		}

		m, err := NewModel(ms.ID, views)
		if err != nil {
			return nil, err
		}
		ens.Models = append(ens.Models, m)
	}
	return ens, nil
}

func buildView(vs *viewSpec, cat *catalog.Catalog) (View, error) {
	cols := make([]int, 0, len(vs.Columns))
	colByName := make(map[string]catalog.Column, len(vs.Columns))
	for _, name := range vs.Columns {
		col, err := cat.Resolve(name)
		if err != nil {
			return View{}, err
		}
		cols = append(cols, col.ID)
		colByName[name] = col
	}

	categories := make([]Category, 0, len(vs.Categories))
	for ci, cs := range vs.Categories {
		category := Category{Size: cs.Size, Dists: make(map[int]Distribution, len(cs.Dists))}
		for name, ds := range cs.Dists {
			col, ok := colByName[name]
			if !ok {
				return View{}, fmt.Errorf("category %d: column %q is not in the view", ci, name)
			}
			dist, err := buildDistribution(&ds, col)
			if err != nil {
				return View{}, fmt.Errorf("category %d column %q: %w", ci, name, err)
			}
			category.Dists[col.ID] = dist
		}
		categories = append(categories, category)
	}

	return View{Columns: cols, Categories: categories}, nil
}

func buildDistribution(ds *distributionSpec, col catalog.Column) (Distribution, error) {
	switch ds.Kind {
	case "categorical":
		if col.Domain.Kind != catalog.DomainCategorical {
			return nil, fmt.Errorf("categorical distribution on %s column", col.Domain.Kind)
		}
		for v := range ds.Weights {
			if !col.Domain.Contains(v) {
				return nil, fmt.Errorf("weight for %q, which is outside the column's domain", v)
			}
		}
		return NewCategorical(ds.Weights)
	case "gaussian":
		if col.Domain.Kind != catalog.DomainNumeric {
			return nil, fmt.Errorf("gaussian distribution on %s column", col.Domain.Kind)
		}
		return NewGaussian(ds.Mean, ds.Variance)
	default:
		return nil, fmt.Errorf("unknown distribution kind %q", ds.Kind)
	}
}
