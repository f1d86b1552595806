package model

import (
	"sync"

	"github.com/ensimdb/ensim/internal/catalog"
)

// Provider hands out read-only ensemble snapshots. A snapshot stays valid for
// the duration of a simulation request even if the provider reloads a newer
// ensemble concurrently: Reload swaps the current pointer, it never mutates a
// previously returned ensemble.
type Provider struct {
	mu      sync.RWMutex
	path    string
	catalog *catalog.Catalog
	current *Ensemble
}

// NewFileProvider creates a provider backed by a YAML ensemble file and loads
// the initial snapshot.
func NewFileProvider(path string, cat *catalog.Catalog) (*Provider, error) {
	ens, err := LoadFromFile(path, cat)
	if err != nil {
		return nil, err
	}
	return &Provider{path: path, catalog: cat, current: ens}, nil
}

// NewStaticProvider creates a provider that always returns the given
// ensemble. Used by tests and embedding callers that manage loading
// themselves.
func NewStaticProvider(ens *Ensemble) *Provider {
	return &Provider{current: ens}
}

// Snapshot returns the current ensemble. The result is immutable; callers
// keep it for the lifetime of one request.
func (p *Provider) Snapshot() *Ensemble {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Reload re-reads the backing file and swaps in the new ensemble. In-flight
// requests holding the previous snapshot are unaffected. If the new file's
// version does not advance past the current one, the version is bumped so
// snapshots remain distinguishable.
func (p *Provider) Reload() error {
	if p.path == "" {
		return nil // static provider
	}
	ens, err := LoadFromFile(p.path, p.catalog)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if ens.Version <= p.current.Version {
		ens.Version = p.current.Version + 1
	}
	p.current = ens
	return nil
}
