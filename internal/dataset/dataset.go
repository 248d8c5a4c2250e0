// Package dataset orchestrates the bulk reference datasets (Orange Book,
// Purple Book, NIOSH hazardous list) that back local searches.
package dataset

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// Status holds the outcome of one dataset refresh.
type Status struct {
	Rows int    `json:"rows"`
	Note string `json:"note,omitempty"`
}

// Dataset is one bulk reference source the engine can refresh.
type Dataset interface {
	// Name returns the unique identifier for this dataset (e.g. "orangebook").
	Name() string

	// MaxAge is how long a successful refresh stays fresh.
	MaxAge() time.Duration

	// Refresh downloads, validates, and parses the dataset, replacing the
	// cached artifacts.
	Refresh(ctx context.Context) (*Status, error)
}

// Registry maps dataset names to their implementations.
type Registry struct {
	datasets map[string]Dataset
	order    []string // insertion order for deterministic iteration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{datasets: make(map[string]Dataset)}
}

// Register adds a dataset. Later registrations with the same name replace
// earlier ones without changing iteration order.
func (r *Registry) Register(ds Dataset) {
	name := ds.Name()
	if _, ok := r.datasets[name]; !ok {
		r.order = append(r.order, name)
	}
	r.datasets[name] = ds
}

// Get returns the named dataset.
func (r *Registry) Get(name string) (Dataset, error) {
	ds, ok := r.datasets[name]
	if !ok {
		return nil, eris.Errorf("dataset: unknown dataset %q (valid: %v)", name, r.order)
	}
	return ds, nil
}

// Select returns the named datasets in registration order, or all of them
// when names is empty.
func (r *Registry) Select(names []string) ([]Dataset, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := r.datasets[n]; !ok {
			return nil, eris.Errorf("dataset: unknown dataset %q (valid: %v)", n, r.order)
		}
		want[n] = true
	}
	out := make([]Dataset, 0, len(names))
	for _, n := range r.order {
		if want[n] {
			out = append(out, r.datasets[n])
		}
	}
	return out, nil
}

// All returns every registered dataset in registration order.
func (r *Registry) All() []Dataset {
	out := make([]Dataset, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.datasets[n])
	}
	return out
}

// Names returns the registered dataset names in order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
