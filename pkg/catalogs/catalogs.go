// Package catalogs resolves names against astronomical catalog services.
package catalogs

import (
	"context"
	"errors"
	"strings"

	tdb "github.com/starwatch/tom/pkg/db"
)

// ErrMissingData means the catalog has nothing for the queried term.
var ErrMissingData = errors.New("no catalog data for the term")

// Record is what a catalog lookup yields.
type Record struct {
	// catalog's canonical name of the object
	Name string

	RA  *float64
	Dec *float64
}

type Harvester interface {
	Name() string

	// Query looks the term up. ErrMissingData when the catalog does not
	// know it.
	Query(ctx context.Context, term string) (Record, error)

	// ToTarget drafts a target from the record, aliased to this catalog.
	ToTarget(record Record) (tdb.Target, error)
}

type Registry struct {
	order      []string
	harvesters map[string]Harvester
}

func NewRegistry(harvesters ...Harvester) *Registry {
	r := &Registry{harvesters: map[string]Harvester{}}
	for _, h := range harvesters {
		key := strings.ToLower(h.Name())
		if _, ok := r.harvesters[key]; !ok {
			r.order = append(r.order, h.Name())
		}
		r.harvesters[key] = h
	}
	return r
}

// Get finds a harvester by name, case-insensitively.
func (r *Registry) Get(name string) (Harvester, bool) {
	h, ok := r.harvesters[strings.ToLower(name)]
	return h, ok
}

// Names lists registered harvesters in registration order.
func (r *Registry) Names() []string {
	return r.order
}
