// Package dataproc extracts reduced datums from data product payloads.
package dataproc

import (
	"context"
	"io"

	tdb "github.com/starwatch/tom/pkg/db"
)

type Processor interface {
	// Type names the data product type this processor handles.
	Type() tdb.DataProductType

	// Process reads the payload and yields datum values for the
	// product's target. Ids and dedup are the store's business.
	Process(ctx context.Context, product tdb.DataProduct, payload io.Reader) ([]tdb.ReducedDatum, error)
}

type Registry struct {
	processors map[tdb.DataProductType]Processor
}

func NewRegistry(processors ...Processor) *Registry {
	r := &Registry{processors: map[tdb.DataProductType]Processor{}}
	for _, p := range processors {
		r.processors[p.Type()] = p
	}
	return r
}

func (r *Registry) Get(t tdb.DataProductType) (Processor, bool) {
	p, ok := r.processors[t]
	return p, ok
}

// Run processes an uploaded product and stores what comes out.
//
// The product moves PENDING -> PROCESSING -> SUCCESS, or ERROR when the
// payload cannot be parsed. A type with no registered processor is
// stored as-is and succeeds with zero rows. Returns how many datums
// were new.
func (r *Registry) Run(
	ctx context.Context,
	products tdb.DataProductInterface,
	datums tdb.DatumInterface,
	product tdb.DataProduct,
	payload io.Reader,
) (int, error) {
	proc, ok := r.Get(product.Type)
	if !ok {
		if err := products.SetStatus(ctx, product.ProductId, tdb.ProductSuccess); err != nil {
			return 0, err
		}
		return 0, nil
	}

	if err := products.SetStatus(ctx, product.ProductId, tdb.ProductProcessing); err != nil {
		return 0, err
	}

	rows, err := proc.Process(ctx, product, payload)
	if err != nil {
		if serr := products.SetStatus(ctx, product.ProductId, tdb.ProductError); serr != nil {
			return 0, serr
		}
		return 0, err
	}

	inserted := 0
	if len(rows) != 0 {
		inserted, err = datums.BulkRegister(ctx, rows)
		if err != nil {
			if serr := products.SetStatus(ctx, product.ProductId, tdb.ProductError); serr != nil {
				return 0, serr
			}
			return 0, err
		}
	}

	if err := products.SetStatus(ctx, product.ProductId, tdb.ProductSuccess); err != nil {
		return inserted, err
	}
	return inserted, nil
}
