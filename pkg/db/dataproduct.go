package db

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrUnknownDataProductType = errors.New("unknown data product type")

type DataProductType string

const (
	Photometry             DataProductType = "photometry"
	PhotometryNondetection DataProductType = "photometry_nondetection"
	FitsFile               DataProductType = "fits_file"
	Spectroscopy           DataProductType = "spectroscopy"
	ImageFile              DataProductType = "image_file"
)

func (t DataProductType) String() string {
	return string(t)
}

func AsDataProductType(s string) (DataProductType, error) {
	switch DataProductType(s) {
	case Photometry, PhotometryNondetection, FitsFile, Spectroscopy, ImageFile:
		return DataProductType(s), nil
	default:
		return DataProductType(s), fmt.Errorf("%w: %s", ErrUnknownDataProductType, s)
	}
}

var ErrUnknownDataProductStatus = errors.New("unknown data product status")

type DataProductStatus string

const (
	ProductPending    DataProductStatus = "PENDING"
	ProductProcessing DataProductStatus = "PROCESSING"
	ProductSuccess    DataProductStatus = "SUCCESS"
	ProductError      DataProductStatus = "ERROR"
)

func (s DataProductStatus) String() string {
	return string(s)
}

func AsDataProductStatus(s string) (DataProductStatus, error) {
	switch DataProductStatus(s) {
	case ProductPending, ProductProcessing, ProductSuccess, ProductError:
		return DataProductStatus(s), nil
	default:
		return DataProductStatus(s), fmt.Errorf("%w: %s", ErrUnknownDataProductStatus, s)
	}
}

// DataProduct is an uploaded file tied to a target.
//
// Its payload bytes live in the media store; Path addresses them there.
type DataProduct struct {
	ProductId     string
	TargetId      string
	ObservationId *int

	// username of the uploader
	Owner string

	Type     DataProductType
	Status   DataProductStatus
	Path     string
	Filename string
	Featured bool
	DryRun   bool
	Comment  string
	Created  time.Time
	Modified time.Time
}

func (p *DataProduct) Equal(o *DataProduct) bool {
	if (p == nil) || (o == nil) {
		return (p == nil) && (o == nil)
	}
	return p.ProductId == o.ProductId &&
		p.TargetId == o.TargetId &&
		p.Owner == o.Owner &&
		p.Type == o.Type &&
		p.Status == o.Status &&
		p.Path == o.Path &&
		p.Filename == o.Filename &&
		p.Featured == o.Featured &&
		p.DryRun == o.DryRun &&
		p.Comment == o.Comment
}

// DataProductQuery is a conjunction of data product search conditions.
// Zero values mean "not conditioned".
type DataProductQuery struct {
	TargetId string
	Type     DataProductType
	Featured bool
}

type DataProductInterface interface {
	// Register a new data product.
	//
	// The ProductId, Created and Modified are assigned by the store.
	// Returns the ProductId of the new record.
	Register(ctx context.Context, product DataProduct) (string, error)

	// Retrieve data products identified by productIds.
	//
	// The result maps ProductId to DataProduct. Missing ids are simply absent.
	Get(ctx context.Context, productIds []string) (map[string]DataProduct, error)

	// Find ProductIds of data products meeting the query,
	// newest first.
	Find(ctx context.Context, query DataProductQuery) ([]string, error)

	// Delete the data product record. The payload in the media store is
	// the caller's to clean up.
	Delete(ctx context.Context, productId string) error

	// SetStatus moves the product to the given processing status.
	SetStatus(ctx context.Context, productId string, status DataProductStatus) error

	// SetFeatured marks the product as the featured one of its target,
	// clearing the flag from any other product of that target.
	SetFeatured(ctx context.Context, productId string) error
}
