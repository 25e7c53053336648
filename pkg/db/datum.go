package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/starwatch/tom/pkg/utils/cmp"
	"github.com/starwatch/tom/pkg/utils/pointer"
)

var ErrUnknownValueUnit = errors.New("unknown value unit")

type ValueUnit string

const (
	Mag               ValueUnit = "MAG"
	Millijansky       ValueUnit = "MILLIJANSKY"
	ErgSecCm2Angstrom ValueUnit = "ERG_S_CM2_ANGSTROM"
)

func (u ValueUnit) String() string {
	return string(u)
}

func AsValueUnit(s string) (ValueUnit, error) {
	switch ValueUnit(s) {
	case Mag, Millijansky, ErgSecCm2Angstrom:
		return ValueUnit(s), nil
	default:
		return ValueUnit(s), fmt.Errorf("%w: %s", ErrUnknownValueUnit, s)
	}
}

// ReducedDatum is a single derived measurement of a target.
//
// Identity for deduplication is (TargetId, MJD, Value, Error, Filter,
// Facility, Observer); bulk ingestion skips rows colliding on it.
type ReducedDatum struct {
	Id       int64
	TargetId string

	// data product the value was derived from, when any
	ProductId *string

	DataType DataProductType

	// provenance
	SourceName     string
	SourceLocation string
	Observer       string
	Facility       string

	MJD       float64
	Timestamp time.Time

	Value     *float64
	Error     *float64
	ValueUnit ValueUnit
	Filter    string

	// per-point series, used by spectroscopy
	ValueList   []float64
	ErrorList   []float64
	Wavelengths []float64

	Active bool
}

func (d *ReducedDatum) Equal(o *ReducedDatum) bool {
	if (d == nil) || (o == nil) {
		return (d == nil) && (o == nil)
	}
	return d.TargetId == o.TargetId &&
		d.DataType == o.DataType &&
		d.SourceName == o.SourceName &&
		d.SourceLocation == o.SourceLocation &&
		d.Observer == o.Observer &&
		d.Facility == o.Facility &&
		d.MJD == o.MJD &&
		pointer.Equal(d.Value, o.Value) &&
		pointer.Equal(d.Error, o.Error) &&
		d.ValueUnit == o.ValueUnit &&
		d.Filter == o.Filter &&
		cmp.SliceEq(d.ValueList, o.ValueList) &&
		cmp.SliceEq(d.ErrorList, o.ErrorList) &&
		cmp.SliceEq(d.Wavelengths, o.Wavelengths)
}

// DedupKey is the identity of the datum for deduplication.
func (d *ReducedDatum) DedupKey() string {
	return fmt.Sprintf(
		"%s|%f|%f|%f|%s|%s|%s",
		d.TargetId, d.MJD,
		pointer.Deref(d.Value), pointer.Deref(d.Error),
		d.Filter, d.Facility, d.Observer,
	)
}

// DatumQuery is a conjunction of datum search conditions.
// Zero values mean "not conditioned".
type DatumQuery struct {
	TargetId   string
	DataType   DataProductType
	ActiveOnly bool
}

type DatumInterface interface {
	// BulkRegister inserts datums, skipping rows whose identity collides
	// with an existing one.
	//
	// Returns the number of rows actually inserted.
	BulkRegister(ctx context.Context, datums []ReducedDatum) (int, error)

	// Find datums meeting the query, ordered by MJD.
	Find(ctx context.Context, query DatumQuery) ([]ReducedDatum, error)

	// SetActive flips the active flag of the datum.
	SetActive(ctx context.Context, id int64, active bool) error
}

// BrokerCadence tracks the polling state of a (target, broker) pair.
type BrokerCadence struct {
	TargetId     string
	Broker       string
	LastUpdate   time.Time
	InsertedRows int
}

func (c *BrokerCadence) Equal(o *BrokerCadence) bool {
	if (c == nil) || (o == nil) {
		return (c == nil) && (o == nil)
	}
	return c.TargetId == o.TargetId &&
		c.Broker == o.Broker &&
		c.LastUpdate.Equal(o.LastUpdate) &&
		c.InsertedRows == o.InsertedRows
}

type CadenceInterface interface {
	// Find all cadence records.
	Find(ctx context.Context) ([]BrokerCadence, error)

	// Upsert stores the cadence, overwriting the record of the same
	// (target, broker) pair when it exists.
	Upsert(ctx context.Context, cadence BrokerCadence) error

	// Delete cadence records of the target.
	Delete(ctx context.Context, targetId string) error
}
