package datums

import (
	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/utils/cmp"
	"github.com/starwatch/tom/pkg/utils/pointer"
	"github.com/starwatch/tom/pkg/utils/rfctime"
)

type Detail struct {
	Id             int64            `json:"id"`
	TargetId       string           `json:"target"`
	ProductId      *string          `json:"data_product,omitempty"`
	DataType       string           `json:"data_type"`
	SourceName     string           `json:"source_name,omitempty"`
	SourceLocation string           `json:"source_location,omitempty"`
	Observer       string           `json:"observer,omitempty"`
	Facility       string           `json:"facility,omitempty"`
	MJD            float64          `json:"mjd"`
	Timestamp      *rfctime.RFC3339 `json:"timestamp,omitempty"`
	Value          *float64         `json:"value,omitempty"`
	Error          *float64         `json:"error,omitempty"`
	ValueUnit      string           `json:"value_unit,omitempty"`
	Filter         string           `json:"filter,omitempty"`
	ValueList      []float64        `json:"value_list,omitempty"`
	ErrorList      []float64        `json:"error_list,omitempty"`
	Wavelengths    []float64        `json:"wavelengths,omitempty"`
	Active         bool             `json:"active"`
}

func (d *Detail) Equal(o *Detail) bool {
	if (d == nil) || (o == nil) {
		return (d == nil) && (o == nil)
	}
	return d.Id == o.Id &&
		d.TargetId == o.TargetId &&
		pointer.Equal(d.ProductId, o.ProductId) &&
		d.DataType == o.DataType &&
		d.SourceName == o.SourceName &&
		d.Observer == o.Observer &&
		d.Facility == o.Facility &&
		d.MJD == o.MJD &&
		pointer.Equal(d.Value, o.Value) &&
		pointer.Equal(d.Error, o.Error) &&
		d.ValueUnit == o.ValueUnit &&
		d.Filter == o.Filter &&
		cmp.SliceEq(d.ValueList, o.ValueList) &&
		cmp.SliceEq(d.ErrorList, o.ErrorList) &&
		cmp.SliceEq(d.Wavelengths, o.Wavelengths) &&
		d.Active == o.Active
}

func ComposeDetail(rd tdb.ReducedDatum) Detail {
	var timestamp *rfctime.RFC3339
	if !rd.Timestamp.IsZero() {
		t := rfctime.New(rd.Timestamp)
		timestamp = &t
	}

	return Detail{
		Id:             rd.Id,
		TargetId:       rd.TargetId,
		ProductId:      rd.ProductId,
		DataType:       string(rd.DataType),
		SourceName:     rd.SourceName,
		SourceLocation: rd.SourceLocation,
		Observer:       rd.Observer,
		Facility:       rd.Facility,
		MJD:            rd.MJD,
		Timestamp:      timestamp,
		Value:          rd.Value,
		Error:          rd.Error,
		ValueUnit:      string(rd.ValueUnit),
		Filter:         rd.Filter,
		ValueList:      rd.ValueList,
		ErrorList:      rd.ErrorList,
		Wavelengths:    rd.Wavelengths,
		Active:         rd.Active,
	}
}
