package mocks

import (
	"context"
	"errors"

	tdb "github.com/starwatch/tom/pkg/db"
)

type DatumInterface struct {
	Impl struct {
		BulkRegister func(context.Context, []tdb.ReducedDatum) (int, error)
		Find         func(context.Context, tdb.DatumQuery) ([]tdb.ReducedDatum, error)
		SetActive    func(context.Context, int64, bool) error
	}
	Calls struct {
		BulkRegister CallLog[struct{ Datums []tdb.ReducedDatum }]
		Find         CallLog[tdb.DatumQuery]
		SetActive    CallLog[struct {
			Id     int64
			Active bool
		}]
	}
}

func NewDatumInterface() *DatumInterface {
	return &DatumInterface{}
}

var _ tdb.DatumInterface = &DatumInterface{}

func (di *DatumInterface) BulkRegister(ctx context.Context, datums []tdb.ReducedDatum) (int, error) {
	di.Calls.BulkRegister = append(di.Calls.BulkRegister, struct{ Datums []tdb.ReducedDatum }{Datums: datums})
	if di.Impl.BulkRegister != nil {
		return di.Impl.BulkRegister(ctx, datums)
	}
	panic(errors.New("it should not be called"))
}

func (di *DatumInterface) Find(ctx context.Context, query tdb.DatumQuery) ([]tdb.ReducedDatum, error) {
	di.Calls.Find = append(di.Calls.Find, query)
	if di.Impl.Find != nil {
		return di.Impl.Find(ctx, query)
	}
	panic(errors.New("it should not be called"))
}

func (di *DatumInterface) SetActive(ctx context.Context, id int64, active bool) error {
	di.Calls.SetActive = append(di.Calls.SetActive, struct {
		Id     int64
		Active bool
	}{Id: id, Active: active})
	if di.Impl.SetActive != nil {
		return di.Impl.SetActive(ctx, id, active)
	}
	panic(errors.New("it should not be called"))
}

type CadenceInterface struct {
	Impl struct {
		Find   func(context.Context) ([]tdb.BrokerCadence, error)
		Upsert func(context.Context, tdb.BrokerCadence) error
		Delete func(context.Context, string) error
	}
	Calls struct {
		Find   CallLog[struct{}]
		Upsert CallLog[tdb.BrokerCadence]
		Delete CallLog[struct{ TargetId string }]
	}
}

func NewCadenceInterface() *CadenceInterface {
	return &CadenceInterface{}
}

var _ tdb.CadenceInterface = &CadenceInterface{}

func (ci *CadenceInterface) Find(ctx context.Context) ([]tdb.BrokerCadence, error) {
	ci.Calls.Find = append(ci.Calls.Find, struct{}{})
	if ci.Impl.Find != nil {
		return ci.Impl.Find(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (ci *CadenceInterface) Upsert(ctx context.Context, cadence tdb.BrokerCadence) error {
	ci.Calls.Upsert = append(ci.Calls.Upsert, cadence)
	if ci.Impl.Upsert != nil {
		return ci.Impl.Upsert(ctx, cadence)
	}
	panic(errors.New("it should not be called"))
}

func (ci *CadenceInterface) Delete(ctx context.Context, targetId string) error {
	ci.Calls.Delete = append(ci.Calls.Delete, struct{ TargetId string }{TargetId: targetId})
	if ci.Impl.Delete != nil {
		return ci.Impl.Delete(ctx, targetId)
	}
	panic(errors.New("it should not be called"))
}
