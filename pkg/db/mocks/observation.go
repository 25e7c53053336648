package mocks

import (
	"context"
	"errors"

	tdb "github.com/starwatch/tom/pkg/db"
)

type ObservationInterface struct {
	Impl struct {
		Register     func(context.Context, tdb.ObservationRecord) (int, error)
		FindByTarget func(context.Context, string) ([]tdb.ObservationRecord, error)
		UpdateStatus func(context.Context, int, string) error
	}
	Calls struct {
		Register     CallLog[tdb.ObservationRecord]
		FindByTarget CallLog[struct{ TargetId string }]
		UpdateStatus CallLog[struct {
			Id     int
			Status string
		}]
	}
}

func NewObservationInterface() *ObservationInterface {
	return &ObservationInterface{}
}

var _ tdb.ObservationInterface = &ObservationInterface{}

func (oi *ObservationInterface) Register(ctx context.Context, record tdb.ObservationRecord) (int, error) {
	oi.Calls.Register = append(oi.Calls.Register, record)
	if oi.Impl.Register != nil {
		return oi.Impl.Register(ctx, record)
	}
	panic(errors.New("it should not be called"))
}

func (oi *ObservationInterface) FindByTarget(ctx context.Context, targetId string) ([]tdb.ObservationRecord, error) {
	oi.Calls.FindByTarget = append(oi.Calls.FindByTarget, struct{ TargetId string }{TargetId: targetId})
	if oi.Impl.FindByTarget != nil {
		return oi.Impl.FindByTarget(ctx, targetId)
	}
	panic(errors.New("it should not be called"))
}

func (oi *ObservationInterface) UpdateStatus(ctx context.Context, id int, status string) error {
	oi.Calls.UpdateStatus = append(oi.Calls.UpdateStatus, struct {
		Id     int
		Status string
	}{Id: id, Status: status})
	if oi.Impl.UpdateStatus != nil {
		return oi.Impl.UpdateStatus(ctx, id, status)
	}
	panic(errors.New("it should not be called"))
}
