package mocks

import (
	"context"
	"errors"

	tdb "github.com/starwatch/tom/pkg/db"
)

type DataProductInterface struct {
	Impl struct {
		Register    func(context.Context, tdb.DataProduct) (string, error)
		Get         func(context.Context, []string) (map[string]tdb.DataProduct, error)
		Find        func(context.Context, tdb.DataProductQuery) ([]string, error)
		Delete      func(context.Context, string) error
		SetStatus   func(context.Context, string, tdb.DataProductStatus) error
		SetFeatured func(context.Context, string) error
	}
	Calls struct {
		Register  CallLog[tdb.DataProduct]
		Get       CallLog[struct{ ProductIds []string }]
		Find      CallLog[tdb.DataProductQuery]
		Delete    CallLog[struct{ ProductId string }]
		SetStatus CallLog[struct {
			ProductId string
			Status    tdb.DataProductStatus
		}]
		SetFeatured CallLog[struct{ ProductId string }]
	}
}

func NewDataProductInterface() *DataProductInterface {
	return &DataProductInterface{}
}

var _ tdb.DataProductInterface = &DataProductInterface{}

func (di *DataProductInterface) Register(ctx context.Context, product tdb.DataProduct) (string, error) {
	di.Calls.Register = append(di.Calls.Register, product)
	if di.Impl.Register != nil {
		return di.Impl.Register(ctx, product)
	}
	panic(errors.New("it should not be called"))
}

func (di *DataProductInterface) Get(ctx context.Context, productIds []string) (map[string]tdb.DataProduct, error) {
	di.Calls.Get = append(di.Calls.Get, struct{ ProductIds []string }{ProductIds: productIds})
	if di.Impl.Get != nil {
		return di.Impl.Get(ctx, productIds)
	}
	panic(errors.New("it should not be called"))
}

func (di *DataProductInterface) Find(ctx context.Context, query tdb.DataProductQuery) ([]string, error) {
	di.Calls.Find = append(di.Calls.Find, query)
	if di.Impl.Find != nil {
		return di.Impl.Find(ctx, query)
	}
	panic(errors.New("it should not be called"))
}

func (di *DataProductInterface) Delete(ctx context.Context, productId string) error {
	di.Calls.Delete = append(di.Calls.Delete, struct{ ProductId string }{ProductId: productId})
	if di.Impl.Delete != nil {
		return di.Impl.Delete(ctx, productId)
	}
	panic(errors.New("it should not be called"))
}

func (di *DataProductInterface) SetStatus(ctx context.Context, productId string, status tdb.DataProductStatus) error {
	di.Calls.SetStatus = append(di.Calls.SetStatus, struct {
		ProductId string
		Status    tdb.DataProductStatus
	}{ProductId: productId, Status: status})
	if di.Impl.SetStatus != nil {
		return di.Impl.SetStatus(ctx, productId, status)
	}
	panic(errors.New("it should not be called"))
}

func (di *DataProductInterface) SetFeatured(ctx context.Context, productId string) error {
	di.Calls.SetFeatured = append(di.Calls.SetFeatured, struct{ ProductId string }{ProductId: productId})
	if di.Impl.SetFeatured != nil {
		return di.Impl.SetFeatured(ctx, productId)
	}
	panic(errors.New("it should not be called"))
}
