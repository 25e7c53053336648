package mocks

import (
	"context"
	"errors"

	tdb "github.com/starwatch/tom/pkg/db"
)

type TargetInterface struct {
	Impl struct {
		Register     func(context.Context, tdb.Target) (string, error)
		Get          func(context.Context, []string) (map[string]tdb.Target, error)
		Find         func(context.Context, tdb.TargetQuery) ([]string, error)
		Update       func(context.Context, string, tdb.Target) error
		Delete       func(context.Context, string) error
		UpdateExtras func(context.Context, string, tdb.ExtraDelta) error
		ResolveNames func(context.Context, string) ([]string, error)
		RecordExport func(context.Context, string, []string) error
	}
	Calls struct {
		Register     CallLog[tdb.Target]
		Get          CallLog[struct{ TargetIds []string }]
		Find         CallLog[tdb.TargetQuery]
		Update       CallLog[struct {
			TargetId string
			Target   tdb.Target
		}]
		Delete       CallLog[struct{ TargetId string }]
		UpdateExtras CallLog[struct {
			TargetId string
			Delta    tdb.ExtraDelta
		}]
		ResolveNames CallLog[struct{ Name string }]
		RecordExport CallLog[struct {
			Username  string
			TargetIds []string
		}]
	}
}

func NewTargetInterface() *TargetInterface {
	return &TargetInterface{}
}

var _ tdb.TargetInterface = &TargetInterface{}

func (ti *TargetInterface) Register(ctx context.Context, target tdb.Target) (string, error) {
	ti.Calls.Register = append(ti.Calls.Register, target)
	if ti.Impl.Register != nil {
		return ti.Impl.Register(ctx, target)
	}
	panic(errors.New("it should not be called"))
}

func (ti *TargetInterface) Get(ctx context.Context, targetIds []string) (map[string]tdb.Target, error) {
	ti.Calls.Get = append(ti.Calls.Get, struct{ TargetIds []string }{TargetIds: targetIds})
	if ti.Impl.Get != nil {
		return ti.Impl.Get(ctx, targetIds)
	}
	panic(errors.New("it should not be called"))
}

func (ti *TargetInterface) Find(ctx context.Context, query tdb.TargetQuery) ([]string, error) {
	ti.Calls.Find = append(ti.Calls.Find, query)
	if ti.Impl.Find != nil {
		return ti.Impl.Find(ctx, query)
	}
	panic(errors.New("it should not be called"))
}

func (ti *TargetInterface) Update(ctx context.Context, targetId string, target tdb.Target) error {
	ti.Calls.Update = append(ti.Calls.Update, struct {
		TargetId string
		Target   tdb.Target
	}{TargetId: targetId, Target: target})
	if ti.Impl.Update != nil {
		return ti.Impl.Update(ctx, targetId, target)
	}
	panic(errors.New("it should not be called"))
}

func (ti *TargetInterface) Delete(ctx context.Context, targetId string) error {
	ti.Calls.Delete = append(ti.Calls.Delete, struct{ TargetId string }{TargetId: targetId})
	if ti.Impl.Delete != nil {
		return ti.Impl.Delete(ctx, targetId)
	}
	panic(errors.New("it should not be called"))
}

func (ti *TargetInterface) UpdateExtras(ctx context.Context, targetId string, delta tdb.ExtraDelta) error {
	ti.Calls.UpdateExtras = append(ti.Calls.UpdateExtras, struct {
		TargetId string
		Delta    tdb.ExtraDelta
	}{TargetId: targetId, Delta: delta})
	if ti.Impl.UpdateExtras != nil {
		return ti.Impl.UpdateExtras(ctx, targetId, delta)
	}
	panic(errors.New("it should not be called"))
}

func (ti *TargetInterface) ResolveNames(ctx context.Context, name string) ([]string, error) {
	ti.Calls.ResolveNames = append(ti.Calls.ResolveNames, struct{ Name string }{Name: name})
	if ti.Impl.ResolveNames != nil {
		return ti.Impl.ResolveNames(ctx, name)
	}
	panic(errors.New("it should not be called"))
}

func (ti *TargetInterface) RecordExport(ctx context.Context, username string, targetIds []string) error {
	ti.Calls.RecordExport = append(ti.Calls.RecordExport, struct {
		Username  string
		TargetIds []string
	}{Username: username, TargetIds: targetIds})
	if ti.Impl.RecordExport != nil {
		return ti.Impl.RecordExport(ctx, username, targetIds)
	}
	panic(errors.New("it should not be called"))
}

type TargetListInterface struct {
	Impl struct {
		Register      func(context.Context, string) (int, error)
		Find          func(context.Context) ([]tdb.TargetList, error)
		Delete        func(context.Context, int) error
		AddTargets    func(context.Context, int, []string) error
		RemoveTargets func(context.Context, int, []string) error
	}
	Calls struct {
		Register      CallLog[struct{ Name string }]
		Find          CallLog[struct{}]
		Delete        CallLog[struct{ Id int }]
		AddTargets    CallLog[struct {
			Id        int
			TargetIds []string
		}]
		RemoveTargets CallLog[struct {
			Id        int
			TargetIds []string
		}]
	}
}

func NewTargetListInterface() *TargetListInterface {
	return &TargetListInterface{}
}

var _ tdb.TargetListInterface = &TargetListInterface{}

func (li *TargetListInterface) Register(ctx context.Context, name string) (int, error) {
	li.Calls.Register = append(li.Calls.Register, struct{ Name string }{Name: name})
	if li.Impl.Register != nil {
		return li.Impl.Register(ctx, name)
	}
	panic(errors.New("it should not be called"))
}

func (li *TargetListInterface) Find(ctx context.Context) ([]tdb.TargetList, error) {
	li.Calls.Find = append(li.Calls.Find, struct{}{})
	if li.Impl.Find != nil {
		return li.Impl.Find(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (li *TargetListInterface) Delete(ctx context.Context, id int) error {
	li.Calls.Delete = append(li.Calls.Delete, struct{ Id int }{Id: id})
	if li.Impl.Delete != nil {
		return li.Impl.Delete(ctx, id)
	}
	panic(errors.New("it should not be called"))
}

func (li *TargetListInterface) AddTargets(ctx context.Context, id int, targetIds []string) error {
	li.Calls.AddTargets = append(li.Calls.AddTargets, struct {
		Id        int
		TargetIds []string
	}{Id: id, TargetIds: targetIds})
	if li.Impl.AddTargets != nil {
		return li.Impl.AddTargets(ctx, id, targetIds)
	}
	panic(errors.New("it should not be called"))
}

func (li *TargetListInterface) RemoveTargets(ctx context.Context, id int, targetIds []string) error {
	li.Calls.RemoveTargets = append(li.Calls.RemoveTargets, struct {
		Id        int
		TargetIds []string
	}{Id: id, TargetIds: targetIds})
	if li.Impl.RemoveTargets != nil {
		return li.Impl.RemoveTargets(ctx, id, targetIds)
	}
	panic(errors.New("it should not be called"))
}
