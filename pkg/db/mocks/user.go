package mocks

import (
	"context"
	"errors"

	tdb "github.com/starwatch/tom/pkg/db"
)

type UserInterface struct {
	Impl struct {
		Register       func(context.Context, tdb.User, string) (int, error)
		Get            func(context.Context, []int) (map[int]tdb.User, error)
		GetByUsername  func(context.Context, string) (tdb.User, string, error)
		Find           func(context.Context) ([]int, error)
		Update         func(context.Context, int, tdb.User) error
		UpdatePassword func(context.Context, int, string) error
		Delete         func(context.Context, int) error
	}
	Calls struct {
		Register CallLog[struct {
			User           tdb.User
			HashedPassword string
		}]
		Get           CallLog[struct{ Ids []int }]
		GetByUsername CallLog[struct{ Username string }]
		Find          CallLog[struct{}]
		Update        CallLog[struct {
			Id   int
			User tdb.User
		}]
		UpdatePassword CallLog[struct {
			Id             int
			HashedPassword string
		}]
		Delete CallLog[struct{ Id int }]
	}
}

func NewUserInterface() *UserInterface {
	return &UserInterface{}
}

var _ tdb.UserInterface = &UserInterface{}

func (ui *UserInterface) Register(ctx context.Context, user tdb.User, hashedPassword string) (int, error) {
	ui.Calls.Register = append(ui.Calls.Register, struct {
		User           tdb.User
		HashedPassword string
	}{User: user, HashedPassword: hashedPassword})
	if ui.Impl.Register != nil {
		return ui.Impl.Register(ctx, user, hashedPassword)
	}
	panic(errors.New("it should not be called"))
}

func (ui *UserInterface) Get(ctx context.Context, ids []int) (map[int]tdb.User, error) {
	ui.Calls.Get = append(ui.Calls.Get, struct{ Ids []int }{Ids: ids})
	if ui.Impl.Get != nil {
		return ui.Impl.Get(ctx, ids)
	}
	panic(errors.New("it should not be called"))
}

func (ui *UserInterface) GetByUsername(ctx context.Context, username string) (tdb.User, string, error) {
	ui.Calls.GetByUsername = append(ui.Calls.GetByUsername, struct{ Username string }{Username: username})
	if ui.Impl.GetByUsername != nil {
		return ui.Impl.GetByUsername(ctx, username)
	}
	panic(errors.New("it should not be called"))
}

func (ui *UserInterface) Find(ctx context.Context) ([]int, error) {
	ui.Calls.Find = append(ui.Calls.Find, struct{}{})
	if ui.Impl.Find != nil {
		return ui.Impl.Find(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (ui *UserInterface) Update(ctx context.Context, id int, user tdb.User) error {
	ui.Calls.Update = append(ui.Calls.Update, struct {
		Id   int
		User tdb.User
	}{Id: id, User: user})
	if ui.Impl.Update != nil {
		return ui.Impl.Update(ctx, id, user)
	}
	panic(errors.New("it should not be called"))
}

func (ui *UserInterface) UpdatePassword(ctx context.Context, id int, hashedPassword string) error {
	ui.Calls.UpdatePassword = append(ui.Calls.UpdatePassword, struct {
		Id             int
		HashedPassword string
	}{Id: id, HashedPassword: hashedPassword})
	if ui.Impl.UpdatePassword != nil {
		return ui.Impl.UpdatePassword(ctx, id, hashedPassword)
	}
	panic(errors.New("it should not be called"))
}

func (ui *UserInterface) Delete(ctx context.Context, id int) error {
	ui.Calls.Delete = append(ui.Calls.Delete, struct{ Id int }{Id: id})
	if ui.Impl.Delete != nil {
		return ui.Impl.Delete(ctx, id)
	}
	panic(errors.New("it should not be called"))
}

type GroupInterface struct {
	Impl struct {
		Register func(context.Context, string) (int, error)
		Find     func(context.Context) ([]tdb.Group, error)
		Update   func(context.Context, int, tdb.Group) error
		Delete   func(context.Context, int) error
	}
	Calls struct {
		Register CallLog[struct{ Name string }]
		Find     CallLog[struct{}]
		Update   CallLog[struct {
			Id    int
			Group tdb.Group
		}]
		Delete CallLog[struct{ Id int }]
	}
}

func NewGroupInterface() *GroupInterface {
	return &GroupInterface{}
}

var _ tdb.GroupInterface = &GroupInterface{}

func (gi *GroupInterface) Register(ctx context.Context, name string) (int, error) {
	gi.Calls.Register = append(gi.Calls.Register, struct{ Name string }{Name: name})
	if gi.Impl.Register != nil {
		return gi.Impl.Register(ctx, name)
	}
	panic(errors.New("it should not be called"))
}

func (gi *GroupInterface) Find(ctx context.Context) ([]tdb.Group, error) {
	gi.Calls.Find = append(gi.Calls.Find, struct{}{})
	if gi.Impl.Find != nil {
		return gi.Impl.Find(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (gi *GroupInterface) Update(ctx context.Context, id int, group tdb.Group) error {
	gi.Calls.Update = append(gi.Calls.Update, struct {
		Id    int
		Group tdb.Group
	}{Id: id, Group: group})
	if gi.Impl.Update != nil {
		return gi.Impl.Update(ctx, id, group)
	}
	panic(errors.New("it should not be called"))
}

func (gi *GroupInterface) Delete(ctx context.Context, id int) error {
	gi.Calls.Delete = append(gi.Calls.Delete, struct{ Id int }{Id: id})
	if gi.Impl.Delete != nil {
		return gi.Impl.Delete(ctx, id)
	}
	panic(errors.New("it should not be called"))
}
