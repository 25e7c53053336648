package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	httptestutil "github.com/starwatch/tom/internal/testutils/http"
	apiusers "github.com/starwatch/tom/pkg/api/types/users"
	"github.com/starwatch/tom/pkg/auth"
	tdb "github.com/starwatch/tom/pkg/db"
	dbmock "github.com/starwatch/tom/pkg/db/mocks"

	"github.com/starwatch/tom/cmd/tomd/handlers"
)

func TestRegisterUserHandler(t *testing.T) {
	t.Run("a new user is registered with a hashed password", func(t *testing.T) {
		registered := tdb.User{
			UserBody: tdb.UserBody{Id: 42, Username: "bea", Email: "bea@example.org"},
			Groups:   []string{tdb.PublicGroup},
		}

		mck := dbmock.NewUserInterface()
		mck.Impl.Register = func(ctx context.Context, user tdb.User, hashedPassword string) (int, error) {
			return 42, nil
		}
		mck.Impl.Get = func(ctx context.Context, ids []int) (map[int]tdb.User, error) {
			return map[int]tdb.User{42: registered}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/users/",
			strings.NewReader(`{"username": "bea", "password": "open sesame", "email": "bea@example.org"}`),
			httptestutil.ContentType("application/json"),
		)

		if err := handlers.RegisterUserHandler(mck)(c); err != nil {
			t.Fatal(err)
		}
		if respRec.Code != http.StatusCreated {
			t.Errorf("unexpected status code: %d", respRec.Code)
		}

		if len(mck.Calls.Register) != 1 {
			t.Fatalf("Register is called %d times", len(mck.Calls.Register))
		}
		call := mck.Calls.Register[0]
		if call.User.Username != "bea" {
			t.Errorf("unexpected username: %s", call.User.Username)
		}
		if !auth.VerifyPassword(call.HashedPassword, "open sesame") {
			t.Error("the stored hash does not match the password")
		}

		resp := apiusers.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		expected := apiusers.ComposeDetail(registered)
		if !resp.Equal(&expected) {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("a taken username is a conflict", func(t *testing.T) {
		mck := dbmock.NewUserInterface()
		mck.Impl.Register = func(ctx context.Context, user tdb.User, hashedPassword string) (int, error) {
			return 0, tdb.ErrAlreadyExists
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/users/",
			strings.NewReader(`{"username": "bea", "password": "open sesame"}`),
			httptestutil.ContentType("application/json"),
		)

		err := handlers.RegisterUserHandler(mck)(c)
		httperr := new(echo.HTTPError)
		if !errors.As(err, &httperr) || httperr.Code != http.StatusConflict {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("a user without a password is rejected", func(t *testing.T) {
		mck := dbmock.NewUserInterface()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/users/",
			strings.NewReader(`{"username": "bea"}`),
			httptestutil.ContentType("application/json"),
		)

		err := handlers.RegisterUserHandler(mck)(c)
		httperr := new(echo.HTTPError)
		if !errors.As(err, &httperr) || httperr.Code != http.StatusBadRequest {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestUpdateUserHandler(t *testing.T) {
	bea := tdb.User{
		UserBody: tdb.UserBody{Id: 42, Username: "bea", Affiliation: "Starwatch Observatory"},
		Groups:   []string{tdb.PublicGroup},
	}

	okMock := func() *dbmock.UserInterface {
		mck := dbmock.NewUserInterface()
		mck.Impl.Update = func(ctx context.Context, id int, user tdb.User) error {
			return nil
		}
		mck.Impl.Get = func(ctx context.Context, ids []int) (map[int]tdb.User, error) {
			return map[int]tdb.User{42: bea}, nil
		}
		return mck
	}

	request := func(e *echo.Echo, body string, identity *auth.Identity) echo.Context {
		c, _ := httptestutil.Put(
			e, "/api/users/42/", strings.NewReader(body),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/users/:userId/")
		c.SetParamNames("userId")
		c.SetParamValues("42")
		if identity != nil {
			auth.SetIdentity(c, *identity)
		}
		return c
	}

	t.Run("a superuser can update another user", func(t *testing.T) {
		mck := okMock()
		e := echo.New()
		c := request(e, `{"username": "bea", "affiliation": "Starwatch Observatory"}`, &auth.Identity{
			UserId: 7, Username: "amy", Superuser: true,
		})

		if err := handlers.UpdateUserHandler(mck, "userId")(c); err != nil {
			t.Fatal(err)
		}
		if len(mck.Calls.Update) != 1 || mck.Calls.Update[0].Id != 42 {
			t.Errorf("unexpected Update calls: %+v", mck.Calls.Update)
		}
	})

	t.Run("a user can update itself", func(t *testing.T) {
		mck := okMock()
		e := echo.New()
		c := request(e, `{"username": "bea", "affiliation": "Starwatch Observatory"}`, &auth.Identity{
			UserId: 42, Username: "bea",
		})

		if err := handlers.UpdateUserHandler(mck, "userId")(c); err != nil {
			t.Fatal(err)
		}
		if len(mck.Calls.Update) != 1 {
			t.Errorf("unexpected Update calls: %+v", mck.Calls.Update)
		}
	})

	theory := func(body string, identity *auth.Identity, code int) func(*testing.T) {
		return func(t *testing.T) {
			mck := okMock()
			e := echo.New()
			c := request(e, body, identity)

			err := handlers.UpdateUserHandler(mck, "userId")(c)
			httperr := new(echo.HTTPError)
			if !errors.As(err, &httperr) || httperr.Code != code {
				t.Errorf("unexpected error: %v", err)
			}
			if len(mck.Calls.Update) != 0 {
				t.Errorf("Update should not be called: %+v", mck.Calls.Update)
			}
		}
	}

	t.Run(
		"another user without superuser is forbidden",
		theory(`{"username": "bea"}`, &auth.Identity{UserId: 9, Username: "cid"}, http.StatusForbidden),
	)
	t.Run(
		"no identity is unauthorized",
		theory(`{"username": "bea"}`, nil, http.StatusUnauthorized),
	)
	t.Run(
		"a user cannot grant superuser to itself",
		theory(
			`{"username": "bea", "is_superuser": true}`,
			&auth.Identity{UserId: 42, Username: "bea"},
			http.StatusForbidden,
		),
	)

	t.Run("a missing user is not found", func(t *testing.T) {
		mck := dbmock.NewUserInterface()
		mck.Impl.Update = func(ctx context.Context, id int, user tdb.User) error {
			return tdb.ErrMissing
		}

		e := echo.New()
		c := request(e, `{"username": "bea"}`, &auth.Identity{UserId: 7, Username: "amy", Superuser: true})

		err := handlers.UpdateUserHandler(mck, "userId")(c)
		httperr := new(echo.HTTPError)
		if !errors.As(err, &httperr) || httperr.Code != http.StatusNotFound {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestUpdatePasswordHandler(t *testing.T) {
	request := func(e *echo.Echo, body string, identity *auth.Identity) echo.Context {
		c, _ := httptestutil.Put(
			e, "/api/users/42/password/", strings.NewReader(body),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/users/:userId/password/")
		c.SetParamNames("userId")
		c.SetParamValues("42")
		if identity != nil {
			auth.SetIdentity(c, *identity)
		}
		return c
	}

	t.Run("a user can change its own password", func(t *testing.T) {
		mck := dbmock.NewUserInterface()
		mck.Impl.UpdatePassword = func(ctx context.Context, id int, hashedPassword string) error {
			return nil
		}

		e := echo.New()
		c := request(e, `{"password": "new secret"}`, &auth.Identity{UserId: 42, Username: "bea"})

		if err := handlers.UpdatePasswordHandler(mck, "userId")(c); err != nil {
			t.Fatal(err)
		}

		if len(mck.Calls.UpdatePassword) != 1 {
			t.Fatalf("UpdatePassword is called %d times", len(mck.Calls.UpdatePassword))
		}
		call := mck.Calls.UpdatePassword[0]
		if call.Id != 42 {
			t.Errorf("unexpected id: %d", call.Id)
		}
		if !auth.VerifyPassword(call.HashedPassword, "new secret") {
			t.Error("the stored hash does not match the password")
		}
	})

	t.Run("another user without superuser is forbidden", func(t *testing.T) {
		mck := dbmock.NewUserInterface()

		e := echo.New()
		c := request(e, `{"password": "new secret"}`, &auth.Identity{UserId: 9, Username: "cid"})

		err := handlers.UpdatePasswordHandler(mck, "userId")(c)
		httperr := new(echo.HTTPError)
		if !errors.As(err, &httperr) || httperr.Code != http.StatusForbidden {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("an empty password is rejected", func(t *testing.T) {
		mck := dbmock.NewUserInterface()

		e := echo.New()
		c := request(e, `{}`, &auth.Identity{UserId: 42, Username: "bea"})

		err := handlers.UpdatePasswordHandler(mck, "userId")(c)
		httperr := new(echo.HTTPError)
		if !errors.As(err, &httperr) || httperr.Code != http.StatusBadRequest {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestDeleteUserHandler(t *testing.T) {
	theory := func(impl error, code int) func(*testing.T) {
		return func(t *testing.T) {
			mck := dbmock.NewUserInterface()
			mck.Impl.Delete = func(ctx context.Context, id int) error { return impl }

			e := echo.New()
			c, respRec := httptestutil.Delete(e, "/api/users/42/")
			c.SetPath("/api/users/:userId/")
			c.SetParamNames("userId")
			c.SetParamValues("42")

			err := handlers.DeleteUserHandler(mck, "userId")(c)
			if code == http.StatusNoContent {
				if err != nil {
					t.Fatal(err)
				}
				if respRec.Code != http.StatusNoContent {
					t.Errorf("unexpected status code: %d", respRec.Code)
				}
			} else {
				httperr := new(echo.HTTPError)
				if !errors.As(err, &httperr) || httperr.Code != code {
					t.Errorf("unexpected error: %v", err)
				}
			}

			if len(mck.Calls.Delete) != 1 || mck.Calls.Delete[0].Id != 42 {
				t.Errorf("unexpected Delete calls: %+v", mck.Calls.Delete)
			}
		}
	}

	t.Run("an existing user is deleted", theory(nil, http.StatusNoContent))
	t.Run("a missing user is not found", theory(tdb.ErrMissing, http.StatusNotFound))
}

func TestGroupHandlers(t *testing.T) {
	t.Run("groups are listed with their members", func(t *testing.T) {
		groups := []tdb.Group{
			{Id: 1, Name: tdb.PublicGroup, Members: []string{"amy", "bea"}},
			{Id: 2, Name: "staff", Members: []string{"amy"}},
		}
		mck := dbmock.NewGroupInterface()
		mck.Impl.Find = func(ctx context.Context) ([]tdb.Group, error) { return groups, nil }

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/groups/")

		if err := handlers.FindGroupHandler(mck)(c); err != nil {
			t.Fatal(err)
		}

		resp := []apiusers.Group{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if len(resp) != 2 {
			t.Fatalf("unexpected response: %+v", resp)
		}
		for i, g := range groups {
			expected := apiusers.ComposeGroup(g)
			if !resp[i].Equal(&expected) {
				t.Errorf("unexpected group: %+v", resp[i])
			}
		}
	})

	t.Run("a new group starts empty", func(t *testing.T) {
		mck := dbmock.NewGroupInterface()
		mck.Impl.Register = func(ctx context.Context, name string) (int, error) { return 3, nil }

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/groups/", strings.NewReader(`{"name": "observers"}`),
			httptestutil.ContentType("application/json"),
		)

		if err := handlers.RegisterGroupHandler(mck)(c); err != nil {
			t.Fatal(err)
		}
		if respRec.Code != http.StatusCreated {
			t.Errorf("unexpected status code: %d", respRec.Code)
		}

		resp := apiusers.Group{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		expected := apiusers.Group{Id: 3, Name: "observers", Members: []string{}}
		if !resp.Equal(&expected) {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("a taken group name is a conflict", func(t *testing.T) {
		mck := dbmock.NewGroupInterface()
		mck.Impl.Register = func(ctx context.Context, name string) (int, error) {
			return 0, tdb.ErrAlreadyExists
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/groups/", strings.NewReader(`{"name": "observers"}`),
			httptestutil.ContentType("application/json"),
		)

		err := handlers.RegisterGroupHandler(mck)(c)
		httperr := new(echo.HTTPError)
		if !errors.As(err, &httperr) || httperr.Code != http.StatusConflict {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("membership is reconciled on update", func(t *testing.T) {
		mck := dbmock.NewGroupInterface()
		mck.Impl.Update = func(ctx context.Context, id int, group tdb.Group) error { return nil }

		e := echo.New()
		c, _ := httptestutil.Put(
			e, "/api/groups/2/",
			strings.NewReader(`{"name": "staff", "users": ["amy", "bea"]}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/groups/:groupId/")
		c.SetParamNames("groupId")
		c.SetParamValues("2")

		if err := handlers.UpdateGroupHandler(mck, "groupId")(c); err != nil {
			t.Fatal(err)
		}

		if len(mck.Calls.Update) != 1 {
			t.Fatalf("Update is called %d times", len(mck.Calls.Update))
		}
		call := mck.Calls.Update[0]
		expected := tdb.Group{Id: 2, Name: "staff", Members: []string{"amy", "bea"}}
		if call.Id != 2 || !call.Group.Equal(&expected) {
			t.Errorf("unexpected Update call: %+v", call)
		}
	})

	t.Run("deleting a missing group is not found", func(t *testing.T) {
		mck := dbmock.NewGroupInterface()
		mck.Impl.Delete = func(ctx context.Context, id int) error { return tdb.ErrMissing }

		e := echo.New()
		c, _ := httptestutil.Delete(e, "/api/groups/9/")
		c.SetPath("/api/groups/:groupId/")
		c.SetParamNames("groupId")
		c.SetParamValues("9")

		err := handlers.DeleteGroupHandler(mck, "groupId")(c)
		httperr := new(echo.HTTPError)
		if !errors.As(err, &httperr) || httperr.Code != http.StatusNotFound {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
