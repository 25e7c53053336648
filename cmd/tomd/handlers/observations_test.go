package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	httptestutil "github.com/starwatch/tom/internal/testutils/http"
	apiobs "github.com/starwatch/tom/pkg/api/types/observations"
	tdb "github.com/starwatch/tom/pkg/db"
	dbmock "github.com/starwatch/tom/pkg/db/mocks"

	"github.com/starwatch/tom/cmd/tomd/handlers"
)

func TestFindObservationHandler(t *testing.T) {
	start1 := time.Date(2023, 6, 1, 2, 0, 0, 0, time.UTC)
	start2 := time.Date(2023, 6, 8, 2, 0, 0, 0, time.UTC)
	records := []tdb.ObservationRecord{
		{
			Id: 1, TargetId: "SN 2023ixf", Facility: "LCO",
			Status: "COMPLETED", ScheduledStart: &start1,
		},
		{
			Id: 2, TargetId: "SN 2023ixf", Facility: "LCO",
			Status: "PENDING", ScheduledStart: &start2,
		},
	}

	newMock := func() *dbmock.ObservationInterface {
		mck := dbmock.NewObservationInterface()
		mck.Impl.FindByTarget = func(ctx context.Context, targetId string) ([]tdb.ObservationRecord, error) {
			return records, nil
		}
		return mck
	}

	request := func(e *echo.Echo, target string) (echo.Context, *httptest.ResponseRecorder) {
		c, respRec := httptestutil.Get(e, target)
		c.SetPath("/api/targets/:targetId/observations/")
		c.SetParamNames("targetId")
		c.SetParamValues("SN 2023ixf")
		return c, respRec
	}

	t.Run("all records of the target are listed", func(t *testing.T) {
		mck := newMock()

		e := echo.New()
		c, respRec := request(e, "/api/targets/SN%202023ixf/observations/")

		if err := handlers.FindObservationHandler(mck, "targetId")(c); err != nil {
			t.Fatal(err)
		}

		if len(mck.Calls.FindByTarget) != 1 || mck.Calls.FindByTarget[0].TargetId != "SN 2023ixf" {
			t.Errorf("unexpected FindByTarget calls: %+v", mck.Calls.FindByTarget)
		}

		resp := []apiobs.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if len(resp) != 2 {
			t.Fatalf("unexpected response: %+v", resp)
		}
		for i, r := range records {
			expected := apiobs.ComposeDetail(r)
			if !resp[i].Equal(&expected) {
				t.Errorf("unexpected record: %+v", resp[i])
			}
		}
	})

	t.Run("future=true hides terminal records", func(t *testing.T) {
		mck := newMock()

		e := echo.New()
		c, respRec := request(e, "/api/targets/SN%202023ixf/observations/?future=true")

		if err := handlers.FindObservationHandler(mck, "targetId")(c); err != nil {
			t.Fatal(err)
		}

		resp := []apiobs.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if len(resp) != 1 || resp[0].Id != 2 || resp[0].Terminal {
			t.Errorf("unexpected response: %+v", resp)
		}
	})
}

func TestRegisterObservationHandler(t *testing.T) {
	ixf := tdb.Target{
		TargetBody: tdb.TargetBody{TargetId: "SN 2023ixf", Name: "SN 2023ixf", Type: tdb.Sidereal},
	}

	newTargetMock := func() *dbmock.TargetInterface {
		mck := dbmock.NewTargetInterface()
		mck.Impl.Get = func(ctx context.Context, targetIds []string) (map[string]tdb.Target, error) {
			if len(targetIds) == 1 && targetIds[0] == "SN 2023ixf" {
				return map[string]tdb.Target{"SN 2023ixf": ixf}, nil
			}
			return map[string]tdb.Target{}, nil
		}
		return mck
	}

	request := func(e *echo.Echo, targetId string, body string) echo.Context {
		c, _ := httptestutil.Post(
			e, "/api/targets/"+targetId+"/observations/", strings.NewReader(body),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/targets/:targetId/observations/")
		c.SetParamNames("targetId")
		c.SetParamValues(targetId)
		return c
	}

	t.Run("a new record defaults to pending", func(t *testing.T) {
		mckTarget := newTargetMock()
		mckObs := dbmock.NewObservationInterface()
		mckObs.Impl.Register = func(ctx context.Context, record tdb.ObservationRecord) (int, error) {
			return 9, nil
		}

		e := echo.New()
		c := request(e, "SN 2023ixf", `{
			"facility": "LCO",
			"parameters": {"exposure_time": "300"},
			"scheduled_start": "2023-06-08T02:00:00Z"
		}`)

		if err := handlers.RegisterObservationHandler(mckTarget, mckObs, "targetId")(c); err != nil {
			t.Fatal(err)
		}

		if len(mckObs.Calls.Register) != 1 {
			t.Fatalf("Register is called %d times", len(mckObs.Calls.Register))
		}
		registered := mckObs.Calls.Register[0]
		if registered.TargetId != "SN 2023ixf" || registered.Facility != "LCO" ||
			registered.Status != "PENDING" {
			t.Errorf("unexpected record: %+v", registered)
		}
		if registered.ScheduledStart == nil ||
			!registered.ScheduledStart.Equal(time.Date(2023, 6, 8, 2, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected scheduled start: %v", registered.ScheduledStart)
		}
	})

	t.Run("a record without a facility is rejected", func(t *testing.T) {
		mckTarget := newTargetMock()
		mckObs := dbmock.NewObservationInterface()

		e := echo.New()
		c := request(e, "SN 2023ixf", `{"status": "PENDING"}`)

		err := handlers.RegisterObservationHandler(mckTarget, mckObs, "targetId")(c)
		httperr := new(echo.HTTPError)
		if !errors.As(err, &httperr) || httperr.Code != http.StatusBadRequest {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("an unknown target is not found", func(t *testing.T) {
		mckTarget := newTargetMock()
		mckObs := dbmock.NewObservationInterface()

		e := echo.New()
		c := request(e, "no one", `{"facility": "LCO"}`)

		err := handlers.RegisterObservationHandler(mckTarget, mckObs, "targetId")(c)
		httperr := new(echo.HTTPError)
		if !errors.As(err, &httperr) || httperr.Code != http.StatusNotFound {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestUpdateObservationStatusHandler(t *testing.T) {
	theory := func(body string, impl error, code int) func(*testing.T) {
		return func(t *testing.T) {
			mck := dbmock.NewObservationInterface()
			mck.Impl.UpdateStatus = func(ctx context.Context, id int, status string) error {
				return impl
			}

			e := echo.New()
			c, respRec := httptestutil.Put(
				e, "/api/observations/9/status/", strings.NewReader(body),
				httptestutil.ContentType("application/json"),
			)
			c.SetPath("/api/observations/:observationId/status/")
			c.SetParamNames("observationId")
			c.SetParamValues("9")

			err := handlers.UpdateObservationStatusHandler(mck, "observationId")(c)
			if code == http.StatusNoContent {
				if err != nil {
					t.Fatal(err)
				}
				if respRec.Code != http.StatusNoContent {
					t.Errorf("unexpected status code: %d", respRec.Code)
				}
				if len(mck.Calls.UpdateStatus) != 1 || mck.Calls.UpdateStatus[0].Id != 9 {
					t.Errorf("unexpected UpdateStatus calls: %+v", mck.Calls.UpdateStatus)
				}
			} else {
				httperr := new(echo.HTTPError)
				if !errors.As(err, &httperr) || httperr.Code != code {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}
	}

	t.Run("the status moves on", theory(`{"status": "COMPLETED"}`, nil, http.StatusNoContent))
	t.Run("an empty status is rejected", theory(`{}`, nil, http.StatusBadRequest))
	t.Run("a missing record is not found", theory(`{"status": "COMPLETED"}`, tdb.ErrMissing, http.StatusNotFound))
}
