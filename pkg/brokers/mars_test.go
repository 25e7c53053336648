package brokers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/starwatch/tom/pkg/brokers"
	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/db/mocks"
	"github.com/starwatch/tom/pkg/utils/try"
)

func TestMARS_FetchAlerts(t *testing.T) {
	t.Run("it follows has_next and drops empty parameters", func(t *testing.T) {
		queries := []url.Values{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			queries = append(queries, r.URL.Query())
			page := r.URL.Query().Get("page")
			fmt.Fprintf(w, `{"has_next": %t, "results": [{"lco_id": %s00}]}`, page == "1", page)
		}))
		defer server.Close()

		mars := brokers.NewMARS(server.URL, server.Client())
		alerts := try.To(mars.FetchAlerts(context.Background(), url.Values{
			"objectId": {"ZTF23aaklqou"},
			"rb__gte":  {""},
		})).OrFatal(t)

		if len(alerts) != 2 {
			t.Errorf("unexpected alert count: %d", len(alerts))
		}
		if len(queries) != 2 {
			t.Fatalf("unexpected request count: %d", len(queries))
		}
		for i, q := range queries {
			if q.Get("page") != fmt.Sprint(i+1) {
				t.Errorf("unexpected page on request %d: %s", i, q.Get("page"))
			}
			if q.Get("format") != "json" {
				t.Errorf("format=json is missing on request %d", i)
			}
			if q.Get("objectId") != "ZTF23aaklqou" {
				t.Errorf("objectId is missing on request %d", i)
			}
			if _, ok := q["rb__gte"]; ok {
				t.Errorf("empty parameter leaked into request %d", i)
			}
		}
	})

	t.Run("it stops at the page cap even if more pages remain", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			fmt.Fprint(w, `{"has_next": true, "results": [{"lco_id": 1}]}`)
		}))
		defer server.Close()

		mars := brokers.NewMARS(server.URL, server.Client())
		alerts := try.To(mars.FetchAlerts(context.Background(), url.Values{})).OrFatal(t)

		if requests != 10 {
			t.Errorf("unexpected request count: %d", requests)
		}
		if len(alerts) != 10 {
			t.Errorf("unexpected alert count: %d", len(alerts))
		}
	})
}

func TestMARS_FetchAlert(t *testing.T) {
	t.Run("a single alert is fetched by id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/12345/" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			fmt.Fprint(w, `{"lco_id": 12345, "objectId": "ZTF23aaklqou"}`)
		}))
		defer server.Close()

		mars := brokers.NewMARS(server.URL, server.Client())
		raw := try.To(mars.FetchAlert(context.Background(), "12345")).OrFatal(t)

		a := new(struct {
			ObjectId string `json:"objectId"`
		})
		if err := json.Unmarshal(raw, a); err != nil {
			t.Fatal(err)
		}
		if a.ObjectId != "ZTF23aaklqou" {
			t.Errorf("unexpected alert: %s", string(raw))
		}
	})

	t.Run("a missing alert is reported as ErrNoSuchAlert", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		mars := brokers.NewMARS(server.URL, server.Client())
		if _, err := mars.FetchAlert(context.Background(), "99999"); !errors.Is(err, brokers.ErrNoSuchAlert) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestMARS_ToTarget(t *testing.T) {
	t.Run("a sidereal target is drafted from the candidate", func(t *testing.T) {
		alert := json.RawMessage(`{
			"lco_id": 12345,
			"objectId": "ZTF23aaklqou",
			"candidate": {"ra": 210.910674, "dec": 54.31165, "l": 102.2, "b": 59.8}
		}`)

		mars := brokers.NewMARS("https://mars.example", nil)
		target := try.To(mars.ToTarget(alert)).OrFatal(t)

		if target.Name != "ZTF23aaklqou" || target.Type != tdb.Sidereal {
			t.Errorf("unexpected target: %+v", target.TargetBody)
		}
		if target.RA == nil || *target.RA != 210.910674 {
			t.Errorf("unexpected ra: %v", target.RA)
		}
		if target.GalacticLat == nil || *target.GalacticLat != 59.8 {
			t.Errorf("unexpected galactic latitude: %v", target.GalacticLat)
		}
		if len(target.Aliases) != 1 || target.Aliases[0].SourceName != "ZTF" {
			t.Errorf("unexpected aliases: %+v", target.Aliases)
		}
	})

	t.Run("an alert without objectId is rejected", func(t *testing.T) {
		mars := brokers.NewMARS("https://mars.example", nil)
		if _, err := mars.ToTarget(json.RawMessage(`{"lco_id": 1}`)); err == nil {
			t.Error("no error")
		}
	})
}

func TestMARS_ToGenericAlert(t *testing.T) {
	alert := json.RawMessage(`{
		"lco_id": 12345,
		"objectId": "ZTF23aaklqou",
		"candidate": {
			"ra": 210.9, "dec": 54.3, "magpsf": 17.2, "rb": 0.92,
			"wall_time": "2023-05-20 03:12:44"
		}
	}`)

	mars := brokers.NewMARS("https://mars.example", nil)
	generic := try.To(mars.ToGenericAlert(alert)).OrFatal(t)

	if generic.Id != "12345" || generic.Name != "ZTF23aaklqou" {
		t.Errorf("unexpected alert: %+v", generic)
	}
	if generic.URL != "https://mars.example/12345/" {
		t.Errorf("unexpected url: %s", generic.URL)
	}
	if generic.Mag == nil || *generic.Mag != 17.2 {
		t.Errorf("unexpected mag: %v", generic.Mag)
	}
	if generic.Score == nil || *generic.Score != 0.92 {
		t.Errorf("unexpected score: %v", generic.Score)
	}
}

func TestMARS_ProcessReducedData(t *testing.T) {
	t.Run("detections and nondetections are stored, incomplete rows dropped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("objectId") != "ZTF23aaklqou" {
				t.Errorf("unexpected objectId: %s", r.URL.Query().Get("objectId"))
			}
			fmt.Fprint(w, `{"has_next": false, "results": [{
				"lco_id": 12345,
				"objectId": "ZTF23aaklqou",
				"candidate": {"jd": 2460085.5, "magpsf": 17.2, "sigmapsf": 0.05, "fid": 1},
				"prv_candidate": [
					{"jd": 2460080.5, "magpsf": 17.8, "sigmapsf": 0.07, "fid": 2},
					{"jd": 2460075.5, "diffmaglim": 19.5, "fid": 1},
					{"jd": 2460070.5, "fid": 1},
					{"jd": 2460085.5, "magpsf": 17.2, "sigmapsf": 0.05, "fid": 1}
				]
			}]}`)
		}))
		defer server.Close()

		datums := mocks.NewDatumInterface()
		datums.Impl.BulkRegister = func(ctx context.Context, rows []tdb.ReducedDatum) (int, error) {
			return len(rows), nil
		}

		target := tdb.Target{
			TargetBody: tdb.TargetBody{TargetId: "tgt-1", Name: "SN 2023x"},
			Aliases:    []tdb.TargetName{{SourceName: "ztf", Name: "ZTF23aaklqou"}},
		}

		mars := brokers.NewMARS(server.URL, server.Client())
		inserted := try.To(mars.ProcessReducedData(context.Background(), datums, target)).OrFatal(t)

		if inserted != 3 {
			t.Errorf("unexpected inserted count: %d", inserted)
		}
		if datums.Calls.BulkRegister.Times() != 1 {
			t.Fatalf("BulkRegister is called %d times", datums.Calls.BulkRegister.Times())
		}

		rows := datums.Calls.BulkRegister[0].Datums
		if len(rows) != 3 {
			t.Fatalf("unexpected row count: %d", len(rows))
		}

		detections := 0
		nondetections := 0
		for _, row := range rows {
			if row.TargetId != "tgt-1" {
				t.Errorf("unexpected target id: %s", row.TargetId)
			}
			if row.SourceName != "MARS" || row.Facility != "ZTF" || row.Observer != "ZTF" {
				t.Errorf("unexpected provenance: %+v", row)
			}
			if row.SourceLocation != server.URL+"/12345/" {
				t.Errorf("unexpected source location: %s", row.SourceLocation)
			}
			switch row.DataType {
			case tdb.Photometry:
				detections++
				if row.Error == nil {
					t.Errorf("detection without error: %+v", row)
				}
			case tdb.PhotometryNondetection:
				nondetections++
				if row.Error != nil {
					t.Errorf("nondetection with error: %+v", row)
				}
				if row.Value == nil || *row.Value != 19.5 {
					t.Errorf("unexpected limit: %v", row.Value)
				}
			}
		}
		if detections != 2 || nondetections != 1 {
			t.Errorf("unexpected mix: %d detections, %d nondetections", detections, nondetections)
		}

		filters := map[string]bool{}
		for _, row := range rows {
			filters[row.Filter] = true
		}
		if !filters["g"] || !filters["r"] {
			t.Errorf("unexpected filters: %v", filters)
		}
	})

	t.Run("repeated polls submit identity-equal nondetection rows", func(t *testing.T) {
		// Nondetections have no error value. The rows of every poll round
		// are identical, so deduplicating them is entirely up to the
		// store's identity collision.
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"has_next": false, "results": [{
				"lco_id": 777,
				"objectId": "ZTF23aaklqou",
				"candidate": {"jd": 2460075.5, "diffmaglim": 19.5, "fid": 1}
			}]}`)
		}))
		defer server.Close()

		datums := mocks.NewDatumInterface()
		datums.Impl.BulkRegister = func(ctx context.Context, rows []tdb.ReducedDatum) (int, error) {
			return len(rows), nil
		}

		target := tdb.Target{
			TargetBody: tdb.TargetBody{TargetId: "tgt-1", Name: "ZTF23aaklqou"},
		}

		mars := brokers.NewMARS(server.URL, server.Client())
		try.To(mars.ProcessReducedData(context.Background(), datums, target)).OrFatal(t)
		try.To(mars.ProcessReducedData(context.Background(), datums, target)).OrFatal(t)

		if datums.Calls.BulkRegister.Times() != 2 {
			t.Fatalf("BulkRegister is called %d times", datums.Calls.BulkRegister.Times())
		}
		first := datums.Calls.BulkRegister[0].Datums
		second := datums.Calls.BulkRegister[1].Datums
		if len(first) != 1 || len(second) != 1 {
			t.Fatalf("unexpected row counts: %d, %d", len(first), len(second))
		}
		if first[0].Error != nil {
			t.Errorf("nondetection with error: %+v", first[0])
		}
		if !first[0].Equal(&second[0]) {
			t.Errorf("rows differ between rounds: %+v != %+v", first[0], second[0])
		}
		if first[0].DedupKey() != second[0].DedupKey() {
			t.Errorf(
				"identity differs between rounds: %s != %s",
				first[0].DedupKey(), second[0].DedupKey(),
			)
		}
	})

	t.Run("no rows means no registration", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"has_next": false, "results": []}`)
		}))
		defer server.Close()

		datums := mocks.NewDatumInterface()
		mars := brokers.NewMARS(server.URL, server.Client())
		inserted := try.To(mars.ProcessReducedData(
			context.Background(), datums,
			tdb.Target{TargetBody: tdb.TargetBody{TargetId: "tgt-1", Name: "x"}},
		)).OrFatal(t)

		if inserted != 0 {
			t.Errorf("unexpected inserted count: %d", inserted)
		}
		if datums.Calls.BulkRegister.Times() != 0 {
			t.Errorf("BulkRegister should not be called")
		}
	})
}

func TestRegistry(t *testing.T) {
	mars := brokers.NewMARS("https://mars.example", nil)
	fink := brokers.NewFink("https://fink.example", nil)
	registry := brokers.NewRegistry(mars, fink)

	t.Run("brokers are found case-insensitively", func(t *testing.T) {
		if b, ok := registry.Get("mars"); !ok || b.Name() != "MARS" {
			t.Errorf("MARS is not found")
		}
		if b, ok := registry.Get("Fink"); !ok || b.Name() != "FINK" {
			t.Errorf("FINK is not found")
		}
		if _, ok := registry.Get("lasair"); ok {
			t.Errorf("unknown broker is found")
		}
	})

	t.Run("names keep registration order", func(t *testing.T) {
		names := registry.Names()
		if len(names) != 2 || names[0] != "MARS" || names[1] != "FINK" {
			t.Errorf("unexpected names: %v", names)
		}
	})
}
