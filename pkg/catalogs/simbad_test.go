package catalogs_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starwatch/tom/pkg/catalogs"
	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/utils/try"
)

func TestSimbad_Query(t *testing.T) {
	t.Run("a known term yields a record with coordinates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/sync" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if err := r.ParseForm(); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(r.PostForm.Get("QUERY"), "'M  31'") {
				t.Errorf("unexpected query: %s", r.PostForm.Get("QUERY"))
			}
			fmt.Fprint(w, `{
				"metadata": [{"name": "main_id"}, {"name": "ra"}, {"name": "dec"}],
				"data": [["M  31", 10.684708, 41.26875]]
			}`)
		}))
		defer server.Close()

		simbad := catalogs.NewSimbad(server.URL, server.Client())
		record := try.To(simbad.Query(context.Background(), "M  31")).OrFatal(t)

		if record.Name != "M  31" {
			t.Errorf("unexpected name: %s", record.Name)
		}
		if record.RA == nil || *record.RA != 10.684708 {
			t.Errorf("unexpected ra: %v", record.RA)
		}
		if record.Dec == nil || *record.Dec != 41.26875 {
			t.Errorf("unexpected dec: %v", record.Dec)
		}
	})

	t.Run("an unknown term is reported as ErrMissingData", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"metadata": [{"name": "main_id"}], "data": []}`)
		}))
		defer server.Close()

		simbad := catalogs.NewSimbad(server.URL, server.Client())
		if _, err := simbad.Query(context.Background(), "no such star"); !errors.Is(err, catalogs.ErrMissingData) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestSimbad_ToTarget(t *testing.T) {
	simbad := catalogs.NewSimbad("https://simbad.example", nil)

	ra := 10.684708
	dec := 41.26875
	target := try.To(simbad.ToTarget(catalogs.Record{
		Name: "M  31", RA: &ra, Dec: &dec,
	})).OrFatal(t)

	if target.Name != "M  31" || target.Type != tdb.Sidereal {
		t.Errorf("unexpected target: %+v", target.TargetBody)
	}
	if len(target.Aliases) != 1 || target.Aliases[0].SourceName != "SIMBAD" {
		t.Errorf("unexpected aliases: %+v", target.Aliases)
	}

	t.Run("a record without coordinates cannot become a sidereal target", func(t *testing.T) {
		if _, err := simbad.ToTarget(catalogs.Record{Name: "M  31"}); err == nil {
			t.Error("no error")
		}
	})
}

func TestRegistry(t *testing.T) {
	simbad := catalogs.NewSimbad("https://simbad.example", nil)
	registry := catalogs.NewRegistry(simbad)

	if h, ok := registry.Get("simbad"); !ok || h.Name() != "SIMBAD" {
		t.Errorf("SIMBAD is not found")
	}
	if _, ok := registry.Get("ned"); ok {
		t.Errorf("unknown harvester is found")
	}
	if names := registry.Names(); len(names) != 1 || names[0] != "SIMBAD" {
		t.Errorf("unexpected names: %v", names)
	}
}
