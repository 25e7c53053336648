package targets_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/targets"
	"github.com/starwatch/tom/pkg/utils/pointer"
	"github.com/starwatch/tom/pkg/utils/try"
)

func sourceTable(sources ...string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		for _, s := range sources {
			if strings.EqualFold(s, name) {
				return s, true
			}
		}
		return "", false
	}
}

func TestExportCSV(t *testing.T) {
	t.Run("extra keys and alias sources become extra columns", func(t *testing.T) {
		ts := []tdb.Target{
			{
				TargetBody: tdb.TargetBody{
					Name: "SN 2023ixf", Type: tdb.Sidereal,
					RA: pointer.Ref(210.910674), Dec: pointer.Ref(54.31165),
					Classification: "SN",
				},
				Aliases: []tdb.TargetName{
					{SourceName: "ZTF", Name: "ZTF23aaklqou"},
				},
				Extras: []tdb.TargetExtra{
					{Key: "redshift", Value: "0.0008"},
				},
			},
			{
				TargetBody: tdb.TargetBody{
					Name: "Gaia23bab", Type: tdb.Sidereal,
					RA: pointer.Ref(284.0), Dec: pointer.Ref(-12.5),
				},
				Aliases: []tdb.TargetName{
					{SourceName: "GAIA", Name: "Gaia23bab"},
				},
			},
		}

		buf := new(bytes.Buffer)
		if err := targets.ExportCSV(buf, ts); err != nil {
			t.Fatal(err)
		}

		records := try.To(csv.NewReader(buf).ReadAll()).OrFatal(t)
		if len(records) != 3 {
			t.Fatalf("unexpected record count: %d", len(records))
		}

		header := records[0]
		columns := map[string]int{}
		for i, col := range header {
			columns[col] = i
		}
		for _, col := range []string{"name", "type", "ra", "dec", "redshift", "ZTF_name", "GAIA_name"} {
			if _, ok := columns[col]; !ok {
				t.Errorf("column %s is not in the header: %v", col, header)
			}
		}

		if actual := records[1][columns["name"]]; actual != "SN 2023ixf" {
			t.Errorf("unexpected name: %s", actual)
		}
		if actual := records[1][columns["redshift"]]; actual != "0.0008" {
			t.Errorf("unexpected redshift: %s", actual)
		}
		if actual := records[1][columns["ZTF_name"]]; actual != "ZTF23aaklqou" {
			t.Errorf("unexpected ZTF alias: %s", actual)
		}
		if actual := records[1][columns["GAIA_name"]]; actual != "" {
			t.Errorf("alias of another target leaked in: %s", actual)
		}
		if actual := records[2][columns["GAIA_name"]]; actual != "Gaia23bab" {
			t.Errorf("unexpected GAIA alias: %s", actual)
		}
	})
}

func TestImportCSV(t *testing.T) {
	t.Run("a full row becomes a target with aliases and extras", func(t *testing.T) {
		input := strings.Join([]string{
			"name,type,ra,dec,classification,redshift,ztf_name",
			"SN 2023ixf,SIDEREAL,210.910674,54.31165,SN,0.0008,ZTF23aaklqou",
		}, "\n")

		ts, errs := targets.ImportCSV(strings.NewReader(input), sourceTable("ZTF"))
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(ts) != 1 {
			t.Fatalf("unexpected target count: %d", len(ts))
		}

		actual := ts[0]
		if actual.Name != "SN 2023ixf" || actual.Type != tdb.Sidereal {
			t.Errorf("unexpected target: %+v", actual.TargetBody)
		}
		if actual.RA == nil || *actual.RA != 210.910674 {
			t.Errorf("unexpected ra: %v", actual.RA)
		}

		// source name follows the configured spelling, not the header's
		expectedAliases := []tdb.TargetName{{SourceName: "ZTF", Name: "ZTF23aaklqou"}}
		if len(actual.Aliases) != 1 || !actual.Aliases[0].Equal(&expectedAliases[0]) {
			t.Errorf("unexpected aliases: %+v", actual.Aliases)
		}

		expectedExtras := []tdb.TargetExtra{{Key: "redshift", Value: "0.0008"}}
		if len(actual.Extras) != 1 || !actual.Extras[0].Equal(&expectedExtras[0]) {
			t.Errorf("unexpected extras: %+v", actual.Extras)
		}
	})

	t.Run("spaces around header cells do not change the columns", func(t *testing.T) {
		input := strings.Join([]string{
			"name, type, ra, dec, redshift",
			"SN 2023ixf,SIDEREAL,210.910674,54.31165,0.0008",
		}, "\n")

		ts, errs := targets.ImportCSV(strings.NewReader(input), sourceTable())
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(ts) != 1 {
			t.Fatalf("unexpected target count: %d", len(ts))
		}

		actual := ts[0]
		if actual.Type != tdb.Sidereal {
			t.Errorf("unexpected type: %s", actual.Type)
		}
		if actual.RA == nil || *actual.RA != 210.910674 {
			t.Errorf("unexpected ra: %v", actual.RA)
		}
		if actual.Dec == nil || *actual.Dec != 54.31165 {
			t.Errorf("unexpected dec: %v", actual.Dec)
		}

		expectedExtras := []tdb.TargetExtra{{Key: "redshift", Value: "0.0008"}}
		if len(actual.Extras) != 1 || !actual.Extras[0].Equal(&expectedExtras[0]) {
			t.Errorf("unexpected extras: %+v", actual.Extras)
		}
	})

	t.Run("empty base values are skipped", func(t *testing.T) {
		input := strings.Join([]string{
			"name,type,ra,dec,epoch,classification",
			"SN 2023ixf,SIDEREAL,210.9,54.3,,",
		}, "\n")

		ts, errs := targets.ImportCSV(strings.NewReader(input), sourceTable())
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(ts) != 1 {
			t.Fatalf("unexpected target count: %d", len(ts))
		}
		if ts[0].Epoch != nil {
			t.Errorf("epoch should be unset: %v", *ts[0].Epoch)
		}
		if ts[0].Classification != "" {
			t.Errorf("classification should be unset: %s", ts[0].Classification)
		}
	})

	t.Run("broken lines are reported but do not stop the import", func(t *testing.T) {
		input := strings.Join([]string{
			"name,type,ra,dec",
			"good-1,SIDEREAL,10.0,20.0",
			"bad-coords,SIDEREAL,not-a-number,20.0",
			"bad-missing-dec,SIDEREAL,10.0,",
			"good-2,SIDEREAL,30.0,40.0",
		}, "\n")

		ts, errs := targets.ImportCSV(strings.NewReader(input), sourceTable())
		if len(ts) != 2 {
			t.Fatalf("unexpected target count: %d", len(ts))
		}
		if ts[0].Name != "good-1" || ts[1].Name != "good-2" {
			t.Errorf("unexpected targets: %s, %s", ts[0].Name, ts[1].Name)
		}

		if len(errs) != 2 {
			t.Fatalf("unexpected error count: %v", errs)
		}
		if !strings.HasPrefix(errs[0].Error(), "error on line 3:") {
			t.Errorf("unexpected error: %v", errs[0])
		}
		if !strings.HasPrefix(errs[1].Error(), "error on line 4:") {
			t.Errorf("unexpected error: %v", errs[1])
		}
	})

	t.Run("an unmatched _name column falls back to an extra", func(t *testing.T) {
		input := strings.Join([]string{
			"name,type,ra,dec,ASASSN_name",
			"x,SIDEREAL,10.0,20.0,ASASSN-23abc",
		}, "\n")

		ts, errs := targets.ImportCSV(strings.NewReader(input), sourceTable("ZTF", "GAIA"))
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(ts[0].Aliases) != 0 {
			t.Errorf("unexpected aliases: %+v", ts[0].Aliases)
		}
		expected := tdb.TargetExtra{Key: "ASASSN_name", Value: "ASASSN-23abc"}
		if len(ts[0].Extras) != 1 || !ts[0].Extras[0].Equal(&expected) {
			t.Errorf("unexpected extras: %+v", ts[0].Extras)
		}
	})
}
