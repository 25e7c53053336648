package dataproc_test

import (
	"context"
	"strings"
	"testing"

	"github.com/starwatch/tom/pkg/dataproc"
	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/db/mocks"
	"github.com/starwatch/tom/pkg/utils/try"
)

func TestPhotometryProcessor(t *testing.T) {
	product := tdb.DataProduct{
		ProductId: "dp-1", TargetId: "tgt-1", Type: tdb.Photometry,
	}

	t.Run("rows with MJD and timestamp times are parsed", func(t *testing.T) {
		payload := strings.Join([]string{
			"time,magnitude,error,filter,facility,observer",
			"59000.5,17.2,0.05,r,LCO,amy",
			"2023-05-20T03:12:44+00:00,17.4,,g,,",
		}, "\n")

		rows := try.To(dataproc.NewPhotometryProcessor().Process(
			context.Background(), product, strings.NewReader(payload),
		)).OrFatal(t)

		if len(rows) != 2 {
			t.Fatalf("unexpected row count: %d", len(rows))
		}

		first := rows[0]
		if first.TargetId != "tgt-1" || first.ProductId == nil || *first.ProductId != "dp-1" {
			t.Errorf("unexpected provenance: %+v", first)
		}
		if first.MJD != 59000.5 {
			t.Errorf("unexpected mjd: %f", first.MJD)
		}
		if first.Value == nil || *first.Value != 17.2 {
			t.Errorf("unexpected value: %v", first.Value)
		}
		if first.Error == nil || *first.Error != 0.05 {
			t.Errorf("unexpected error: %v", first.Error)
		}
		if first.Filter != "r" || first.Facility != "LCO" || first.Observer != "amy" {
			t.Errorf("unexpected metadata: %+v", first)
		}
		if !first.Active || first.ValueUnit != tdb.Mag || first.DataType != tdb.Photometry {
			t.Errorf("unexpected datum: %+v", first)
		}

		second := rows[1]
		// 2023-05-20T03:12:44Z = MJD 60084.13384...
		if second.MJD < 60084.13 || 60084.14 < second.MJD {
			t.Errorf("unexpected mjd from timestamp: %f", second.MJD)
		}
		if second.Error != nil {
			t.Errorf("error should be unset: %v", *second.Error)
		}
	})

	t.Run("a payload without the required columns is rejected", func(t *testing.T) {
		payload := "mjd,mag\n59000.5,17.2\n"
		_, err := dataproc.NewPhotometryProcessor().Process(
			context.Background(), product, strings.NewReader(payload),
		)
		if err == nil {
			t.Error("no error")
		}
	})

	t.Run("a broken value names its line", func(t *testing.T) {
		payload := strings.Join([]string{
			"time,magnitude",
			"59000.5,17.2",
			"59001.5,not-a-number",
		}, "\n")
		_, err := dataproc.NewPhotometryProcessor().Process(
			context.Background(), product, strings.NewReader(payload),
		)
		if err == nil || !strings.HasPrefix(err.Error(), "error on line 3:") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestRegistry_Run(t *testing.T) {
	product := tdb.DataProduct{
		ProductId: "dp-1", TargetId: "tgt-1",
		Type: tdb.Photometry, Status: tdb.ProductPending,
	}

	t.Run("a parsed payload is stored and the product succeeds", func(t *testing.T) {
		products := mocks.NewDataProductInterface()
		products.Impl.SetStatus = func(context.Context, string, tdb.DataProductStatus) error { return nil }
		datums := mocks.NewDatumInterface()
		datums.Impl.BulkRegister = func(ctx context.Context, rows []tdb.ReducedDatum) (int, error) {
			return len(rows), nil
		}

		registry := dataproc.NewRegistry(dataproc.NewPhotometryProcessor())
		inserted := try.To(registry.Run(
			context.Background(), products, datums, product,
			strings.NewReader("time,magnitude\n59000.5,17.2\n59001.5,17.3\n"),
		)).OrFatal(t)

		if inserted != 2 {
			t.Errorf("unexpected inserted count: %d", inserted)
		}

		statuses := []tdb.DataProductStatus{}
		for _, call := range products.Calls.SetStatus {
			statuses = append(statuses, call.Status)
		}
		if len(statuses) != 2 || statuses[0] != tdb.ProductProcessing || statuses[1] != tdb.ProductSuccess {
			t.Errorf("unexpected status transitions: %v", statuses)
		}
	})

	t.Run("a broken payload moves the product to ERROR", func(t *testing.T) {
		products := mocks.NewDataProductInterface()
		products.Impl.SetStatus = func(context.Context, string, tdb.DataProductStatus) error { return nil }
		datums := mocks.NewDatumInterface()

		registry := dataproc.NewRegistry(dataproc.NewPhotometryProcessor())
		_, err := registry.Run(
			context.Background(), products, datums, product,
			strings.NewReader("time,magnitude\nbroken,17.2\n"),
		)
		if err == nil {
			t.Error("no error")
		}

		last := products.Calls.SetStatus[len(products.Calls.SetStatus)-1]
		if last.Status != tdb.ProductError {
			t.Errorf("unexpected final status: %s", last.Status)
		}
		if datums.Calls.BulkRegister.Times() != 0 {
			t.Errorf("BulkRegister should not be called")
		}
	})

	t.Run("a type with no processor is stored as-is", func(t *testing.T) {
		products := mocks.NewDataProductInterface()
		products.Impl.SetStatus = func(context.Context, string, tdb.DataProductStatus) error { return nil }
		datums := mocks.NewDatumInterface()

		fits := tdb.DataProduct{ProductId: "dp-2", TargetId: "tgt-1", Type: tdb.FitsFile}
		registry := dataproc.NewRegistry(dataproc.NewPhotometryProcessor())
		inserted := try.To(registry.Run(
			context.Background(), products, datums, fits,
			strings.NewReader("not,a,csv,we,care,about"),
		)).OrFatal(t)

		if inserted != 0 {
			t.Errorf("unexpected inserted count: %d", inserted)
		}
		if len(products.Calls.SetStatus) != 1 || products.Calls.SetStatus[0].Status != tdb.ProductSuccess {
			t.Errorf("unexpected status calls: %+v", products.Calls.SetStatus)
		}
	})
}
