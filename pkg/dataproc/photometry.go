package dataproc

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/utils/rfctime"
)

// PhotometryProcessor parses photometry CSV payloads.
//
// Expected columns (header names matched case-insensitively): time,
// magnitude, error, filter, facility, observer. time holds either an
// MJD number or an RFC3339 timestamp. error, filter, facility and
// observer may be absent or empty.
type PhotometryProcessor struct{}

func NewPhotometryProcessor() PhotometryProcessor {
	return PhotometryProcessor{}
}

func (PhotometryProcessor) Type() tdb.DataProductType {
	return tdb.Photometry
}

func (PhotometryProcessor) Process(ctx context.Context, product tdb.DataProduct, payload io.Reader) ([]tdb.ReducedDatum, error) {
	cr := csv.NewReader(payload)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("error on line 1: %w", err)
	}
	columns := map[string]int{}
	for i, col := range header {
		columns[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := columns["time"]; !ok {
		return nil, fmt.Errorf(`error on line 1: column "time" is required`)
	}
	if _, ok := columns["magnitude"]; !ok {
		return nil, fmt.Errorf(`error on line 1: column "magnitude" is required`)
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || len(record) <= i {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := []tdb.ReducedDatum{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error on line %d: %w", line, err)
		}

		mjd, err := parseObsTime(field(record, "time"))
		if err != nil {
			return nil, fmt.Errorf("error on line %d: %w", line, err)
		}

		mag, err := strconv.ParseFloat(field(record, "magnitude"), 64)
		if err != nil {
			return nil, fmt.Errorf("error on line %d: magnitude: %w", line, err)
		}

		datum := tdb.ReducedDatum{
			TargetId:  product.TargetId,
			ProductId: &product.ProductId,
			DataType:  tdb.Photometry,
			Observer:  field(record, "observer"),
			Facility:  field(record, "facility"),
			MJD:       mjd,
			Timestamp: rfctime.MJDToTime(mjd),
			Value:     &mag,
			ValueUnit: tdb.Mag,
			Filter:    field(record, "filter"),
			Active:    true,
		}

		if e := field(record, "error"); e != "" {
			magerr, err := strconv.ParseFloat(e, 64)
			if err != nil {
				return nil, fmt.Errorf("error on line %d: error: %w", line, err)
			}
			datum.Error = &magerr
		}

		rows = append(rows, datum)
	}

	return rows, nil
}

// parseObsTime accepts an MJD number or an RFC3339 timestamp.
func parseObsTime(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("time is required")
	}
	if mjd, err := strconv.ParseFloat(s, 64); err == nil {
		return mjd, nil
	}
	t, err := rfctime.ParseRFC3339DateTime(s)
	if err != nil {
		return 0, fmt.Errorf("time is neither an MJD nor a timestamp: %s", s)
	}
	return rfctime.TimeToMJD(t.Time()), nil
}
