package targets

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/utils"
	"github.com/starwatch/tom/pkg/utils/rfctime"
)

// base columns of the CSV representation, in header order.
// Store-assigned fields (id, timestamps) are not exported.
var csvBaseColumns = []string{
	"name", "type",
	"ra", "dec", "epoch", "parallax", "pm_ra", "pm_dec",
	"galactic_lng", "galactic_lat", "distance", "distance_err",
	"scheme", "epoch_of_elements", "mean_anomaly", "arg_of_perihelion",
	"eccentricity", "lng_asc_node", "inclination", "mean_daily_motion",
	"semimajor_axis", "epoch_of_perihelion", "perihdist",
	"ephemeris_period", "ephemeris_epoch",
	"classification", "discovery_date", "mjd_last", "mag_last",
	"filter_last", "importance", "cadence", "priority",
	"sun_separation", "constellation", "description",
}

const aliasColumnSuffix = "_name"

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func baseValue(body tdb.TargetBody, column string) string {
	switch column {
	case "name":
		return body.Name
	case "type":
		return string(body.Type)
	case "ra":
		return formatFloat(body.RA)
	case "dec":
		return formatFloat(body.Dec)
	case "epoch":
		return formatFloat(body.Epoch)
	case "parallax":
		return formatFloat(body.Parallax)
	case "pm_ra":
		return formatFloat(body.PMRA)
	case "pm_dec":
		return formatFloat(body.PMDec)
	case "galactic_lng":
		return formatFloat(body.GalacticLng)
	case "galactic_lat":
		return formatFloat(body.GalacticLat)
	case "distance":
		return formatFloat(body.Distance)
	case "distance_err":
		return formatFloat(body.DistanceErr)
	case "scheme":
		return string(body.Scheme)
	case "epoch_of_elements":
		return formatFloat(body.EpochOfElements)
	case "mean_anomaly":
		return formatFloat(body.MeanAnomaly)
	case "arg_of_perihelion":
		return formatFloat(body.ArgOfPerihelion)
	case "eccentricity":
		return formatFloat(body.Eccentricity)
	case "lng_asc_node":
		return formatFloat(body.LngAscNode)
	case "inclination":
		return formatFloat(body.Inclination)
	case "mean_daily_motion":
		return formatFloat(body.MeanDailyMotion)
	case "semimajor_axis":
		return formatFloat(body.SemimajorAxis)
	case "epoch_of_perihelion":
		return formatFloat(body.EpochOfPerihelion)
	case "perihdist":
		return formatFloat(body.Perihdist)
	case "ephemeris_period":
		return formatFloat(body.EphemerisPeriod)
	case "ephemeris_epoch":
		return formatFloat(body.EphemerisEpoch)
	case "classification":
		return body.Classification
	case "discovery_date":
		if body.DiscoveryDate == nil {
			return ""
		}
		return rfctime.New(*body.DiscoveryDate).String()
	case "mjd_last":
		return formatFloat(body.MJDLast)
	case "mag_last":
		return formatFloat(body.MagLast)
	case "filter_last":
		return body.FilterLast
	case "importance":
		return formatFloat(body.Importance)
	case "cadence":
		return formatFloat(body.CadenceDays)
	case "priority":
		return formatFloat(body.Priority)
	case "sun_separation":
		return formatFloat(body.SunSeparation)
	case "constellation":
		return body.Constellation
	case "description":
		return body.Description
	}
	return ""
}

func setBaseValue(body *tdb.TargetBody, column string, value string) error {
	setFloat := func(dest **float64) error {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("column %s: %w", column, err)
		}
		*dest = &v
		return nil
	}

	switch column {
	case "name":
		body.Name = value
	case "type":
		t, err := tdb.AsTargetType(value)
		if err != nil {
			return err
		}
		body.Type = t
	case "ra":
		return setFloat(&body.RA)
	case "dec":
		return setFloat(&body.Dec)
	case "epoch":
		return setFloat(&body.Epoch)
	case "parallax":
		return setFloat(&body.Parallax)
	case "pm_ra":
		return setFloat(&body.PMRA)
	case "pm_dec":
		return setFloat(&body.PMDec)
	case "galactic_lng":
		return setFloat(&body.GalacticLng)
	case "galactic_lat":
		return setFloat(&body.GalacticLat)
	case "distance":
		return setFloat(&body.Distance)
	case "distance_err":
		return setFloat(&body.DistanceErr)
	case "scheme":
		s, err := tdb.AsOrbitScheme(value)
		if err != nil {
			return err
		}
		body.Scheme = s
	case "epoch_of_elements":
		return setFloat(&body.EpochOfElements)
	case "mean_anomaly":
		return setFloat(&body.MeanAnomaly)
	case "arg_of_perihelion":
		return setFloat(&body.ArgOfPerihelion)
	case "eccentricity":
		return setFloat(&body.Eccentricity)
	case "lng_asc_node":
		return setFloat(&body.LngAscNode)
	case "inclination":
		return setFloat(&body.Inclination)
	case "mean_daily_motion":
		return setFloat(&body.MeanDailyMotion)
	case "semimajor_axis":
		return setFloat(&body.SemimajorAxis)
	case "epoch_of_perihelion":
		return setFloat(&body.EpochOfPerihelion)
	case "perihdist":
		return setFloat(&body.Perihdist)
	case "ephemeris_period":
		return setFloat(&body.EphemerisPeriod)
	case "ephemeris_epoch":
		return setFloat(&body.EphemerisEpoch)
	case "classification":
		body.Classification = value
	case "discovery_date":
		t, err := rfctime.ParseRFC3339DateTime(value)
		if err != nil {
			return fmt.Errorf("column %s: %w", column, err)
		}
		d := t.Time()
		body.DiscoveryDate = &d
	case "mjd_last":
		return setFloat(&body.MJDLast)
	case "mag_last":
		return setFloat(&body.MagLast)
	case "filter_last":
		body.FilterLast = value
	case "importance":
		return setFloat(&body.Importance)
	case "cadence":
		return setFloat(&body.CadenceDays)
	case "priority":
		return setFloat(&body.Priority)
	case "sun_separation":
		return setFloat(&body.SunSeparation)
	case "constellation":
		body.Constellation = value
	case "description":
		body.Description = value
	}
	return nil
}

// ExportCSV writes the targets as CSV.
//
// The header is the base columns, followed by every extra key found in
// the exported set and one "<SOURCE>_name" column per alias source
// present, both in first-seen order.
func ExportCSV(w io.Writer, targets []tdb.Target) error {
	extraKeys := []string{}
	seenExtra := map[string]bool{}
	sources := []string{}
	seenSource := map[string]bool{}
	for _, t := range targets {
		for _, x := range t.Extras {
			if !seenExtra[x.Key] {
				seenExtra[x.Key] = true
				extraKeys = append(extraKeys, x.Key)
			}
		}
		for _, a := range t.Aliases {
			if !seenSource[a.SourceName] {
				seenSource[a.SourceName] = true
				sources = append(sources, a.SourceName)
			}
		}
	}

	header := utils.Concat(
		csvBaseColumns,
		extraKeys,
		utils.Map(sources, func(s string) string { return s + aliasColumnSuffix }),
	)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, t := range targets {
		extras := utils.ToMap(t.Extras, func(x tdb.TargetExtra) string { return x.Key })
		aliases := utils.ToMap(t.Aliases, func(a tdb.TargetName) string { return a.SourceName })

		record := make([]string, 0, len(header))
		for _, col := range csvBaseColumns {
			record = append(record, baseValue(t.TargetBody, col))
		}
		for _, key := range extraKeys {
			record = append(record, extras[key].Value)
		}
		for _, source := range sources {
			record = append(record, aliases[source].Name)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ImportCSV parses targets from CSV written in the ExportCSV layout.
//
// Empty base-column values are skipped. Header columns ending in
// "_name" are matched against the configured alias sources,
// case-insensitively, via hasSource; matches become aliases under the
// configured spelling. Any other unknown column becomes an extra.
//
// A broken line does not abort the import. Each failure is reported as
// "error on line N: ..." and the remaining lines are still parsed.
func ImportCSV(r io.Reader, hasSource func(name string) (string, bool)) ([]tdb.Target, []error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, []error{fmt.Errorf("error on line 1: %w", err)}
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	base := map[string]bool{}
	for _, col := range csvBaseColumns {
		base[col] = true
	}

	targets := []tdb.Target{}
	errs := []error{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("error on line %d: %w", line, err))
			continue
		}

		target := tdb.Target{}
		rowErr := error(nil)
		for i, col := range header {
			if i >= len(record) {
				break
			}
			value := strings.TrimSpace(record[i])
			if value == "" {
				continue
			}

			switch {
			case base[col]:
				if err := setBaseValue(&target.TargetBody, col, value); err != nil {
					rowErr = err
				}
			case strings.HasSuffix(col, aliasColumnSuffix):
				rawSource := strings.TrimSuffix(col, aliasColumnSuffix)
				if source, ok := hasSource(rawSource); ok {
					target.Aliases = append(target.Aliases, tdb.TargetName{
						SourceName: source, Name: value,
					})
					continue
				}
				target.Extras = append(target.Extras, tdb.TargetExtra{Key: col, Value: value})
			default:
				target.Extras = append(target.Extras, tdb.TargetExtra{Key: col, Value: value})
			}

			if rowErr != nil {
				break
			}
		}
		if rowErr == nil {
			rowErr = target.Validate()
		}
		if rowErr != nil {
			errs = append(errs, fmt.Errorf("error on line %d: %w", line, rowErr))
			continue
		}

		targets = append(targets, target)
	}

	return targets, errs
}
