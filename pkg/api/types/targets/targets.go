package targets

import (
	"time"

	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/utils"
	"github.com/starwatch/tom/pkg/utils/cmp"
	"github.com/starwatch/tom/pkg/utils/pointer"
	"github.com/starwatch/tom/pkg/utils/rfctime"
)

type Alias struct {
	SourceName string `json:"source_name"`
	Name       string `json:"name"`
	URL        string `json:"url,omitempty"`
}

func (a *Alias) Equal(o *Alias) bool {
	return a.SourceName == o.SourceName &&
		a.Name == o.Name &&
		a.URL == o.URL
}

type Extra struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (e *Extra) Equal(o *Extra) bool {
	return e.Key == o.Key && e.Value == o.Value
}

// Summary identifies a target in listings and multi-match responses.
type Summary struct {
	TargetId string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	RA       *float64 `json:"ra,omitempty"`
	Dec      *float64 `json:"dec,omitempty"`
}

func (s *Summary) Equal(o *Summary) bool {
	return s.TargetId == o.TargetId &&
		s.Name == o.Name &&
		s.Type == o.Type &&
		pointer.Equal(s.RA, o.RA) &&
		pointer.Equal(s.Dec, o.Dec)
}

func ComposeSummary(body tdb.TargetBody) Summary {
	return Summary{
		TargetId: body.TargetId,
		Name:     body.Name,
		Type:     string(body.Type),
		RA:       body.RA,
		Dec:      body.Dec,
	}
}

type Detail struct {
	TargetId string           `json:"id,omitempty"`
	Name     string           `json:"name"`
	Type     string           `json:"type"`
	Created  *rfctime.RFC3339 `json:"created,omitempty"`
	Modified *rfctime.RFC3339 `json:"modified,omitempty"`

	RA          *float64 `json:"ra,omitempty"`
	Dec         *float64 `json:"dec,omitempty"`
	Epoch       *float64 `json:"epoch,omitempty"`
	Parallax    *float64 `json:"parallax,omitempty"`
	PMRA        *float64 `json:"pm_ra,omitempty"`
	PMDec       *float64 `json:"pm_dec,omitempty"`
	GalacticLng *float64 `json:"galactic_lng,omitempty"`
	GalacticLat *float64 `json:"galactic_lat,omitempty"`
	Distance    *float64 `json:"distance,omitempty"`
	DistanceErr *float64 `json:"distance_err,omitempty"`

	Scheme            string   `json:"scheme,omitempty"`
	EpochOfElements   *float64 `json:"epoch_of_elements,omitempty"`
	MeanAnomaly       *float64 `json:"mean_anomaly,omitempty"`
	ArgOfPerihelion   *float64 `json:"arg_of_perihelion,omitempty"`
	Eccentricity      *float64 `json:"eccentricity,omitempty"`
	LngAscNode        *float64 `json:"lng_asc_node,omitempty"`
	Inclination       *float64 `json:"inclination,omitempty"`
	MeanDailyMotion   *float64 `json:"mean_daily_motion,omitempty"`
	SemimajorAxis     *float64 `json:"semimajor_axis,omitempty"`
	EpochOfPerihelion *float64 `json:"epoch_of_perihelion,omitempty"`
	Perihdist         *float64 `json:"perihdist,omitempty"`
	EphemerisPeriod   *float64 `json:"ephemeris_period,omitempty"`
	EphemerisEpoch    *float64 `json:"ephemeris_epoch,omitempty"`

	Classification string           `json:"classification,omitempty"`
	DiscoveryDate  *rfctime.RFC3339 `json:"discovery_date,omitempty"`
	MJDLast        *float64         `json:"mjd_last,omitempty"`
	MagLast        *float64         `json:"mag_last,omitempty"`
	FilterLast     string           `json:"filter_last,omitempty"`
	Importance     *float64         `json:"importance,omitempty"`
	CadenceDays    *float64         `json:"cadence,omitempty"`
	Priority       *float64         `json:"priority,omitempty"`
	SunSeparation  *float64         `json:"sun_separation,omitempty"`
	Constellation  string           `json:"constellation,omitempty"`
	Description    string           `json:"description,omitempty"`

	Aliases []Alias `json:"aliases"`
	Extras  []Extra `json:"extras"`
}

func (d *Detail) Equal(o *Detail) bool {
	if (d == nil) || (o == nil) {
		return (d == nil) && (o == nil)
	}

	return d.TargetId == o.TargetId &&
		d.Name == o.Name &&
		d.Type == o.Type &&
		pointer.Equal(d.RA, o.RA) &&
		pointer.Equal(d.Dec, o.Dec) &&
		pointer.Equal(d.Epoch, o.Epoch) &&
		pointer.Equal(d.Parallax, o.Parallax) &&
		pointer.Equal(d.PMRA, o.PMRA) &&
		pointer.Equal(d.PMDec, o.PMDec) &&
		pointer.Equal(d.GalacticLng, o.GalacticLng) &&
		pointer.Equal(d.GalacticLat, o.GalacticLat) &&
		pointer.Equal(d.Distance, o.Distance) &&
		pointer.Equal(d.DistanceErr, o.DistanceErr) &&
		d.Scheme == o.Scheme &&
		pointer.Equal(d.EpochOfElements, o.EpochOfElements) &&
		pointer.Equal(d.MeanAnomaly, o.MeanAnomaly) &&
		pointer.Equal(d.ArgOfPerihelion, o.ArgOfPerihelion) &&
		pointer.Equal(d.Eccentricity, o.Eccentricity) &&
		pointer.Equal(d.LngAscNode, o.LngAscNode) &&
		pointer.Equal(d.Inclination, o.Inclination) &&
		pointer.Equal(d.MeanDailyMotion, o.MeanDailyMotion) &&
		pointer.Equal(d.SemimajorAxis, o.SemimajorAxis) &&
		pointer.Equal(d.EpochOfPerihelion, o.EpochOfPerihelion) &&
		pointer.Equal(d.Perihdist, o.Perihdist) &&
		pointer.Equal(d.EphemerisPeriod, o.EphemerisPeriod) &&
		pointer.Equal(d.EphemerisEpoch, o.EphemerisEpoch) &&
		d.Classification == o.Classification &&
		cmp.PEqualWith(d.DiscoveryDate, o.DiscoveryDate, func(a, b rfctime.RFC3339) bool { return a.Equal(&b) }) &&
		pointer.Equal(d.MJDLast, o.MJDLast) &&
		pointer.Equal(d.MagLast, o.MagLast) &&
		d.FilterLast == o.FilterLast &&
		pointer.Equal(d.Importance, o.Importance) &&
		pointer.Equal(d.CadenceDays, o.CadenceDays) &&
		pointer.Equal(d.Priority, o.Priority) &&
		pointer.Equal(d.SunSeparation, o.SunSeparation) &&
		d.Constellation == o.Constellation &&
		d.Description == o.Description &&
		cmp.SliceContentEqWith(
			d.Aliases, o.Aliases,
			func(a, b Alias) bool { return a.Equal(&b) },
		) &&
		cmp.SliceContentEqWith(
			d.Extras, o.Extras,
			func(a, b Extra) bool { return a.Equal(&b) },
		)
}

func ComposeDetail(t tdb.Target) Detail {
	created := rfctime.New(t.Created)
	modified := rfctime.New(t.Modified)

	var discovery *rfctime.RFC3339
	if t.DiscoveryDate != nil {
		d := rfctime.New(*t.DiscoveryDate)
		discovery = &d
	}

	return Detail{
		TargetId: t.TargetId,
		Name:     t.Name,
		Type:     string(t.Type),
		Created:  &created,
		Modified: &modified,

		RA:          t.RA,
		Dec:         t.Dec,
		Epoch:       t.Epoch,
		Parallax:    t.Parallax,
		PMRA:        t.PMRA,
		PMDec:       t.PMDec,
		GalacticLng: t.GalacticLng,
		GalacticLat: t.GalacticLat,
		Distance:    t.Distance,
		DistanceErr: t.DistanceErr,

		Scheme:            string(t.Scheme),
		EpochOfElements:   t.EpochOfElements,
		MeanAnomaly:       t.MeanAnomaly,
		ArgOfPerihelion:   t.ArgOfPerihelion,
		Eccentricity:      t.Eccentricity,
		LngAscNode:        t.LngAscNode,
		Inclination:       t.Inclination,
		MeanDailyMotion:   t.MeanDailyMotion,
		SemimajorAxis:     t.SemimajorAxis,
		EpochOfPerihelion: t.EpochOfPerihelion,
		Perihdist:         t.Perihdist,
		EphemerisPeriod:   t.EphemerisPeriod,
		EphemerisEpoch:    t.EphemerisEpoch,

		Classification: t.Classification,
		DiscoveryDate:  discovery,
		MJDLast:        t.MJDLast,
		MagLast:        t.MagLast,
		FilterLast:     t.FilterLast,
		Importance:     t.Importance,
		CadenceDays:    t.CadenceDays,
		Priority:       t.Priority,
		SunSeparation:  t.SunSeparation,
		Constellation:  t.Constellation,
		Description:    t.Description,

		Aliases: utils.Map(t.Aliases, func(n tdb.TargetName) Alias {
			return Alias{SourceName: n.SourceName, Name: n.Name, URL: n.URL}
		}),
		Extras: utils.Map(t.Extras, func(x tdb.TargetExtra) Extra {
			return Extra{Key: x.Key, Value: x.Value}
		}),
	}
}

// Decompose turns a request payload into the domain aggregate.
// Store-assigned fields (id, timestamps) are left zero.
func (d *Detail) Decompose() (tdb.Target, error) {
	ttype, err := tdb.AsTargetType(d.Type)
	if err != nil {
		return tdb.Target{}, err
	}

	scheme := tdb.OrbitScheme("")
	if d.Scheme != "" {
		scheme, err = tdb.AsOrbitScheme(d.Scheme)
		if err != nil {
			return tdb.Target{}, err
		}
	}

	var discovery *time.Time
	if d.DiscoveryDate != nil {
		t := d.DiscoveryDate.Time()
		discovery = &t
	}

	return tdb.Target{
		TargetBody: tdb.TargetBody{
			Name: d.Name,
			Type: ttype,

			RA:          d.RA,
			Dec:         d.Dec,
			Epoch:       d.Epoch,
			Parallax:    d.Parallax,
			PMRA:        d.PMRA,
			PMDec:       d.PMDec,
			GalacticLng: d.GalacticLng,
			GalacticLat: d.GalacticLat,
			Distance:    d.Distance,
			DistanceErr: d.DistanceErr,

			Scheme:            scheme,
			EpochOfElements:   d.EpochOfElements,
			MeanAnomaly:       d.MeanAnomaly,
			ArgOfPerihelion:   d.ArgOfPerihelion,
			Eccentricity:      d.Eccentricity,
			LngAscNode:        d.LngAscNode,
			Inclination:       d.Inclination,
			MeanDailyMotion:   d.MeanDailyMotion,
			SemimajorAxis:     d.SemimajorAxis,
			EpochOfPerihelion: d.EpochOfPerihelion,
			Perihdist:         d.Perihdist,
			EphemerisPeriod:   d.EphemerisPeriod,
			EphemerisEpoch:    d.EphemerisEpoch,

			Classification: d.Classification,
			DiscoveryDate:  discovery,
			MJDLast:        d.MJDLast,
			MagLast:        d.MagLast,
			FilterLast:     d.FilterLast,
			Importance:     d.Importance,
			CadenceDays:    d.CadenceDays,
			Priority:       d.Priority,
			SunSeparation:  d.SunSeparation,
			Constellation:  d.Constellation,
			Description:    d.Description,
		},
		Aliases: utils.Map(d.Aliases, func(a Alias) tdb.TargetName {
			return tdb.TargetName{SourceName: a.SourceName, Name: a.Name, URL: a.URL}
		}),
		Extras: utils.Map(d.Extras, func(x Extra) tdb.TargetExtra {
			return tdb.TargetExtra{Key: x.Key, Value: x.Value}
		}),
	}, nil
}

// ExtraDelta is the payload of the extras update operation.
type ExtraDelta struct {
	Add    []Extra  `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

func (d *ExtraDelta) Decompose() tdb.ExtraDelta {
	return tdb.ExtraDelta{
		Add: utils.Map(d.Add, func(x Extra) tdb.TargetExtra {
			return tdb.TargetExtra{Key: x.Key, Value: x.Value}
		}),
		Remove: d.Remove,
	}
}

// ImportResult reports what a CSV import did.
type ImportResult struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}

// Grouping is a named target list.
type Grouping struct {
	Id        int              `json:"id"`
	Name      string           `json:"name"`
	Created   *rfctime.RFC3339 `json:"created,omitempty"`
	TargetIds []string         `json:"targets"`
}

func (g *Grouping) Equal(o *Grouping) bool {
	return g.Id == o.Id &&
		g.Name == o.Name &&
		cmp.SliceEq(g.TargetIds, o.TargetIds)
}

// GroupingSpec is the payload for creating a grouping.
type GroupingSpec struct {
	Name string `json:"name"`
}

// GroupingUpdate changes grouping membership.
//
// Add, Remove and Move name targets directly. When Filter is set, the
// targets matching it are applied under Op ("add", "remove" or "move";
// add when empty). Move puts targets in this grouping and out of every
// other one.
type GroupingUpdate struct {
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
	Move   []string `json:"move,omitempty"`

	Filter *Filter `json:"filter,omitempty"`
	Op     string  `json:"op,omitempty"`
}

// Filter is a target search condition in a request body.
type Filter struct {
	Name           string `json:"name,omitempty"`
	Type           string `json:"type,omitempty"`
	Classification string `json:"classification,omitempty"`
}

func (f *Filter) Decompose() (tdb.TargetQuery, error) {
	query := tdb.TargetQuery{
		Name:           f.Name,
		Classification: f.Classification,
	}
	if f.Type != "" {
		ttype, err := tdb.AsTargetType(f.Type)
		if err != nil {
			return tdb.TargetQuery{}, err
		}
		query.Type = ttype
	}
	return query, nil
}

func ComposeGrouping(l tdb.TargetList) Grouping {
	created := rfctime.New(l.Created)
	return Grouping{
		Id:        l.Id,
		Name:      l.Name,
		Created:   &created,
		TargetIds: l.TargetIds,
	}
}
