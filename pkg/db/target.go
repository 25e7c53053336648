package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/starwatch/tom/pkg/utils/cmp"
	"github.com/starwatch/tom/pkg/utils/pointer"
	"github.com/starwatch/tom/pkg/utils/rfctime"
)

var ErrUnknownTargetType = errors.New("unknown target type")

type TargetType string

const (
	Sidereal    TargetType = "SIDEREAL"
	NonSidereal TargetType = "NON_SIDEREAL"
)

func (t TargetType) String() string {
	return string(t)
}

func AsTargetType(s string) (TargetType, error) {
	switch TargetType(s) {
	case Sidereal:
		return Sidereal, nil
	case NonSidereal:
		return NonSidereal, nil
	default:
		return TargetType(s), fmt.Errorf("%w: %s", ErrUnknownTargetType, s)
	}
}

var ErrUnknownOrbitScheme = errors.New("unknown orbital element scheme")

// OrbitScheme identifies which set of orbital elements a non-sidereal
// target carries.
type OrbitScheme string

const (
	MPCMinorPlanet OrbitScheme = "MPC_MINOR_PLANET"
	MPCComet       OrbitScheme = "MPC_COMET"
	JPLMajorPlanet OrbitScheme = "JPL_MAJOR_PLANET"
)

func (s OrbitScheme) String() string {
	return string(s)
}

func AsOrbitScheme(s string) (OrbitScheme, error) {
	switch OrbitScheme(s) {
	case MPCMinorPlanet, MPCComet, JPLMajorPlanet:
		return OrbitScheme(s), nil
	default:
		return OrbitScheme(s), fmt.Errorf("%w: %s", ErrUnknownOrbitScheme, s)
	}
}

// TargetBody is the single-table part of a target, without aliases or extras.
type TargetBody struct {
	TargetId string
	Name     string
	Type     TargetType
	Created  time.Time
	Modified time.Time

	// coordinates of a sidereal target, in degrees
	RA          *float64
	Dec         *float64
	Epoch       *float64
	Parallax    *float64
	PMRA        *float64
	PMDec       *float64
	GalacticLng *float64
	GalacticLat *float64
	Distance    *float64
	DistanceErr *float64

	// orbital elements of a non-sidereal target
	Scheme            OrbitScheme
	EpochOfElements   *float64
	MeanAnomaly       *float64
	ArgOfPerihelion   *float64
	Eccentricity      *float64
	LngAscNode        *float64
	Inclination       *float64
	MeanDailyMotion   *float64
	SemimajorAxis     *float64
	EpochOfPerihelion *float64
	Perihdist         *float64
	EphemerisPeriod   *float64
	EphemerisEpoch    *float64

	// scientific bookkeeping
	Classification string
	DiscoveryDate  *time.Time
	MJDLast        *float64
	MagLast        *float64
	FilterLast     string
	Importance     *float64
	CadenceDays    *float64
	Priority       *float64
	SunSeparation  *float64
	Constellation  string
	Description    string
}

func (b *TargetBody) Equal(o *TargetBody) bool {
	if (b == nil) || (o == nil) {
		return (b == nil) && (o == nil)
	}

	return b.TargetId == o.TargetId &&
		b.Name == o.Name &&
		b.Type == o.Type &&
		b.Scheme == o.Scheme &&
		b.Classification == o.Classification &&
		b.FilterLast == o.FilterLast &&
		b.Constellation == o.Constellation &&
		b.Description == o.Description &&
		pointer.Equal(b.RA, o.RA) &&
		pointer.Equal(b.Dec, o.Dec) &&
		pointer.Equal(b.Epoch, o.Epoch) &&
		pointer.Equal(b.Parallax, o.Parallax) &&
		pointer.Equal(b.PMRA, o.PMRA) &&
		pointer.Equal(b.PMDec, o.PMDec) &&
		pointer.Equal(b.GalacticLng, o.GalacticLng) &&
		pointer.Equal(b.GalacticLat, o.GalacticLat) &&
		pointer.Equal(b.Distance, o.Distance) &&
		pointer.Equal(b.DistanceErr, o.DistanceErr) &&
		pointer.Equal(b.EpochOfElements, o.EpochOfElements) &&
		pointer.Equal(b.MeanAnomaly, o.MeanAnomaly) &&
		pointer.Equal(b.ArgOfPerihelion, o.ArgOfPerihelion) &&
		pointer.Equal(b.Eccentricity, o.Eccentricity) &&
		pointer.Equal(b.LngAscNode, o.LngAscNode) &&
		pointer.Equal(b.Inclination, o.Inclination) &&
		pointer.Equal(b.MeanDailyMotion, o.MeanDailyMotion) &&
		pointer.Equal(b.SemimajorAxis, o.SemimajorAxis) &&
		pointer.Equal(b.EpochOfPerihelion, o.EpochOfPerihelion) &&
		pointer.Equal(b.Perihdist, o.Perihdist) &&
		pointer.Equal(b.EphemerisPeriod, o.EphemerisPeriod) &&
		pointer.Equal(b.EphemerisEpoch, o.EphemerisEpoch) &&
		pointer.Equal(b.MJDLast, o.MJDLast) &&
		pointer.Equal(b.MagLast, o.MagLast) &&
		pointer.Equal(b.Importance, o.Importance) &&
		pointer.Equal(b.CadenceDays, o.CadenceDays) &&
		pointer.Equal(b.Priority, o.Priority) &&
		pointer.Equal(b.SunSeparation, o.SunSeparation) &&
		cmp.PEqualWith(b.DiscoveryDate, o.DiscoveryDate, func(a, b time.Time) bool { return a.Equal(b) })
}

var htmlMarkup = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)

// SanitizeText strips carriage returns from a free-text value and rejects
// values carrying HTML markup.
func SanitizeText(s string) (string, error) {
	s = strings.ReplaceAll(s, "\r", "")
	if htmlMarkup.MatchString(s) {
		return "", fmt.Errorf("%w: markup is not allowed: %s", ErrInvalid, s)
	}
	return s, nil
}

// Validate checks required fields for the target's type and, for
// non-sidereal targets, its orbital element scheme.
func (b *TargetBody) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("%w: target name is required", ErrInvalid)
	}
	if _, err := SanitizeText(b.Name); err != nil {
		return err
	}
	for _, text := range []string{b.Classification, b.Constellation, b.Description} {
		if _, err := SanitizeText(text); err != nil {
			return err
		}
	}

	switch b.Type {
	case Sidereal:
		return b.validateSidereal()
	case NonSidereal:
		return b.validateNonSidereal()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownTargetType, b.Type)
	}
}

func (b *TargetBody) validateSidereal() error {
	for name, value := range map[string]*float64{
		"ra": b.RA, "dec": b.Dec,
	} {
		if value == nil {
			return fmt.Errorf("%w: %s is required for a sidereal target", ErrInvalid, name)
		}
	}
	if *b.RA < 0 || 360 <= *b.RA {
		return fmt.Errorf("%w: ra is out of range [0, 360): %f", ErrInvalid, *b.RA)
	}
	if *b.Dec < -90 || 90 < *b.Dec {
		return fmt.Errorf("%w: dec is out of range [-90, 90]: %f", ErrInvalid, *b.Dec)
	}
	return nil
}

func (b *TargetBody) validateNonSidereal() error {
	required := map[string]*float64{
		"epoch_of_elements": b.EpochOfElements,
		"inclination":       b.Inclination,
		"lng_asc_node":      b.LngAscNode,
		"arg_of_perihelion": b.ArgOfPerihelion,
		"eccentricity":      b.Eccentricity,
	}

	switch b.Scheme {
	case MPCComet:
		required["perihdist"] = b.Perihdist
		required["epoch_of_perihelion"] = b.EpochOfPerihelion
	case MPCMinorPlanet:
		required["mean_anomaly"] = b.MeanAnomaly
		required["semimajor_axis"] = b.SemimajorAxis
	case JPLMajorPlanet:
		required["mean_daily_motion"] = b.MeanDailyMotion
		required["mean_anomaly"] = b.MeanAnomaly
		required["semimajor_axis"] = b.SemimajorAxis
	default:
		return fmt.Errorf("%w: scheme is required for a non-sidereal target", ErrUnknownOrbitScheme)
	}

	for name, value := range required {
		if value == nil {
			return fmt.Errorf(
				"%w: %s is required for a non-sidereal target (scheme %s)",
				ErrInvalid, name, b.Scheme,
			)
		}
	}
	return nil
}

// TargetName is a per-survey alias of a target.
type TargetName struct {
	SourceName string
	Name       string
	URL        string
}

func (n *TargetName) Equal(o *TargetName) bool {
	if (n == nil) || (o == nil) {
		return (n == nil) && (o == nil)
	}
	return n.SourceName == o.SourceName && n.Name == o.Name && n.URL == o.URL
}

// TargetExtra is a key/value annotation of a target.
//
// Value is the raw string; the typed shadow fields hold the same value when
// it is parseable as that type. Use Typed to derive them.
type TargetExtra struct {
	Key   string
	Value string

	FloatValue *float64
	BoolValue  *bool
	TimeValue  *time.Time
}

func (e *TargetExtra) Equal(o *TargetExtra) bool {
	if (e == nil) || (o == nil) {
		return (e == nil) && (o == nil)
	}
	return e.Key == o.Key && e.Value == o.Value
}

// Typed returns a copy of the extra with the typed shadow values derived
// from Value.
func (e TargetExtra) Typed() TargetExtra {
	e.FloatValue = nil
	e.BoolValue = nil
	e.TimeValue = nil

	if f, err := strconv.ParseFloat(e.Value, 64); err == nil {
		e.FloatValue = &f
	}
	if b, err := strconv.ParseBool(e.Value); err == nil {
		e.BoolValue = &b
	}
	if t, err := rfctime.ParseRFC3339DateTime(e.Value); err == nil {
		tt := t.Time()
		e.TimeValue = &tt
	}
	return e
}

// ExtraDelta is a set of extras to add to (or overwrite on) a target and
// keys to remove from it.
type ExtraDelta struct {
	Add    []TargetExtra
	Remove []string
}

func (d *ExtraDelta) Equal(o *ExtraDelta) bool {
	return cmp.SliceContentEqWith(
		d.Add, o.Add, func(a, b TargetExtra) bool { return a.Equal(&b) },
	) &&
		cmp.SliceContentEq(d.Remove, o.Remove)
}

// Target is a target with its aliases and extras.
type Target struct {
	TargetBody
	Aliases []TargetName
	Extras  []TargetExtra
}

func (t *Target) Equal(o *Target) bool {
	if (t == nil) || (o == nil) {
		return (t == nil) && (o == nil)
	}
	return t.TargetBody.Equal(&o.TargetBody) &&
		cmp.SliceContentEqWith(
			t.Aliases, o.Aliases, func(a, b TargetName) bool { return a.Equal(&b) },
		) &&
		cmp.SliceContentEqWith(
			t.Extras, o.Extras, func(a, b TargetExtra) bool { return a.Equal(&b) },
		)
}

// Cone is a cone-search condition: a sky position and an angular radius,
// all in degrees.
type Cone struct {
	RA     float64
	Dec    float64
	Radius float64
}

// TargetQuery is a conjunction of target search conditions.
// Zero values mean "not conditioned".
type TargetQuery struct {
	// substring of the target name or one of its aliases, case-insensitive
	Name string

	Type           TargetType
	Classification string
	Cone           *Cone
}

type TargetInterface interface {
	// Register a new target with its aliases and extras.
	//
	// The target's TargetId, Created and Modified are assigned by the store.
	//
	// Returns the TargetId of the new target.
	// When the name or one of the aliases is taken, it returns ErrAlreadyExists.
	Register(ctx context.Context, target Target) (string, error)

	// Retrieve targets identified by targetIds.
	//
	// The result maps TargetId to Target. Missing ids are simply absent.
	Get(ctx context.Context, targetIds []string) (map[string]Target, error)

	// Find TargetIds of targets meeting the query.
	Find(ctx context.Context, query TargetQuery) ([]string, error)

	// Update overwrites the body of the target and reconciles its aliases:
	// given aliases are upserted per source, sources not given are removed.
	//
	// Returns ErrMissing when no such target exists.
	Update(ctx context.Context, targetId string, target Target) error

	// Delete the target and everything hanging off it.
	Delete(ctx context.Context, targetId string) error

	// UpdateExtras applies delta to the extras of the target.
	// Added extras get their typed shadow values derived at write time.
	UpdateExtras(ctx context.Context, targetId string, delta ExtraDelta) error

	// ResolveNames finds TargetIds whose name or alias equals name,
	// case-insensitively.
	ResolveNames(ctx context.Context, name string) ([]string, error)

	// RecordExport writes an audit row for a CSV export performed by the
	// user over the given targets.
	RecordExport(ctx context.Context, username string, targetIds []string) error
}

// TargetList is a named grouping of targets.
type TargetList struct {
	Id      int
	Name    string
	Created time.Time

	TargetIds []string
}

func (l *TargetList) Equal(o *TargetList) bool {
	if (l == nil) || (o == nil) {
		return (l == nil) && (o == nil)
	}
	return l.Id == o.Id && l.Name == o.Name &&
		cmp.SliceContentEq(l.TargetIds, o.TargetIds)
}

type TargetListInterface interface {
	// Register a new empty list. Returns its id.
	Register(ctx context.Context, name string) (int, error)

	// Find all lists, with their member TargetIds.
	Find(ctx context.Context) ([]TargetList, error)

	// Delete the list. Member targets are kept.
	Delete(ctx context.Context, id int) error

	// AddTargets puts targets into the list. Already-member targets are kept.
	AddTargets(ctx context.Context, id int, targetIds []string) error

	// RemoveTargets takes targets out of the list.
	RemoveTargets(ctx context.Context, id int, targetIds []string) error
}
