package brokers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apialerts "github.com/starwatch/tom/pkg/api/types/alerts"
	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/utils/rfctime"
)

// marsMaxPages caps how many result pages a single query follows.
const marsMaxPages = 10

var marsFilters = map[int]string{1: "g", 2: "r", 3: "i"}

type MARS struct {
	url    string
	client *http.Client
}

func NewMARS(baseURL string, client *http.Client) *MARS {
	if client == nil {
		client = http.DefaultClient
	}
	return &MARS{url: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (m *MARS) Name() string {
	return "MARS"
}

type marsCandidate struct {
	JD         *float64 `json:"jd"`
	Magpsf     *float64 `json:"magpsf"`
	Sigmapsf   *float64 `json:"sigmapsf"`
	Diffmaglim *float64 `json:"diffmaglim"`
	Fid        *int     `json:"fid"`
	RA         *float64 `json:"ra"`
	Dec        *float64 `json:"dec"`
	L          *float64 `json:"l"`
	B          *float64 `json:"b"`
	RB         *float64 `json:"rb"`
	WallTime   string   `json:"wall_time"`
}

type marsAlert struct {
	LCOId        int64           `json:"lco_id"`
	ObjectId     string          `json:"objectId"`
	Candidate    marsCandidate   `json:"candidate"`
	PrvCandidate []marsCandidate `json:"prv_candidate"`
}

type marsPage struct {
	HasNext bool              `json:"has_next"`
	Results []json.RawMessage `json:"results"`
}

// pageURL builds the query URL for a result page.
// Empty parameters are dropped; page rides outside the encoded tail.
func (m *MARS) pageURL(page int, params url.Values) string {
	filtered := url.Values{}
	for key, values := range params {
		if key == "page" {
			continue
		}
		for _, v := range values {
			if v != "" {
				filtered.Add(key, v)
			}
		}
	}

	u := fmt.Sprintf("%s/?page=%d&format=json", m.url, page)
	if tail := filtered.Encode(); tail != "" {
		u += "&" + tail
	}
	return u
}

func (m *MARS) get(ctx context.Context, u string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNoSuchAlert
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("MARS responded %s for %s", resp.Status, u)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dest)
}

func (m *MARS) FetchAlerts(ctx context.Context, params url.Values) ([]json.RawMessage, error) {
	alerts := []json.RawMessage{}
	for page := 1; page <= marsMaxPages; page++ {
		p := new(marsPage)
		if err := m.get(ctx, m.pageURL(page, params), p); err != nil {
			return nil, err
		}
		alerts = append(alerts, p.Results...)
		if !p.HasNext {
			break
		}
	}
	return alerts, nil
}

func (m *MARS) FetchAlert(ctx context.Context, alertId string) (json.RawMessage, error) {
	var alert json.RawMessage
	if err := m.get(ctx, fmt.Sprintf("%s/%s/?format=json", m.url, alertId), &alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (m *MARS) ToTarget(alert json.RawMessage) (tdb.Target, error) {
	a := new(marsAlert)
	if err := json.Unmarshal(alert, a); err != nil {
		return tdb.Target{}, err
	}
	if a.ObjectId == "" {
		return tdb.Target{}, fmt.Errorf("alert has no objectId")
	}

	target := tdb.Target{
		TargetBody: tdb.TargetBody{
			Name:        a.ObjectId,
			Type:        tdb.Sidereal,
			RA:          a.Candidate.RA,
			Dec:         a.Candidate.Dec,
			GalacticLng: a.Candidate.L,
			GalacticLat: a.Candidate.B,
		},
		Aliases: []tdb.TargetName{
			{SourceName: "ZTF", Name: a.ObjectId},
		},
	}
	return target, target.Validate()
}

func (m *MARS) ToGenericAlert(alert json.RawMessage) (apialerts.GenericAlert, error) {
	a := new(marsAlert)
	if err := json.Unmarshal(alert, a); err != nil {
		return apialerts.GenericAlert{}, err
	}

	return apialerts.GenericAlert{
		Id:        fmt.Sprint(a.LCOId),
		Name:      a.ObjectId,
		URL:       fmt.Sprintf("%s/%d/", m.url, a.LCOId),
		Timestamp: a.Candidate.WallTime,
		RA:        a.Candidate.RA,
		Dec:       a.Candidate.Dec,
		Mag:       a.Candidate.Magpsf,
		Score:     a.Candidate.RB,
	}, nil
}

// datumOf maps one candidate row to a reduced datum.
// Detections need jd, magpsf, sigmapsf and fid; rows lacking those but
// carrying jd, diffmaglim and fid are nondetections. Anything else is
// dropped.
func datumOf(targetId string, sourceLocation string, c marsCandidate) (tdb.ReducedDatum, bool) {
	if c.JD == nil || c.Fid == nil {
		return tdb.ReducedDatum{}, false
	}
	filter, ok := marsFilters[*c.Fid]
	if !ok {
		return tdb.ReducedDatum{}, false
	}

	mjd := rfctime.JDToMJD(*c.JD)
	datum := tdb.ReducedDatum{
		TargetId:       targetId,
		SourceName:     "MARS",
		SourceLocation: sourceLocation,
		Observer:       "ZTF",
		Facility:       "ZTF",
		MJD:            mjd,
		Timestamp:      rfctime.MJDToTime(mjd),
		ValueUnit:      tdb.Mag,
		Filter:         filter,
		Active:         true,
	}

	switch {
	case c.Magpsf != nil && c.Sigmapsf != nil:
		datum.DataType = tdb.Photometry
		datum.Value = c.Magpsf
		datum.Error = c.Sigmapsf
	case c.Diffmaglim != nil:
		datum.DataType = tdb.PhotometryNondetection
		datum.Value = c.Diffmaglim
	default:
		return tdb.ReducedDatum{}, false
	}
	return datum, true
}

func (m *MARS) ProcessReducedData(ctx context.Context, datums tdb.DatumInterface, target tdb.Target) (int, error) {
	objectId := target.Name
	for _, alias := range target.Aliases {
		if strings.EqualFold(alias.SourceName, "ZTF") {
			objectId = alias.Name
			break
		}
	}

	alerts, err := m.FetchAlerts(ctx, url.Values{"objectId": {objectId}})
	if err != nil {
		return 0, err
	}

	seen := map[string]bool{}
	rows := []tdb.ReducedDatum{}
	for _, raw := range alerts {
		a := new(marsAlert)
		if err := json.Unmarshal(raw, a); err != nil {
			return 0, err
		}
		location := fmt.Sprintf("%s/%d/", m.url, a.LCOId)
		for _, c := range append([]marsCandidate{a.Candidate}, a.PrvCandidate...) {
			datum, ok := datumOf(target.TargetId, location, c)
			if !ok {
				continue
			}
			if key := datum.DedupKey(); !seen[key] {
				seen[key] = true
				rows = append(rows, datum)
			}
		}
	}

	if len(rows) == 0 {
		return 0, nil
	}
	return datums.BulkRegister(ctx, rows)
}
