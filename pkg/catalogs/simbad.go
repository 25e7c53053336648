package catalogs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	tdb "github.com/starwatch/tom/pkg/db"
)

// Simbad resolves names through the SIMBAD TAP service.
type Simbad struct {
	url    string
	client *http.Client
}

func NewSimbad(baseURL string, client *http.Client) *Simbad {
	if client == nil {
		client = http.DefaultClient
	}
	return &Simbad{url: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (s *Simbad) Name() string {
	return "SIMBAD"
}

// tapResponse is the VOTable/JSON shape of a sync TAP query:
// column metadata plus rows of positional values.
type tapResponse struct {
	Metadata []struct {
		Name string `json:"name"`
	} `json:"metadata"`
	Data [][]any `json:"data"`
}

func (s *Simbad) Query(ctx context.Context, term string) (Record, error) {
	adql := fmt.Sprintf(
		`SELECT basic.main_id, basic.ra, basic.dec FROM basic JOIN ident ON ident.oidref = basic.oid WHERE ident.id = '%s'`,
		strings.ReplaceAll(term, "'", "''"),
	)
	form := url.Values{
		"REQUEST": {"doQuery"},
		"LANG":    {"ADQL"},
		"FORMAT":  {"json"},
		"QUERY":   {adql},
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, s.url+"/sync",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return Record{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return Record{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Record{}, fmt.Errorf("SIMBAD responded %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Record{}, err
	}
	tap := new(tapResponse)
	if err := json.Unmarshal(body, tap); err != nil {
		return Record{}, err
	}

	if len(tap.Data) == 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrMissingData, term)
	}

	columns := map[string]int{}
	for i, m := range tap.Metadata {
		columns[m.Name] = i
	}

	row := tap.Data[0]
	record := Record{}
	if i, ok := columns["main_id"]; ok && i < len(row) {
		if name, ok := row[i].(string); ok {
			record.Name = name
		}
	}
	if i, ok := columns["ra"]; ok && i < len(row) {
		if ra, ok := row[i].(float64); ok {
			record.RA = &ra
		}
	}
	if i, ok := columns["dec"]; ok && i < len(row) {
		if dec, ok := row[i].(float64); ok {
			record.Dec = &dec
		}
	}

	if record.Name == "" {
		return Record{}, fmt.Errorf("%w: %s", ErrMissingData, term)
	}
	return record, nil
}

func (s *Simbad) ToTarget(record Record) (tdb.Target, error) {
	target := tdb.Target{
		TargetBody: tdb.TargetBody{
			Name: record.Name,
			Type: tdb.Sidereal,
			RA:   record.RA,
			Dec:  record.Dec,
		},
		Aliases: []tdb.TargetName{
			{SourceName: s.Name(), Name: record.Name},
		},
	}
	return target, target.Validate()
}
