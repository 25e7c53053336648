package brokers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	apialerts "github.com/starwatch/tom/pkg/api/types/alerts"
	tdb "github.com/starwatch/tom/pkg/db"
)

// Fink is registered so the broker shows up in listings, but alert
// retrieval is not implemented yet.
//
// TODO: query the Fink REST API (api/v1/objects) once an API key setup
// is decided.
type Fink struct {
	url    string
	client *http.Client
}

func NewFink(baseURL string, client *http.Client) *Fink {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fink{url: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (f *Fink) Name() string {
	return "FINK"
}

func (f *Fink) FetchAlerts(ctx context.Context, params url.Values) ([]json.RawMessage, error) {
	return []json.RawMessage{}, nil
}

func (f *Fink) FetchAlert(ctx context.Context, alertId string) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w: %s (FINK does not serve single alerts)", ErrNoSuchAlert, alertId)
}

func (f *Fink) ToTarget(alert json.RawMessage) (tdb.Target, error) {
	return tdb.Target{}, fmt.Errorf("FINK alerts cannot be converted to targets")
}

func (f *Fink) ToGenericAlert(alert json.RawMessage) (apialerts.GenericAlert, error) {
	return apialerts.GenericAlert{}, fmt.Errorf("FINK alerts cannot be converted")
}

func (f *Fink) ProcessReducedData(ctx context.Context, datums tdb.DatumInterface, target tdb.Target) (int, error) {
	return 0, nil
}
