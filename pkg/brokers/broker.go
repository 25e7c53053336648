// Package brokers talks to external alert brokers.
//
// Each broker serves alerts in its own JSON shape; the Broker interface
// keeps them opaque (json.RawMessage) and converts on demand, either to
// a target draft or to the broker-independent GenericAlert view.
package brokers

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	apialerts "github.com/starwatch/tom/pkg/api/types/alerts"
	tdb "github.com/starwatch/tom/pkg/db"
)

var (
	ErrUnknownBroker = errors.New("unknown broker")
	ErrNoSuchAlert   = errors.New("no such alert")
)

type Broker interface {
	Name() string

	// FetchAlerts queries the broker. Parameters with empty values are
	// dropped. Paging is the broker's own affair; implementations cap
	// how far they follow it.
	FetchAlerts(ctx context.Context, params url.Values) ([]json.RawMessage, error)

	// FetchAlert retrieves a single alert by the broker's alert id.
	FetchAlert(ctx context.Context, alertId string) (json.RawMessage, error)

	// ToTarget builds a target draft from an alert.
	ToTarget(alert json.RawMessage) (tdb.Target, error)

	// ToGenericAlert maps an alert to the broker-independent view.
	ToGenericAlert(alert json.RawMessage) (apialerts.GenericAlert, error)

	// ProcessReducedData pulls the photometry the broker holds for the
	// target and stores it as reduced datums. Returns how many rows
	// were new.
	ProcessReducedData(ctx context.Context, datums tdb.DatumInterface, target tdb.Target) (int, error)
}

type Registry struct {
	order   []string
	brokers map[string]Broker
}

func NewRegistry(brokers ...Broker) *Registry {
	r := &Registry{brokers: map[string]Broker{}}
	for _, b := range brokers {
		key := strings.ToLower(b.Name())
		if _, ok := r.brokers[key]; !ok {
			r.order = append(r.order, b.Name())
		}
		r.brokers[key] = b
	}
	return r
}

// Get finds a broker by name, case-insensitively.
func (r *Registry) Get(name string) (Broker, bool) {
	b, ok := r.brokers[strings.ToLower(name)]
	return b, ok
}

// Names lists registered brokers in registration order.
func (r *Registry) Names() []string {
	return r.order
}
