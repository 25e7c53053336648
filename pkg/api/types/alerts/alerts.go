package alerts

import (
	"github.com/starwatch/tom/pkg/utils/pointer"
)

// GenericAlert is the broker-independent view of an alert.
type GenericAlert struct {
	Id        string   `json:"id"`
	Name      string   `json:"name"`
	URL       string   `json:"url,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	RA        *float64 `json:"ra,omitempty"`
	Dec       *float64 `json:"dec,omitempty"`
	Mag       *float64 `json:"mag,omitempty"`
	Score     *float64 `json:"score,omitempty"`
}

func (a *GenericAlert) Equal(o *GenericAlert) bool {
	if (a == nil) || (o == nil) {
		return (a == nil) && (o == nil)
	}
	return a.Id == o.Id &&
		a.Name == o.Name &&
		a.URL == o.URL &&
		a.Timestamp == o.Timestamp &&
		pointer.Equal(a.RA, o.RA) &&
		pointer.Equal(a.Dec, o.Dec) &&
		pointer.Equal(a.Mag, o.Mag) &&
		pointer.Equal(a.Score, o.Score)
}

// CreateTargetRequest asks to build a target from a broker alert.
type CreateTargetRequest struct {
	AlertId string `json:"alert_id"`
}
