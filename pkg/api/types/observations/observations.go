package observations

import (
	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/utils/cmp"
	"github.com/starwatch/tom/pkg/utils/rfctime"
)

type Detail struct {
	Id             int              `json:"id"`
	TargetId       string           `json:"target"`
	Facility       string           `json:"facility"`
	ObservationId  string           `json:"observation_id,omitempty"`
	Status         string           `json:"status"`
	Parameters     map[string]any   `json:"parameters,omitempty"`
	ScheduledStart *rfctime.RFC3339 `json:"scheduled_start,omitempty"`
	ScheduledEnd   *rfctime.RFC3339 `json:"scheduled_end,omitempty"`
	Terminal       bool             `json:"terminal"`
	Created        *rfctime.RFC3339 `json:"created,omitempty"`
	Modified       *rfctime.RFC3339 `json:"modified,omitempty"`
}

func (d *Detail) Equal(o *Detail) bool {
	if (d == nil) || (o == nil) {
		return (d == nil) && (o == nil)
	}
	return d.Id == o.Id &&
		d.TargetId == o.TargetId &&
		d.Facility == o.Facility &&
		d.ObservationId == o.ObservationId &&
		d.Status == o.Status &&
		d.Terminal == o.Terminal &&
		d.ScheduledStart.Equal(o.ScheduledStart) &&
		d.ScheduledEnd.Equal(o.ScheduledEnd) &&
		cmp.MapEqWith(d.Parameters, o.Parameters, func(a, b any) bool { return a == b })
}

func ComposeDetail(r tdb.ObservationRecord) Detail {
	d := Detail{
		Id:            r.Id,
		TargetId:      r.TargetId,
		Facility:      r.Facility,
		ObservationId: r.ObservationId,
		Status:        r.Status,
		Parameters:    r.Parameters,
		Terminal:      r.Terminal(),
	}
	if r.ScheduledStart != nil {
		start := rfctime.New(*r.ScheduledStart)
		d.ScheduledStart = &start
	}
	if r.ScheduledEnd != nil {
		end := rfctime.New(*r.ScheduledEnd)
		d.ScheduledEnd = &end
	}
	if !r.Created.IsZero() {
		created := rfctime.New(r.Created)
		d.Created = &created
	}
	if !r.Modified.IsZero() {
		modified := rfctime.New(r.Modified)
		d.Modified = &modified
	}
	return d
}

// Spec is the payload for recording an observation.
type Spec struct {
	Facility       string           `json:"facility"`
	ObservationId  string           `json:"observation_id,omitempty"`
	Status         string           `json:"status,omitempty"`
	Parameters     map[string]any   `json:"parameters,omitempty"`
	ScheduledStart *rfctime.RFC3339 `json:"scheduled_start,omitempty"`
	ScheduledEnd   *rfctime.RFC3339 `json:"scheduled_end,omitempty"`
}

func (s *Spec) Decompose(targetId string) tdb.ObservationRecord {
	record := tdb.ObservationRecord{
		TargetId:      targetId,
		Facility:      s.Facility,
		ObservationId: s.ObservationId,
		Status:        s.Status,
		Parameters:    s.Parameters,
	}
	if s.ScheduledStart != nil {
		start := s.ScheduledStart.Time()
		record.ScheduledStart = &start
	}
	if s.ScheduledEnd != nil {
		end := s.ScheduledEnd.Time()
		record.ScheduledEnd = &end
	}
	return record
}

// StatusChange is the payload of the status endpoint.
type StatusChange struct {
	Status string `json:"status"`
}
