package db

import (
	"context"
	"time"
)

// ObservationRecord is a (requested or performed) observation of a target
// at some facility.
type ObservationRecord struct {
	Id            int
	TargetId      string
	Facility      string
	ObservationId string
	Status        string

	// facility-specific request parameters
	Parameters map[string]any

	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
	Created        time.Time
	Modified       time.Time
}

// statuses after which the observation never changes again
var terminalObservationStatuses = map[string]bool{
	"COMPLETED":      true,
	"FAILED":         true,
	"CANCELED":       true,
	"WINDOW_EXPIRED": true,
}

// Terminal reports whether the record's status is final.
func (r *ObservationRecord) Terminal() bool {
	return terminalObservationStatuses[r.Status]
}

type ObservationInterface interface {
	// Register a new observation record. Returns its id.
	Register(ctx context.Context, record ObservationRecord) (int, error)

	// FindByTarget lists the records of the target, ordered by
	// scheduled start.
	FindByTarget(ctx context.Context, targetId string) ([]ObservationRecord, error)

	// UpdateStatus sets the status of the record.
	UpdateStatus(ctx context.Context, id int, status string) error
}
