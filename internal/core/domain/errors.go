package domain

import "errors"

var (
	// ErrInvalidCoordinate marks a user coordinate rejected at the boundary.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrInvalidZone marks a zone record that cannot take part in an evaluation.
	ErrInvalidZone = errors.New("invalid zone")

	// ErrStoreUnavailable marks a failure to obtain the current zone set.
	ErrStoreUnavailable = errors.New("zone store unavailable")
)

// Reasons a zone record is rejected by ParseZone.
const (
	ReasonMissingName   = "missing_name"
	ReasonMissingCenter = "missing_center"
	ReasonCenterRange   = "center_out_of_range"
	ReasonInvalidRadius = "invalid_radius"
	ReasonInvalidRisk   = "invalid_risk"
)

// ZoneError describes why a single zone record was rejected.
type ZoneError struct {
	Name   string
	Reason string
}

func (e *ZoneError) Error() string {
	if e.Name == "" {
		return "invalid zone: " + e.Reason
	}
	return "invalid zone " + e.Name + ": " + e.Reason
}

func (e *ZoneError) Unwrap() error { return ErrInvalidZone }
