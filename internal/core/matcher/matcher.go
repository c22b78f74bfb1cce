// Package matcher resolves a user coordinate against a snapshot of risk zones.
//
// Evaluate is pure: it never logs, never records metrics and never mutates its
// input. Rejected zone records are returned in Result.Skipped so callers can
// report them.
package matcher

import (
	"errors"

	"github.com/samirrijal/safezone/internal/core/domain"
	"github.com/samirrijal/safezone/internal/pkg/geospatial"
)

// Skip records a zone record excluded from an evaluation.
type Skip struct {
	Index  int
	Name   string
	Reason string
}

// Result is the outcome of one evaluation.
type Result struct {
	Verdict domain.Verdict
	// Matches counts the valid zones that contain the point.
	Matches int
	Skipped []Skip
}

// Evaluate classifies user against zones. Among the zones containing the
// point the highest RiskLevel wins; on equal levels the first one in zones is
// kept. The circle boundary is inclusive.
func Evaluate(user domain.Coordinate, zones []domain.ZoneRecord) Result {
	var res Result
	bestName, bestLevel := domain.SafeAreaName, domain.RiskNone

	for i, rec := range zones {
		zone, err := domain.ParseZone(rec)
		if err != nil {
			res.Skipped = append(res.Skipped, SkipOf(i, rec, err))
			continue
		}

		if !Contains(zone, user) {
			continue
		}
		res.Matches++

		if zone.Level.Higher(bestLevel) {
			bestName, bestLevel = zone.Name, zone.Level
		}
	}

	if bestLevel == domain.RiskNone {
		res.Verdict = domain.SafeVerdict()
	} else {
		res.Verdict = domain.InZoneVerdict(bestName, bestLevel)
	}
	return res
}

// Contains reports whether p lies within the zone's radius.
func Contains(zone domain.RiskZone, p domain.Coordinate) bool {
	d := geospatial.Distance(p.Lat, p.Lon, zone.Center.Lat, zone.Center.Lon)
	return d <= zone.RadiusMeters
}

// SkipOf describes why rec, at position i, was rejected with err.
func SkipOf(i int, rec domain.ZoneRecord, err error) Skip {
	s := Skip{Index: i, Name: rec.Name, Reason: "invalid"}
	var ze *domain.ZoneError
	if errors.As(err, &ze) {
		s.Reason = ze.Reason
	}
	return s
}
