package domain

import (
	"fmt"
	"strings"
	"time"
)

// RiskLevel is a zone severity. Higher values win when zones overlap.
type RiskLevel int

const (
	RiskNone RiskLevel = iota
	RiskGreen
	RiskYellow
	RiskRed
)

var riskLevelNames = [...]string{
	RiskNone:   "none",
	RiskGreen:  "green",
	RiskYellow: "yellow",
	RiskRed:    "red",
}

// ParseRiskLevel maps a severity tag to its RiskLevel. Matching ignores case
// and surrounding whitespace.
func ParseRiskLevel(s string) (RiskLevel, error) {
	tag := strings.ToLower(strings.TrimSpace(s))
	for lvl, name := range riskLevelNames {
		if name == tag {
			return RiskLevel(lvl), nil
		}
	}
	return RiskNone, fmt.Errorf("unknown risk level %q", s)
}

func (l RiskLevel) String() string {
	if l < RiskNone || l > RiskRed {
		return fmt.Sprintf("RiskLevel(%d)", int(l))
	}
	return riskLevelNames[l]
}

// Higher reports whether l has strictly greater priority than other.
func (l RiskLevel) Higher(other RiskLevel) bool {
	return l > other
}

func (l RiskLevel) MarshalText() ([]byte, error) {
	if l < RiskNone || l > RiskRed {
		return nil, fmt.Errorf("invalid risk level %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *RiskLevel) UnmarshalText(b []byte) error {
	lvl, err := ParseRiskLevel(string(b))
	if err != nil {
		return err
	}
	*l = lvl
	return nil
}

// ZoneRecord is a zone as held by a store. Numeric fields are nil when the
// stored value is missing or not a number.
type ZoneRecord struct {
	Name         string   `json:"name"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	RadiusMeters *float64 `json:"radius_meters"`
	Risk         string   `json:"risk"`
}

// RiskZone is a validated circular zone.
type RiskZone struct {
	Name         string
	Center       Coordinate
	RadiusMeters float64
	Level        RiskLevel
}

// ParseZone validates a store record. Failures are *ZoneError values that
// wrap ErrInvalidZone.
func ParseZone(rec ZoneRecord) (RiskZone, error) {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return RiskZone{}, &ZoneError{Reason: ReasonMissingName}
	}
	if rec.Lat == nil || rec.Lon == nil || !finite(*rec.Lat) || !finite(*rec.Lon) {
		return RiskZone{}, &ZoneError{Name: name, Reason: ReasonMissingCenter}
	}
	center := Coordinate{Lat: *rec.Lat, Lon: *rec.Lon}
	if center.Validate() != nil {
		return RiskZone{}, &ZoneError{Name: name, Reason: ReasonCenterRange}
	}
	if rec.RadiusMeters == nil || !finite(*rec.RadiusMeters) || *rec.RadiusMeters <= 0 {
		return RiskZone{}, &ZoneError{Name: name, Reason: ReasonInvalidRadius}
	}
	lvl, err := ParseRiskLevel(rec.Risk)
	if err != nil || lvl == RiskNone {
		return RiskZone{}, &ZoneError{Name: name, Reason: ReasonInvalidRisk}
	}
	return RiskZone{
		Name:         name,
		Center:       center,
		RadiusMeters: *rec.RadiusMeters,
		Level:        lvl,
	}, nil
}

// Record converts the zone back to its store shape.
func (z RiskZone) Record() ZoneRecord {
	lat, lon, radius := z.Center.Lat, z.Center.Lon, z.RadiusMeters
	return ZoneRecord{
		Name:         z.Name,
		Lat:          &lat,
		Lon:          &lon,
		RadiusMeters: &radius,
		Risk:         z.Level.String(),
	}
}

// Verdict statuses.
const (
	StatusSafe   = "safe"
	StatusInZone = "in_zone"
)

// SafeAreaName labels the running best match before any zone is entered.
const SafeAreaName = "Safe Area"

// Verdict is the outcome of a location check.
type Verdict struct {
	Status    string    `json:"status"`
	ZoneName  string    `json:"zone_name,omitempty"`
	RiskLevel RiskLevel `json:"risk_level"`
}

// SafeVerdict is returned when the point lies in no zone.
func SafeVerdict() Verdict {
	return Verdict{Status: StatusSafe, RiskLevel: RiskNone}
}

// InZoneVerdict reports the zone that won resolution.
func InZoneVerdict(name string, level RiskLevel) Verdict {
	return Verdict{Status: StatusInZone, ZoneName: name, RiskLevel: level}
}

// InZone reports whether the verdict names a zone.
func (v Verdict) InZone() bool {
	return v.Status == StatusInZone
}

// ZoneAlert is published when a check lands inside a zone.
type ZoneAlert struct {
	ZoneName  string     `json:"zone_name"`
	RiskLevel RiskLevel  `json:"risk_level"`
	Location  Coordinate `json:"location"`
	CheckedAt time.Time  `json:"checked_at"`
}
