// Package filestore reads risk zones from a JSON file on disk.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/samirrijal/safezone/internal/core/domain"
)

// ZoneFile implements ports.ZoneStore over a JSON array of zone objects:
//
//	[{"name": "...", "lat": 28.78, "lon": 77.44, "radius_meters": 500, "risk": "red"}]
//
// The file is read on every fetch so edits take effect on the next check.
type ZoneFile struct {
	path string
}

// NewZoneFile creates a store for the file at path.
func NewZoneFile(path string) *ZoneFile {
	return &ZoneFile{path: path}
}

type rawZone struct {
	Name         json.RawMessage `json:"name"`
	Lat          json.RawMessage `json:"lat"`
	Lon          json.RawMessage `json:"lon"`
	RadiusMeters json.RawMessage `json:"radius_meters"`
	Risk         json.RawMessage `json:"risk"`
}

// FetchZones reads and decodes the file. An unreadable file or a document
// that is not an array of objects is an error; a field of the wrong type only
// blanks that field.
func (s *ZoneFile) FetchZones(ctx context.Context) ([]domain.ZoneRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read zones file: %w", err)
	}

	return Decode(data)
}

// Ping reports whether the file can be read and decoded.
func (s *ZoneFile) Ping(ctx context.Context) error {
	_, err := s.FetchZones(ctx)
	return err
}

// Decode parses a JSON zone document.
func Decode(data []byte) ([]domain.ZoneRecord, error) {
	var raws []rawZone
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode zones file: %w", err)
	}

	zones := make([]domain.ZoneRecord, 0, len(raws))
	for _, r := range raws {
		zones = append(zones, domain.ZoneRecord{
			Name:         str(r.Name),
			Lat:          num(r.Lat),
			Lon:          num(r.Lon),
			RadiusMeters: num(r.RadiusMeters),
			Risk:         str(r.Risk),
		})
	}
	return zones, nil
}

// num accepts JSON numbers only. Strings, booleans and null yield nil.
func num(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

func str(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
