package domain

import (
	"fmt"
	"math"
)

// Coordinate is a WGS 84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the coordinate lies within geographic range.
func (c Coordinate) Validate() error {
	if !finite(c.Lat) || !finite(c.Lon) {
		return fmt.Errorf("%w: lat and lon must be finite numbers", ErrInvalidCoordinate)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: lat must be between -90 and 90, got %g", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: lon must be between -180 and 180, got %g", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
