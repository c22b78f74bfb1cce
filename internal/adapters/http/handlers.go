package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/safezone/internal/core/domain"
)

// checkLocationRequest is the body of a location check. Pointers tell a
// missing field apart from a zero coordinate.
type checkLocationRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// RootHandler reports that the API is up.
func RootHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "Geofence API is online"})
	}
}

// CheckLocationHandler classifies the posted coordinate against the current
// risk zones.
func CheckLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req checkLocationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "body must be JSON with numeric lat and lon")
		}
		if req.Lat == nil || req.Lon == nil {
			return errBadRequest(c, "lat and lon are required")
		}

		verdict, err := deps.Checks.CheckLocation(c.UserContext(), domain.Coordinate{Lat: *req.Lat, Lon: *req.Lon})
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set("Cache-Control", "no-store")
		return c.JSON(verdict)
	}
}

// ListZonesHandler returns the valid risk zones, paginated.
func ListZonesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		zones, err := deps.Zones.List(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}

		page, pg := paginate(zoneRecords(zones), c.QueryInt("offset", 0), c.QueryInt("limit", 100), 500)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// LegacyZonesHandler returns the valid risk zones as a bare array.
func LegacyZonesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		zones, err := deps.Zones.List(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(zoneRecords(zones))
	}
}

func zoneRecords(zones []domain.RiskZone) []domain.ZoneRecord {
	recs := make([]domain.ZoneRecord, 0, len(zones))
	for _, z := range zones {
		recs = append(recs, z.Record())
	}
	return recs
}
