package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/safezone/internal/adapters/postgres"
	"github.com/samirrijal/safezone/internal/adapters/valkey"
	"github.com/samirrijal/safezone/internal/core/ports"
	"github.com/samirrijal/safezone/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Checks *usecases.CheckService
	Zones  *usecases.ZoneService

	// Store is the active zone store; readiness pings it when it
	// implements ports.Pinger.
	Store ports.ZoneStore

	// Optional collaborators; nil means not configured.
	NATS *nats.Conn
	DB   *postgres.DB
	// Cache backs readiness checks.
	Cache *valkey.Cache
	// LimiterStorage shares rate-limit counters; nil keeps them in memory.
	LimiterStorage fiber.Storage

	// RateLimit is the number of requests per minute per IP; 0 means 120.
	RateLimit int
}
