package ports

import (
	"context"

	"github.com/samirrijal/safezone/internal/core/domain"
)

// ZoneStore supplies the current set of risk zones. Each call returns a
// complete snapshot or an error; partial results are never returned.
type ZoneStore interface {
	FetchZones(ctx context.Context) ([]domain.ZoneRecord, error)
}

// ZoneWriter persists zone records.
type ZoneWriter interface {
	Upsert(ctx context.Context, zone *domain.ZoneRecord) error
}

// Pinger is implemented by stores that can report whether they are usable
// without returning data.
type Pinger interface {
	Ping(ctx context.Context) error
}
