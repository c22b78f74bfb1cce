package usecases

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/safezone/internal/core/domain"
	"github.com/samirrijal/safezone/internal/core/matcher"
	"github.com/samirrijal/safezone/internal/core/ports"
	"github.com/samirrijal/safezone/internal/pkg/logging"
	"github.com/samirrijal/safezone/internal/pkg/metrics"
	"github.com/samirrijal/safezone/internal/pkg/telemetry"
)

// fetchZones reads a full snapshot from the store. Any store failure is
// wrapped in domain.ErrStoreUnavailable.
func fetchZones(ctx context.Context, store ports.ZoneStore) ([]domain.ZoneRecord, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanFetchZones)
	defer span.End()

	start := time.Now()
	zones, err := store.FetchZones(ctx)
	metrics.StoreFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreFetchErrors.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch zones")
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	span.SetAttributes(attribute.Int("zones.count", len(zones)))
	return zones, nil
}

// reportSkipped logs and counts zone records rejected during evaluation.
func reportSkipped(ctx context.Context, skipped []matcher.Skip) {
	if len(skipped) == 0 {
		return
	}
	log := logging.FromContext(ctx)
	for _, s := range skipped {
		metrics.ZonesSkipped.WithLabelValues(s.Reason).Inc()
		log.WarnContext(ctx, "zone skipped",
			"zone", s.Name,
			"index", s.Index,
			"reason", s.Reason,
		)
	}
}
