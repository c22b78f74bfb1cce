package usecases

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/safezone/internal/core/domain"
	"github.com/samirrijal/safezone/internal/core/matcher"
	"github.com/samirrijal/safezone/internal/core/ports"
	"github.com/samirrijal/safezone/internal/pkg/logging"
	"github.com/samirrijal/safezone/internal/pkg/metrics"
	"github.com/samirrijal/safezone/internal/pkg/telemetry"
)

// CheckService classifies user locations against the current risk zones.
type CheckService struct {
	zones     ports.ZoneStore
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewCheckService creates a new CheckService. publisher may be nil.
func NewCheckService(zones ports.ZoneStore, publisher ports.EventPublisher) *CheckService {
	return &CheckService{zones: zones, publisher: publisher, now: time.Now}
}

// CheckLocation returns the verdict for loc. It fails with
// domain.ErrInvalidCoordinate for out-of-range input and with
// domain.ErrStoreUnavailable when zones cannot be read; it never reports a
// safe verdict in either case.
func (s *CheckService) CheckLocation(ctx context.Context, loc domain.Coordinate) (domain.Verdict, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanCheckLocation)
	defer span.End()

	if err := loc.Validate(); err != nil {
		return domain.Verdict{}, err
	}

	zones, err := fetchZones(ctx, s.zones)
	if err != nil {
		return domain.Verdict{}, err
	}

	res := matcher.Evaluate(loc, zones)

	reportSkipped(ctx, res.Skipped)
	metrics.ZonesEvaluated.Observe(float64(len(zones)))
	metrics.ChecksTotal.WithLabelValues(res.Verdict.Status, res.Verdict.RiskLevel.String()).Inc()
	span.SetAttributes(
		attribute.String("verdict.status", res.Verdict.Status),
		attribute.String("verdict.risk_level", res.Verdict.RiskLevel.String()),
		attribute.Int("zones.matched", res.Matches),
		attribute.Int("zones.skipped", len(res.Skipped)),
	)

	if res.Verdict.InZone() {
		s.publishAlert(ctx, loc, res.Verdict)
	}

	return res.Verdict, nil
}

func (s *CheckService) publishAlert(ctx context.Context, loc domain.Coordinate, v domain.Verdict) {
	if s.publisher == nil {
		return
	}
	alert := &domain.ZoneAlert{
		ZoneName:  v.ZoneName,
		RiskLevel: v.RiskLevel,
		Location:  loc,
		CheckedAt: s.now().UTC(),
	}
	if err := s.publisher.PublishZoneAlert(ctx, alert); err != nil {
		metrics.AlertPublishErrors.Inc()
		logging.FromContext(ctx).WarnContext(ctx, "publish zone alert", "zone", v.ZoneName, "error", err)
		return
	}
	metrics.AlertsPublished.WithLabelValues(v.RiskLevel.String()).Inc()
}
