package usecases

import (
	"context"
	"encoding/json"

	"github.com/samirrijal/safezone/internal/core/domain"
	"github.com/samirrijal/safezone/internal/core/matcher"
	"github.com/samirrijal/safezone/internal/core/ports"
	"github.com/samirrijal/safezone/internal/pkg/metrics"
	"github.com/samirrijal/safezone/internal/pkg/telemetry"
)

const zoneListCacheKey = "zones:list"

// ZoneService lists the zones shown on client maps.
type ZoneService struct {
	zones    ports.ZoneStore
	cache    ports.CacheService
	cacheTTL int
}

// NewZoneService creates a new ZoneService. cache may be nil; a cacheTTL of
// zero disables caching.
func NewZoneService(zones ports.ZoneStore, cache ports.CacheService, cacheTTL int) *ZoneService {
	return &ZoneService{zones: zones, cache: cache, cacheTTL: cacheTTL}
}

// List returns the valid zones in store order. Invalid records are left out.
func (s *ZoneService) List(ctx context.Context) ([]domain.RiskZone, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanListZones)
	defer span.End()

	// Try cache
	if s.cacheEnabled() {
		if data, err := s.cache.Get(ctx, zoneListCacheKey); err == nil {
			var recs []domain.ZoneRecord
			if err := json.Unmarshal(data, &recs); err == nil {
				metrics.CacheHits.WithLabelValues("zones_list").Inc()
				return parseAll(ctx, recs), nil
			}
		}
		metrics.CacheMisses.WithLabelValues("zones_list").Inc()
	}

	recs, err := fetchZones(ctx, s.zones)
	if err != nil {
		return nil, err
	}
	zones := parseAll(ctx, recs)

	if s.cacheEnabled() {
		valid := make([]domain.ZoneRecord, 0, len(zones))
		for _, z := range zones {
			valid = append(valid, z.Record())
		}
		if data, err := json.Marshal(valid); err == nil {
			_ = s.cache.Set(ctx, zoneListCacheKey, data, s.cacheTTL)
		}
	}

	return zones, nil
}

func (s *ZoneService) cacheEnabled() bool {
	return s.cache != nil && s.cacheTTL > 0
}

func parseAll(ctx context.Context, recs []domain.ZoneRecord) []domain.RiskZone {
	zones := make([]domain.RiskZone, 0, len(recs))
	var skipped []matcher.Skip
	for i, rec := range recs {
		z, err := domain.ParseZone(rec)
		if err != nil {
			skipped = append(skipped, matcher.SkipOf(i, rec, err))
			continue
		}
		zones = append(zones, z)
	}
	reportSkipped(ctx, skipped)
	return zones
}
