package matcher_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/safezone/internal/core/domain"
	"github.com/samirrijal/safezone/internal/core/matcher"
	"github.com/samirrijal/safezone/internal/pkg/geospatial"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func f(v float64) *float64 { return &v }

func zone(name string, lat, lon, radius float64, risk string) domain.ZoneRecord {
	return domain.ZoneRecord{Name: name, Lat: f(lat), Lon: f(lon), RadiusMeters: f(radius), Risk: risk}
}

var downtown = zone("Downtown High-Crime Area", 28.7865, 77.4429, 500, "red")
var junction = zone("Heavy Traffic Junction", 28.7890, 77.4350, 750, "yellow")

func TestEvaluate_EmptyZonesIsSafe(t *testing.T) {
	for _, zs := range [][]domain.ZoneRecord{nil, {}} {
		res := matcher.Evaluate(domain.Coordinate{Lat: 10, Lon: 20}, zs)
		assert.Equal(t, domain.SafeVerdict(), res.Verdict)
		assert.Zero(t, res.Matches)
		assert.Empty(t, res.Skipped)
	}
}

func TestEvaluate_ScenarioA_AtCenter(t *testing.T) {
	res := matcher.Evaluate(domain.Coordinate{Lat: 28.7865, Lon: 77.4429}, []domain.ZoneRecord{downtown})

	assert.Equal(t, domain.InZoneVerdict("Downtown High-Crime Area", domain.RiskRed), res.Verdict)
	assert.Equal(t, 1, res.Matches)
}

func TestEvaluate_ScenarioB_Outside(t *testing.T) {
	res := matcher.Evaluate(domain.Coordinate{Lat: 28.7990, Lon: 77.4500}, []domain.ZoneRecord{downtown})

	assert.Equal(t, domain.SafeVerdict(), res.Verdict)
	assert.Zero(t, res.Matches)
}

func TestEvaluate_ScenarioC_RedBeatsYellow(t *testing.T) {
	user := domain.Coordinate{Lat: 28.7880, Lon: 77.4390}

	for _, order := range [][]domain.ZoneRecord{
		{junction, downtown},
		{downtown, junction},
	} {
		res := matcher.Evaluate(user, order)
		assert.Equal(t, domain.InZoneVerdict("Downtown High-Crime Area", domain.RiskRed), res.Verdict)
		assert.Equal(t, 2, res.Matches)
	}
}

func TestEvaluate_BoundaryIsInclusive(t *testing.T) {
	user := domain.Coordinate{Lat: 28.7990, Lon: 77.4500}
	d := geospatial.Distance(user.Lat, user.Lon, 28.7865, 77.4429)

	onEdge := zone("edge", 28.7865, 77.4429, d, "green")
	res := matcher.Evaluate(user, []domain.ZoneRecord{onEdge})
	assert.Equal(t, domain.InZoneVerdict("edge", domain.RiskGreen), res.Verdict)

	justShort := zone("edge", 28.7865, 77.4429, math.Nextafter(d, 0), "green")
	res = matcher.Evaluate(user, []domain.ZoneRecord{justShort})
	assert.Equal(t, domain.SafeVerdict(), res.Verdict)
}

func TestEvaluate_EqualLevelKeepsFirst(t *testing.T) {
	user := domain.Coordinate{Lat: 40.0, Lon: -3.0}
	first := zone("first", 40.0, -3.0, 100, "yellow")
	second := zone("second", 40.0, -3.0, 200, "yellow")

	res := matcher.Evaluate(user, []domain.ZoneRecord{first, second})
	assert.Equal(t, "first", res.Verdict.ZoneName)

	res = matcher.Evaluate(user, []domain.ZoneRecord{second, first})
	assert.Equal(t, "second", res.Verdict.ZoneName)
}

func TestEvaluate_DuplicateNamesHandledIndependently(t *testing.T) {
	user := domain.Coordinate{Lat: 40.0, Lon: -3.0}
	far := zone("dup", 41.0, -3.0, 100, "red")
	near := zone("dup", 40.0, -3.0, 100, "green")

	res := matcher.Evaluate(user, []domain.ZoneRecord{far, near})
	assert.Equal(t, domain.InZoneVerdict("dup", domain.RiskGreen), res.Verdict)
	assert.Equal(t, 1, res.Matches)
}

func TestEvaluate_MalformedZoneSkipped(t *testing.T) {
	broken := domain.ZoneRecord{Name: "broken", Lon: f(77.4429), RadiusMeters: f(10000), Risk: "red"}
	user := domain.Coordinate{Lat: 28.7865, Lon: 77.4429}

	res := matcher.Evaluate(user, []domain.ZoneRecord{broken, junction, downtown})

	assert.Equal(t, domain.InZoneVerdict("Downtown High-Crime Area", domain.RiskRed), res.Verdict)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, matcher.Skip{Index: 0, Name: "broken", Reason: domain.ReasonMissingCenter}, res.Skipped[0])
}

func TestEvaluate_SkipReasons(t *testing.T) {
	user := domain.Coordinate{Lat: 0, Lon: 0}
	recs := []domain.ZoneRecord{
		{Lat: f(0), Lon: f(0), RadiusMeters: f(10), Risk: "red"},
		{Name: "nan", Lat: f(math.NaN()), Lon: f(0), RadiusMeters: f(10), Risk: "red"},
		{Name: "range", Lat: f(95), Lon: f(0), RadiusMeters: f(10), Risk: "red"},
		{Name: "radius", Lat: f(0), Lon: f(0), RadiusMeters: f(0), Risk: "red"},
		{Name: "risk", Lat: f(0), Lon: f(0), RadiusMeters: f(10), Risk: "purple"},
	}

	res := matcher.Evaluate(user, recs)

	assert.Equal(t, domain.SafeVerdict(), res.Verdict)
	require.Len(t, res.Skipped, 5)
	var reasons []string
	for _, s := range res.Skipped {
		reasons = append(reasons, s.Reason)
	}
	assert.Equal(t, []string{
		domain.ReasonMissingName,
		domain.ReasonMissingCenter,
		domain.ReasonCenterRange,
		domain.ReasonInvalidRadius,
		domain.ReasonInvalidRisk,
	}, reasons)
}

func TestEvaluate_IdempotentAndInputUntouched(t *testing.T) {
	user := domain.Coordinate{Lat: 28.7880, Lon: 77.4390}
	zones := []domain.ZoneRecord{junction, downtown}
	before := []domain.ZoneRecord{junction, downtown}
	lat := *zones[0].Lat

	first := matcher.Evaluate(user, zones)
	second := matcher.Evaluate(user, zones)

	assert.Equal(t, first, second)
	assert.Equal(t, before, zones)
	assert.Equal(t, lat, *zones[0].Lat)
}

func TestEvaluate_ConcurrentCalls(t *testing.T) {
	user := domain.Coordinate{Lat: 28.7880, Lon: 77.4390}
	zones := []domain.ZoneRecord{junction, downtown}
	want := matcher.Evaluate(user, zones).Verdict

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			if got := matcher.Evaluate(user, zones).Verdict; got != want {
				return fmt.Errorf("got %+v, want %+v", got, want)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
