//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/safezone/internal/adapters/http"
	"github.com/samirrijal/safezone/internal/adapters/postgres"
	"github.com/samirrijal/safezone/internal/core/domain"
	"github.com/samirrijal/safezone/internal/core/usecases"
	"github.com/samirrijal/safezone/internal/pkg/config"
)

// setupTestDB connects to the test database. The risk_zones migration must
// already be applied.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("safezone-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

// setupTestDeps creates dependencies with the real zone repo, no cache.
func setupTestDeps(db *postgres.DB) *http.Dependencies {
	repo := postgres.NewZoneRepo(db)
	return &http.Dependencies{
		Checks: usecases.NewCheckService(repo, nil),
		Zones:  usecases.NewZoneService(repo, nil, 0),
		Store:  repo,
		DB:     db,
	}
}

// seedTestZone upserts a zone with a unique name and removes it when the
// test ends.
func seedTestZone(t *testing.T, db *postgres.DB, rec domain.ZoneRecord) {
	ctx := context.Background()
	if err := postgres.NewZoneRepo(db).Upsert(ctx, &rec); err != nil {
		t.Fatalf("seed zone: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM risk_zones WHERE name = $1`, rec.Name)
	})
}

// TestCheckLocation_Integration checks a point inside a seeded zone placed
// far from any real data.
func TestCheckLocation_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	name := "test_integ_" + time.Now().Format("20060102150405")
	seedTestZone(t, db, domain.ZoneRecord{
		Name: name, Lat: fptr(-45.5), Lon: fptr(-150.5), RadiusMeters: fptr(1000), Risk: "red",
	})

	app := setupApp(setupTestDeps(db))

	req := httptest.NewRequest("POST", "/v1/check-location", strings.NewReader(`{"lat":-45.5,"lon":-150.5}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var v domain.Verdict
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if v.ZoneName != name || v.RiskLevel != domain.RiskRed {
		t.Errorf("unexpected verdict %+v", v)
	}
}

// TestListZones_Integration_SkipsNullColumns verifies rows with NULL
// numeric columns are skipped rather than failing the listing.
func TestListZones_Integration_SkipsNullColumns(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	suffix := time.Now().Format("20060102150405")
	valid := "test_valid_" + suffix
	broken := "test_null_" + suffix
	seedTestZone(t, db, domain.ZoneRecord{
		Name: valid, Lat: fptr(10), Lon: fptr(10), RadiusMeters: fptr(50), Risk: "green",
	})
	seedTestZone(t, db, domain.ZoneRecord{Name: broken, Risk: "red"})

	app := setupApp(setupTestDeps(db))

	resp, err := app.Test(httptest.NewRequest("GET", "/risk-zones", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var zones []domain.ZoneRecord
	if err := json.NewDecoder(resp.Body).Decode(&zones); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	names := make(map[string]bool, len(zones))
	for _, z := range zones {
		names[z.Name] = true
	}
	if !names[valid] {
		t.Errorf("expected %s in listing", valid)
	}
	if names[broken] {
		t.Errorf("zone %s with NULL center must be skipped", broken)
	}
}
