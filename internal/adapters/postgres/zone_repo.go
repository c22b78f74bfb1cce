package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/safezone/internal/core/domain"
)

// upsertZoneSQL matches the risk_zones_identity_idx expression index.
const upsertZoneSQL = `
	INSERT INTO risk_zones (name, lat, lon, radius_meters, risk)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (name, COALESCE(lat, 'NaN'::float8), COALESCE(lon, 'NaN'::float8)) DO UPDATE
	SET radius_meters = EXCLUDED.radius_meters,
	    risk = EXCLUDED.risk,
	    updated_at = now()
`

// ZoneRepo implements ports.ZoneStore and ports.ZoneWriter with pgx.
type ZoneRepo struct {
	db *DB
}

// NewZoneRepo creates a new ZoneRepo.
func NewZoneRepo(db *DB) *ZoneRepo {
	return &ZoneRepo{db: db}
}

// FetchZones returns every stored zone in insertion order. NULL numeric
// columns come back as nil fields and are rejected later by domain.ParseZone.
func (r *ZoneRepo) FetchZones(ctx context.Context) ([]domain.ZoneRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT COALESCE(name, ''), lat, lon, radius_meters, COALESCE(risk, '')
		FROM risk_zones
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}

	zones, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ZoneRecord, error) {
		var z domain.ZoneRecord
		err := row.Scan(&z.Name, &z.Lat, &z.Lon, &z.RadiusMeters, &z.Risk)
		return z, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan zones: %w", err)
	}
	return zones, nil
}

// Ping checks that the risk_zones table is reachable.
func (r *ZoneRepo) Ping(ctx context.Context) error {
	var one int
	if err := r.db.Pool.QueryRow(ctx, `SELECT 1 FROM risk_zones LIMIT 1`).Scan(&one); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("ping zones: %w", err)
	}
	return nil
}

// Upsert inserts a zone or updates the radius and risk of the zone with the
// same name and center.
func (r *ZoneRepo) Upsert(ctx context.Context, z *domain.ZoneRecord) error {
	_, err := r.db.Pool.Exec(ctx, upsertZoneSQL, z.Name, z.Lat, z.Lon, z.RadiusMeters, z.Risk)
	return err
}

// UpsertBatch upserts many zones using pgx.Batch.
func (r *ZoneRepo) UpsertBatch(ctx context.Context, zones []domain.ZoneRecord) error {
	batch := &pgx.Batch{}
	for _, z := range zones {
		batch.Queue(upsertZoneSQL, z.Name, z.Lat, z.Lon, z.RadiusMeters, z.Risk)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range zones {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}
