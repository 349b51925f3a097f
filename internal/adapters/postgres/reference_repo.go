package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/walkies/internal/core/domain"
)

const upsertReferenceSpace = `
	INSERT INTO reference_spaces (id, name, location, fencing, bins, toilets, coffee, parking, osm_type, osm_id, updated_at)
	VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6, $7, $8, $9, $10, $11, NOW())
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name, location = EXCLUDED.location, fencing = EXCLUDED.fencing,
	    bins = EXCLUDED.bins, toilets = EXCLUDED.toilets, coffee = EXCLUDED.coffee,
	    parking = EXCLUDED.parking, osm_type = EXCLUDED.osm_type, osm_id = EXCLUDED.osm_id, updated_at = NOW()
`

// ReferenceSpaceRepo implements ports.ReferenceSpaceRepository with pgx.
type ReferenceSpaceRepo struct {
	db *DB
}

// NewReferenceSpaceRepo creates a new ReferenceSpaceRepo.
func NewReferenceSpaceRepo(db *DB) *ReferenceSpaceRepo {
	return &ReferenceSpaceRepo{db: db}
}

// List returns every reference space ordered by name.
func (r *ReferenceSpaceRepo) List(ctx context.Context) ([]domain.Space, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name,
			ST_Y(location::geometry) AS lat,
			ST_X(location::geometry) AS lng,
			fencing, bins, toilets, coffee, parking
		FROM reference_spaces
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query reference spaces: %w", err)
	}
	defer rows.Close()

	var spaces []domain.Space
	for rows.Next() {
		var (
			s       domain.Space
			fencing string
		)
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Location.Lat, &s.Location.Lng,
			&fencing, &s.Bins, &s.Toilets, &s.Coffee, &s.Parking,
		); err != nil {
			return nil, fmt.Errorf("scan reference space: %w", err)
		}
		if s.Fencing, err = domain.ParseFencing(fencing); err != nil {
			s.Fencing = domain.FencingUnknown
		}
		spaces = append(spaces, s)
	}
	return spaces, rows.Err()
}

// UpsertBatch inserts or updates many reference spaces using pgx.Batch.
func (r *ReferenceSpaceRepo) UpsertBatch(ctx context.Context, spaces []domain.Space) error {
	if len(spaces) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, s := range spaces {
		fencing := s.Fencing
		if fencing == "" {
			fencing = domain.FencingUnknown
		}
		var elemType, elemID interface{}
		if s.OSM != nil {
			elemType, elemID = s.OSM.Type, s.OSM.ID
		}
		batch.Queue(upsertReferenceSpace,
			s.ID, s.Name, s.Location.Lng, s.Location.Lat, string(fencing),
			s.Bins, s.Toilets, s.Coffee, s.Parking, elemType, elemID)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range spaces {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}
