package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/saferoute-microservice/internal/domain"
	"github.com/saferoute-microservice/internal/domain/repository"
	"github.com/saferoute-microservice/internal/pkg/errors"
	"go.uber.org/zap"
)

type lightingRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewLightingRepository(db *DB) repository.LightingRepository {
	return &lightingRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

func (r *lightingRepository) GetLightsWithinRadius(ctx context.Context, lat, lng, radiusMeters float64) ([]domain.StreetLight, error) {
	// Status filtering happens in the scorer, not here: the lighting factor
	// needs to distinguish "no lights at all" from "lights but none working".
	query := `
		WITH point AS (
			SELECT ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography AS geom
		)
		SELECT id, status, brightness, lat, lng
		FROM street_lights, point
		WHERE ST_DWithin(ST_MakePoint(lng, lat)::geography, point.geom, $3)
	`

	rows, err := r.db.QueryContext(ctx, query, lng, lat, radiusMeters)
	if err != nil {
		r.logger.Error("Failed to get street lights by radius",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Float64("radius_m", radiusMeters),
			zap.Error(err))
		return nil, errors.ErrDatabaseError
	}
	defer rows.Close()

	var lights []domain.StreetLight
	for rows.Next() {
		var l domain.StreetLight
		if err := rows.Scan(&l.ID, &l.Status, &l.Brightness, &l.Lat, &l.Lng); err != nil {
			continue
		}
		lights = append(lights, l)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to read street light rows", zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	return lights, nil
}
