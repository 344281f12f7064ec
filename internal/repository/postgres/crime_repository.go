package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/saferoute-microservice/internal/domain/repository"
	"github.com/saferoute-microservice/internal/pkg/errors"
	"go.uber.org/zap"
)

type crimeRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewCrimeRepository(db *DB) repository.CrimeRepository {
	return &crimeRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

func (r *crimeRepository) CountWithinRadius(ctx context.Context, lat, lng, radiusMeters float64) (int64, error) {
	query := `
		WITH point AS (
			SELECT ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography AS geom
		)
		SELECT COUNT(*)
		FROM crime_reports, point
		WHERE ST_DWithin(ST_MakePoint(lng, lat)::geography, point.geom, $3)
	`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, lng, lat, radiusMeters).Scan(&count); err != nil {
		r.logger.Error("Failed to count crime incidents by radius",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Float64("radius_m", radiusMeters),
			zap.Error(err))
		return 0, errors.ErrDatabaseError
	}

	return count, nil
}
