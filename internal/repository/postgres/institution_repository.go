package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/saferoute-microservice/internal/domain/repository"
	"github.com/saferoute-microservice/internal/pkg/errors"
	"go.uber.org/zap"
)

type institutionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewInstitutionRepository(db *DB) repository.InstitutionRepository {
	return &institutionRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

func (r *institutionRepository) ExistsWithinRadius(ctx context.Context, lat, lng, radiusMeters float64, types []string) (bool, error) {
	query := `
		WITH point AS (
			SELECT ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography AS geom
		)
		SELECT EXISTS (
			SELECT 1
			FROM institutions, point
			WHERE ST_DWithin(ST_MakePoint(lng, lat)::geography, point.geom, $3)
			  AND ($4::text[] IS NULL OR type = ANY($4))
		)
	`

	var typesArg interface{}
	if len(types) > 0 {
		typesArg = pq.Array(types)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, lng, lat, radiusMeters, typesArg).Scan(&exists); err != nil {
		r.logger.Error("Failed to check institutions by radius",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Float64("radius_m", radiusMeters),
			zap.Error(err))
		return false, errors.ErrDatabaseError
	}

	return exists, nil
}
