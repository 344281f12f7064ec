package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/saferoute-microservice/internal/domain/repository"
	"github.com/saferoute-microservice/internal/pkg/errors"
	"go.uber.org/zap"
)

type footTrafficRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewFootTrafficRepository(db *DB) repository.FootTrafficRepository {
	return &footTrafficRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

func (r *footTrafficRepository) SumCountsWithinRadius(ctx context.Context, lat, lng, radiusMeters float64) (float64, int64, error) {
	// COUNT(*) rides along so the scorer can tell "no samples" apart from
	// samples that sum to zero.
	query := `
		WITH point AS (
			SELECT ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography AS geom
		)
		SELECT COALESCE(SUM(count), 0), COUNT(*)
		FROM foot_traffic, point
		WHERE ST_DWithin(ST_MakePoint(lng, lat)::geography, point.geom, $3)
	`

	var total float64
	var samples int64
	if err := r.db.QueryRowContext(ctx, query, lng, lat, radiusMeters).Scan(&total, &samples); err != nil {
		r.logger.Error("Failed to sum foot traffic by radius",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Float64("radius_m", radiusMeters),
			zap.Error(err))
		return 0, 0, errors.ErrDatabaseError
	}

	return total, samples, nil
}
