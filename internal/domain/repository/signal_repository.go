package repository

import (
	"context"

	"github.com/saferoute-microservice/internal/domain"
)

// CrimeRepository queries the reported-crime dataset. The crime factor only
// needs the number of incidents around a point.
type CrimeRepository interface {
	// CountWithinRadius returns the number of crime incidents within
	// radiusMeters of the point.
	CountWithinRadius(ctx context.Context, lat, lng, radiusMeters float64) (int64, error)
}

// LightingRepository queries the street-light dataset. The lighting factor
// needs the full matching rows to filter by status and average brightness.
type LightingRepository interface {
	// GetLightsWithinRadius returns all street lights within radiusMeters
	// of the point.
	GetLightsWithinRadius(ctx context.Context, lat, lng, radiusMeters float64) ([]domain.StreetLight, error)
}

// InstitutionRepository queries the safe-institution dataset (police
// stations, hospitals, schools, ...). The institution factor is a pure
// existence check.
type InstitutionRepository interface {
	// ExistsWithinRadius reports whether at least one institution of the
	// given types lies within radiusMeters of the point.
	ExistsWithinRadius(ctx context.Context, lat, lng, radiusMeters float64, types []string) (bool, error)
}

// FootTrafficRepository queries the foot-traffic sample dataset.
type FootTrafficRepository interface {
	// SumCountsWithinRadius returns the sum of the pedestrian counts of all
	// samples within radiusMeters of the point, along with the number of
	// samples matched. Zero samples means "no data", which the scorer
	// treats differently from a measured count of zero.
	SumCountsWithinRadius(ctx context.Context, lat, lng, radiusMeters float64) (total float64, samples int64, err error)
}
