package usecase

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/saferoute-microservice/internal/domain"
	"github.com/saferoute-microservice/internal/domain/repository"
	"github.com/saferoute-microservice/internal/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Factor query radii in miles, per dataset.
const (
	crimeRadiusMiles       = 0.5
	lightingRadiusMiles    = 0.05
	institutionRadiusMiles = 0.25
	footTrafficRadiusMiles = 0.1
)

const (
	maxFactorScore       = 100.0
	crimeCountMultiplier = 0.1
	// neutralFootTrafficScore is returned when the foot-traffic dataset has
	// no samples around the midpoint. "No data" is deliberately not treated
	// as "no activity", unlike the other three factors.
	neutralFootTrafficScore = 50.0
)

// SegmentScorer evaluates one route step: it runs the four factor queries
// against the spatial signal store concurrently and combines them with the
// fixed weights. Factor results are cached per quantized midpoint so that
// overlapping routes in one batch don't hit the store twice for the same
// spot; the computed route scores themselves are never persisted.
type SegmentScorer struct {
	crimeRepo        repository.CrimeRepository
	lightingRepo     repository.LightingRepository
	institutionRepo  repository.InstitutionRepository
	footTrafficRepo  repository.FootTrafficRepository
	cacheRepo        repository.CacheRepository
	cacheTTL         time.Duration
	institutionTypes []string
	logger           *zap.Logger
}

// NewSegmentScorer creates a SegmentScorer. cacheRepo may be nil to disable
// signal caching.
func NewSegmentScorer(
	crimeRepo repository.CrimeRepository,
	lightingRepo repository.LightingRepository,
	institutionRepo repository.InstitutionRepository,
	footTrafficRepo repository.FootTrafficRepository,
	cacheRepo repository.CacheRepository,
	cacheTTL time.Duration,
	institutionTypes []string,
	logger *zap.Logger,
) *SegmentScorer {
	return &SegmentScorer{
		crimeRepo:        crimeRepo,
		lightingRepo:     lightingRepo,
		institutionRepo:  institutionRepo,
		footTrafficRepo:  footTrafficRepo,
		cacheRepo:        cacheRepo,
		cacheTTL:         cacheTTL,
		institutionTypes: institutionTypes,
		logger:           logger,
	}
}

// Score runs all four factor queries for a step concurrently and returns
// the factor scores. Any query failure cancels the sibling queries and
// fails the whole evaluation.
func (s *SegmentScorer) Score(ctx context.Context, step *domain.Step) (domain.FactorScores, error) {
	mid := step.Midpoint()

	s.logger.Debug("Scoring segment",
		zap.Float64("mid_lat", mid.Lat),
		zap.Float64("mid_lng", mid.Lng),
		zap.Float64("segment_m", utils.HaversineDistance(
			step.StartLocation.Lat, step.StartLocation.Lng,
			step.EndLocation.Lat, step.EndLocation.Lng)))

	var scores domain.FactorScores
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := s.crimeScore(gctx, mid)
		if err != nil {
			return err
		}
		scores.Crime = v
		return nil
	})

	g.Go(func() error {
		v, err := s.lightingScore(gctx, mid)
		if err != nil {
			return err
		}
		scores.Lighting = v
		return nil
	})

	g.Go(func() error {
		v, err := s.institutionScore(gctx, mid)
		if err != nil {
			return err
		}
		scores.Institution = v
		return nil
	})

	g.Go(func() error {
		v, err := s.footTrafficScore(gctx, mid)
		if err != nil {
			return err
		}
		scores.FootTraffic = v
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.FactorScores{}, err
	}

	return scores, nil
}

// crimeScore maps the number of crime incidents within 0.5 mi to [0,100].
func (s *SegmentScorer) crimeScore(ctx context.Context, mid domain.Location) (float64, error) {
	return s.cachedScore(ctx, s.cacheKey("crime", mid), func() (float64, error) {
		count, err := s.crimeRepo.CountWithinRadius(ctx, mid.Lat, mid.Lng, utils.MilesToMeters(crimeRadiusMiles))
		if err != nil {
			return 0, err
		}
		return math.Min(float64(count)*crimeCountMultiplier, maxFactorScore), nil
	})
}

// lightingScore averages the brightness of working street lights within
// 0.05 mi. No lights, or lights but none working, both score 0.
func (s *SegmentScorer) lightingScore(ctx context.Context, mid domain.Location) (float64, error) {
	return s.cachedScore(ctx, s.cacheKey("lighting", mid), func() (float64, error) {
		lights, err := s.lightingRepo.GetLightsWithinRadius(ctx, mid.Lat, mid.Lng, utils.MilesToMeters(lightingRadiusMiles))
		if err != nil {
			return 0, err
		}

		var sum float64
		var working int
		for _, l := range lights {
			if l.Status == domain.LightStatusWorking {
				sum += l.Brightness
				working++
			}
		}
		if working == 0 {
			return 0, nil
		}
		return math.Min(sum/float64(working), maxFactorScore), nil
	})
}

// institutionScore is an existence check: any safe institution within
// 0.25 mi scores 100, otherwise 0.
func (s *SegmentScorer) institutionScore(ctx context.Context, mid domain.Location) (float64, error) {
	return s.cachedScore(ctx, s.cacheKey("institution", mid), func() (float64, error) {
		exists, err := s.institutionRepo.ExistsWithinRadius(ctx, mid.Lat, mid.Lng,
			utils.MilesToMeters(institutionRadiusMiles), s.institutionTypes)
		if err != nil {
			return 0, err
		}
		if exists {
			return maxFactorScore, nil
		}
		return 0, nil
	})
}

// footTrafficScore sums pedestrian counts within 0.1 mi. No samples at all
// yields the neutral 50 rather than 0.
func (s *SegmentScorer) footTrafficScore(ctx context.Context, mid domain.Location) (float64, error) {
	return s.cachedScore(ctx, s.cacheKey("foot_traffic", mid), func() (float64, error) {
		total, samples, err := s.footTrafficRepo.SumCountsWithinRadius(ctx, mid.Lat, mid.Lng,
			utils.MilesToMeters(footTrafficRadiusMiles))
		if err != nil {
			return 0, err
		}
		if samples == 0 {
			return neutralFootTrafficScore, nil
		}
		return math.Min(total, maxFactorScore), nil
	})
}

// cacheKey quantizes the midpoint to ~1m so nearby lookups share entries.
func (s *SegmentScorer) cacheKey(dataset string, mid domain.Location) string {
	return fmt.Sprintf("signal:%s:%.5f:%.5f", dataset, mid.Lat, mid.Lng)
}

// cachedScore wraps a factor computation with cache-aside lookups. Cache
// failures degrade to a direct store query; query errors are never cached.
func (s *SegmentScorer) cachedScore(ctx context.Context, key string, compute func() (float64, error)) (float64, error) {
	if s.cacheRepo != nil {
		if data, err := s.cacheRepo.Get(ctx, key); err == nil && data != nil {
			if v, parseErr := strconv.ParseFloat(string(data), 64); parseErr == nil {
				return v, nil
			}
		}
	}

	v, err := compute()
	if err != nil {
		return 0, err
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.Set(ctx, key, []byte(strconv.FormatFloat(v, 'f', -1, 64)), s.cacheTTL); err != nil {
			s.logger.Debug("Failed to cache factor score", zap.String("key", key), zap.Error(err))
		}
	}

	return v, nil
}
