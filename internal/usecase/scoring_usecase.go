package usecase

import (
	"context"

	"github.com/saferoute-microservice/internal/domain"
	"github.com/saferoute-microservice/internal/pkg/errors"
	"github.com/saferoute-microservice/internal/pkg/utils"
	"github.com/saferoute-microservice/internal/usecase/dto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Ensure ScoringUseCase implements RouteScorer
var _ RouteScorer = (*ScoringUseCase)(nil)

// ScoringUseCase scores batches of routes.
//
// Concurrency model:
// - Every route in the batch is scored in its own goroutine.
// - Within a route, every step across all legs is scored in its own
//   goroutine, and each step fans out into the four factor queries.
// - Results are attributed by index at each join point; aggregation is
//   sums and averages, so sibling completion order doesn't matter.
// - The first failing factor query cancels all in-flight siblings via the
//   errgroup context and fails the whole request. Callers get either a
//   fully annotated batch or an error, never a partially scored one.
type ScoringUseCase struct {
	segmentScorer *SegmentScorer
	logger        *zap.Logger
}

// NewScoringUseCase creates a ScoringUseCase.
func NewScoringUseCase(segmentScorer *SegmentScorer, logger *zap.Logger) *ScoringUseCase {
	return &ScoringUseCase{
		segmentScorer: segmentScorer,
		logger:        logger,
	}
}

// ScoreRoutes annotates every route in the request with a safety score.
// The response preserves request order and every pass-through field.
func (uc *ScoringUseCase) ScoreRoutes(ctx context.Context, req dto.ScoreRoutesRequest) (*dto.ScoreRoutesResponse, error) {
	if len(req.Routes) == 0 {
		return nil, errors.ErrNoRoutes
	}

	if err := validateRoutes(req.Routes); err != nil {
		return nil, err
	}

	uc.logger.Info("ScoreRoutes started",
		zap.Int("total_routes", len(req.Routes)))

	scored := make([]domain.Route, len(req.Routes))
	g, gctx := errgroup.WithContext(ctx)

	for i := range req.Routes {
		i := i
		g.Go(func() error {
			route, err := uc.scoreRoute(gctx, req.Routes[i])
			if err != nil {
				return err
			}
			scored[i] = route
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		uc.logger.Error("ScoreRoutes failed", zap.Error(err))
		return nil, err
	}

	uc.logger.Info("ScoreRoutes completed",
		zap.Int("total_routes", len(scored)))

	return &dto.ScoreRoutesResponse{Routes: scored}, nil
}

// scoreRoute evaluates every segment of a route concurrently and averages
// the segment scores. A route with zero segments scores 0 by definition.
func (uc *ScoringUseCase) scoreRoute(ctx context.Context, route domain.Route) (domain.Route, error) {
	out := route

	total := route.SegmentCount()
	if total == 0 {
		score := 0.0
		out.SafetyScore = &score
		return out, nil
	}

	scores := make([]float64, total)
	g, gctx := errgroup.WithContext(ctx)

	idx := 0
	for li := range route.Legs {
		for si := range route.Legs[li].Steps {
			step := &route.Legs[li].Steps[si]
			i := idx
			idx++

			g.Go(func() error {
				factors, err := uc.segmentScorer.Score(gctx, step)
				if err != nil {
					return err
				}
				scores[i] = factors.Combined()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return domain.Route{}, err
	}

	var sum float64
	for _, v := range scores {
		sum += v
	}

	score := utils.Round2(sum / float64(total))
	out.SafetyScore = &score

	uc.logger.Debug("Route scored",
		zap.Int("segments", total),
		zap.Float64("safety_score", score))

	return out, nil
}

// validateRoutes rejects payloads whose steps are missing coordinates
// before any store query runs.
func validateRoutes(routes []domain.Route) error {
	for ri := range routes {
		for li := range routes[ri].Legs {
			for si := range routes[ri].Legs[li].Steps {
				step := &routes[ri].Legs[li].Steps[si]
				if step.StartLocation == nil || step.EndLocation == nil {
					return errors.ErrMissingCoordinates
				}
				if !utils.ValidateCoordinates(step.StartLocation.Lat, step.StartLocation.Lng) ||
					!utils.ValidateCoordinates(step.EndLocation.Lat, step.EndLocation.Lng) {
					return errors.ErrInvalidCoordinates
				}
			}
		}
	}
	return nil
}
