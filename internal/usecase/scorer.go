package usecase

import (
	"context"

	"github.com/saferoute-microservice/internal/usecase/dto"
)

// RouteScorer defines the scoring contract shared by the HTTP handler and
// the stream worker.
type RouteScorer interface {
	ScoreRoutes(ctx context.Context, req dto.ScoreRoutesRequest) (*dto.ScoreRoutesResponse, error)
}
