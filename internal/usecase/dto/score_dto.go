package dto

import "github.com/saferoute-microservice/internal/domain"

// ScoreRoutesRequest carries the routes of a directions response to score.
// Route/leg/step pass-through fields survive into the response unchanged.
type ScoreRoutesRequest struct {
	Routes []domain.Route `json:"routes" validate:"required,min=1"`
}

// ScoreRoutesResponse mirrors the request shape; every route additionally
// carries its safety_score.
type ScoreRoutesResponse struct {
	Routes []domain.Route `json:"routes"`
}
