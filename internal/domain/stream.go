package domain

import "github.com/google/uuid"

// Stream names (must match the services publishing scoring jobs)
const (
	StreamRouteScore     = "stream:route:score"
	StreamRouteScoreDone = "stream:route:score:done"
)

// RouteScoreEvent is an incoming request to score a set of routes.
type RouteScoreEvent struct {
	RequestID uuid.UUID `json:"request_id"`
	Routes    []Route   `json:"routes"`
}

// RouteScoreDoneEvent is the result published after scoring. Either Routes
// is the fully annotated set or Error explains why the whole request failed;
// partially scored sets are never published.
type RouteScoreDoneEvent struct {
	RequestID uuid.UUID `json:"request_id"`
	Routes    []Route   `json:"routes,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// StreamMessage is a raw message read from a Redis Stream.
type StreamMessage struct {
	ID   string
	Data string
}
