package domain

import "encoding/json"

// Location is a single WGS-84 coordinate as delivered by the directions
// provider.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Step is one atomic travel instruction between two points. Only the two
// endpoint coordinates are consumed by scoring; everything else the provider
// sends (html_instructions, travel_mode, maneuver, polyline, ...) is kept in
// Extra and written back verbatim.
type Step struct {
	StartLocation *Location
	EndLocation   *Location
	Extra         map[string]json.RawMessage
}

// Midpoint returns the flat average of the step endpoints. This is not the
// geodesic midpoint; steps are short enough that the difference is
// negligible, and the factor queries depend on this exact behavior.
func (s *Step) Midpoint() Location {
	return Location{
		Lat: (s.StartLocation.Lat + s.EndLocation.Lat) / 2,
		Lng: (s.StartLocation.Lng + s.EndLocation.Lng) / 2,
	}
}

func (s *Step) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["start_location"]; ok {
		var loc Location
		if err := json.Unmarshal(raw, &loc); err != nil {
			return err
		}
		s.StartLocation = &loc
		delete(fields, "start_location")
	}

	if raw, ok := fields["end_location"]; ok {
		var loc Location
		if err := json.Unmarshal(raw, &loc); err != nil {
			return err
		}
		s.EndLocation = &loc
		delete(fields, "end_location")
	}

	s.Extra = fields
	return nil
}

func (s Step) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.Extra)+2)
	for k, v := range s.Extra {
		out[k] = v
	}

	if s.StartLocation != nil {
		raw, err := json.Marshal(s.StartLocation)
		if err != nil {
			return nil, err
		}
		out["start_location"] = raw
	}

	if s.EndLocation != nil {
		raw, err := json.Marshal(s.EndLocation)
		if err != nil {
			return nil, err
		}
		out["end_location"] = raw
	}

	return json.Marshal(out)
}

// Leg is an ordered group of steps between two major waypoints. Pass-through
// fields (distance, duration, addresses, ...) live in Extra.
type Leg struct {
	Steps []Step
	Extra map[string]json.RawMessage
}

func (l *Leg) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["steps"]; ok {
		if err := json.Unmarshal(raw, &l.Steps); err != nil {
			return err
		}
		delete(fields, "steps")
	}

	l.Extra = fields
	return nil
}

func (l Leg) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(l.Extra)+1)
	for k, v := range l.Extra {
		out[k] = v
	}

	steps, err := json.Marshal(l.Steps)
	if err != nil {
		return nil, err
	}
	out["steps"] = steps

	return json.Marshal(out)
}

// Route is an ordered sequence of legs plus whatever metadata the directions
// provider attached (summary, overview_polyline, bounds, ...). Scoring adds
// SafetyScore and leaves everything else untouched.
type Route struct {
	Legs        []Leg
	SafetyScore *float64
	Extra       map[string]json.RawMessage
}

// SegmentCount returns the total number of steps across all legs.
func (r *Route) SegmentCount() int {
	count := 0
	for i := range r.Legs {
		count += len(r.Legs[i].Steps)
	}
	return count
}

func (r *Route) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["legs"]; ok {
		if err := json.Unmarshal(raw, &r.Legs); err != nil {
			return err
		}
		delete(fields, "legs")
	}

	if raw, ok := fields["safety_score"]; ok {
		if err := json.Unmarshal(raw, &r.SafetyScore); err != nil {
			return err
		}
		delete(fields, "safety_score")
	}

	r.Extra = fields
	return nil
}

func (r Route) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.Extra)+2)
	for k, v := range r.Extra {
		out[k] = v
	}

	legs, err := json.Marshal(r.Legs)
	if err != nil {
		return nil, err
	}
	out["legs"] = legs

	if r.SafetyScore != nil {
		score, err := json.Marshal(r.SafetyScore)
		if err != nil {
			return nil, err
		}
		out["safety_score"] = score
	}

	return json.Marshal(out)
}
