package domain

// LightStatusWorking marks a street light that is actually illuminating.
// Lights with any other status are excluded from the lighting factor.
const LightStatusWorking = "working"

// StreetLight is one street light record from the lighting dataset.
type StreetLight struct {
	ID         int64   `json:"id" db:"id"`
	Status     string  `json:"status" db:"status"`
	Brightness float64 `json:"brightness" db:"brightness"`
	Lat        float64 `json:"lat" db:"lat"`
	Lng        float64 `json:"lng" db:"lng"`
}

// Factor weights for the combined segment score. They must sum to exactly
// 1.0 so the combination of [0,100]-bounded factors stays in [0,100].
const (
	WeightCrime       = 0.45
	WeightFootTraffic = 0.30
	WeightLighting    = 0.15
	WeightInstitution = 0.10
)

// FactorScores holds the four independent factor scores for one segment.
// All values are in [0,100], higher = safer.
type FactorScores struct {
	Crime       float64 `json:"crime"`
	Lighting    float64 `json:"lighting"`
	Institution float64 `json:"institution"`
	FootTraffic float64 `json:"foot_traffic"`
}

// Combined applies the fixed weights to produce one segment score.
func (f FactorScores) Combined() float64 {
	return WeightCrime*f.Crime +
		WeightFootTraffic*f.FootTraffic +
		WeightLighting*f.Lighting +
		WeightInstitution*f.Institution
}
