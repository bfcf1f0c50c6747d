package alert

import (
	"time"

	"github.com/hidroweb/backend/internal/db/models"
)

// Observation is a single sensor reading for one crop
type Observation struct {
	Temperature float64
	PH          float64
	WaterLevel  float64
	At          time.Time
}

// BreachResult describes which requirements a reading violated
type BreachResult struct {
	TemperatureBreached bool
	PHBreached          bool
	WaterLevelBreached  bool

	Temperature float64
	PH          float64
	WaterLevel  float64

	// Stale marks a reading older than the recency window. Stale
	// readings are reported as-is and never drive alert transitions.
	Stale bool
}

// Breached returns true if any dimension violated its requirement
func (r BreachResult) Breached() bool {
	return r.TemperatureBreached || r.PHBreached || r.WaterLevelBreached
}

// Evaluator checks sensor observations against crop requirements
type Evaluator struct {
	window time.Duration
}

// NewEvaluator creates an evaluator with the given recency window
func NewEvaluator(window time.Duration) *Evaluator {
	return &Evaluator{window: window}
}

// Evaluate compares an observation against the crop's requirements.
// A missing range never breaches. Water level breaches only when the
// system reports no water at all.
func (e *Evaluator) Evaluate(req models.Requirements, obs Observation, now time.Time) BreachResult {
	result := BreachResult{
		Temperature: obs.Temperature,
		PH:          obs.PH,
		WaterLevel:  obs.WaterLevel,
	}

	if req.Temperature != nil && !req.Temperature.Contains(obs.Temperature) {
		result.TemperatureBreached = true
	}
	if req.PH != nil && !req.PH.Contains(obs.PH) {
		result.PHBreached = true
	}
	if obs.WaterLevel == 0 {
		result.WaterLevelBreached = true
	}

	if now.Sub(obs.At) > e.window {
		result.Stale = true
	}

	return result
}
