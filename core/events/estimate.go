package events

import "github.com/gridscope/gridscope/core/model"

// EstimateProduced is published for each generation estimate computed by the
// solar simulator.
type EstimateProduced struct {
	Estimate model.GenerationEstimate
}
