// Package referenceframe defines configuration space inputs, their limits, and the base waypoints
// the planners search over.
package referenceframe

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Input is one coordinate of a configuration: a joint position, or one of a mobile base's x, y and
// yaw. Angles are radians and lengths are meters.
type Input struct {
	Value float64
}

// FloatsToInputs converts raw values into a configuration.
func FloatsToInputs(values []float64) []Input {
	inputs := make([]Input, 0, len(values))
	for _, v := range values {
		inputs = append(inputs, Input{Value: v})
	}
	return inputs
}

// InputsToFloats is the inverse of FloatsToInputs.
func InputsToFloats(inputs []Input) []float64 {
	values := make([]float64, 0, len(inputs))
	for _, in := range inputs {
		values = append(values, in.Value)
	}
	return values
}

// InterpolateInputs walks the fraction by of the straight line in configuration space from start to
// end; 0 gives start and 1 gives end.
func InterpolateInputs(start, end []Input, by float64) []Input {
	out := make([]Input, len(start))
	for i := range start {
		out[i] = Input{Value: start[i].Value + by*(end[i].Value-start[i].Value)}
	}
	return out
}

// InputsL2Distance is the euclidean distance between two configurations. Configurations of
// different dimension are infinitely far apart.
func InputsL2Distance(a, b []Input) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	return floats.Distance(InputsToFloats(a), InputsToFloats(b), 2)
}
