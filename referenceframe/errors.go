package referenceframe

import (
	"github.com/pkg/errors"
)

// NewIncorrectDoFError returns an error indicating that the number of inputs does not match the
// degrees of freedom of a frame.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match frame DoF, expected %d but got %d", expected, actual)
}

// NewInputOutOfBoundsError returns an error indicating an input lies outside its limit.
func NewInputOutOfBoundsError(frame string, idx int, value float64, limit Limit) error {
	return errors.Errorf("input %d of frame %q is %.4f, outside limits [%.4f, %.4f]", idx, frame, value, limit.Min, limit.Max)
}
