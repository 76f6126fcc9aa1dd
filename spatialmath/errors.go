package spatialmath

import "fmt"

// InvalidPoseError is returned when a pose or orientation cannot stand for a rigid transform,
// e.g. a zero length quaternion or a NaN position. It marks a defect in the caller's input and is
// never retried.
type InvalidPoseError struct {
	Reason string
}

// NewInvalidPoseError returns an InvalidPoseError with the given reason.
func NewInvalidPoseError(reason string) *InvalidPoseError {
	return &InvalidPoseError{Reason: reason}
}

func (e *InvalidPoseError) Error() string {
	return fmt.Sprintf("invalid pose: %s", e.Reason)
}

func newBadGeometryDimensionsError(g Geometry) error {
	return fmt.Errorf("invalid dimension(s) for geometry type %T", g)
}

func newCollisionTypeUnsupportedError(g1, g2 Geometry) error {
	return fmt.Errorf("collisions between %T and %T are not supported", g1, g2)
}
