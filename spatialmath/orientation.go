// Package spatialmath defines poses, orientations and collision geometries, and the frame
// transforms used to turn object-frame offsets into world-frame targets.
package spatialmath

import (
	"gonum.org/v1/gonum/num/quat"
)

// Orientation is a rotation in 3D space that can be read back in any of the representations the
// planners and the world use. Implementations convert through the quaternion form.
type Orientation interface {
	AxisAngles() *R4AA
	Quaternion() quat.Number
	EulerAngles() *EulerAngles
	RotationMatrix() *RotationMatrix
}

// NewZeroOrientation is the identity rotation.
func NewZeroOrientation() Orientation {
	return &quaternion{Real: 1}
}

// OrientationAlmostEqual compares two orientations, treating q and -q as the same rotation.
func OrientationAlmostEqual(a, b Orientation) bool {
	return QuaternionAlmostEqual(a.Quaternion(), b.Quaternion(), 1e-5)
}

// OrientationBetween is the rotation r such that r composed after from gives to.
func OrientationBetween(from, to Orientation) Orientation {
	r := quaternion(quat.Mul(to.Quaternion(), quat.Conj(from.Quaternion())))
	return &r
}
