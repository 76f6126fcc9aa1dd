package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/primitives/utils"
)

// Pose represents a 6dof pose, position and orientation, with respect to the world frame.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type basicPose struct {
	point       r3.Vector
	orientation quaternion
}

func (p *basicPose) Point() r3.Vector {
	return p.point
}

func (p *basicPose) Orientation() Orientation {
	o := p.orientation
	return &o
}

// NewZeroPose returns a pose at (0,0,0) with the identity orientation.
func NewZeroPose() Pose {
	return &basicPose{orientation: quaternion{Real: 1}}
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector with the identity orientation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &basicPose{point: point, orientation: quaternion{Real: 1}}
}

// NewPose constructs a pose from a point and an orientation. The orientation is assumed to be
// well formed; use NewPoseFromQuaternion for raw host data.
func NewPose(point r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(point)
	}
	q := o.Quaternion()
	if n := quat.Abs(q); n > quatNormEpsilon {
		q = quat.Scale(1/n, q)
	}
	return &basicPose{point: point, orientation: quaternion(q)}
}

// NewPoseFromQuaternion validates point and quaternion and returns the normalized pose. Degenerate
// input fails with an *InvalidPoseError.
func NewPoseFromQuaternion(point r3.Vector, q quat.Number) (Pose, error) {
	if !utils.IsFinite(point.X, point.Y, point.Z) {
		return nil, NewInvalidPoseError("position has non-finite components")
	}
	nq, err := normalizeQuat(q)
	if err != nil {
		return nil, err
	}
	return &basicPose{point: point, orientation: quaternion(nq)}, nil
}

// ValidatePose returns an *InvalidPoseError if p cannot be used for frame composition.
func ValidatePose(p Pose) error {
	if p == nil {
		return NewInvalidPoseError("nil pose")
	}
	_, err := NewPoseFromQuaternion(p.Point(), p.Orientation().Quaternion())
	return err
}

// Compose treats a and b as transforms and returns a*b: b expressed in a's frame mapped to the
// frame a is expressed in.
func Compose(a, b Pose) Pose {
	qa := a.Orientation().Quaternion()
	qb := b.Orientation().Quaternion()
	return NewPose(a.Point().Add(rotateVector(qa, b.Point())), fromQuat(quat.Mul(qa, qb)))
}

// PoseInverse returns the inverse transform of p.
func PoseInverse(p Pose) Pose {
	inv := quat.Conj(p.Orientation().Quaternion())
	return NewPose(rotateVector(inv, p.Point()).Mul(-1), fromQuat(inv))
}

// PoseBetween returns the transform taking a to b, so that Compose(a, PoseBetween(a, b)) == b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseDelta returns the translational and angular distance between two poses.
func PoseDelta(a, b Pose) (float64, float64) {
	dq := quat.Mul(quat.Conj(a.Orientation().Quaternion()), b.Orientation().Quaternion())
	return a.Point().Distance(b.Point()), math.Abs(QuatToR4AA(dq).Theta)
}

// Interpolate returns the pose a fraction `by` of the way from p1 to p2, linearly interpolating
// position and slerping orientation.
func Interpolate(p1, p2 Pose, by float64) Pose {
	pt := p1.Point().Add(p2.Point().Sub(p1.Point()).Mul(by))
	q := slerp(p1.Orientation().Quaternion(), p2.Orientation().Quaternion(), by)
	return NewPose(pt, fromQuat(q))
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-8)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same,
// with positions compared at the given tolerance.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) && OrientationAlmostEqual(a.Orientation(), b.Orientation())
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}

func fromQuat(q quat.Number) Orientation {
	qq := quaternion(q)
	return &qq
}
