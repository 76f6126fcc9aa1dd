package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/primitives/utils"
)

const quatNormEpsilon = 1e-12

type quaternion quat.Number

// NewOrientationFromQuaternion validates and normalizes q. A zero length or non-finite quaternion
// has no rotation it could stand for and is rejected.
func NewOrientationFromQuaternion(q quat.Number) (Orientation, error) {
	nq, err := normalizeQuat(q)
	if err != nil {
		return nil, err
	}
	qq := quaternion(nq)
	return &qq, nil
}

// Quaternion returns orientation in quaternion representation.
func (q *quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// AxisAngles returns the orientation in axis angle representation.
func (q *quaternion) AxisAngles() *R4AA {
	aa := QuatToR4AA(q.Quaternion())
	return &aa
}

// EulerAngles returns orientation in Euler angle representation.
func (q *quaternion) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(q.Quaternion())
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (q *quaternion) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(q.Quaternion())
}

func normalizeQuat(q quat.Number) (quat.Number, error) {
	if !utils.IsFinite(q.Real, q.Imag, q.Jmag, q.Kmag) {
		return quat.Number{}, NewInvalidPoseError("quaternion has non-finite components")
	}
	n := quat.Abs(q)
	if n < quatNormEpsilon {
		return quat.Number{}, NewInvalidPoseError("zero length quaternion")
	}
	return quat.Scale(1/n, q), nil
}

// QuaternionAlmostEqual is an equality test for all the float components of a quaternion. Quaternions have double coverage, q == -q, and
// this function will *not* account for that. Use OrientationAlmostEqual unless you're certain this is what you want.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	if utils.Float64AlmostEqual(a.Real, -b.Real, tol) &&
		utils.Float64AlmostEqual(a.Imag, -b.Imag, tol) &&
		utils.Float64AlmostEqual(a.Jmag, -b.Jmag, tol) &&
		utils.Float64AlmostEqual(a.Kmag, -b.Kmag, tol) {
		return true
	}
	return utils.Float64AlmostEqual(a.Imag, b.Imag, tol) &&
		utils.Float64AlmostEqual(a.Jmag, b.Jmag, tol) &&
		utils.Float64AlmostEqual(a.Kmag, b.Kmag, tol) &&
		utils.Float64AlmostEqual(a.Real, b.Real, tol)
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same orientation but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// rotateVector applies the unit quaternion q to v.
func rotateVector(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	out := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: out.Imag, Y: out.Jmag, Z: out.Kmag}
}

// slerp is spherical linear interpolation between two unit quaternions, taking the short way around.
func slerp(qN1, qN2 quat.Number, by float64) quat.Number {
	dot := qN1.Real*qN2.Real + qN1.Imag*qN2.Imag + qN1.Jmag*qN2.Jmag + qN1.Kmag*qN2.Kmag
	if dot < 0 {
		qN2 = Flip(qN2)
		dot = -dot
	}
	// Nearly parallel quaternions fall back to a normalized lerp.
	if dot > 0.9995 {
		q := quat.Add(qN1, quat.Scale(by, quat.Sub(qN2, qN1)))
		return quat.Scale(1/quat.Abs(q), q)
	}
	theta := math.Acos(dot)
	sinTheta := math.Sin(theta)
	s1 := math.Sin((1-by)*theta) / sinTheta
	s2 := math.Sin(by*theta) / sinTheta
	return quat.Add(quat.Scale(s1, qN1), quat.Scale(s2, qN2))
}
