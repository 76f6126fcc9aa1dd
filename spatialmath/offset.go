package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/primitives/utils"
)

// ComposeOffset rotates an offset expressed in the frame described by o into the world frame.
func ComposeOffset(o Orientation, local r3.Vector) (r3.Vector, error) {
	q, err := validOrientation(o)
	if err != nil {
		return r3.Vector{}, err
	}
	if !utils.IsFinite(local.X, local.Y, local.Z) {
		return r3.Vector{}, NewInvalidPoseError("offset has non-finite components")
	}
	return rotateVector(q, local), nil
}

// DecomposeOffset is the inverse of ComposeOffset: it expresses a world frame vector in the frame described by o.
func DecomposeOffset(o Orientation, world r3.Vector) (r3.Vector, error) {
	q, err := validOrientation(o)
	if err != nil {
		return r3.Vector{}, err
	}
	if !utils.IsFinite(world.X, world.Y, world.Z) {
		return r3.Vector{}, NewInvalidPoseError("vector has non-finite components")
	}
	return rotateVector(quat.Conj(q), world), nil
}

// ApplyOffset returns the world position of an offset expressed in the local frame of p.
func ApplyOffset(p Pose, local r3.Vector) (r3.Vector, error) {
	if p == nil {
		return r3.Vector{}, NewInvalidPoseError("nil pose")
	}
	pt := p.Point()
	if !utils.IsFinite(pt.X, pt.Y, pt.Z) {
		return r3.Vector{}, NewInvalidPoseError("position has non-finite components")
	}
	world, err := ComposeOffset(p.Orientation(), local)
	if err != nil {
		return r3.Vector{}, err
	}
	return pt.Add(world), nil
}

// YawFromOrientation returns the heading of o, the ZYX euler yaw in (-pi, pi].
func YawFromOrientation(o Orientation) (float64, error) {
	q, err := validOrientation(o)
	if err != nil {
		return 0, err
	}
	return utils.WrapAngle(QuatToEulerAngles(q).Yaw), nil
}

// NewYawOrientation returns a pure rotation of yaw radians about the world z axis.
func NewYawOrientation(yaw float64) Orientation {
	return &EulerAngles{Yaw: yaw}
}

// UnitDirection normalizes d, failing on a zero or non-finite vector.
func UnitDirection(d r3.Vector) (r3.Vector, error) {
	if !utils.IsFinite(d.X, d.Y, d.Z) {
		return r3.Vector{}, NewInvalidPoseError("direction has non-finite components")
	}
	if d.Norm() < quatNormEpsilon {
		return r3.Vector{}, NewInvalidPoseError("zero length direction")
	}
	return d.Normalize(), nil
}

func validOrientation(o Orientation) (quat.Number, error) {
	if o == nil {
		return quat.Number{}, NewInvalidPoseError("nil orientation")
	}
	return normalizeQuat(o.Quaternion())
}
