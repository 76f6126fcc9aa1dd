package referenceframe

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/primitives/spatialmath"
	"go.viam.com/primitives/utils"
)

// BaseWaypoint is a planar pose of a mobile base: position on the floor plane and heading.
type BaseWaypoint struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Yaw float64 `json:"yaw"`
}

// String formats the waypoint for logs.
func (w BaseWaypoint) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", w.X, w.Y, w.Yaw)
}

// Inputs returns the waypoint as an (x, y, yaw) input vector.
func (w BaseWaypoint) Inputs() []Input {
	return []Input{{w.X}, {w.Y}, {w.Yaw}}
}

// Pose returns the waypoint as a pose on the z=0 plane.
func (w BaseWaypoint) Pose() spatialmath.Pose {
	return spatialmath.NewPose(r3.Vector{X: w.X, Y: w.Y}, spatialmath.NewYawOrientation(w.Yaw))
}

// Valid is false if any component is NaN or infinite.
func (w BaseWaypoint) Valid() bool {
	return utils.IsFinite(w.X, w.Y, w.Yaw)
}

// BaseWaypointFromInputs converts an (x, y, yaw) input vector back into a waypoint.
func BaseWaypointFromInputs(inputs []Input) (BaseWaypoint, error) {
	if len(inputs) != 3 {
		return BaseWaypoint{}, NewIncorrectDoFError(len(inputs), 3)
	}
	return BaseWaypoint{X: inputs[0].Value, Y: inputs[1].Value, Yaw: utils.WrapAngle(inputs[2].Value)}, nil
}

// BaseWaypointFromPose projects a pose onto the floor plane.
func BaseWaypointFromPose(p spatialmath.Pose) (BaseWaypoint, error) {
	if err := spatialmath.ValidatePose(p); err != nil {
		return BaseWaypoint{}, err
	}
	yaw, err := spatialmath.YawFromOrientation(p.Orientation())
	if err != nil {
		return BaseWaypoint{}, err
	}
	return BaseWaypoint{X: p.Point().X, Y: p.Point().Y, Yaw: yaw}, nil
}

// InterpolateBase returns the waypoint a fraction `by` of the way from a to b, turning through the
// shorter arc. The result's yaw is wrapped to (-pi, pi].
func InterpolateBase(a, b BaseWaypoint, by float64) BaseWaypoint {
	return BaseWaypoint{
		X:   a.X + (b.X-a.X)*by,
		Y:   a.Y + (b.Y-a.Y)*by,
		Yaw: utils.WrapAngle(a.Yaw + utils.AngleDiff(a.Yaw, b.Yaw)*by),
	}
}

// BaseDistance is the configuration space distance between two base waypoints. Heading error is
// weighted by yawWeight meters per radian.
func BaseDistance(a, b BaseWaypoint, yawWeight float64) float64 {
	dyaw := utils.AngleDiff(a.Yaw, b.Yaw) * yawWeight
	return math.Sqrt(utils.Square(b.X-a.X) + utils.Square(b.Y-a.Y) + utils.Square(dyaw))
}

// NewBaseFrame returns the (x, y, yaw) frame of a mobile base confined to the given floor extents.
func NewBaseFrame(name string, xLimit, yLimit Limit) Frame {
	return NewFrame(name, []Limit{xLimit, yLimit, {Min: -math.Pi, Max: math.Pi}})
}
