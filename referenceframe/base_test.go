package referenceframe

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/primitives/spatialmath"
)

func TestBaseWaypointConversions(t *testing.T) {
	w := BaseWaypoint{X: 1, Y: -2, Yaw: 0.5 * math.Pi}
	back, err := BaseWaypointFromInputs(w.Inputs())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back, test.ShouldResemble, w)

	fromPose, err := BaseWaypointFromPose(w.Pose())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fromPose.X, test.ShouldAlmostEqual, w.X)
	test.That(t, fromPose.Y, test.ShouldAlmostEqual, w.Y)
	test.That(t, fromPose.Yaw, test.ShouldAlmostEqual, w.Yaw)

	_, err = BaseWaypointFromInputs([]Input{{1}})
	test.That(t, err, test.ShouldNotBeNil)

	wrapped, err := BaseWaypointFromInputs([]Input{{0}, {0}, {3 * math.Pi / 2}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, wrapped.Yaw, test.ShouldAlmostEqual, -math.Pi/2)

	test.That(t, w.Valid(), test.ShouldBeTrue)
	test.That(t, BaseWaypoint{X: math.NaN()}.Valid(), test.ShouldBeFalse)
	test.That(t, w.String(), test.ShouldEqual, "(1.000, -2.000, 1.571)")
}

func TestBaseWaypointFromBadPose(t *testing.T) {
	p := spatialmath.NewPoseFromPoint(r3.Vector{X: math.Inf(1)})
	_, err := BaseWaypointFromPose(p)
	test.That(t, err, test.ShouldNotBeNil)

	good, err := spatialmath.NewPoseFromQuaternion(r3.Vector{X: 2}, quat.Number{Real: 1})
	test.That(t, err, test.ShouldBeNil)
	w, err := BaseWaypointFromPose(good)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w, test.ShouldResemble, BaseWaypoint{X: 2})
}

func TestInterpolateBase(t *testing.T) {
	a := BaseWaypoint{X: 0, Y: 0, Yaw: 3}
	b := BaseWaypoint{X: 2, Y: 4, Yaw: -3}
	mid := InterpolateBase(a, b, 0.5)
	test.That(t, mid.X, test.ShouldAlmostEqual, 1)
	test.That(t, mid.Y, test.ShouldAlmostEqual, 2)
	// shorter arc passes through pi, not through zero
	test.That(t, math.Abs(mid.Yaw), test.ShouldAlmostEqual, math.Pi)

	test.That(t, BaseDistance(a, a, 1), test.ShouldAlmostEqual, 0)
	test.That(t, BaseDistance(BaseWaypoint{}, BaseWaypoint{X: 3, Y: 4}, 1), test.ShouldAlmostEqual, 5)
	test.That(t, BaseDistance(BaseWaypoint{}, BaseWaypoint{Yaw: 1}, 0.5), test.ShouldAlmostEqual, 0.5)
}
