package fake

import (
	"context"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/primitives/collision"
	"go.viam.com/primitives/host"
	"go.viam.com/primitives/logging"
	"go.viam.com/primitives/referenceframe"
	"go.viam.com/primitives/spatialmath"
)

var _ host.Host = (*World)(nil)

func testWorldConfig() *Config {
	return &Config{
		XLimits: [2]float64{-5, 5},
		YLimits: [2]float64{-5, 5},
		Robot: RobotConfig{
			Arm:      "right",
			Tucked:   [3]float64{0.1, 0, 0.7},
			Untucked: [3]float64{0.5, 0, 1.0},
		},
		Objects: []ObjectConfig{
			{ID: "table", Position: [3]float64{2, 0, 0.4}, Size: [3]float64{0.8, 0.8, 0.8}},
			{ID: "burger", Position: [3]float64{2, 0, 0.825}, Size: [3]float64{0.1, 0.1, 0.05}, Graspable: true},
			{ID: "cabinet", Position: [3]float64{-2, 0, 0.5}, Size: [3]float64{0.5, 0.5, 1}, Joint: &JointConfig{Lower: 0, Upper: 1.5}},
		},
	}
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, err := NewWorld(testWorldConfig(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return w
}

func TestConfigValidate(t *testing.T) {
	test.That(t, testWorldConfig().Validate(), test.ShouldBeNil)

	cfg := testWorldConfig()
	cfg.XLimits = [2]float64{1, -1}
	cfg.Robot.Arm = ""
	cfg.Objects = append(cfg.Objects, ObjectConfig{ID: "table", Size: [3]float64{1, 1, 1}}, ObjectConfig{Size: [3]float64{1, 1, 1}})
	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "limits")
	test.That(t, err.Error(), test.ShouldContainSubstring, "needs an arm")
	test.That(t, err.Error(), test.ShouldContainSubstring, `"table" is listed twice`)
	test.That(t, err.Error(), test.ShouldContainSubstring, "object 4 has no id")

	_, err = NewWorld(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestKinematics(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	test.That(t, w.SetBasePose(ctx, referenceframe.BaseWaypoint{X: 1, Y: 0, Yaw: math.Pi / 2}), test.ShouldBeNil)

	target := spatialmath.NewPoseFromPoint(r3.Vector{X: 1, Y: 0.5, Z: 0.9})
	inputs, err := w.Solve(ctx, "right", target, nil)
	test.That(t, err, test.ShouldBeNil)
	// half a meter ahead of a base facing +y
	test.That(t, inputs[0].Value, test.ShouldAlmostEqual, 0.5)
	test.That(t, inputs[1].Value, test.ShouldAlmostEqual, 0)
	test.That(t, inputs[2].Value, test.ShouldAlmostEqual, 0.9)

	pose, err := w.EndEffectorPose(ctx, "right", inputs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(pose.Point(), target.Point(), 1e-9), test.ShouldBeTrue)

	_, err = w.Solve(ctx, "right", spatialmath.NewPoseFromPoint(r3.Vector{X: 4, Y: 0, Z: 0.9}), nil)
	test.That(t, err, test.ShouldEqual, host.ErrNoIKSolution)
	_, err = w.Solve(ctx, "left", target, nil)
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, w.SetBasePose(ctx, referenceframe.BaseWaypoint{X: 9}), test.ShouldNotBeNil)
	test.That(t, w.SetArmInputs(ctx, "right", referenceframe.FloatsToInputs([]float64{0, 0, 3})), test.ShouldNotBeNil)
}

func TestStepGraspAndRelease(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	r := w.Robot()
	test.That(t, w.SetBasePose(ctx, referenceframe.BaseWaypoint{X: 1.2}), test.ShouldBeNil)

	apply := func(arm [3]float64, gripper float64) {
		base := w.BasePose()
		cmd := host.Command{Action: []float64{base.X, base.Y, base.Yaw, arm[0], arm[1], arm[2], gripper, 0}}
		test.That(t, w.Apply(ctx, cmd), test.ShouldBeNil)
		test.That(t, w.Step(ctx), test.ShouldBeNil)
	}

	// above the burger, nothing to hold
	apply([3]float64{0.8, 0, 1.0}, -1)
	_, ok, err := w.HeldObject(ctx, "right")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)
	contacts, err := w.EndEffectorContacts(ctx, "right")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, contacts, test.ShouldBeEmpty)

	// on top of it
	apply([3]float64{0.8, 0, 0.86}, 1)
	contacts, err = w.EndEffectorContacts(ctx, "right")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(contacts), test.ShouldEqual, 1)
	test.That(t, contacts[0].BodyB, test.ShouldEqual, "burger")

	apply([3]float64{0.8, 0, 0.86}, -1)
	held, ok, err := w.HeldObject(ctx, "right")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, held, test.ShouldEqual, "burger")
	joints, err := r.JointPositions(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, joints[6], test.ShouldEqual, 0.)

	// the burger travels with the hand and is no longer a contact
	apply([3]float64{0.8, 0, 1.2}, 0)
	pose, err := w.Pose(ctx, "burger")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(pose.Point(), r3.Vector{X: 2, Y: 0, Z: 1.2}, 1e-9), test.ShouldBeTrue)
	contacts, err = w.EndEffectorContacts(ctx, "right")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, contacts, test.ShouldBeEmpty)

	apply([3]float64{0.8, 0, 1.2}, 1)
	_, ok, err = w.HeldObject(ctx, "right")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, w.Ticks(), test.ShouldEqual, 5)

	test.That(t, w.Apply(ctx, host.Command{Action: []float64{1}}), test.ShouldNotBeNil)
}

func TestProxy(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	oracle := collision.NewProxyOracle(w.Proxy(), logging.NewTestLogger(t))

	free := referenceframe.BaseWaypoint{X: 0, Y: 0}
	blocked := referenceframe.BaseWaypoint{X: 1.7, Y: 0}
	ok, err := oracle.IsValid(ctx, collision.BaseCandidate(host.BaseGroup, free), collision.IgnoreSet{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	ok, err = oracle.IsValid(ctx, collision.BaseCandidate(host.BaseGroup, blocked), collision.IgnoreSet{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)
	ok, err = oracle.IsValid(ctx, collision.BaseCandidate(host.BaseGroup, blocked), collision.NewIgnoreSet("table", "burger"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)

	// checks leave the robot where it was
	test.That(t, w.BasePose(), test.ShouldResemble, referenceframe.BaseWaypoint{})

	test.That(t, w.SetBasePose(ctx, referenceframe.BaseWaypoint{X: 1.2}), test.ShouldBeNil)
	inside := referenceframe.FloatsToInputs([]float64{0.8, 0, 0.5})
	ok, err = oracle.IsValid(ctx, collision.Candidate{Group: host.ArmGroup("right"), Inputs: inside}, collision.IgnoreSet{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)

	_, err = oracle.IsValid(ctx, collision.Candidate{Group: "camera", Inputs: inside}, collision.IgnoreSet{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, w.BasePose(), test.ShouldResemble, referenceframe.BaseWaypoint{X: 1.2})
}

func TestArticulation(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	limit, err := w.JointLimits(ctx, "cabinet")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, limit, test.ShouldResemble, referenceframe.Limit{Min: 0, Max: 1.5})

	test.That(t, w.SetJointPosition(ctx, "cabinet", 1.4), test.ShouldBeNil)
	pos, err := w.JointPosition("cabinet")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pos, test.ShouldEqual, 1.4)

	test.That(t, w.SetJointPosition(ctx, "cabinet", 2), test.ShouldNotBeNil)
	_, err = w.JointLimits(ctx, "table")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = w.Contacts(ctx, "nothing")
	test.That(t, err, test.ShouldNotBeNil)

	contacts, err := w.Contacts(ctx, "burger")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(contacts), test.ShouldEqual, 1)
	test.That(t, contacts[0].BodyB, test.ShouldEqual, "table")
}
