package primitives

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/primitives/collision"
	"go.viam.com/primitives/config"
	"go.viam.com/primitives/execution"
	"go.viam.com/primitives/failure"
	"go.viam.com/primitives/host"
	"go.viam.com/primitives/logging"
	"go.viam.com/primitives/motionplan"
	"go.viam.com/primitives/referenceframe"
	"go.viam.com/primitives/robots/fake"
	"go.viam.com/primitives/spatialmath"
	"go.viam.com/primitives/testutils/inject"
)

type injectBasePlanner struct {
	BasePlanner
	PlanBaseFunc func(ctx context.Context, start, goal referenceframe.BaseWaypoint, ignore collision.IgnoreSet) (motionplan.BasePath, error)
}

func (p *injectBasePlanner) PlanBase(
	ctx context.Context,
	start, goal referenceframe.BaseWaypoint,
	ignore collision.IgnoreSet,
) (motionplan.BasePath, error) {
	if p.PlanBaseFunc == nil {
		return p.BasePlanner.PlanBase(ctx, start, goal, ignore)
	}
	return p.PlanBaseFunc(ctx, start, goal, ignore)
}

type injectArmPlanner struct {
	ArmPlanner
	PlanPickFunc   func(ctx context.Context, req motionplan.InteractionRequest) (*motionplan.InteractionPlan, error)
	PlanToggleFunc func(ctx context.Context, req motionplan.InteractionRequest) (*motionplan.InteractionPlan, error)
}

func (p *injectArmPlanner) PlanPick(ctx context.Context, req motionplan.InteractionRequest) (*motionplan.InteractionPlan, error) {
	if p.PlanPickFunc == nil {
		return p.ArmPlanner.PlanPick(ctx, req)
	}
	return p.PlanPickFunc(ctx, req)
}

func (p *injectArmPlanner) PlanToggle(ctx context.Context, req motionplan.InteractionRequest) (*motionplan.InteractionPlan, error) {
	if p.PlanToggleFunc == nil {
		return p.ArmPlanner.PlanToggle(ctx, req)
	}
	return p.PlanToggleFunc(ctx, req)
}

func testWorld(objects ...fake.ObjectConfig) *fake.Config {
	return &fake.Config{
		XLimits: [2]float64{-5, 5},
		YLimits: [2]float64{-5, 5},
		Robot: fake.RobotConfig{
			Arm:      "right",
			Tucked:   [3]float64{0.1, 0, 0.7},
			Untucked: [3]float64{0.5, 0, 1.0},
		},
		Objects: objects,
	}
}

func testConfig(world *fake.Config, offsets config.Offsets, actions ...config.Action) *config.Config {
	cfg := config.Default()
	cfg.Offsets = offsets
	cfg.Tasks = map[string][]config.Action{"test": actions}
	cfg.Task = "test"
	cfg.World = world
	return cfg
}

// newTestDispatcher builds a dispatcher over a fake world with real planners. The returned planners
// wrap the real ones so tests can intercept them.
func newTestDispatcher(
	t *testing.T,
	cfg *config.Config,
	h func(w *fake.World) host.Host,
	logger logging.Logger,
) (*Dispatcher, *fake.World, *injectBasePlanner, *injectArmPlanner) {
	t.Helper()
	world, err := fake.NewWorld(cfg.World, logger)
	test.That(t, err, test.ShouldBeNil)
	var hst host.Host = world
	if h != nil {
		hst = h(world)
	}
	opts, err := cfg.PlannerOptions()
	test.That(t, err, test.ShouldBeNil)
	planners, err := NewPlanners(hst, world.BaseFrame(), opts, logger)
	test.That(t, err, test.ShouldBeNil)
	base := &injectBasePlanner{BasePlanner: planners.Base}
	arm := &injectArmPlanner{ArmPlanner: planners.Arm}
	d, err := NewDispatcher(cfg, hst, Planners{Base: base, Arm: arm}, logger)
	test.That(t, err, test.ShouldBeNil)
	return d, world, base, arm
}

func TestParsePrimitive(t *testing.T) {
	for _, p := range []Primitive{NavigateTo, Pick, Place, Toggle, Pull, Push, PullOpen, Dummy} {
		parsed, err := ParsePrimitive(p.String())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parsed, test.ShouldEqual, p)
	}
	test.That(t, int(Dummy), test.ShouldEqual, 10)
	test.That(t, PullOpen.OffsetTable(), test.ShouldEqual, "pull")
	test.That(t, Primitive(7).String(), test.ShouldEqual, "Primitive(7)")
	_, err := ParsePrimitive("juggle")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewDispatcherRequiresPositionArm(t *testing.T) {
	logger := logging.NewTestLogger(t)
	cfg := testConfig(testWorld(), config.Offsets{})
	world, err := fake.NewWorld(cfg.World, logger)
	test.That(t, err, test.ShouldBeNil)
	planners, err := NewPlanners(world, world.BaseFrame(), nil, logger)
	test.That(t, err, test.ShouldBeNil)

	_, err = NewDispatcher(cfg, world, planners, logger)
	test.That(t, err, test.ShouldBeNil)

	for _, tc := range []struct {
		name  string
		kind  host.ControllerKind
		mode  host.ControlMode
		delta bool
	}{
		{"velocity", host.JointController, host.VelocityControl, false},
		{"delta", host.JointController, host.PositionControl, true},
		{"end effector", host.EndEffectorController, host.PositionControl, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			robot := &inject.Robot{Robot: world.Robot()}
			robot.ControllersFunc = func() []host.Controller {
				controllers := world.Robot().Controllers()
				for i, c := range controllers {
					if c.Name == host.ArmGroup("right") {
						controllers[i].Kind, controllers[i].Mode, controllers[i].Delta = tc.kind, tc.mode, tc.delta
					}
				}
				return controllers
			}
			h := &inject.Host{Host: world, RobotFunc: func() host.Robot { return robot }}
			_, err := NewDispatcher(cfg, h, planners, logger)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, failure.ReasonOf(err), test.ShouldEqual, failure.ReasonPreCondition)
		})
	}
}

func TestMovedObjectIsRejected(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(
		testWorld(fake.ObjectConfig{ID: "box", Size: [3]float64{0.1, 0.1, 0.1}}),
		config.Offsets{"navigate_to": {"box": {{1, 0, 0, 0}}}},
	)
	d, world, base, _ := newTestDispatcher(t, cfg, nil, logging.NewTestLogger(t))

	calls := 0
	base.PlanBaseFunc = func(ctx context.Context, start, goal referenceframe.BaseWaypoint, ignore collision.IgnoreSet) (motionplan.BasePath, error) {
		calls++
		return motionplan.BasePath{start, goal}, nil
	}

	_, err := d.ApplyPrimitive(ctx, NavigateTo, "box", 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, calls, test.ShouldEqual, 1)

	// within the threshold of where it was first seen
	test.That(t, world.MoveObject("box", r3.Vector{X: 0.05}), test.ShouldBeNil)
	_, err = d.ApplyPrimitive(ctx, NavigateTo, "box", 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, calls, test.ShouldEqual, 2)

	test.That(t, world.MoveObject("box", r3.Vector{X: 0.2}), test.ShouldBeNil)
	_, err = d.ApplyPrimitive(ctx, NavigateTo, "box", 0)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, failure.ReasonOf(err), test.ShouldEqual, failure.ReasonPreCondition)
	c, ok := failure.ContextOf(err)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, c, test.ShouldResemble, failure.Context{Primitive: "navigate_to", Object: "box", Phase: failure.PhaseNavigate})
	test.That(t, calls, test.ShouldEqual, 2)

	// an object outside the checked list may move freely
	cfg.Dispatch.PoseCheckObjects = []string{"printer.n.03_1"}
	_, err = d.ApplyPrimitive(ctx, NavigateTo, "box", 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, calls, test.ShouldEqual, 3)
}

func TestNavigate(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(
		testWorld(fake.ObjectConfig{ID: "table", Position: [3]float64{3, 0, 0.4}, Yaw: math.Pi / 2, Size: [3]float64{1, 0.6, 0.8}}),
		config.Offsets{"navigate_to": {"table": {{0, 1, 0, -math.Pi / 2}, {0, 9, 0, 0}}}},
	)
	d, world, _, _ := newTestDispatcher(t, cfg, nil, logging.NewTestLogger(t))

	s, err := d.ApplyPrimitive(ctx, NavigateTo, "table", 0)
	test.That(t, err, test.ShouldBeNil)
	n, err := execution.Drain(ctx, s, world, world)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldBeGreaterThan, 1)
	test.That(t, s.State(), test.ShouldEqual, execution.StateDone)

	// one meter along the table's y axis, facing it
	pose := world.BasePose()
	test.That(t, pose.X, test.ShouldAlmostEqual, 2)
	test.That(t, pose.Y, test.ShouldAlmostEqual, 0)
	test.That(t, pose.Yaw, test.ShouldAlmostEqual, 0)

	// planning alone leaves the base where it is
	d, world, _, _ = newTestDispatcher(t, cfg, nil, logging.NewTestLogger(t))
	path, err := d.PlanNavigation(ctx, "table", 0)
	test.That(t, err, test.ShouldBeNil)
	last := path[len(path)-1]
	test.That(t, last.X, test.ShouldAlmostEqual, 2)
	test.That(t, last.Y, test.ShouldAlmostEqual, 0)
	test.That(t, last.Yaw, test.ShouldAlmostEqual, 0)
	test.That(t, world.BasePose().X, test.ShouldEqual, 0.)

	// outside the world
	_, err = d.ApplyPrimitive(ctx, NavigateTo, "table", 1)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, failure.ReasonOf(err), test.ShouldEqual, failure.ReasonPlanning)

	_, err = d.ApplyPrimitive(ctx, NavigateTo, "table", 2)
	test.That(t, failure.ReasonOf(err), test.ShouldEqual, failure.ReasonPreCondition)
	_, err = d.ApplyPrimitive(ctx, NavigateTo, "chair", 0)
	test.That(t, failure.ReasonOf(err), test.ShouldEqual, failure.ReasonPreCondition)
}

func TestPickTarget(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(
		testWorld(fake.ObjectConfig{ID: "cube", Position: [3]float64{1, 0, 0}, Size: [3]float64{0.1, 0.1, 0.1}, Graspable: true}),
		config.Offsets{"pick": {"cube": {{0, 0, 0.2}, {0, 0, 0.2, 1}}}},
	)
	d, _, _, arm := newTestDispatcher(t, cfg, nil, logging.NewTestLogger(t))

	var got motionplan.InteractionRequest
	arm.PlanPickFunc = func(ctx context.Context, req motionplan.InteractionRequest) (*motionplan.InteractionPlan, error) {
		got = req
		return nil, failure.NewPlanningError(req.Primitive, req.Object, failure.PhaseInteraction, errors.New("stop here"))
	}

	_, err := d.ApplyPrimitive(ctx, Pick, "cube", 0)
	test.That(t, failure.ReasonOf(err), test.ShouldEqual, failure.ReasonPlanning)
	test.That(t, spatialmath.R3VectorAlmostEqual(got.Target.Point(), r3.Vector{X: 1, Y: 0, Z: 0.2}, 1e-12), test.ShouldBeTrue)
	test.That(t, got.Direction, test.ShouldResemble, motionplan.DefaultDirection)
	test.That(t, got.Distance, test.ShouldEqual, 0.1)
	test.That(t, got.Object, test.ShouldEqual, "cube")

	// robot agnostic offsets stop the hand a finger length above the point
	_, err = d.ApplyPrimitive(ctx, Pick, "cube", 1)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, got.Target.Point().Z, test.ShouldAlmostEqual, 0.24)
}

func TestGraspIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(
		testWorld(fake.ObjectConfig{ID: "cube", Position: [3]float64{1, 0, 0}, Size: [3]float64{0.1, 0.1, 0.1}, Graspable: true}),
		config.Offsets{"pick": {"cube": {{0, 0, 0.2}}, "ball": {{0, 0, 0.1}}}},
	)
	logger, logs := logging.NewObservedTestLogger(t)
	held := "cube"
	d, _, _, arm := newTestDispatcher(t, cfg, func(w *fake.World) host.Host {
		return &inject.Host{Host: w, HeldObjectFunc: func(ctx context.Context, arm string) (string, bool, error) {
			return held, true, nil
		}}
	}, logger)

	planned := 0
	arm.PlanPickFunc = func(ctx context.Context, req motionplan.InteractionRequest) (*motionplan.InteractionPlan, error) {
		planned++
		return nil, errors.New("should not plan")
	}

	s, err := d.ApplyPrimitive(ctx, Pick, "cube", 0)
	test.That(t, err, test.ShouldBeNil)
	cmd, err := s.Next(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.State(), test.ShouldEqual, execution.StateGrasping)
	// the gripper keeps closing on what it holds
	test.That(t, cmd.Action[6], test.ShouldEqual, -1.)
	_, err = s.Next(ctx)
	test.That(t, err, test.ShouldEqual, execution.ErrStreamDone)
	test.That(t, s.State(), test.ShouldEqual, execution.StateDone)
	test.That(t, planned, test.ShouldEqual, 0)
	test.That(t, logs.FilterMessage("already grasping object, skipping pick").Len(), test.ShouldEqual, 1)

	held = "ball"
	_, err = d.ApplyPrimitive(ctx, Pick, "cube", 0)
	test.That(t, failure.ReasonOf(err), test.ShouldEqual, failure.ReasonPreCondition)
	test.That(t, err.Error(), test.ShouldContainSubstring, "already holding ball")
	test.That(t, planned, test.ShouldEqual, 0)
}

func TestToggleWithoutPreApproach(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(
		testWorld(fake.ObjectConfig{ID: "switch", Position: [3]float64{1, 0, 0.5}, Size: [3]float64{0.2, 0.2, 0.2}}),
		config.Offsets{"toggle": {"switch": {{0, 0, 0.1}}}},
	)
	test.That(t, cfg.Dispatch.ToggleDistance, test.ShouldEqual, 0.)
	d, world, _, arm := newTestDispatcher(t, cfg, nil, logging.NewTestLogger(t))

	var plan *motionplan.InteractionPlan
	arm.PlanToggleFunc = func(ctx context.Context, req motionplan.InteractionRequest) (*motionplan.InteractionPlan, error) {
		var err error
		plan, err = arm.ArmPlanner.PlanToggle(ctx, req)
		return plan, err
	}

	s, err := d.ApplyPrimitive(ctx, Toggle, "switch", 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan.PreApproach, test.ShouldBeEmpty)
	test.That(t, plan.Interaction, test.ShouldNotBeEmpty)

	n, err := execution.Drain(ctx, s, world, world)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.State(), test.ShouldEqual, execution.StateDone)
	// the touch stops the interaction early, then the hand backs away along the full path
	test.That(t, n, test.ShouldBeLessThan, 2*len(plan.Interaction)+1)
	joints, err := world.Robot().JointPositions(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, joints[3:6], test.ShouldResemble, []float64{0.1, 0, 0.7})
}

func TestSnapJoint(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(
		testWorld(
			fake.ObjectConfig{ID: "cabinet", Position: [3]float64{-2, 0, 0.5}, Size: [3]float64{0.5, 0.5, 1}, Joint: &fake.JointConfig{Upper: 1.5}},
			fake.ObjectConfig{ID: "table", Position: [3]float64{2, 0, 0.4}, Size: [3]float64{0.8, 0.8, 0.8}},
		),
		config.Offsets{
			"pull": {"cabinet": {{0.3, 0, 0.3, -1, 0, 0}}, "table": {{0, 0, 0.5, 1, 0, 0}}},
			"push": {"cabinet": {{0.3, 0, 0.3, 1, 0, 0}}},
		},
	)
	d, world, _, _ := newTestDispatcher(t, cfg, nil, logging.NewTestLogger(t))

	s, err := d.ApplyPrimitive(ctx, Pull, "cabinet", 0)
	test.That(t, err, test.ShouldBeNil)
	n, err := execution.Drain(ctx, s, world, world)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, cfg.Dispatch.SnapSettleSteps)
	pos, err := world.JointPosition("cabinet")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pos, test.ShouldAlmostEqual, 1.4)

	s, err = d.ApplyPrimitive(ctx, Push, "cabinet", 0)
	test.That(t, err, test.ShouldBeNil)
	_, err = execution.Drain(ctx, s, world, world)
	test.That(t, err, test.ShouldBeNil)
	pos, err = world.JointPosition("cabinet")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pos, test.ShouldEqual, 0.)

	_, err = d.ApplyPrimitive(ctx, Pull, "table", 0)
	test.That(t, failure.ReasonOf(err), test.ShouldEqual, failure.ReasonPreCondition)
	_, err = d.ApplyPrimitive(ctx, Push, "table", 0)
	test.That(t, failure.ReasonOf(err), test.ShouldEqual, failure.ReasonPreCondition)
}

func TestPullOpen(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(
		testWorld(fake.ObjectConfig{ID: "handle", Position: [3]float64{1, 0, 0.8}, Size: [3]float64{0.1, 0.1, 0.1}, Graspable: true}),
		config.Offsets{"pull": {"handle": {{-0.05, 0, 0, -1, 0, 0}, {-0.05, 0, 0}}}},
	)
	d, world, _, _ := newTestDispatcher(t, cfg, nil, logging.NewTestLogger(t))

	s, err := d.ApplyPrimitive(ctx, PullOpen, "handle", 0)
	test.That(t, err, test.ShouldBeNil)
	_, err = execution.Drain(ctx, s, world, world)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.State(), test.ShouldEqual, execution.StateDone)

	// the handle was carried back along the pull and let go
	pose, err := world.Pose(ctx, "handle")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(pose.Point(), r3.Vector{X: 0.65, Y: 0, Z: 0.8}, 1e-9), test.ShouldBeTrue)
	_, holding, err := world.HeldObject(ctx, "right")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, holding, test.ShouldBeFalse)

	_, err = d.ApplyPrimitive(ctx, PullOpen, "handle", 1)
	test.That(t, failure.ReasonOf(err), test.ShouldEqual, failure.ReasonPreCondition)
}

func TestApplyIndex(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(
		testWorld(fake.ObjectConfig{ID: "box", Position: [3]float64{2, 0, 0.1}, Size: [3]float64{0.2, 0.2, 0.2}}),
		config.Offsets{"navigate_to": {"box": {{-1, 0, 0, 0}}}},
		config.Action{Primitive: "navigate_to", Object: "box"},
		config.Action{Primitive: "juggle", Object: "box"},
	)
	d, world, _, _ := newTestDispatcher(t, cfg, nil, logging.NewTestLogger(t))

	res, err := d.Run(ctx, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.State, test.ShouldEqual, execution.StateDone)
	test.That(t, res.Action.Object, test.ShouldEqual, "box")
	test.That(t, res.Commands, test.ShouldBeGreaterThan, 0)
	test.That(t, world.BasePose().X, test.ShouldAlmostEqual, 1)

	_, err = d.Apply(ctx, 1)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown primitive "juggle"`)
	_, err = d.Apply(ctx, 2)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "out of range")

	// the dummy index tucks the arm from anywhere
	test.That(t, world.SetArmInputs(ctx, "right", referenceframe.FloatsToInputs([]float64{0.5, 0.2, 1})), test.ShouldBeNil)
	res, err = d.Run(ctx, int(Dummy))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Commands, test.ShouldEqual, 1)
	test.That(t, res.Action.Primitive, test.ShouldEqual, "dummy")
	joints, err := world.Robot().JointPositions(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, joints[3:6], test.ShouldResemble, []float64{0.1, 0, 0.7})
}

func TestInstallingAPrinter(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	d, world, _, _ := newTestDispatcher(t, cfg, nil, logging.NewTestLogger(t))

	actions, err := cfg.Actions()
	test.That(t, err, test.ShouldBeNil)
	for i := range actions {
		res, err := d.Run(ctx, i)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.State, test.ShouldEqual, execution.StateDone)
		if i == 1 {
			held, ok, err := world.HeldObject(ctx, "right")
			test.That(t, err, test.ShouldBeNil)
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, held, test.ShouldEqual, "printer.n.03_1")
		}
	}

	// the printer ends up over the table, out of the hand
	_, ok, err := world.HeldObject(ctx, "right")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, d.Executor().IsGrasping(), test.ShouldBeFalse)
	pose, err := world.Pose(ctx, "printer.n.03_1")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().X, test.ShouldBeBetween, -0.5, 0.5)
	test.That(t, pose.Point().Y, test.ShouldBeBetween, 2.7, 3.3)
}

func TestInstallingAPrinterWithFullArmPlanning(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	if cfg.Planner == nil {
		cfg.Planner = map[string]interface{}{}
	}
	cfg.Planner["plan_full_pre_approach"] = true
	logger, logs := logging.NewObservedTestLogger(t)
	d, world, _, _ := newTestDispatcher(t, cfg, nil, logger)

	armJoints := func() []float64 {
		joints, err := world.Robot().JointPositions(ctx)
		test.That(t, err, test.ShouldBeNil)
		return append([]float64(nil), joints[3:6]...)
	}
	states := func() []string {
		var out []string
		for _, e := range logs.TakeAll() {
			if e.Message == "stream state" {
				out = append(out, fmt.Sprint(e.ContextMap()["to"]))
			}
		}
		return out
	}

	for i, want := range [][]string{
		{"NAVIGATING"},
		{"PRE_APPROACH", "INTERACTING", "GRASPING", "RETREATING"},
		{"NAVIGATING"},
		// the hand opens before it backs away from the table
		{"PRE_APPROACH", "INTERACTING", "UNGRASPING", "RETREATING"},
	} {
		seed := armJoints()
		logs.TakeAll()
		res, err := d.Run(ctx, i)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.State, test.ShouldEqual, execution.StateDone)
		test.That(t, states(), test.ShouldResemble, want)

		if want[0] == "PRE_APPROACH" {
			// back along the pre-approach path to where the arm started
			end := armJoints()
			for j := range seed {
				test.That(t, end[j], test.ShouldAlmostEqual, seed[j])
			}
		}
		_, holding, err := world.HeldObject(ctx, "right")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, holding, test.ShouldEqual, i == 1 || i == 2)
	}
	test.That(t, d.Executor().IsGrasping(), test.ShouldBeFalse)
}

func TestHostQueryFailuresCarryContext(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(
		testWorld(fake.ObjectConfig{ID: "cube", Position: [3]float64{1, 0, 0}, Size: [3]float64{0.1, 0.1, 0.1}, Graspable: true}),
		config.Offsets{
			"navigate_to": {"ghost": {{1, 0, 0, 0}}},
			"pick":        {"ghost": {{0, 0, 0.1}}, "cube": {{0, 0, 0.1}}},
		},
	)
	var noJoints, noHand bool
	d, _, _, _ := newTestDispatcher(t, cfg, func(w *fake.World) host.Host {
		robot := &inject.Robot{Robot: w.Robot(), JointPositionsFunc: func(ctx context.Context) ([]float64, error) {
			if noJoints {
				return nil, errors.New("joint state unavailable")
			}
			return w.Robot().JointPositions(ctx)
		}}
		return &inject.Host{
			Host:      w,
			RobotFunc: func() host.Robot { return robot },
			EndEffectorPoseFunc: func(ctx context.Context, arm string, inputs []referenceframe.Input) (spatialmath.Pose, error) {
				if noHand {
					return nil, errors.New("hand link missing")
				}
				return w.EndEffectorPose(ctx, arm, inputs)
			},
		}
	}, logging.NewTestLogger(t))

	expectContext := func(err error, prim string, object string, phase failure.Phase) {
		t.Helper()
		test.That(t, failure.ReasonOf(err), test.ShouldEqual, failure.ReasonPreCondition)
		test.That(t, failure.Recoverable(err), test.ShouldBeTrue)
		c, ok := failure.ContextOf(err)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, c, test.ShouldResemble, failure.Context{Primitive: prim, Object: object, Phase: phase})
	}

	_, err := d.ApplyPrimitive(ctx, NavigateTo, "ghost", 0)
	expectContext(err, "navigate_to", "ghost", failure.PhaseNavigate)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown object "ghost"`)

	_, err = d.ApplyPrimitive(ctx, Pick, "ghost", 0)
	expectContext(err, "pick", "ghost", failure.PhaseDispatch)

	noHand = true
	_, err = d.ApplyPrimitive(ctx, Pick, "cube", 0)
	expectContext(err, "pick", "cube", failure.PhaseDispatch)
	test.That(t, err.Error(), test.ShouldContainSubstring, "hand link missing")

	noHand, noJoints = false, true
	_, err = d.ApplyPrimitive(ctx, Pick, "cube", 0)
	expectContext(err, "pick", "cube", failure.PhaseDispatch)
	test.That(t, err.Error(), test.ShouldContainSubstring, "joint state unavailable")
}
