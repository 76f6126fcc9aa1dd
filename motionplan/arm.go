package motionplan

import (
	"context"
	"math"
	"math/rand"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/primitives/collision"
	"go.viam.com/primitives/host"
	"go.viam.com/primitives/logging"
	"go.viam.com/primitives/referenceframe"
	"go.viam.com/primitives/spatialmath"
	"go.viam.com/primitives/utils"
)

// ArmWaypoint is one step of an arm path: joint inputs and the end effector pose they put the hand at.
type ArmWaypoint struct {
	Inputs []referenceframe.Input
	Pose   spatialmath.Pose
}

// ArmPath is an ordered list of arm waypoints. An empty path means no path was found.
type ArmPath []ArmWaypoint

// Last returns the final waypoint. It panics on an empty path.
func (ap ArmPath) Last() ArmWaypoint {
	return ap[len(ap)-1]
}

// Reversed returns a reversed copy of the path.
func (ap ArmPath) Reversed() ArmPath {
	out := make(ArmPath, len(ap))
	for i, w := range ap {
		out[len(ap)-1-i] = w
	}
	return out
}

// ArmPlanner plans end effector motions of the robot's arms.
type ArmPlanner struct {
	robot  host.Robot
	kin    host.Kinematics
	oracle collision.Oracle
	opts   *PlannerOptions
	clock  clock.Clock
	logger logging.Logger
}

// NewArmPlanner returns an ArmPlanner. Joint limits come from robot and pose solving from kin.
func NewArmPlanner(
	robot host.Robot,
	kin host.Kinematics,
	oracle collision.Oracle,
	opts *PlannerOptions,
	logger logging.Logger,
) (*ArmPlanner, error) {
	if opts == nil {
		opts = NewDefaultPlannerOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &ArmPlanner{robot: robot, kin: kin, oracle: oracle, opts: opts, clock: clock.New(), logger: logger}, nil
}

// SetClock replaces the clock used for the planning timeout.
func (p *ArmPlanner) SetClock(clk clock.Clock) {
	p.clock = clk
}

// Options returns the planner's options.
func (p *ArmPlanner) Options() *PlannerOptions {
	return p.opts
}

// PlanStraightLine interpolates the end effector in a straight line from `from` to `to`, solving IK
// at every step seeded by the previous solution. The path excludes `from` and ends at `to`. An
// unreachable or colliding step yields an empty path and a nil error.
func (p *ArmPlanner) PlanStraightLine(
	ctx context.Context,
	arm string,
	seed []referenceframe.Input,
	from, to spatialmath.Pose,
	ignore collision.IgnoreSet,
) (ArmPath, error) {
	steps := PathStepCount(from, to, p.opts.PathStepSize, p.opts.PathStepAngle)
	poses := make([]spatialmath.Pose, 0, steps)
	for i := 1; i <= steps; i++ {
		poses = append(poses, spatialmath.Interpolate(from, to, float64(i)/float64(steps)))
	}
	return p.solvePoses(ctx, arm, seed, poses, ignore)
}

// solvePoses solves and validates each pose in order, seeding IK with the previous solution.
func (p *ArmPlanner) solvePoses(
	ctx context.Context,
	arm string,
	seed []referenceframe.Input,
	poses []spatialmath.Pose,
	ignore collision.IgnoreSet,
) (ArmPath, error) {
	path := make(ArmPath, 0, len(poses))
	for _, pose := range poses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := spatialmath.ValidatePose(pose); err != nil {
			return nil, err
		}
		sol, err := p.kin.Solve(ctx, arm, pose, seed)
		if errors.Is(err, host.ErrNoIKSolution) {
			p.logger.CDebugf(ctx, "no IK solution for %s at %v", arm, pose.Point())
			return ArmPath{}, nil
		}
		if err != nil {
			return nil, err
		}
		ok, err := p.oracle.IsValid(ctx, collision.Candidate{Group: host.ArmGroup(arm), Pose: pose, Inputs: sol}, ignore)
		if err != nil {
			return nil, err
		}
		if !ok {
			p.logger.CDebugf(ctx, "%s waypoint at %v is in collision", arm, pose.Point())
			return ArmPath{}, nil
		}
		path = append(path, ArmWaypoint{Inputs: sol, Pose: pose})
		seed = sol
	}
	return path, nil
}

// revalidate checks an existing path again under a different ignore set.
func (p *ArmPlanner) revalidate(ctx context.Context, arm string, path ArmPath, ignore collision.IgnoreSet) (bool, error) {
	for _, w := range path {
		ok, err := p.oracle.IsValid(ctx, collision.Candidate{Group: host.ArmGroup(arm), Pose: w.Pose, Inputs: w.Inputs}, ignore)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// PlanJointMotion plans a collision free joint space motion from seed to a configuration reaching
// goal, the way the base is planned. An empty path means none was found.
func (p *ArmPlanner) PlanJointMotion(
	ctx context.Context,
	arm string,
	seed []referenceframe.Input,
	goal spatialmath.Pose,
	ignore collision.IgnoreSet,
) (ArmPath, error) {
	frame := p.robot.ArmFrame(arm)
	if frame == nil {
		return nil, errors.Errorf("robot has no arm %q", arm)
	}
	if err := referenceframe.CheckInputs(frame, seed); err != nil {
		return nil, err
	}
	goalPath, err := p.solvePoses(ctx, arm, seed, []spatialmath.Pose{goal}, ignore)
	if err != nil || len(goalPath) == 0 {
		return goalPath, err
	}
	space := &armSpace{frame: frame, arm: arm, kin: p.kin, oracle: p.oracle, ignore: ignore}
	mp := newRRTConnect(space, newRRTOptions(p.opts), p.clock, p.logger)

	steps, err := mp.plan(ctx, seed, goalPath.Last().Inputs)
	if errors.Is(err, errPlannerFailed) {
		return ArmPath{}, nil
	}
	if err != nil {
		return nil, err
	}

	// the seed is where the arm already is
	path := make(ArmPath, 0, len(steps)-1)
	for _, q := range steps[1:] {
		pose, err := p.kin.EndEffectorPose(ctx, arm, q)
		if err != nil {
			return nil, err
		}
		path = append(path, ArmWaypoint{Inputs: q, Pose: pose})
	}
	path[len(path)-1].Pose = goal
	return path, nil
}

// armSpace is the joint space of one arm.
type armSpace struct {
	frame  referenceframe.Frame
	arm    string
	kin    host.Kinematics
	oracle collision.Oracle
	ignore collision.IgnoreSet
}

func (s *armSpace) distance(a, b []referenceframe.Input) float64 {
	return referenceframe.InputsL2Distance(a, b)
}

func (s *armSpace) interpolate(a, b []referenceframe.Input, by float64) []referenceframe.Input {
	return referenceframe.InterpolateInputs(a, b, by)
}

func (s *armSpace) sample(rnd *rand.Rand) []referenceframe.Input {
	return referenceframe.RandomFrameInputs(s.frame, rnd)
}

func (s *armSpace) valid(ctx context.Context, q []referenceframe.Input) (bool, error) {
	if referenceframe.CheckInputs(s.frame, q) != nil {
		return false, nil
	}
	pose, err := s.kin.EndEffectorPose(ctx, s.arm, q)
	if err != nil {
		return false, err
	}
	return s.oracle.IsValid(ctx, collision.Candidate{Group: host.ArmGroup(s.arm), Pose: pose, Inputs: q}, s.ignore)
}

// PathStepCount returns the number of steps a straight line from seedPos to goalPos is broken into,
// so that no step moves more than stepSize meters or stepDegrees degrees.
func PathStepCount(seedPos, goalPos spatialmath.Pose, stepSize, stepDegrees float64) int {
	// use a default size of 1 if zero is passed in to avoid divide-by-zero
	if stepSize == 0 {
		stepSize = 1.
	}
	if stepDegrees == 0 {
		stepDegrees = 1.
	}

	dist, angle := spatialmath.PoseDelta(seedPos, goalPos)
	nSteps := math.Max(math.Abs(dist/stepSize), math.Abs(utils.RadToDeg(angle)/stepDegrees))
	return max(int(math.Ceil(nSteps-utils.Epsilon)), 1)
}
