package motionplan

import (
	"context"
	"math/rand"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/primitives/collision"
	"go.viam.com/primitives/logging"
	"go.viam.com/primitives/referenceframe"
	"go.viam.com/primitives/spatialmath"
	"go.viam.com/primitives/utils"
)

// BasePath is an ordered list of base waypoints. An empty path means no path was found.
type BasePath []referenceframe.BaseWaypoint

// BasePlanner plans collision free motions of a mobile base in (x, y, yaw).
type BasePlanner struct {
	frame  referenceframe.Frame
	group  string
	oracle collision.Oracle
	opts   *PlannerOptions
	clock  clock.Clock
	logger logging.Logger
}

// NewBasePlanner returns a planner for the base moving within frame, whose first two limits bound x
// and y. Candidates are checked under the given controller group.
func NewBasePlanner(
	frame referenceframe.Frame,
	group string,
	oracle collision.Oracle,
	opts *PlannerOptions,
	logger logging.Logger,
) (*BasePlanner, error) {
	if len(frame.DoF()) != 3 {
		return nil, referenceframe.NewIncorrectDoFError(len(frame.DoF()), 3)
	}
	if opts == nil {
		opts = NewDefaultPlannerOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &BasePlanner{
		frame:  frame,
		group:  group,
		oracle: oracle,
		opts:   opts,
		clock:  clock.New(),
		logger: logger,
	}, nil
}

// SetClock replaces the clock used for the planning timeout.
func (p *BasePlanner) SetClock(clk clock.Clock) {
	p.clock = clk
}

// Options returns the planner's options.
func (p *BasePlanner) Options() *PlannerOptions {
	return p.opts
}

// PlanBase plans from start to goal. The returned path starts at start, ends exactly at goal and has
// consecutive waypoints less than one resolution step apart. When no path is found within the
// iteration budget or timeout, or when the start or goal is itself in collision, PlanBase returns an
// empty path and a nil error. Errors are returned only for malformed waypoints and faults in the oracle.
func (p *BasePlanner) PlanBase(
	ctx context.Context,
	start, goal referenceframe.BaseWaypoint,
	ignore collision.IgnoreSet,
) (BasePath, error) {
	if !start.Valid() {
		return nil, spatialmath.NewInvalidPoseError("base start " + start.String() + " is not finite")
	}
	if !goal.Valid() {
		return nil, spatialmath.NewInvalidPoseError("base goal " + goal.String() + " is not finite")
	}
	start.Yaw = utils.WrapAngle(start.Yaw)
	goal.Yaw = utils.WrapAngle(goal.Yaw)

	oracle := p.oracle
	if !p.opts.FullObservability {
		oracle = collision.NewLocalOracle(oracle, r3.Vector{X: start.X, Y: start.Y}, p.opts.ObservationRadius)
	}
	space := &baseSpace{
		frame:     p.frame,
		group:     p.group,
		oracle:    oracle,
		ignore:    ignore,
		yawWeight: p.opts.YawWeight,
	}

	ok, err := space.valid(ctx, start.Inputs())
	if err != nil {
		return nil, err
	}
	if !ok {
		p.logger.CDebugf(ctx, "base start %v is in collision or out of bounds", start)
		return BasePath{}, nil
	}
	ok, err = space.valid(ctx, goal.Inputs())
	if err != nil {
		return nil, err
	}
	if !ok {
		p.logger.CDebugf(ctx, "base goal %v is in collision or out of bounds", goal)
		return BasePath{}, nil
	}

	mp := newRRTConnect(space, newRRTOptions(p.opts), p.clock, p.logger)

	var steps [][]referenceframe.Input
	if p.opts.ReducedMotion {
		direct, ok, err := mp.checkSegment(ctx, start.Inputs(), goal.Inputs())
		if err != nil {
			return nil, err
		}
		if ok {
			steps = append([][]referenceframe.Input{start.Inputs()}, direct...)
		}
	}
	if steps == nil {
		steps, err = mp.plan(ctx, start.Inputs(), goal.Inputs())
		if errors.Is(err, errPlannerFailed) {
			p.logger.Infof("no base path found from %v to %v", start, goal)
			return BasePath{}, nil
		}
		if err != nil {
			return nil, err
		}
	}

	path := make(BasePath, 0, len(steps))
	for _, q := range steps {
		w, err := referenceframe.BaseWaypointFromInputs(q)
		if err != nil {
			return nil, err
		}
		path = append(path, w)
	}
	path[len(path)-1] = goal
	p.logger.CDebugf(ctx, "base path from %v to %v has %d waypoints", start, goal, len(path))
	return path, nil
}

// baseSpace is the (x, y, yaw) configuration space of a mobile base.
type baseSpace struct {
	frame     referenceframe.Frame
	group     string
	oracle    collision.Oracle
	ignore    collision.IgnoreSet
	yawWeight float64
}

func (s *baseSpace) distance(a, b []referenceframe.Input) float64 {
	return referenceframe.BaseDistance(waypoint(a), waypoint(b), s.yawWeight)
}

func (s *baseSpace) interpolate(a, b []referenceframe.Input, by float64) []referenceframe.Input {
	return referenceframe.InterpolateBase(waypoint(a), waypoint(b), by).Inputs()
}

func (s *baseSpace) sample(rnd *rand.Rand) []referenceframe.Input {
	return referenceframe.RandomFrameInputs(s.frame, rnd)
}

func (s *baseSpace) valid(ctx context.Context, q []referenceframe.Input) (bool, error) {
	w := waypoint(q)
	lims := s.frame.DoF()
	if !lims[0].Contains(w.X) || !lims[1].Contains(w.Y) {
		return false, nil
	}
	return s.oracle.IsValid(ctx, collision.BaseCandidate(s.group, w), s.ignore)
}

func waypoint(q []referenceframe.Input) referenceframe.BaseWaypoint {
	return referenceframe.BaseWaypoint{X: q[0].Value, Y: q[1].Value, Yaw: q[2].Value}
}

// Length is the planar distance travelled along the path.
func (bp BasePath) Length() float64 {
	return lo.Sum(lo.Map(bp, func(w referenceframe.BaseWaypoint, i int) float64 {
		if i == 0 {
			return 0
		}
		return referenceframe.BaseDistance(bp[i-1], w, 0)
	}))
}
