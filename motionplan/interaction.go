package motionplan

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/primitives/collision"
	"go.viam.com/primitives/failure"
	"go.viam.com/primitives/referenceframe"
	"go.viam.com/primitives/spatialmath"
)

// DefaultDirection is the approach direction used when an offset set gives none: straight down onto
// the object's surface.
var DefaultDirection = r3.Vector{X: 0, Y: 0, Z: -1}

// InteractionRequest describes one end effector interaction with an object.
type InteractionRequest struct {
	Primitive string
	Object    string
	Arm       string

	// Seed is the arm's current joint configuration.
	Seed []referenceframe.Input

	// Target is the end effector pose at the contact point.
	Target spatialmath.Pose

	// Direction is the approach direction. The pre-approach standoff is Distance back along it.
	Direction r3.Vector
	Distance  float64

	// Held is the object already in the hand, if any. It is ignored by every check.
	Held string

	// WhileGrasping marks a retreat made holding Object.
	WhileGrasping bool

	Ignore collision.IgnoreSet

	PullDirection r3.Vector
	PullDistance  float64
	// PullSteps is the number of waypoints in the pull segment. Zero uses the path step size.
	PullSteps int
}

// InteractionPlan is the set of arm paths for one interaction. Which segments are filled depends on
// the primitive: Pull is only planned for pulls, and pulls have no Retreat.
type InteractionPlan struct {
	PreApproach ArmPath
	Interaction ArmPath
	Retreat     ArmPath
	Pull        ArmPath

	// WhileGrasping is set when the retreat carries the object, so the gripper stays closed.
	WhileGrasping bool
}

// PlanPick plans approaching, grasping and lifting away an object.
func (p *ArmPlanner) PlanPick(ctx context.Context, req InteractionRequest) (*InteractionPlan, error) {
	req.WhileGrasping = true
	return p.planWithRetreat(ctx, req)
}

// PlanPlace plans lowering a held object onto a surface and backing away empty handed.
func (p *ArmPlanner) PlanPlace(ctx context.Context, req InteractionRequest) (*InteractionPlan, error) {
	if req.Held == "" {
		return nil, failure.NewPreConditionError(req.Primitive, req.Object, failure.PhaseDispatch, "nothing in hand to place")
	}
	req.WhileGrasping = false
	return p.planWithRetreat(ctx, req)
}

// PlanToggle plans touching an object, e.g. pressing a button, and backing away.
func (p *ArmPlanner) PlanToggle(ctx context.Context, req InteractionRequest) (*InteractionPlan, error) {
	req.WhileGrasping = false
	return p.planWithRetreat(ctx, req)
}

// PlanPush plans pushing an object along the approach direction and backing away.
func (p *ArmPlanner) PlanPush(ctx context.Context, req InteractionRequest) (*InteractionPlan, error) {
	req.WhileGrasping = false
	return p.planWithRetreat(ctx, req)
}

// PlanPull plans approaching a handle, then pulling it PullDistance along PullDirection. The hand is
// expected to grasp between the interaction and the pull.
func (p *ArmPlanner) PlanPull(ctx context.Context, req InteractionRequest) (*InteractionPlan, error) {
	if req.PullDistance <= 0 {
		return nil, errors.Errorf("pull distance must be positive, got %v", req.PullDistance)
	}
	plan, err := p.planApproach(ctx, req)
	if err != nil {
		return nil, err
	}
	pullDir, err := spatialmath.UnitDirection(req.PullDirection)
	if err != nil {
		return nil, err
	}

	contact := plan.Interaction.Last()
	end := spatialmath.NewPose(contact.Pose.Point().Add(pullDir.Mul(req.PullDistance)), contact.Pose.Orientation())
	steps := req.PullSteps
	if steps <= 0 {
		steps = PathStepCount(contact.Pose, end, p.opts.PathStepSize, p.opts.PathStepAngle)
	}
	poses := make([]spatialmath.Pose, 0, steps)
	for i := 1; i <= steps; i++ {
		poses = append(poses, spatialmath.Interpolate(contact.Pose, end, float64(i)/float64(steps)))
	}
	plan.Pull, err = p.solvePoses(ctx, req.Arm, contact.Inputs, poses, interactionIgnore(req))
	if err != nil {
		return nil, err
	}
	if len(plan.Pull) == 0 {
		return nil, failure.NewPlanningError(req.Primitive, req.Object, failure.PhasePull, errPlannerFailed)
	}
	return plan, nil
}

func (p *ArmPlanner) planWithRetreat(ctx context.Context, req InteractionRequest) (*InteractionPlan, error) {
	plan, err := p.planApproach(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := p.planRetreat(ctx, req, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// planApproach fills the pre-approach and interaction segments. A zero Distance disables the
// pre-approach: it is left empty and the interaction starts from the current configuration.
func (p *ArmPlanner) planApproach(ctx context.Context, req InteractionRequest) (*InteractionPlan, error) {
	if err := spatialmath.ValidatePose(req.Target); err != nil {
		return nil, err
	}
	if req.Distance < 0 {
		return nil, errors.Errorf("pre-approach distance must not be negative, got %v", req.Distance)
	}
	dir := req.Direction
	if dir == (r3.Vector{}) {
		dir = DefaultDirection
	}
	dir, err := spatialmath.UnitDirection(dir)
	if err != nil {
		return nil, err
	}

	plan := &InteractionPlan{PreApproach: ArmPath{}, WhileGrasping: req.WhileGrasping}
	seed := req.Seed
	from, err := p.kin.EndEffectorPose(ctx, req.Arm, seed)
	if err != nil {
		return nil, err
	}

	if req.Distance > 0 {
		standoff := spatialmath.NewPose(req.Target.Point().Sub(dir.Mul(req.Distance)), req.Target.Orientation())
		ignore := req.Ignore.With(req.Held)
		if p.opts.PlanFullPreApproach {
			plan.PreApproach, err = p.PlanJointMotion(ctx, req.Arm, seed, standoff, ignore)
		} else {
			// jump straight to the standoff configuration
			plan.PreApproach, err = p.solvePoses(ctx, req.Arm, seed, []spatialmath.Pose{standoff}, ignore)
		}
		if err != nil {
			return nil, err
		}
		if len(plan.PreApproach) == 0 {
			return nil, failure.NewPlanningError(req.Primitive, req.Object, failure.PhasePreApproach, errPlannerFailed)
		}
		seed = plan.PreApproach.Last().Inputs
		from = standoff
	}

	plan.Interaction, err = p.PlanStraightLine(ctx, req.Arm, seed, from, req.Target, interactionIgnore(req))
	if err != nil {
		return nil, err
	}
	if len(plan.Interaction) == 0 {
		return nil, failure.NewPlanningError(req.Primitive, req.Object, failure.PhaseInteraction, errPlannerFailed)
	}
	return plan, nil
}

// planRetreat reverses the interaction back to where it started. The reversed path is not replanned,
// only checked again.
func (p *ArmPlanner) planRetreat(ctx context.Context, req InteractionRequest, plan *InteractionPlan) error {
	var start ArmWaypoint
	if len(plan.PreApproach) > 0 {
		start = plan.PreApproach.Last()
	} else {
		pose, err := p.kin.EndEffectorPose(ctx, req.Arm, req.Seed)
		if err != nil {
			return err
		}
		start = ArmWaypoint{Inputs: req.Seed, Pose: pose}
	}
	// drop the contact waypoint, the hand is already there
	retreat := append(ArmPath{start}, plan.Interaction[:len(plan.Interaction)-1]...).Reversed()

	ok, err := p.revalidate(ctx, req.Arm, retreat, interactionIgnore(req))
	if err != nil {
		return err
	}
	if !ok {
		return failure.NewPlanningError(req.Primitive, req.Object, failure.PhaseRetreat, errPlannerFailed)
	}
	plan.Retreat = retreat
	return nil
}

// interactionIgnore is the ignore set while the hand is at or next to the object, and for anything
// already held.
func interactionIgnore(req InteractionRequest) collision.IgnoreSet {
	return req.Ignore.With(req.Object, req.Held)
}
