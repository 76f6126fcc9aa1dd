package primitives

import (
	"context"
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/primitives/execution"
	"go.viam.com/primitives/failure"
	"go.viam.com/primitives/host"
	"go.viam.com/primitives/motionplan"
	"go.viam.com/primitives/referenceframe"
	"go.viam.com/primitives/spatialmath"
	"go.viam.com/primitives/utils"
)

// number of still commands after the arm is tucked away
const tuckStillSteps = 5

// number of still commands while an object drops from an open hand
const dropStillSteps = 10

// pullOrientation is the hand orientation for grasping a handle.
var pullOrientation = &spatialmath.EulerAngles{Roll: math.Pi / 2}

// armTarget computes the end effector contact pose for an arm primitive from its (dx, dy, dz) offset
// in the object's frame. Offsets with a fourth value are robot agnostic: they locate the fingertips,
// so the hand stops a finger length short along the approach direction.
func (d *Dispatcher) armTarget(
	ctx context.Context,
	req request,
	seed []referenceframe.Input,
	dir r3.Vector,
	o spatialmath.Orientation,
) (spatialmath.Pose, error) {
	if len(req.params) < 3 {
		return nil, failure.NewPreConditionError(req.prim.String(), req.object, failure.PhaseDispatch,
			fmt.Sprintf("%s offsets need at least (dx, dy, dz), got %v", req.prim, req.params))
	}
	objPose, err := d.host.Pose(ctx, req.object)
	if err != nil {
		return nil, hostFailure(req, failure.PhaseDispatch, err)
	}
	pos, err := spatialmath.ApplyOffset(objPose, r3.Vector{X: req.params[0], Y: req.params[1], Z: req.params[2]})
	if err != nil {
		return nil, err
	}
	if len(req.params) > 3 {
		unit, err := spatialmath.UnitDirection(dir)
		if err != nil {
			return nil, err
		}
		pos = pos.Sub(unit.Mul(d.robot.FingerLength(d.exec.Arm())))
	}
	if o == nil {
		current, err := d.host.EndEffectorPose(ctx, d.exec.Arm(), seed)
		if err != nil {
			return nil, hostFailure(req, failure.PhaseDispatch, err)
		}
		o = current.Orientation()
	}
	return spatialmath.NewPose(pos, o), nil
}

func (d *Dispatcher) armInputs(ctx context.Context, req request) ([]referenceframe.Input, error) {
	inputs, err := host.GroupInputs(ctx, d.robot, host.ArmGroup(d.exec.Arm()))
	if err != nil {
		return nil, hostFailure(req, failure.PhaseDispatch, err)
	}
	return inputs, nil
}

func (d *Dispatcher) planFull() bool {
	return d.arm.Options().PlanFullPreApproach
}

// moveArm gets the arm to the end of path: along the whole path when arm motion is planned in full,
// otherwise by setting the final configuration directly and holding it for one tick.
func (d *Dispatcher) moveArm(s *execution.Stream, state execution.State, path motionplan.ArmPath, grasping bool) {
	if len(path) == 0 {
		return
	}
	if d.planFull() {
		s.ArmPath(state, path, execution.PathOptions{WhileGrasping: grasping})
		return
	}
	s.TeleportArm(state, path.Last().Inputs).Still(1)
}

// returnArm brings the arm back from the pre-approach standoff: back along the pre-approach path to
// seed when arm motion is planned in full, otherwise straight to fallback.
func (d *Dispatcher) returnArm(
	ctx context.Context,
	s *execution.Stream,
	req request,
	plan *motionplan.InteractionPlan,
	seed, fallback []referenceframe.Input,
	grasping bool,
) error {
	if !d.planFull() {
		s.TeleportArm(execution.StateRetreating, fallback)
		return nil
	}
	if len(plan.PreApproach) == 0 {
		return nil
	}
	pose, err := d.host.EndEffectorPose(ctx, d.exec.Arm(), seed)
	if err != nil {
		return hostFailure(req, failure.PhaseRetreat, err)
	}
	back := append(plan.PreApproach[:len(plan.PreApproach)-1].Reversed(), motionplan.ArmWaypoint{Inputs: seed, Pose: pose})
	s.ArmPath(execution.StateRetreating, back, execution.PathOptions{WhileGrasping: grasping})
	return nil
}

// pick approaches the object from above, closes the hand on it and lifts it away. Picking the object
// already in hand is a no-op; picking with anything else in hand is refused.
func (d *Dispatcher) pick(ctx context.Context, s *execution.Stream, req request) error {
	if d.exec.IsGrasping() {
		if held := d.exec.HeldObject(); held != req.object {
			return failure.NewPreConditionError(req.prim.String(), req.object, failure.PhaseDispatch,
				fmt.Sprintf("hand is already holding %s", held))
		}
		d.logger.Warnw("already grasping object, skipping pick", "execution_id", s.ID(), "object", req.object)
		s.Call(execution.StateGrasping, func(context.Context) error { return nil }).Still(1)
		return nil
	}

	seed, err := d.armInputs(ctx, req)
	if err != nil {
		return err
	}
	target, err := d.armTarget(ctx, req, seed, motionplan.DefaultDirection, nil)
	if err != nil {
		return err
	}
	plan, err := d.arm.PlanPick(ctx, motionplan.InteractionRequest{
		Primitive: req.prim.String(),
		Object:    req.object,
		Arm:       d.exec.Arm(),
		Seed:      seed,
		Target:    target,
		Direction: motionplan.DefaultDirection,
		Distance:  d.cfg.Dispatch.PreGraspDistance,
	})
	if err != nil {
		return err
	}

	opts := d.exec.Options()
	d.moveArm(s, execution.StatePreApproach, plan.PreApproach, false)
	s.ArmPath(execution.StateInteracting, plan.Interaction, execution.PathOptions{StopOnContact: true})
	s.Grasp().Settle(opts.GraspSettleSteps)
	s.ArmPath(execution.StateRetreating, plan.Retreat, execution.PathOptions{WhileGrasping: true})
	s.Settle(opts.RetreatSettleSteps)
	if err := d.returnArm(ctx, s, req, plan, seed, d.robot.TuckedInputs(d.exec.Arm()), true); err != nil {
		return err
	}
	s.Still(tuckStillSteps)
	return nil
}

// place puts the held object down. When arm motion is planned in full the object is lowered onto the
// offset pose and released there; otherwise it is dropped from the untucked arm.
func (d *Dispatcher) place(ctx context.Context, s *execution.Stream, req request) error {
	held := d.exec.HeldObject()
	if !d.exec.IsGrasping() {
		return failure.NewPreConditionError(req.prim.String(), req.object, failure.PhaseDispatch, "nothing in hand to place")
	}
	arm := d.exec.Arm()
	if !d.planFull() {
		s.TeleportArm(execution.StatePreApproach, d.robot.UntuckedInputs(arm)).Still(1)
		s.Ungrasp().Still(dropStillSteps)
		s.TeleportArm(execution.StateRetreating, d.robot.TuckedInputs(arm)).Still(tuckStillSteps)
		return nil
	}

	seed, err := d.armInputs(ctx, req)
	if err != nil {
		return err
	}
	target, err := d.armTarget(ctx, req, seed, motionplan.DefaultDirection, nil)
	if err != nil {
		return err
	}
	plan, err := d.arm.PlanPlace(ctx, motionplan.InteractionRequest{
		Primitive: req.prim.String(),
		Object:    req.object,
		Arm:       arm,
		Seed:      seed,
		Target:    target,
		Direction: motionplan.DefaultDirection,
		Distance:  d.cfg.Dispatch.PlaceDistance,
		Held:      held,
	})
	if err != nil {
		return err
	}

	opts := d.exec.Options()
	d.moveArm(s, execution.StatePreApproach, plan.PreApproach, true)
	s.ArmPath(execution.StateInteracting, plan.Interaction, execution.PathOptions{WhileGrasping: true})
	s.Ungrasp().Settle(opts.GraspSettleSteps)
	s.ArmPath(execution.StateRetreating, plan.Retreat, execution.PathOptions{})
	s.Settle(opts.RetreatSettleSteps)
	if err := d.returnArm(ctx, s, req, plan, seed, d.robot.TuckedInputs(arm), false); err != nil {
		return err
	}
	s.Still(tuckStillSteps)
	return nil
}

// toggle touches the object at the offset, e.g. to press a button, and backs away.
func (d *Dispatcher) toggle(ctx context.Context, s *execution.Stream, req request) error {
	seed, err := d.armInputs(ctx, req)
	if err != nil {
		return err
	}
	dir := motionplan.DefaultDirection.Mul(-1)
	target, err := d.armTarget(ctx, req, seed, dir, nil)
	if err != nil {
		return err
	}
	plan, err := d.arm.PlanToggle(ctx, motionplan.InteractionRequest{
		Primitive: req.prim.String(),
		Object:    req.object,
		Arm:       d.exec.Arm(),
		Seed:      seed,
		Target:    target,
		Direction: dir,
		Distance:  d.cfg.Dispatch.ToggleDistance,
		Held:      d.exec.HeldObject(),
	})
	if err != nil {
		return err
	}

	grasping := d.exec.IsGrasping()
	d.moveArm(s, execution.StatePreApproach, plan.PreApproach, grasping)
	s.ArmPath(execution.StateInteracting, plan.Interaction, execution.PathOptions{StopOnContact: true, WhileGrasping: grasping})
	s.ArmPath(execution.StateRetreating, plan.Retreat, execution.PathOptions{WhileGrasping: grasping})
	if len(plan.PreApproach) > 0 {
		if err := d.returnArm(ctx, s, req, plan, seed, d.robot.UntuckedInputs(d.exec.Arm()), grasping); err != nil {
			return err
		}
	}
	s.Still(1)
	return nil
}

// snapJoint opens (pull) or closes (push) an articulated object by setting its joint directly, then
// holds still while it settles. Pulling stops short of the upper limit by the configured slack.
func (d *Dispatcher) snapJoint(ctx context.Context, s *execution.Stream, req request) error {
	limit, err := d.host.JointLimits(ctx, req.object)
	if err != nil {
		return failure.NewPreConditionError(req.prim.String(), req.object, failure.PhaseDispatch, err.Error())
	}
	value := limit.Min
	if req.prim == Pull {
		value = utils.Clamp(limit.Max-d.cfg.Dispatch.PullSlack, limit.Min, limit.Max)
	}
	s.Call(execution.StateInteracting, func(ctx context.Context) error {
		return d.host.SetJointPosition(ctx, req.object, value)
	})
	s.Still(d.cfg.Dispatch.SnapSettleSteps)
	return nil
}

// pullOpen grasps a handle and pulls it along the direction given after the position in the pull
// offsets, (dx, dy, dz, px, py, pz). The direction is in the world frame.
func (d *Dispatcher) pullOpen(ctx context.Context, s *execution.Stream, req request) error {
	if len(req.params) < 6 {
		return failure.NewPreConditionError(req.prim.String(), req.object, failure.PhaseDispatch,
			fmt.Sprintf("pull offsets need (dx, dy, dz, px, py, pz), got %v", req.params))
	}
	if d.exec.IsGrasping() {
		return failure.NewPreConditionError(req.prim.String(), req.object, failure.PhaseDispatch,
			fmt.Sprintf("hand is already holding %s", d.exec.HeldObject()))
	}
	pullDir, err := spatialmath.UnitDirection(r3.Vector{X: req.params[3], Y: req.params[4], Z: req.params[5]})
	if err != nil {
		return failure.NewPreConditionError(req.prim.String(), req.object, failure.PhaseDispatch, err.Error())
	}
	approach := pullDir.Mul(-1)

	seed, err := d.armInputs(ctx, req)
	if err != nil {
		return err
	}
	// the pull offsets locate the handle only; finger compensation does not apply
	target, err := d.armTarget(ctx, request{prim: req.prim, object: req.object, params: req.params[:3]}, seed, approach, pullOrientation)
	if err != nil {
		return err
	}
	plan, err := d.arm.PlanPull(ctx, motionplan.InteractionRequest{
		Primitive:     req.prim.String(),
		Object:        req.object,
		Arm:           d.exec.Arm(),
		Seed:          seed,
		Target:        target,
		Direction:     approach,
		Distance:      d.cfg.Dispatch.PrePullDistance,
		PullDirection: pullDir,
		PullDistance:  d.cfg.Dispatch.PullDistance,
		PullSteps:     d.cfg.Dispatch.PullSteps,
	})
	if err != nil {
		return err
	}

	d.moveArm(s, execution.StatePreApproach, plan.PreApproach, false)
	s.ArmPath(execution.StateInteracting, plan.Interaction, execution.PathOptions{StopOnContact: true})
	s.Grasp()
	s.ArmPath(execution.StatePulling, plan.Pull, execution.PathOptions{WhileGrasping: true})
	s.Ungrasp().Still(1)
	return nil
}

// dummy tucks the arm.
func (d *Dispatcher) dummy(ctx context.Context, s *execution.Stream, req request) error {
	s.TeleportArm(execution.StateIdle, d.robot.TuckedInputs(d.exec.Arm())).Still(1)
	return nil
}
