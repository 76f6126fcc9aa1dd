package primitives

import (
	"context"
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/primitives/collision"
	"go.viam.com/primitives/execution"
	"go.viam.com/primitives/failure"
	"go.viam.com/primitives/motionplan"
	"go.viam.com/primitives/referenceframe"
	"go.viam.com/primitives/spatialmath"
	"go.viam.com/primitives/utils"
)

// navigateTo drives the base to a pose given in the object's frame by (dx, dy, dz, yaw). The goal
// heading is the object's heading plus the offset yaw.
func (d *Dispatcher) navigateTo(ctx context.Context, s *execution.Stream, req request) error {
	path, err := d.planNavigation(ctx, req)
	if err != nil {
		return err
	}
	d.logger.CDebugw(ctx, "base path planned", "execution_id", s.ID(), "waypoints", len(path), "length", path.Length())
	s.Navigate(path).Settle(d.exec.Options().NavSettleSteps)
	return nil
}

// PlanNavigation plans the base path navigating to object would follow, without executing it.
func (d *Dispatcher) PlanNavigation(ctx context.Context, object string, variant int) (motionplan.BasePath, error) {
	params, err := d.cfg.Offsets.Lookup(NavigateTo.OffsetTable(), object, variant)
	if err != nil {
		return nil, failure.NewPreConditionError(NavigateTo.String(), object, failure.PhaseDispatch, err.Error())
	}
	if err := d.exec.SyncGraspState(ctx); err != nil {
		return nil, err
	}
	return d.planNavigation(ctx, request{prim: NavigateTo, object: object, variant: variant, params: params})
}

func (d *Dispatcher) planNavigation(ctx context.Context, req request) (motionplan.BasePath, error) {
	if len(req.params) < 3 {
		return nil, failure.NewPreConditionError(req.prim.String(), req.object, failure.PhaseDispatch,
			fmt.Sprintf("navigation offsets need at least (dx, dy, dz), got %v", req.params))
	}
	objPose, err := d.host.Pose(ctx, req.object)
	if err != nil {
		return nil, hostFailure(req, failure.PhaseNavigate, err)
	}
	if err := d.checkMoved(req, objPose.Point()); err != nil {
		return nil, err
	}

	goal, err := navigationGoal(objPose, req.params)
	if err != nil {
		return nil, failure.NewPlanningError(req.prim.String(), req.object, failure.PhaseNavigate, err)
	}
	robotPose, err := d.host.Pose(ctx, d.robot.Name())
	if err != nil {
		return nil, hostFailure(req, failure.PhaseNavigate, err)
	}
	start, err := referenceframe.BaseWaypointFromPose(robotPose)
	if err != nil {
		return nil, failure.NewPlanningError(req.prim.String(), req.object, failure.PhaseNavigate, err)
	}

	path, err := d.base.PlanBase(ctx, start, goal, collision.NewIgnoreSet(d.exec.HeldObject()))
	if err != nil {
		return nil, failure.NewPlanningError(req.prim.String(), req.object, failure.PhaseNavigate, err)
	}
	if len(path) == 0 {
		return nil, failure.NewPlanningError(req.prim.String(), req.object, failure.PhaseNavigate,
			errors.Errorf("no base path from %v to %v", start, goal))
	}
	return path, nil
}

// checkMoved rejects navigating to an object that moved farther than the configured threshold from
// where it was the first time it was navigated to.
func (d *Dispatcher) checkMoved(req request, pos r3.Vector) error {
	if !d.cfg.Dispatch.ChecksPose(req.object) {
		return nil
	}
	first, ok := d.navigated[req.object]
	if !ok {
		d.navigated[req.object] = pos
		return nil
	}
	if moved := first.Distance(pos); moved > d.cfg.Dispatch.MovedDistanceThreshold {
		return failure.NewPreConditionError(req.prim.String(), req.object, failure.PhaseNavigate, fmt.Sprintf(
			"object moved %.3f m since it was first navigated to, more than %.3f m", moved, d.cfg.Dispatch.MovedDistanceThreshold))
	}
	return nil
}

func navigationGoal(objPose spatialmath.Pose, params []float64) (referenceframe.BaseWaypoint, error) {
	pos, err := spatialmath.ApplyOffset(objPose, r3.Vector{X: params[0], Y: params[1], Z: params[2]})
	if err != nil {
		return referenceframe.BaseWaypoint{}, err
	}
	yaw, err := spatialmath.YawFromOrientation(objPose.Orientation())
	if err != nil {
		return referenceframe.BaseWaypoint{}, err
	}
	if len(params) > 3 {
		yaw += params[3]
	}
	return referenceframe.BaseWaypoint{X: pos.X, Y: pos.Y, Yaw: utils.WrapAngle(yaw)}, nil
}
