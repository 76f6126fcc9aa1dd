package primitives

import (
	"context"

	"go.viam.com/primitives/collision"
	"go.viam.com/primitives/host"
	"go.viam.com/primitives/logging"
	"go.viam.com/primitives/motionplan"
	"go.viam.com/primitives/referenceframe"
)

// BasePlanner plans base motions. *motionplan.BasePlanner implements it.
type BasePlanner interface {
	PlanBase(ctx context.Context, start, goal referenceframe.BaseWaypoint, ignore collision.IgnoreSet) (motionplan.BasePath, error)
}

// ArmPlanner plans end effector interactions. *motionplan.ArmPlanner implements it.
type ArmPlanner interface {
	PlanPick(ctx context.Context, req motionplan.InteractionRequest) (*motionplan.InteractionPlan, error)
	PlanPlace(ctx context.Context, req motionplan.InteractionRequest) (*motionplan.InteractionPlan, error)
	PlanToggle(ctx context.Context, req motionplan.InteractionRequest) (*motionplan.InteractionPlan, error)
	PlanPull(ctx context.Context, req motionplan.InteractionRequest) (*motionplan.InteractionPlan, error)
	Options() *motionplan.PlannerOptions
}

// Planners are the planners a Dispatcher plans with.
type Planners struct {
	Base BasePlanner
	Arm  ArmPlanner
}

// NewPlanners builds base and arm planners checking validity against the host's collision proxy. The
// base moves within baseFrame.
func NewPlanners(
	h host.Host,
	baseFrame referenceframe.Frame,
	opts *motionplan.PlannerOptions,
	logger logging.Logger,
) (Planners, error) {
	oracle := collision.NewProxyOracle(h.Proxy(), logger.Sublogger("collision"))
	base, err := motionplan.NewBasePlanner(baseFrame, host.BaseGroup, oracle, opts, logger.Sublogger("base_planner"))
	if err != nil {
		return Planners{}, err
	}
	arm, err := motionplan.NewArmPlanner(h.Robot(), h, oracle, opts, logger.Sublogger("arm_planner"))
	if err != nil {
		return Planners{}, err
	}
	return Planners{Base: base, Arm: arm}, nil
}
