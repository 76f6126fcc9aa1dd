// Package execution turns planned paths into a stream of full body actuator commands, one per
// simulation tick, and tracks what the hand is holding.
package execution

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/primitives/collision"
	"go.viam.com/primitives/host"
	"go.viam.com/primitives/logging"
	"go.viam.com/primitives/referenceframe"
)

// default values for executor options.
const (
	defaultGraspSteps         = 9
	defaultFastGraspSteps     = 5
	defaultGraspSettleSteps   = 10
	defaultRetreatSettleSteps = 5
	defaultNavSettleSteps     = 10
)

// Options tune how many ticks each phase takes.
type Options struct {
	// Number of closing (or opening) gripper commands sent before checking the hand.
	GraspSteps     int `json:"grasp_steps"`
	FastGraspSteps int `json:"fast_grasp_steps"`
	FastExecution  bool `json:"fast_execution"`

	// Host steps taken after a grasp, after a retreat and after navigating.
	GraspSettleSteps   int `json:"grasp_settle_steps"`
	RetreatSettleSteps int `json:"retreat_settle_steps"`
	NavSettleSteps     int `json:"nav_settle_steps"`
}

// DefaultOptions returns the default executor options.
func DefaultOptions() Options {
	return Options{
		GraspSteps:         defaultGraspSteps,
		FastGraspSteps:     defaultFastGraspSteps,
		GraspSettleSteps:   defaultGraspSettleSteps,
		RetreatSettleSteps: defaultRetreatSettleSteps,
		NavSettleSteps:     defaultNavSettleSteps,
	}
}

// Validate returns every problem with the options.
func (o Options) Validate() error {
	var err error
	for name, v := range map[string]int{
		"grasp_steps":          o.GraspSteps,
		"fast_grasp_steps":     o.FastGraspSteps,
		"grasp_settle_steps":   o.GraspSettleSteps,
		"retreat_settle_steps": o.RetreatSettleSteps,
		"nav_settle_steps":     o.NavSettleSteps,
	} {
		if v < 0 {
			err = multierr.Append(err, errors.Errorf("%s must not be negative, got %d", name, v))
		}
	}
	if o.GraspSteps == 0 {
		err = multierr.Append(err, errors.New("grasp_steps must be positive"))
	}
	return err
}

func (o Options) graspSteps() int {
	if o.FastExecution && o.FastGraspSteps > 0 {
		return o.FastGraspSteps
	}
	return o.GraspSteps
}

// Executor builds command streams for one arm of a robot and owns that arm's grasp state.
type Executor struct {
	host   host.Host
	robot  host.Robot
	arm    string
	opts   Options
	logger logging.Logger

	grasping bool
	held     string
}

// NewExecutor returns an executor driving arm on h.
func NewExecutor(h host.Host, arm string, opts Options, logger logging.Logger) (*Executor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	robot := h.Robot()
	if _, err := host.FindController(robot, host.ArmGroup(arm)); err != nil {
		return nil, err
	}
	return &Executor{host: h, robot: robot, arm: arm, opts: opts, logger: logger}, nil
}

// Arm returns the name of the arm this executor drives.
func (e *Executor) Arm() string {
	return e.arm
}

// Options returns the executor's options.
func (e *Executor) Options() Options {
	return e.opts
}

// IsGrasping reports whether the executor believes the hand is holding an object.
func (e *Executor) IsGrasping() bool {
	return e.grasping
}

// HeldObject returns the id of the object in hand, or "" when empty.
func (e *Executor) HeldObject() string {
	return e.held
}

// SyncGraspState mirrors the grasp state from the host.
func (e *Executor) SyncGraspState(ctx context.Context) error {
	held, ok, err := e.host.HeldObject(ctx, e.arm)
	if err != nil {
		return err
	}
	e.grasping, e.held = ok, lo.Ternary(ok, held, "")
	return nil
}

// StillAction returns the command that keeps the robot where it is: every absolute position joint
// controller repeats the current joint positions, everything else is zero, and the gripper keeps
// closing while an object is held.
func (e *Executor) StillAction(ctx context.Context) (host.Command, error) {
	joints, err := e.robot.JointPositions(ctx)
	if err != nil {
		return host.Command{}, err
	}
	action := make([]float64, e.robot.ActionDim())
	for _, c := range e.robot.Controllers() {
		if !c.HoldsAbsolutePosition() {
			continue
		}
		if len(c.ActionIdx) != len(c.JointIdx) {
			return host.Command{}, errors.Errorf("controller %q maps %d actions to %d joints", c.Name, len(c.ActionIdx), len(c.JointIdx))
		}
		for i, aIdx := range c.ActionIdx {
			jIdx := c.JointIdx[i]
			if aIdx >= len(action) || jIdx >= len(joints) {
				return host.Command{}, errors.Errorf("controller %q index out of range", c.Name)
			}
			action[aIdx] = joints[jIdx]
		}
	}
	cmd := host.Command{Action: action}
	if e.grasping {
		if err := e.setGripper(cmd, -1); err != nil {
			return host.Command{}, err
		}
	}
	return cmd, nil
}

func (e *Executor) setGripper(cmd host.Command, value float64) error {
	c, err := host.FindController(e.robot, host.GripperGroup(e.arm))
	if err != nil {
		return err
	}
	for _, idx := range c.ActionIdx {
		cmd.Action[idx] = value
	}
	return nil
}

// setGroup writes inputs into the action slice of the named controller.
func (e *Executor) setGroup(cmd host.Command, group string, inputs []referenceframe.Input) error {
	c, err := host.FindController(e.robot, group)
	if err != nil {
		return err
	}
	if len(c.ActionIdx) != len(inputs) {
		return referenceframe.NewIncorrectDoFError(len(inputs), len(c.ActionIdx))
	}
	for i, idx := range c.ActionIdx {
		cmd.Action[idx] = inputs[i].Value
	}
	return nil
}

// canStreamBase reports whether the base takes absolute position commands.
func (e *Executor) canStreamBase() bool {
	c, err := host.FindController(e.robot, host.BaseGroup)
	return err == nil && c.HoldsAbsolutePosition()
}

func (e *Executor) endEffectorContacts(ctx context.Context, ignore collision.IgnoreSet) ([]collision.Contact, error) {
	contacts, err := e.host.EndEffectorContacts(ctx, e.arm)
	if err != nil {
		return nil, err
	}
	return collision.FilterContacts(contacts, ignore), nil
}

func copyCommand(cmd host.Command) host.Command {
	return host.Command{Action: append([]float64{}, cmd.Action...)}
}
