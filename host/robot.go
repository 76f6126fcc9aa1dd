package host

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/primitives/referenceframe"
)

// ControllerKind is the kind of a controller in the robot's command layout.
type ControllerKind int

// Controller kinds.
const (
	JointController ControllerKind = iota
	GripperController
	EndEffectorController
	NullController
)

func (k ControllerKind) String() string {
	switch k {
	case JointController:
		return "joint"
	case GripperController:
		return "gripper"
	case EndEffectorController:
		return "end_effector"
	case NullController:
		return "null"
	}
	return fmt.Sprintf("ControllerKind(%d)", int(k))
}

// ControlMode is what a controller's command values mean.
type ControlMode int

// Control modes.
const (
	PositionControl ControlMode = iota
	VelocityControl
	TorqueControl
)

func (m ControlMode) String() string {
	switch m {
	case PositionControl:
		return "position"
	case VelocityControl:
		return "velocity"
	case TorqueControl:
		return "torque"
	}
	return fmt.Sprintf("ControlMode(%d)", int(m))
}

// Controller describes one slice of the command vector. ActionIdx indexes the command vector and
// JointIdx the robot's joint position vector.
type Controller struct {
	Name      string
	Kind      ControllerKind
	Mode      ControlMode
	Delta     bool
	ActionIdx []int
	JointIdx  []int
}

// HoldsAbsolutePosition reports whether the controller is a joint controller commanded with
// absolute positions, the kind that holds still by repeating the current joint positions.
func (c Controller) HoldsAbsolutePosition() bool {
	return c.Kind == JointController && c.Mode == PositionControl && !c.Delta
}

// Robot describes the controlled robot.
type Robot interface {
	// Name is the robot's body id.
	Name() string
	// Controllers returns the command layout, in order.
	Controllers() []Controller
	ActionDim() int
	JointPositions(ctx context.Context) ([]float64, error)
	FingerLength(arm string) float64
	TuckedInputs(arm string) []referenceframe.Input
	UntuckedInputs(arm string) []referenceframe.Input
	ArmFrame(arm string) referenceframe.Frame
}

// ArmGroup is the controller name of an arm.
func ArmGroup(arm string) string {
	return "arm_" + arm
}

// GripperGroup is the controller name of an arm's gripper.
func GripperGroup(arm string) string {
	return "gripper_" + arm
}

// BaseGroup is the controller name of the mobile base.
const BaseGroup = "base"

// FindController returns the named controller.
func FindController(r Robot, name string) (Controller, error) {
	c, ok := lo.Find(r.Controllers(), func(c Controller) bool { return c.Name == name })
	if !ok {
		return Controller{}, errors.Errorf("robot %q has no controller %q", r.Name(), name)
	}
	return c, nil
}

// GroupInputs reads the current joint positions of the named controller.
func GroupInputs(ctx context.Context, r Robot, name string) ([]referenceframe.Input, error) {
	c, err := FindController(r, name)
	if err != nil {
		return nil, err
	}
	joints, err := r.JointPositions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]referenceframe.Input, 0, len(c.JointIdx))
	for _, idx := range c.JointIdx {
		if idx < 0 || idx >= len(joints) {
			return nil, errors.Errorf("controller %q joint index %d out of range", name, idx)
		}
		out = append(out, referenceframe.Input{Value: joints[idx]})
	}
	return out, nil
}
