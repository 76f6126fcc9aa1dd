package inject

import (
	"context"

	"go.viam.com/primitives/collision"
	"go.viam.com/primitives/host"
	"go.viam.com/primitives/referenceframe"
	"go.viam.com/primitives/spatialmath"
)

// Host is an injected host.
type Host struct {
	host.Host
	PoseFunc                func(ctx context.Context, objectID string) (spatialmath.Pose, error)
	ContactsFunc            func(ctx context.Context, bodyID string) ([]collision.Contact, error)
	EndEffectorContactsFunc func(ctx context.Context, arm string) ([]collision.Contact, error)
	StepFunc                func(ctx context.Context) error
	ApplyFunc               func(ctx context.Context, cmd host.Command) error
	HeldObjectFunc          func(ctx context.Context, arm string) (string, bool, error)
	SolveFunc               func(
		ctx context.Context,
		arm string,
		target spatialmath.Pose,
		seed []referenceframe.Input,
	) ([]referenceframe.Input, error)
	EndEffectorPoseFunc  func(ctx context.Context, arm string, inputs []referenceframe.Input) (spatialmath.Pose, error)
	SetArmInputsFunc     func(ctx context.Context, arm string, inputs []referenceframe.Input) error
	SetBasePoseFunc      func(ctx context.Context, w referenceframe.BaseWaypoint) error
	JointLimitsFunc      func(ctx context.Context, objectID string) (referenceframe.Limit, error)
	SetJointPositionFunc func(ctx context.Context, objectID string, value float64) error
	RobotFunc            func() host.Robot
	ProxyFunc            func() collision.Proxy
}

// Pose calls the injected Pose or the real version.
func (h *Host) Pose(ctx context.Context, objectID string) (spatialmath.Pose, error) {
	if h.PoseFunc == nil {
		return h.Host.Pose(ctx, objectID)
	}
	return h.PoseFunc(ctx, objectID)
}

// Contacts calls the injected Contacts or the real version.
func (h *Host) Contacts(ctx context.Context, bodyID string) ([]collision.Contact, error) {
	if h.ContactsFunc == nil {
		return h.Host.Contacts(ctx, bodyID)
	}
	return h.ContactsFunc(ctx, bodyID)
}

// EndEffectorContacts calls the injected EndEffectorContacts or the real version.
func (h *Host) EndEffectorContacts(ctx context.Context, arm string) ([]collision.Contact, error) {
	if h.EndEffectorContactsFunc == nil {
		return h.Host.EndEffectorContacts(ctx, arm)
	}
	return h.EndEffectorContactsFunc(ctx, arm)
}

// Step calls the injected Step or the real version.
func (h *Host) Step(ctx context.Context) error {
	if h.StepFunc == nil {
		return h.Host.Step(ctx)
	}
	return h.StepFunc(ctx)
}

// Apply calls the injected Apply or the real version.
func (h *Host) Apply(ctx context.Context, cmd host.Command) error {
	if h.ApplyFunc == nil {
		return h.Host.Apply(ctx, cmd)
	}
	return h.ApplyFunc(ctx, cmd)
}

// HeldObject calls the injected HeldObject or the real version.
func (h *Host) HeldObject(ctx context.Context, arm string) (string, bool, error) {
	if h.HeldObjectFunc == nil {
		return h.Host.HeldObject(ctx, arm)
	}
	return h.HeldObjectFunc(ctx, arm)
}

// Solve calls the injected Solve or the real version.
func (h *Host) Solve(
	ctx context.Context,
	arm string,
	target spatialmath.Pose,
	seed []referenceframe.Input,
) ([]referenceframe.Input, error) {
	if h.SolveFunc == nil {
		return h.Host.Solve(ctx, arm, target, seed)
	}
	return h.SolveFunc(ctx, arm, target, seed)
}

// EndEffectorPose calls the injected EndEffectorPose or the real version.
func (h *Host) EndEffectorPose(ctx context.Context, arm string, inputs []referenceframe.Input) (spatialmath.Pose, error) {
	if h.EndEffectorPoseFunc == nil {
		return h.Host.EndEffectorPose(ctx, arm, inputs)
	}
	return h.EndEffectorPoseFunc(ctx, arm, inputs)
}

// SetArmInputs calls the injected SetArmInputs or the real version.
func (h *Host) SetArmInputs(ctx context.Context, arm string, inputs []referenceframe.Input) error {
	if h.SetArmInputsFunc == nil {
		return h.Host.SetArmInputs(ctx, arm, inputs)
	}
	return h.SetArmInputsFunc(ctx, arm, inputs)
}

// SetBasePose calls the injected SetBasePose or the real version.
func (h *Host) SetBasePose(ctx context.Context, w referenceframe.BaseWaypoint) error {
	if h.SetBasePoseFunc == nil {
		return h.Host.SetBasePose(ctx, w)
	}
	return h.SetBasePoseFunc(ctx, w)
}

// JointLimits calls the injected JointLimits or the real version.
func (h *Host) JointLimits(ctx context.Context, objectID string) (referenceframe.Limit, error) {
	if h.JointLimitsFunc == nil {
		return h.Host.JointLimits(ctx, objectID)
	}
	return h.JointLimitsFunc(ctx, objectID)
}

// SetJointPosition calls the injected SetJointPosition or the real version.
func (h *Host) SetJointPosition(ctx context.Context, objectID string, value float64) error {
	if h.SetJointPositionFunc == nil {
		return h.Host.SetJointPosition(ctx, objectID, value)
	}
	return h.SetJointPositionFunc(ctx, objectID, value)
}

// Robot calls the injected Robot or the real version.
func (h *Host) Robot() host.Robot {
	if h.RobotFunc == nil {
		return h.Host.Robot()
	}
	return h.RobotFunc()
}

// Proxy calls the injected Proxy or the real version.
func (h *Host) Proxy() collision.Proxy {
	if h.ProxyFunc == nil {
		return h.Host.Proxy()
	}
	return h.ProxyFunc()
}
