// Package host declares the contracts the planning and execution core needs from the simulator or
// robot it runs against: poses, contacts, stepping, actuation, grasp state and kinematics.
package host

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/primitives/collision"
	"go.viam.com/primitives/referenceframe"
	"go.viam.com/primitives/spatialmath"
)

// ErrNoIKSolution is returned by Kinematics.Solve when the target pose is unreachable.
var ErrNoIKSolution = errors.New("no inverse kinematics solution")

// Command is one full body actuator command. Action is laid out as described by Robot.Controllers.
type Command struct {
	Action []float64
}

// PoseSource reads current world poses. Poses are read fresh on every call.
type PoseSource interface {
	Pose(ctx context.Context, objectID string) (spatialmath.Pose, error)
}

// ContactQuery reports current contacts.
type ContactQuery interface {
	Contacts(ctx context.Context, bodyID string) ([]collision.Contact, error)
	// EndEffectorContacts returns contacts on the fingers of the given arm.
	EndEffectorContacts(ctx context.Context, arm string) ([]collision.Contact, error)
}

// Stepper advances the simulation by one tick.
type Stepper interface {
	Step(ctx context.Context) error
}

// CommandSink applies an actuator command.
type CommandSink interface {
	Apply(ctx context.Context, cmd Command) error
}

// GraspQuery reports which object, if any, an arm is holding.
type GraspQuery interface {
	HeldObject(ctx context.Context, arm string) (string, bool, error)
}

// Kinematics solves inverse and forward kinematics for an arm's joint group.
type Kinematics interface {
	Solve(ctx context.Context, arm string, target spatialmath.Pose, seed []referenceframe.Input) ([]referenceframe.Input, error)
	EndEffectorPose(ctx context.Context, arm string, inputs []referenceframe.Input) (spatialmath.Pose, error)
}

// ArmTeleporter sets an arm's joints directly, bypassing control.
type ArmTeleporter interface {
	SetArmInputs(ctx context.Context, arm string, inputs []referenceframe.Input) error
}

// BaseTeleporter places the base directly, bypassing control.
type BaseTeleporter interface {
	SetBasePose(ctx context.Context, w referenceframe.BaseWaypoint) error
}

// Articulation reads and sets the single articulated joint of an object, e.g. a cabinet door.
type Articulation interface {
	JointLimits(ctx context.Context, objectID string) (referenceframe.Limit, error)
	SetJointPosition(ctx context.Context, objectID string, value float64) error
}

// Host bundles every contract the dispatcher uses.
type Host interface {
	PoseSource
	ContactQuery
	Stepper
	CommandSink
	GraspQuery
	Kinematics
	ArmTeleporter
	BaseTeleporter
	Articulation
	Robot() Robot
	Proxy() collision.Proxy
}
