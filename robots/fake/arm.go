package fake

import (
	"context"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/primitives/host"
	"go.viam.com/primitives/referenceframe"
	"go.viam.com/primitives/spatialmath"
)

// Solve implements host.Kinematics. The arm reaches any point within Reach of the base axis,
// horizontally, and between the floor and MaxHeight. Orientation is not controlled.
func (w *World) Solve(
	ctx context.Context,
	arm string,
	target spatialmath.Pose,
	seed []referenceframe.Input,
) ([]referenceframe.Input, error) {
	if err := w.checkArm(arm); err != nil {
		return nil, err
	}
	if err := spatialmath.ValidatePose(target); err != nil {
		return nil, err
	}
	w.mu.Lock()
	base := w.base
	w.mu.Unlock()

	local := spatialmath.PoseBetween(base.Pose(), target).Point()
	if math.Hypot(local.X, local.Y) > w.cfg.Reach || local.Z < 0 || local.Z > w.cfg.MaxHeight {
		return nil, host.ErrNoIKSolution
	}
	return referenceframe.FloatsToInputs([]float64{local.X, local.Y, local.Z}), nil
}

// EndEffectorPose implements host.Kinematics.
func (w *World) EndEffectorPose(ctx context.Context, arm string, inputs []referenceframe.Input) (spatialmath.Pose, error) {
	if err := w.checkArm(arm); err != nil {
		return nil, err
	}
	if len(inputs) != 3 {
		return nil, referenceframe.NewIncorrectDoFError(len(inputs), 3)
	}
	w.mu.Lock()
	base := w.base
	w.mu.Unlock()
	return w.handPose(base, armPosition(inputs))
}

// SetArmInputs implements host.ArmTeleporter.
func (w *World) SetArmInputs(ctx context.Context, arm string, inputs []referenceframe.Input) error {
	if err := w.checkArm(arm); err != nil {
		return err
	}
	if err := referenceframe.CheckInputs(w.armFrame(), inputs); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.arm = armPosition(inputs)
	w.pending = nil
	return w.carryHeld()
}

func (w *World) armFrame() referenceframe.Frame {
	return referenceframe.NewFrame(host.ArmGroup(w.cfg.Arm), []referenceframe.Limit{
		{Min: -w.cfg.Reach, Max: w.cfg.Reach},
		{Min: -w.cfg.Reach, Max: w.cfg.Reach},
		{Min: 0, Max: w.cfg.MaxHeight},
	})
}

func armPosition(inputs []referenceframe.Input) r3.Vector {
	return r3.Vector{X: inputs[0].Value, Y: inputs[1].Value, Z: inputs[2].Value}
}

// handPose places the hand at the arm position in the frame of base.
func (w *World) handPose(base referenceframe.BaseWaypoint, arm r3.Vector) (spatialmath.Pose, error) {
	pose := spatialmath.Compose(base.Pose(), spatialmath.NewPoseFromPoint(arm))
	if err := spatialmath.ValidatePose(pose); err != nil {
		return nil, err
	}
	return pose, nil
}

func (w *World) handGeometry(base referenceframe.BaseWaypoint, arm r3.Vector) (spatialmath.Geometry, error) {
	pose, err := w.handPose(base, arm)
	if err != nil {
		return nil, err
	}
	return spatialmath.NewSphere(pose, w.cfg.HandRadius, w.fingerBody())
}
