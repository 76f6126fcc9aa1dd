package inject

import (
	"context"

	"go.viam.com/primitives/host"
	"go.viam.com/primitives/referenceframe"
	"go.viam.com/primitives/spatialmath"
)

// Kinematics is an injected kinematics solver.
type Kinematics struct {
	host.Kinematics
	SolveFunc func(
		ctx context.Context,
		arm string,
		target spatialmath.Pose,
		seed []referenceframe.Input,
	) ([]referenceframe.Input, error)
	EndEffectorPoseFunc func(ctx context.Context, arm string, inputs []referenceframe.Input) (spatialmath.Pose, error)
}

// Solve calls the injected Solve or the real version.
func (k *Kinematics) Solve(
	ctx context.Context,
	arm string,
	target spatialmath.Pose,
	seed []referenceframe.Input,
) ([]referenceframe.Input, error) {
	if k.SolveFunc == nil {
		return k.Kinematics.Solve(ctx, arm, target, seed)
	}
	return k.SolveFunc(ctx, arm, target, seed)
}

// EndEffectorPose calls the injected EndEffectorPose or the real version.
func (k *Kinematics) EndEffectorPose(ctx context.Context, arm string, inputs []referenceframe.Input) (spatialmath.Pose, error) {
	if k.EndEffectorPoseFunc == nil {
		return k.Kinematics.EndEffectorPose(ctx, arm, inputs)
	}
	return k.EndEffectorPoseFunc(ctx, arm, inputs)
}
