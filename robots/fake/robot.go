package fake

import (
	"context"

	"github.com/samber/lo"

	"go.viam.com/primitives/host"
	"go.viam.com/primitives/referenceframe"
)

// command layout: base x y yaw, arm x y z, gripper, camera pan velocity
const actionDim = 8

type robot struct {
	w *World
}

func (r *robot) Name() string {
	return r.w.cfg.Name
}

func (r *robot) Controllers() []host.Controller {
	baseMode := lo.Ternary(r.w.cfg.VelocityBase, host.VelocityControl, host.PositionControl)
	return []host.Controller{
		{Name: host.BaseGroup, Kind: host.JointController, Mode: baseMode, ActionIdx: []int{0, 1, 2}, JointIdx: []int{0, 1, 2}},
		{Name: host.ArmGroup(r.w.cfg.Arm), Kind: host.JointController, ActionIdx: []int{3, 4, 5}, JointIdx: []int{3, 4, 5}},
		{Name: host.GripperGroup(r.w.cfg.Arm), Kind: host.GripperController, ActionIdx: []int{6}, JointIdx: []int{6}},
		{Name: "camera", Kind: host.JointController, Mode: host.VelocityControl, ActionIdx: []int{7}, JointIdx: []int{7}},
	}
}

func (r *robot) ActionDim() int {
	return actionDim
}

func (r *robot) JointPositions(ctx context.Context) ([]float64, error) {
	w := r.w
	w.mu.Lock()
	defer w.mu.Unlock()
	return []float64{w.base.X, w.base.Y, w.base.Yaw, w.arm.X, w.arm.Y, w.arm.Z, w.gripperOpening(), w.camera}, nil
}

func (r *robot) FingerLength(arm string) float64 {
	return r.w.cfg.FingerLength
}

func (r *robot) TuckedInputs(arm string) []referenceframe.Input {
	return referenceframe.FloatsToInputs(r.w.cfg.Tucked[:])
}

func (r *robot) UntuckedInputs(arm string) []referenceframe.Input {
	return referenceframe.FloatsToInputs(r.w.cfg.Untucked[:])
}

func (r *robot) ArmFrame(arm string) referenceframe.Frame {
	if arm != r.w.cfg.Arm {
		return nil
	}
	return r.w.armFrame()
}
