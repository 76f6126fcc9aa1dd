// Package inject provides structs of injectable functions wrapping the host and collision
// contracts. Each method calls the injected function when set and the embedded implementation
// otherwise.
package inject

import (
	"context"

	"go.viam.com/primitives/host"
	"go.viam.com/primitives/referenceframe"
)

// Robot is an injected robot.
type Robot struct {
	host.Robot
	NameFunc           func() string
	ControllersFunc    func() []host.Controller
	ActionDimFunc      func() int
	JointPositionsFunc func(ctx context.Context) ([]float64, error)
	FingerLengthFunc   func(arm string) float64
	TuckedInputsFunc   func(arm string) []referenceframe.Input
	UntuckedInputsFunc func(arm string) []referenceframe.Input
	ArmFrameFunc       func(arm string) referenceframe.Frame
}

// Name calls the injected Name or the real version.
func (r *Robot) Name() string {
	if r.NameFunc == nil {
		return r.Robot.Name()
	}
	return r.NameFunc()
}

// Controllers calls the injected Controllers or the real version.
func (r *Robot) Controllers() []host.Controller {
	if r.ControllersFunc == nil {
		return r.Robot.Controllers()
	}
	return r.ControllersFunc()
}

// ActionDim calls the injected ActionDim or the real version.
func (r *Robot) ActionDim() int {
	if r.ActionDimFunc == nil {
		return r.Robot.ActionDim()
	}
	return r.ActionDimFunc()
}

// JointPositions calls the injected JointPositions or the real version.
func (r *Robot) JointPositions(ctx context.Context) ([]float64, error) {
	if r.JointPositionsFunc == nil {
		return r.Robot.JointPositions(ctx)
	}
	return r.JointPositionsFunc(ctx)
}

// FingerLength calls the injected FingerLength or the real version.
func (r *Robot) FingerLength(arm string) float64 {
	if r.FingerLengthFunc == nil {
		return r.Robot.FingerLength(arm)
	}
	return r.FingerLengthFunc(arm)
}

// TuckedInputs calls the injected TuckedInputs or the real version.
func (r *Robot) TuckedInputs(arm string) []referenceframe.Input {
	if r.TuckedInputsFunc == nil {
		return r.Robot.TuckedInputs(arm)
	}
	return r.TuckedInputsFunc(arm)
}

// UntuckedInputs calls the injected UntuckedInputs or the real version.
func (r *Robot) UntuckedInputs(arm string) []referenceframe.Input {
	if r.UntuckedInputsFunc == nil {
		return r.Robot.UntuckedInputs(arm)
	}
	return r.UntuckedInputsFunc(arm)
}

// ArmFrame calls the injected ArmFrame or the real version.
func (r *Robot) ArmFrame(arm string) referenceframe.Frame {
	if r.ArmFrameFunc == nil {
		return r.Robot.ArmFrame(arm)
	}
	return r.ArmFrameFunc(arm)
}
