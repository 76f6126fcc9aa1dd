package referenceframe

import (
	"math"
	"math/rand"

	"go.viam.com/primitives/utils"
)

// Limit represents the limits of motion for a single input.
type Limit struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the limit.
func (l Limit) Contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

// Frame is a named set of inputs with limits: an arm joint group, or the planar pose of a mobile base.
type Frame interface {
	Name() string
	DoF() []Limit
}

type staticLimitFrame struct {
	name   string
	limits []Limit
}

// NewFrame returns a Frame with the given name and input limits.
func NewFrame(name string, limits []Limit) Frame {
	return &staticLimitFrame{name: name, limits: limits}
}

func (f *staticLimitFrame) Name() string {
	return f.name
}

func (f *staticLimitFrame) DoF() []Limit {
	return f.limits
}

// CheckInputs returns an error if inputs has the wrong length or a component outside its limit.
func CheckInputs(f Frame, inputs []Input) error {
	dof := f.DoF()
	if len(dof) != len(inputs) {
		return NewIncorrectDoFError(len(inputs), len(dof))
	}
	for i, lim := range dof {
		if !utils.IsFinite(inputs[i].Value) || !lim.Contains(inputs[i].Value) {
			return NewInputOutOfBoundsError(f.Name(), i, inputs[i].Value, lim)
		}
	}
	return nil
}

// RandomFrameInputs will produce a list of valid, in-bounds inputs for the frame.
func RandomFrameInputs(m Frame, rSeed *rand.Rand) []Input {
	if rSeed == nil {
		//nolint:gosec
		rSeed = rand.New(rand.NewSource(1))
	}
	dof := m.DoF()
	pos := make([]Input, 0, len(dof))
	for _, lim := range dof {
		l, u := lim.Min, lim.Max

		// Default to [-999,999] as range if limits are infinite
		if l == math.Inf(-1) {
			l = -999
		}
		if u == math.Inf(1) {
			u = 999
		}

		pos = append(pos, Input{utils.SampleRandomFloat(l, u, rSeed)})
	}
	return pos
}
