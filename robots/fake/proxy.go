package fake

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/primitives/collision"
	"go.viam.com/primitives/host"
	"go.viam.com/primitives/referenceframe"
)

// proxy moves the robot itself for collision checks, the way a simulator proxy body would be moved.
type proxy struct {
	w *World
}

type proxyState struct {
	base referenceframe.BaseWaypoint
	arm  [3]float64
	held string
}

func (p *proxy) Save(ctx context.Context) (collision.ProxyState, error) {
	w := p.w
	w.mu.Lock()
	defer w.mu.Unlock()
	return proxyState{base: w.base, arm: [3]float64{w.arm.X, w.arm.Y, w.arm.Z}, held: w.held}, nil
}

func (p *proxy) MoveTo(ctx context.Context, c collision.Candidate) error {
	w := p.w
	w.mu.Lock()
	defer w.mu.Unlock()
	switch c.Group {
	case host.BaseGroup:
		wp, err := referenceframe.BaseWaypointFromInputs(c.Inputs)
		if err != nil {
			return err
		}
		w.base = wp
	case host.ArmGroup(w.cfg.Arm):
		if len(c.Inputs) != 3 {
			return referenceframe.NewIncorrectDoFError(len(c.Inputs), 3)
		}
		w.arm = armPosition(c.Inputs)
	default:
		return errors.Errorf("proxy cannot move group %q", c.Group)
	}
	return w.carryHeld()
}

// InCollision checks the base footprint and the hand against every object that is neither ignored
// nor held.
func (p *proxy) InCollision(ctx context.Context, ignore collision.IgnoreSet) (bool, error) {
	w := p.w
	w.mu.Lock()
	defer w.mu.Unlock()
	base, err := w.baseGeometry(w.base)
	if err != nil {
		return false, err
	}
	hand, err := w.handGeometry(w.base, w.arm)
	if err != nil {
		return false, err
	}
	for _, id := range w.order {
		if id == w.held || ignore.Contains(id) {
			continue
		}
		g, err := w.objects[id].geometry()
		if err != nil {
			return false, err
		}
		if hit, err := base.CollidesWith(g, 0); err != nil || hit {
			return hit, err
		}
		if hit, err := hand.CollidesWith(g, 0); err != nil || hit {
			return hit, err
		}
	}
	return false, nil
}

func (p *proxy) Restore(ctx context.Context, state collision.ProxyState) error {
	s, ok := state.(proxyState)
	if !ok {
		return errors.Errorf("cannot restore the fake robot from a %T", state)
	}
	w := p.w
	w.mu.Lock()
	defer w.mu.Unlock()
	w.base = s.base
	w.arm.X, w.arm.Y, w.arm.Z = s.arm[0], s.arm[1], s.arm[2]
	w.held = s.held
	return w.carryHeld()
}
