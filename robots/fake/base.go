package fake

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/primitives/referenceframe"
	"go.viam.com/primitives/spatialmath"
)

// SetBasePose implements host.BaseTeleporter.
func (w *World) SetBasePose(ctx context.Context, wp referenceframe.BaseWaypoint) error {
	if !wp.Valid() {
		return spatialmath.NewInvalidPoseError("base waypoint has non-finite components")
	}
	if !w.xLimit.Contains(wp.X) || !w.yLimit.Contains(wp.Y) {
		return errors.Errorf("base waypoint %v is outside the world", wp)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.base = wp
	w.pending = nil
	return w.carryHeld()
}

// BasePose returns the current base waypoint.
func (w *World) BasePose() referenceframe.BaseWaypoint {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.base
}

// baseGeometry is the footprint of the base: a box standing on the floor, turned with the base.
func (w *World) baseGeometry(base referenceframe.BaseWaypoint) (spatialmath.Geometry, error) {
	center := spatialmath.NewPose(
		r3.Vector{X: base.X, Y: base.Y, Z: defaultBaseHeight / 2},
		spatialmath.NewYawOrientation(base.Yaw),
	)
	size := w.cfg.BaseSize
	return spatialmath.NewBox(center, r3.Vector{X: size, Y: size, Z: defaultBaseHeight}, w.cfg.Name)
}
