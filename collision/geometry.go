package collision

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/primitives/spatialmath"
)

// Bounds is an axis aligned workspace box. Candidate positions outside it are invalid.
type Bounds struct {
	Min r3.Vector `json:"min"`
	Max r3.Vector `json:"max"`
}

// Contains reports whether pt lies inside the bounds.
func (b Bounds) Contains(pt r3.Vector) bool {
	return pt.X >= b.Min.X && pt.X <= b.Max.X &&
		pt.Y >= b.Min.Y && pt.Y <= b.Max.Y &&
		pt.Z >= b.Min.Z && pt.Z <= b.Max.Z
}

// GeometryOracle checks candidates against a static world of labelled obstacle geometries. Each
// group has a footprint geometry, expressed in the group's local frame, that is moved to the
// candidate pose before testing. Obstacles whose label is in the ignore set are skipped.
type GeometryOracle struct {
	obstacles  []spatialmath.Geometry
	footprints map[string]spatialmath.Geometry
	bounds     *Bounds
	buffer     float64
}

// NewGeometryOracle returns a GeometryOracle. bounds may be nil for an unbounded workspace.
func NewGeometryOracle(
	obstacles []spatialmath.Geometry,
	footprints map[string]spatialmath.Geometry,
	bounds *Bounds,
	buffer float64,
) *GeometryOracle {
	return &GeometryOracle{obstacles: obstacles, footprints: footprints, bounds: bounds, buffer: buffer}
}

// IsValid implements Oracle.
func (o *GeometryOracle) IsValid(ctx context.Context, c Candidate, ignore IgnoreSet) (bool, error) {
	if err := c.Validate(); err != nil {
		return false, err
	}
	if c.Pose == nil {
		return false, errors.Errorf("geometry check for group %q needs a pose", c.Group)
	}
	footprint, ok := o.footprints[c.Group]
	if !ok {
		return false, errors.Errorf("no footprint for group %q", c.Group)
	}
	if o.bounds != nil && !o.bounds.Contains(c.Pose.Point()) {
		return false, nil
	}
	placed := footprint.Transform(c.Pose)
	for _, obstacle := range o.obstacles {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if ignore.Contains(obstacle.Label()) {
			continue
		}
		collides, err := placed.CollidesWith(obstacle, o.buffer)
		if err != nil {
			return false, err
		}
		if collides {
			return false, nil
		}
	}
	return true, nil
}

// LocalOracle models partial observability: candidates farther than Radius from Center are outside
// what the robot can see and are treated as free. Closer candidates are delegated.
type LocalOracle struct {
	inner  Oracle
	center r3.Vector
	radius float64
}

// NewLocalOracle wraps inner so that only candidates within radius of center are checked.
func NewLocalOracle(inner Oracle, center r3.Vector, radius float64) *LocalOracle {
	return &LocalOracle{inner: inner, center: center, radius: radius}
}

// IsValid implements Oracle.
func (o *LocalOracle) IsValid(ctx context.Context, c Candidate, ignore IgnoreSet) (bool, error) {
	if err := c.Validate(); err != nil {
		return false, err
	}
	if c.Pose != nil {
		d := c.Pose.Point().Sub(o.center)
		// planar distance, the observer sees a disc around the base
		if d.X*d.X+d.Y*d.Y > o.radius*o.radius {
			return true, nil
		}
	}
	return o.inner.IsValid(ctx, c, ignore)
}
