package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Geometry is an entity in 3D space that can be checked for collision against other geometries.
type Geometry interface {
	Pose() Pose
	// Transform premultiplies the geometry's pose by the given pose.
	Transform(Pose) Geometry
	// CollidesWith reports whether the geometries are closer than buffer.
	CollidesWith(Geometry, float64) (bool, error)
	Label() string
	SetLabel(string)
	String() string
}

// box is a collision geometry that represents a 3D rectangular prism, it has a pose and half size that fully define it.
type box struct {
	center          Pose
	centerPt        r3.Vector
	halfSize        [3]float64
	boundingSphereR float64
	label           string
}

// NewBox instantiates a new box Geometry.
func NewBox(pose Pose, dims r3.Vector, label string) (Geometry, error) {
	// Negative dimensions not allowed. Zero dimensions are allowed for bounding boxes, etc.
	if dims.X < 0 || dims.Y < 0 || dims.Z < 0 {
		return nil, newBadGeometryDimensionsError(&box{})
	}
	if err := ValidatePose(pose); err != nil {
		return nil, err
	}
	halfSize := dims.Mul(0.5)
	return &box{
		center:          pose,
		centerPt:        pose.Point(),
		halfSize:        [3]float64{halfSize.X, halfSize.Y, halfSize.Z},
		boundingSphereR: halfSize.Norm(),
		label:           label,
	}, nil
}

// String returns a human readable string that represents the box.
func (b *box) String() string {
	return fmt.Sprintf("Type: Box | Position: X:%.2f, Y:%.2f, Z:%.2f | Dims: X:%.2f, Y:%.2f, Z:%.2f",
		b.centerPt.X, b.centerPt.Y, b.centerPt.Z, 2*b.halfSize[0], 2*b.halfSize[1], 2*b.halfSize[2])
}

// SetLabel sets the label of this box.
func (b *box) SetLabel(label string) {
	b.label = label
}

// Label returns the label of this box.
func (b *box) Label() string {
	return b.label
}

// Pose returns the pose of the box.
func (b *box) Pose() Pose {
	return b.center
}

// Transform premultiplies the box pose with a transform, allowing the box to be moved in space.
func (b *box) Transform(toPremultiply Pose) Geometry {
	c := Compose(toPremultiply, b.center)
	return &box{
		center:          c,
		centerPt:        c.Point(),
		halfSize:        b.halfSize,
		boundingSphereR: b.boundingSphereR,
		label:           b.label,
	}
}

// CollidesWith checks if the given box collides with the given geometry and returns true if it does.
func (b *box) CollidesWith(g Geometry, buffer float64) (bool, error) {
	switch other := g.(type) {
	case *box:
		return boxVsBoxCollision(b, other, buffer), nil
	case *sphere:
		return sphereVsBoxCollision(other, b, buffer), nil
	case *point:
		return b.closestPoint(other.position).Distance(other.position) <= buffer, nil
	default:
		return false, newCollisionTypeUnsupportedError(b, g)
	}
}

// closestPoint returns the closest point on the specified box to the specified point
// Reference: https://github.com/gszauer/GamePhysicsCookbook/blob/a0b8ee0c39fed6d4b90bb6d2195004dfcf5a1115/Code/Geometry3D.cpp#L165
func (b *box) closestPoint(pt r3.Vector) r3.Vector {
	result := b.centerPt
	direction := pt.Sub(result)
	rm := b.center.Orientation().RotationMatrix()
	for i := 0; i < 3; i++ {
		axis := rm.Col(i)
		distance := direction.Dot(axis)
		if distance > b.halfSize[i] {
			distance = b.halfSize[i]
		} else if distance < -b.halfSize[i] {
			distance = -b.halfSize[i]
		}
		result = result.Add(axis.Mul(distance))
	}
	return result
}

// boxVsBoxCollision takes two boxes as arguments and returns a bool describing if they are in collision,
// true == collision / false == no collision.
func boxVsBoxCollision(a, b *box, buffer float64) bool {
	centerDist := b.centerPt.Sub(a.centerPt)

	// check if there is a distance between bounding spheres to potentially exit early
	if centerDist.Norm()-(a.boundingSphereR+b.boundingSphereR) > buffer {
		return false
	}

	rmA := a.center.Orientation().RotationMatrix()
	rmB := b.center.Orientation().RotationMatrix()

	axes := make([]r3.Vector, 0, 15)
	for i := 0; i < 3; i++ {
		axes = append(axes, rmA.Col(i), rmB.Col(i))
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cross := rmA.Col(i).Cross(rmB.Col(j))
			// near-parallel edges give no new separating direction
			if cross.Norm2() < 1e-10 {
				continue
			}
			axes = append(axes, cross.Normalize())
		}
	}
	for _, axis := range axes {
		if separatingAxisTest(centerDist, axis, a.halfSize, b.halfSize, rmA, rmB) > buffer {
			return false
		}
	}
	return true
}

// separatingAxisTest projects two boxes onto the given plane and compute how much distance is between them along
// this plane.  Per the separating hyperplane theorem, if such a plane exists (and a positive number is returned)
// this proves that there is no collision between the boxes
// references:  https://gamedev.stackexchange.com/questions/112883/simple-3d-obb-collision-directx9-c
//
//	https://gamedev.stackexchange.com/questions/25397/obb-vs-obb-collision-detection
func separatingAxisTest(positionDelta, plane r3.Vector, halfSizeA, halfSizeB [3]float64, rmA, rmB *RotationMatrix) float64 {
	sum := math.Abs(positionDelta.Dot(plane))
	for i := 0; i < 3; i++ {
		sum -= math.Abs(rmA.Col(i).Mul(halfSizeA[i]).Dot(plane))
		sum -= math.Abs(rmB.Col(i).Mul(halfSizeB[i]).Dot(plane))
	}
	return sum
}

// sphere is a collision geometry that represents a sphere, it has a pose and a radius that fully define it.
type sphere struct {
	pose   Pose
	radius float64
	label  string
}

// NewSphere instantiates a new sphere Geometry.
func NewSphere(pose Pose, radius float64, label string) (Geometry, error) {
	if radius < 0 {
		return nil, newBadGeometryDimensionsError(&sphere{})
	}
	if err := ValidatePose(pose); err != nil {
		return nil, err
	}
	return &sphere{pose: pose, radius: radius, label: label}, nil
}

func (s *sphere) String() string {
	pt := s.pose.Point()
	return fmt.Sprintf("Type: Sphere | Position: X:%.2f, Y:%.2f, Z:%.2f | Radius: %.2f", pt.X, pt.Y, pt.Z, s.radius)
}

func (s *sphere) SetLabel(label string) {
	s.label = label
}

func (s *sphere) Label() string {
	return s.label
}

func (s *sphere) Pose() Pose {
	return s.pose
}

func (s *sphere) Transform(toPremultiply Pose) Geometry {
	return &sphere{pose: Compose(toPremultiply, s.pose), radius: s.radius, label: s.label}
}

func (s *sphere) CollidesWith(g Geometry, buffer float64) (bool, error) {
	switch other := g.(type) {
	case *box:
		return sphereVsBoxCollision(s, other, buffer), nil
	case *sphere:
		return s.pose.Point().Distance(other.pose.Point())-s.radius-other.radius <= buffer, nil
	case *point:
		return s.pose.Point().Distance(other.position)-s.radius <= buffer, nil
	default:
		return false, newCollisionTypeUnsupportedError(s, g)
	}
}

func sphereVsBoxCollision(s *sphere, b *box, buffer float64) bool {
	c := s.pose.Point()
	return b.closestPoint(c).Distance(c)-s.radius <= buffer
}

// point is a collision geometry that represents a single point in 3D space.
type point struct {
	position r3.Vector
	label    string
}

// NewPoint instantiates a new point Geometry.
func NewPoint(pt r3.Vector, label string) Geometry {
	return &point{position: pt, label: label}
}

func (pt *point) String() string {
	return fmt.Sprintf("Type: Point | Position: X:%.2f, Y:%.2f, Z:%.2f", pt.position.X, pt.position.Y, pt.position.Z)
}

func (pt *point) SetLabel(label string) {
	pt.label = label
}

func (pt *point) Label() string {
	return pt.label
}

func (pt *point) Pose() Pose {
	return NewPoseFromPoint(pt.position)
}

func (pt *point) Transform(toPremultiply Pose) Geometry {
	return &point{position: Compose(toPremultiply, NewPoseFromPoint(pt.position)).Point(), label: pt.label}
}

func (pt *point) CollidesWith(g Geometry, buffer float64) (bool, error) {
	switch other := g.(type) {
	case *point:
		return pt.position.Distance(other.position) <= buffer, nil
	default:
		return g.CollidesWith(pt, buffer)
	}
}
