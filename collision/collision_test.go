package collision

import (
	"context"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/primitives/referenceframe"
	"go.viam.com/primitives/spatialmath"
)

func TestIgnoreSet(t *testing.T) {
	var empty IgnoreSet
	test.That(t, empty.Contains("a"), test.ShouldBeFalse)
	test.That(t, empty.Len(), test.ShouldEqual, 0)
	test.That(t, empty.IDs(), test.ShouldBeEmpty)

	s := NewIgnoreSet("b", "a", "", "a")
	test.That(t, s.IDs(), test.ShouldResemble, []string{"a", "b"})
	grown := s.With("c")
	test.That(t, grown.IDs(), test.ShouldResemble, []string{"a", "b", "c"})
	test.That(t, s.Contains("c"), test.ShouldBeFalse)
	test.That(t, empty.With("x").Contains("x"), test.ShouldBeTrue)
}

func TestFilterContacts(t *testing.T) {
	contacts := []Contact{
		{BodyA: "gripper", BodyB: "hamburger.n.01_1"},
		{BodyA: "gripper", BodyB: "table.n.02_1"},
	}
	filtered := FilterContacts(contacts, NewIgnoreSet("hamburger.n.01_1"))
	test.That(t, filtered, test.ShouldResemble, contacts[1:])
	test.That(t, len(FilterContacts(contacts, IgnoreSet{})), test.ShouldEqual, 2)
}

func geometryTestOracle(t *testing.T) *GeometryOracle {
	t.Helper()
	table, err := spatialmath.NewBox(spatialmath.NewPoseFromPoint(r3.Vector{X: 2, Z: 0.4}), r3.Vector{X: 1, Y: 1, Z: 0.8}, "table.n.02_1")
	test.That(t, err, test.ShouldBeNil)
	footprint, err := spatialmath.NewBox(spatialmath.NewPoseFromPoint(r3.Vector{Z: 0.5}), r3.Vector{X: 0.6, Y: 0.4, Z: 1}, "base")
	test.That(t, err, test.ShouldBeNil)
	hand, err := spatialmath.NewSphere(spatialmath.NewZeroPose(), 0.05, "gripper")
	test.That(t, err, test.ShouldBeNil)
	return NewGeometryOracle(
		[]spatialmath.Geometry{table},
		map[string]spatialmath.Geometry{"base": footprint, "arm_right": hand},
		&Bounds{Min: r3.Vector{X: -5, Y: -5, Z: -1}, Max: r3.Vector{X: 5, Y: 5, Z: 3}},
		0,
	)
}

func TestGeometryOracle(t *testing.T) {
	ctx := context.Background()
	oracle := geometryTestOracle(t)

	for _, tc := range []struct {
		name   string
		c      Candidate
		ignore IgnoreSet
		valid  bool
	}{
		{"clear", BaseCandidate("base", referenceframe.BaseWaypoint{X: 0}), IgnoreSet{}, true},
		{"into table", BaseCandidate("base", referenceframe.BaseWaypoint{X: 1.6}), IgnoreSet{}, false},
		{"just short of table", BaseCandidate("base", referenceframe.BaseWaypoint{X: 1.15}), IgnoreSet{}, true},
		{"long side into table", BaseCandidate("base", referenceframe.BaseWaypoint{X: 1.25}), IgnoreSet{}, false},
		{"turned clear of table", BaseCandidate("base", referenceframe.BaseWaypoint{X: 1.25, Yaw: 1.5707963267948966}), IgnoreSet{}, true},
		{"ignored table", BaseCandidate("base", referenceframe.BaseWaypoint{X: 1.6}), NewIgnoreSet("table.n.02_1"), true},
		{"out of bounds", BaseCandidate("base", referenceframe.BaseWaypoint{X: 6}), IgnoreSet{}, false},
		{
			"hand on tabletop",
			Candidate{Group: "arm_right", Pose: spatialmath.NewPoseFromPoint(r3.Vector{X: 2, Z: 0.86})},
			IgnoreSet{}, true,
		},
		{
			"hand in tabletop",
			Candidate{Group: "arm_right", Pose: spatialmath.NewPoseFromPoint(r3.Vector{X: 2, Z: 0.78})},
			IgnoreSet{}, false,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			valid, err := oracle.IsValid(ctx, tc.c, tc.ignore)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, valid, test.ShouldEqual, tc.valid)
		})
	}

	_, err := oracle.IsValid(ctx, BaseCandidate("turret", referenceframe.BaseWaypoint{}), IgnoreSet{})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = oracle.IsValid(ctx, Candidate{Group: "arm_right", Inputs: []referenceframe.Input{{Value: 0}}}, IgnoreSet{})
	test.That(t, err, test.ShouldNotBeNil)
}

type erroringOracle struct{ calls int }

func (o *erroringOracle) IsValid(ctx context.Context, c Candidate, ignore IgnoreSet) (bool, error) {
	o.calls++
	return false, errors.New("should not be consulted")
}

func TestLocalOracle(t *testing.T) {
	ctx := context.Background()
	inner := &erroringOracle{}
	local := NewLocalOracle(inner, r3.Vector{X: 1, Y: 1}, 2)

	valid, err := local.IsValid(ctx, BaseCandidate("base", referenceframe.BaseWaypoint{X: 4, Y: 1}), IgnoreSet{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, valid, test.ShouldBeTrue)
	test.That(t, inner.calls, test.ShouldEqual, 0)

	_, err = local.IsValid(ctx, BaseCandidate("base", referenceframe.BaseWaypoint{X: 2, Y: 1}), IgnoreSet{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, inner.calls, test.ShouldEqual, 1)

	geo := NewLocalOracle(geometryTestOracle(t), r3.Vector{}, 1)
	valid, err = geo.IsValid(ctx, BaseCandidate("base", referenceframe.BaseWaypoint{X: 1.6}), IgnoreSet{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, valid, test.ShouldBeTrue)
}
