// Package collision answers whether a candidate base or arm configuration is free of collisions,
// either by mutating a host proxy inside a save/restore transaction or by testing geometries.
package collision

import (
	"context"
	"slices"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/primitives/referenceframe"
	"go.viam.com/primitives/spatialmath"
	"go.viam.com/primitives/utils"
)

// ErrReentrantCheck is returned when a validity check is requested while another one is in flight
// on the same oracle.
var ErrReentrantCheck = errors.New("validity check already in progress")

// Oracle reports whether a candidate configuration is collision free.
// A colliding candidate returns false and a nil error; errors are reserved for malformed input and
// faults in the underlying collision source.
type Oracle interface {
	IsValid(ctx context.Context, c Candidate, ignore IgnoreSet) (bool, error)
}

// Candidate is a configuration of one actuator group to be checked. Base candidates carry the planar
// pose of the base; arm candidates carry joint inputs and the corresponding end effector pose.
type Candidate struct {
	Group  string
	Pose   spatialmath.Pose
	Inputs []referenceframe.Input
}

// BaseCandidate returns the candidate for a base waypoint.
func BaseCandidate(group string, w referenceframe.BaseWaypoint) Candidate {
	return Candidate{Group: group, Pose: w.Pose(), Inputs: w.Inputs()}
}

// Validate returns an error if the candidate cannot be evaluated.
func (c Candidate) Validate() error {
	if c.Group == "" {
		return errors.New("candidate has no group")
	}
	if c.Pose == nil && len(c.Inputs) == 0 {
		return errors.Errorf("candidate for group %q has neither pose nor inputs", c.Group)
	}
	if c.Pose != nil {
		if err := spatialmath.ValidatePose(c.Pose); err != nil {
			return err
		}
	}
	for i, in := range c.Inputs {
		if !utils.IsFinite(in.Value) {
			return errors.Errorf("candidate for group %q has bad input %d: %v", c.Group, i, in.Value)
		}
	}
	return nil
}

// IgnoreSet is an immutable set of body ids excluded from collision checks, e.g. the object being
// grasped. The zero value is the empty set.
type IgnoreSet struct {
	ids map[string]struct{}
}

// NewIgnoreSet returns a set containing ids. Empty ids are dropped.
func NewIgnoreSet(ids ...string) IgnoreSet {
	if len(ids) == 0 {
		return IgnoreSet{}
	}
	return IgnoreSet{ids: lo.Keyify(lo.Compact(ids))}
}

// With returns a new set containing the receiver's ids and ids.
func (s IgnoreSet) With(ids ...string) IgnoreSet {
	return NewIgnoreSet(append(s.IDs(), ids...)...)
}

// Contains reports whether id is ignored.
func (s IgnoreSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of ignored ids.
func (s IgnoreSet) Len() int {
	return len(s.ids)
}

// IDs returns the ignored ids in sorted order.
func (s IgnoreSet) IDs() []string {
	ids := lo.Keys(s.ids)
	slices.Sort(ids)
	return ids
}

// Contact is one contact point reported by the host between two bodies.
type Contact struct {
	BodyA    string    `json:"body_a"`
	BodyB    string    `json:"body_b"`
	Position r3.Vector `json:"position"`
	Normal   r3.Vector `json:"normal"`
}

// FilterContacts drops contacts involving any ignored body.
func FilterContacts(contacts []Contact, ignore IgnoreSet) []Contact {
	return lo.Filter(contacts, func(c Contact, _ int) bool {
		return !ignore.Contains(c.BodyA) && !ignore.Contains(c.BodyB)
	})
}
