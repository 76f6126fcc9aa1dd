// Package primitives dispatches discrete robot actions, such as navigating to an object or picking it
// up, to the planners and the executor. Each action is a primitive applied to an object with offsets
// looked up from the configuration.
package primitives

import (
	"fmt"

	"github.com/pkg/errors"
)

// Primitive is one discrete high level action.
type Primitive int

// The primitives. Values match the action indices of the discrete action space.
const (
	NavigateTo Primitive = iota
	Pick
	Place
	Toggle
	Pull
	Push
	PullOpen

	// Dummy tucks the arm and does nothing else.
	Dummy Primitive = 10
)

var primitiveNames = map[Primitive]string{
	NavigateTo: "navigate_to",
	Pick:       "pick",
	Place:      "place",
	Toggle:     "toggle",
	Pull:       "pull",
	Push:       "push",
	PullOpen:   "pull_open",
	Dummy:      "dummy",
}

func (p Primitive) String() string {
	if name, ok := primitiveNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Primitive(%d)", int(p))
}

// ParsePrimitive returns the primitive with the given name.
func ParsePrimitive(name string) (Primitive, error) {
	for p, n := range primitiveNames {
		if n == name {
			return p, nil
		}
	}
	return 0, errors.Errorf("unknown primitive %q", name)
}

// OffsetTable is the offsets table a primitive reads. Opening by pulling uses the pull offsets.
func (p Primitive) OffsetTable() string {
	if p == PullOpen {
		return Pull.String()
	}
	return p.String()
}
