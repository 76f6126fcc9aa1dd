// Package config defines the configuration of the action primitives: offset tables, task action
// lists, planner and executor tuning, dispatch distances and an optional fake world.
package config

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/primitives/execution"
	"go.viam.com/primitives/motionplan"
	"go.viam.com/primitives/robots/fake"
	"go.viam.com/primitives/utils"
)

// Action is one entry of a task's action list: a primitive applied to an object. Variant selects
// among several offset sets for the same primitive and object.
type Action struct {
	Primitive string `json:"primitive"`
	Object    string `json:"object"`
	Variant   int    `json:"variant,omitempty"`
}

func (a Action) String() string {
	if a.Variant != 0 {
		return fmt.Sprintf("%s(%s, %d)", a.Primitive, a.Object, a.Variant)
	}
	return fmt.Sprintf("%s(%s)", a.Primitive, a.Object)
}

// Offsets maps primitive name to object id to the offset parameter sets for that pair.
type Offsets map[string]map[string][][]float64

// Lookup returns a copy of one offset parameter set.
func (o Offsets) Lookup(primitive, object string, variant int) ([]float64, error) {
	variants, ok := o[primitive][object]
	if !ok || len(variants) == 0 {
		return nil, errors.Errorf("no %s offsets for %q", primitive, object)
	}
	if variant < 0 || variant >= len(variants) {
		return nil, errors.Errorf("%s offsets for %q have no variant %d", primitive, object, variant)
	}
	return slices.Clone(variants[variant]), nil
}

// Dispatch holds the distances and checks the dispatcher applies around each primitive.
type Dispatch struct {
	PreGraspDistance float64 `json:"pre_grasp_distance"`
	PlaceDistance    float64 `json:"place_distance"`
	ToggleDistance   float64 `json:"toggle_distance"`
	PrePullDistance  float64 `json:"pre_pull_distance"`
	PullDistance     float64 `json:"pull_distance"`
	PullSteps        int     `json:"pull_steps"`
	// PullSlack keeps a snapped-open joint this far short of its upper limit.
	PullSlack       float64 `json:"pull_slack"`
	SnapSettleSteps int     `json:"snap_settle_steps"`

	// PoseCheck refuses to navigate to an object that moved since it was first navigated to.
	PoseCheck              bool     `json:"pose_check"`
	MovedDistanceThreshold float64  `json:"moved_distance_threshold"`
	PoseCheckObjects       []string `json:"pose_check_objects"`
}

// Validate returns every problem with the dispatch settings.
func (d Dispatch) Validate() error {
	var err error
	for name, v := range map[string]float64{
		"pre_grasp_distance":       d.PreGraspDistance,
		"place_distance":           d.PlaceDistance,
		"toggle_distance":          d.ToggleDistance,
		"pre_pull_distance":        d.PrePullDistance,
		"pull_slack":               d.PullSlack,
		"moved_distance_threshold": d.MovedDistanceThreshold,
	} {
		if v < 0 || !utils.IsFinite(v) {
			err = multierr.Append(err, errors.Errorf("dispatch %s must be a non-negative number, got %v", name, v))
		}
	}
	if d.PullDistance <= 0 {
		err = multierr.Append(err, errors.Errorf("dispatch pull_distance must be positive, got %v", d.PullDistance))
	}
	if d.PullSteps < 0 || d.SnapSettleSteps < 0 {
		err = multierr.Append(err, errors.New("dispatch pull_steps and snap_settle_steps must not be negative"))
	}
	return err
}

// ChecksPose reports whether navigating to object runs the moved object check.
func (d Dispatch) ChecksPose(object string) bool {
	return d.PoseCheck && (len(d.PoseCheckObjects) == 0 || slices.Contains(d.PoseCheckObjects, object))
}

// Config is the full configuration.
type Config struct {
	Arm      string                 `json:"arm"`
	Task     string                 `json:"task"`
	Offsets  Offsets                `json:"offsets"`
	Tasks    map[string][]Action    `json:"tasks"`
	Planner  map[string]interface{} `json:"planner"`
	Executor execution.Options      `json:"executor"`
	Dispatch Dispatch               `json:"dispatch"`
	World    *fake.Config           `json:"world,omitempty"`
}

// PlannerOptions decodes the planner section over the default planner options.
func (c *Config) PlannerOptions() (*motionplan.PlannerOptions, error) {
	return motionplan.DecodePlannerOptions(c.Planner)
}

// Actions returns the action list of the configured task.
func (c *Config) Actions() ([]Action, error) {
	actions, ok := c.Tasks[c.Task]
	if !ok {
		return nil, errors.Errorf("unknown task %q, have %v", c.Task, c.TaskNames())
	}
	return actions, nil
}

// TaskNames returns the configured task names, sorted.
func (c *Config) TaskNames() []string {
	names := lo.Keys(c.Tasks)
	slices.Sort(names)
	return names
}

// Validate returns every problem with the config.
func (c *Config) Validate() error {
	var err error
	if c.Arm == "" {
		err = multierr.Append(err, errors.New("arm is required"))
	}
	if c.Task != "" {
		if _, ok := c.Tasks[c.Task]; !ok {
			err = multierr.Append(err, errors.Errorf("task %q has no action list", c.Task))
		}
	}
	for _, name := range c.TaskNames() {
		for i, a := range c.Tasks[name] {
			if a.Primitive == "" || a.Object == "" {
				err = multierr.Append(err, errors.Errorf("task %q action %d needs a primitive and an object", name, i))
			}
			if a.Variant < 0 {
				err = multierr.Append(err, errors.Errorf("task %q action %d has a negative variant", name, i))
			}
		}
	}
	for prim, objects := range c.Offsets {
		for obj, variants := range objects {
			for i, params := range variants {
				if len(params) == 0 || !utils.IsFinite(params...) {
					err = multierr.Append(err, errors.Errorf("%s offsets for %q variant %d must be non-empty and finite", prim, obj, i))
				}
			}
		}
	}
	if _, plannerErr := c.PlannerOptions(); plannerErr != nil {
		err = multierr.Append(err, plannerErr)
	}
	err = multierr.Append(err, c.Executor.Validate())
	err = multierr.Append(err, c.Dispatch.Validate())
	if c.World != nil {
		err = multierr.Append(err, c.World.Validate())
	}
	return err
}
