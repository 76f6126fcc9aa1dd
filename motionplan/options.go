package motionplan

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// default values for planning options.
const (
	// Number of RRT iterations before giving up.
	defaultPlanIter = 2000

	// Probability of sampling the goal instead of a random configuration.
	defaultGoalBias = 0.1

	// Check validity every this many meters (or joint radians) of movement.
	defaultResolution = 0.05

	// Meters of base travel one radian of heading error is worth.
	defaultYawWeight = 0.5

	// default number of times to try to shortcut the path.
	defaultSmoothIter = 10

	// Radius of the disc around the base that is checked when planning with partial observability.
	defaultObservationRadius = 5.

	// When breaking down a straight end effector line into waypoints, add a waypoint every this many
	// meters or degrees of movement.
	defaultPathStepSize  = 0.02
	defaultPathStepAngle = 5.

	defaultRandomSeed = 1
)

// PlannerOptions are a set of options passed to the base and arm planners.
type PlannerOptions struct {
	// Check the whole map, rather than only what the robot can see, when planning the base.
	FullObservability bool `json:"full_observability"`

	// Radius around the base within which obstacles are known when FullObservability is false.
	ObservationRadius float64 `json:"observation_radius"`

	// Connect directly to the goal when the straight segment is free, skipping the search.
	ReducedMotion bool `json:"reduced_motion"`

	// Plan the whole motion to the pre-approach configuration instead of jumping to it.
	PlanFullPreApproach bool `json:"plan_full_pre_approach"`

	PlanIter   int     `json:"plan_iter"`
	GoalBias   float64 `json:"goal_bias"`
	Resolution float64 `json:"resolution"`
	YawWeight  float64 `json:"yaw_weight"`

	// Number of seconds before terminating the search. Zero disables the timeout.
	Timeout float64 `json:"timeout"`

	RandomSeed int64 `json:"random_seed"`

	// Number of times to try to smooth the path
	SmoothIter int `json:"smooth_iter"`

	PathStepSize  float64 `json:"path_step_size"`
	PathStepAngle float64 `json:"path_step_angle"`
}

// NewDefaultPlannerOptions returns the default planner options.
func NewDefaultPlannerOptions() *PlannerOptions {
	return &PlannerOptions{
		FullObservability:   true,
		ObservationRadius:   defaultObservationRadius,
		PlanFullPreApproach: true,
		PlanIter:            defaultPlanIter,
		GoalBias:            defaultGoalBias,
		Resolution:          defaultResolution,
		YawWeight:           defaultYawWeight,
		RandomSeed:          defaultRandomSeed,
		SmoothIter:          defaultSmoothIter,
		PathStepSize:        defaultPathStepSize,
		PathStepAngle:       defaultPathStepAngle,
	}
}

// DecodePlannerOptions overlays a free form map, keyed by the json names of the fields, onto the
// default options.
func DecodePlannerOptions(extra map[string]interface{}) (*PlannerOptions, error) {
	opts := NewDefaultPlannerOptions()
	if len(extra) == 0 {
		return opts, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           opts,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(extra); err != nil {
		return nil, errors.Wrap(err, "decoding planner options")
	}
	return opts, opts.Validate()
}

// Validate returns every problem with the options.
func (o *PlannerOptions) Validate() error {
	var err error
	if o.PlanIter <= 0 {
		err = multierr.Append(err, errors.Errorf("plan_iter must be positive, got %d", o.PlanIter))
	}
	if o.GoalBias < 0 || o.GoalBias > 1 {
		err = multierr.Append(err, errors.Errorf("goal_bias must be within [0, 1], got %v", o.GoalBias))
	}
	if o.Resolution <= 0 {
		err = multierr.Append(err, errors.Errorf("resolution must be positive, got %v", o.Resolution))
	}
	if o.YawWeight < 0 {
		err = multierr.Append(err, errors.Errorf("yaw_weight must not be negative, got %v", o.YawWeight))
	}
	if o.Timeout < 0 {
		err = multierr.Append(err, errors.Errorf("timeout must not be negative, got %v", o.Timeout))
	}
	if o.SmoothIter < 0 {
		err = multierr.Append(err, errors.Errorf("smooth_iter must not be negative, got %d", o.SmoothIter))
	}
	if !o.FullObservability && o.ObservationRadius <= 0 {
		err = multierr.Append(err, errors.New("observation_radius must be positive with partial observability"))
	}
	if o.PathStepSize <= 0 || o.PathStepAngle <= 0 {
		err = multierr.Append(err, errors.New("path_step_size and path_step_angle must be positive"))
	}
	return err
}

func (o *PlannerOptions) timeout() time.Duration {
	return time.Duration(o.Timeout * float64(time.Second))
}
