// Package fake implements a small kinematic world that satisfies every host contract: a holonomic
// base, a cartesian arm whose joints are the hand position in the base frame, a binary gripper and
// box shaped objects, some of them graspable or articulated. There is no dynamics; commands take
// effect on the next Step.
package fake

import (
	"context"
	"slices"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/primitives/collision"
	"go.viam.com/primitives/host"
	"go.viam.com/primitives/logging"
	"go.viam.com/primitives/referenceframe"
	"go.viam.com/primitives/spatialmath"
	"go.viam.com/primitives/utils"
)

// ModelName is the robot name used when the config gives none.
const ModelName = "fetch"

const (
	defaultReach        = 1.2
	defaultMaxHeight    = 1.8
	defaultFingerLength = 0.04
	defaultHandRadius   = 0.03
	defaultBaseSize     = 0.5
	defaultBaseHeight   = 1.0
	defaultTimeStep     = 0.1
	contactBuffer       = 1e-3
)

// JointConfig describes the single articulated joint of an object.
type JointConfig struct {
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Position float64 `json:"position"`
}

// ObjectConfig describes one box shaped object. Position is the object's reported pose; the box is
// centered CenterOffset away from it, in the object frame, for assets whose origin is not their
// center.
type ObjectConfig struct {
	ID           string       `json:"id"`
	Position     [3]float64   `json:"position"`
	Yaw          float64      `json:"yaw"`
	Size         [3]float64   `json:"size"`
	CenterOffset [3]float64   `json:"center_offset"`
	Graspable    bool         `json:"graspable"`
	Joint        *JointConfig `json:"joint,omitempty"`
}

// RobotConfig describes the robot. Arm positions are hand positions in the base frame.
type RobotConfig struct {
	Name         string     `json:"name"`
	Arm          string     `json:"arm"`
	Base         [3]float64 `json:"base"`
	Reach        float64    `json:"reach"`
	MaxHeight    float64    `json:"max_height"`
	FingerLength float64    `json:"finger_length"`
	HandRadius   float64    `json:"hand_radius"`
	BaseSize     float64    `json:"base_size"`
	Tucked       [3]float64 `json:"tucked"`
	Untucked     [3]float64 `json:"untucked"`
	// VelocityBase commands the base with velocities, so it cannot follow a streamed path.
	VelocityBase bool `json:"velocity_base"`
}

// Config is the description of a world.
type Config struct {
	XLimits [2]float64     `json:"x_limits"`
	YLimits [2]float64     `json:"y_limits"`
	Robot   RobotConfig    `json:"robot"`
	Objects []ObjectConfig `json:"objects"`
}

// Validate returns every problem with the world description.
func (cfg *Config) Validate() error {
	var err error
	if cfg.XLimits[0] >= cfg.XLimits[1] || cfg.YLimits[0] >= cfg.YLimits[1] {
		err = multierr.Append(err, errors.New("world limits must be increasing"))
	}
	if cfg.Robot.Arm == "" {
		err = multierr.Append(err, errors.New("world robot needs an arm"))
	}
	seen := map[string]bool{}
	for i, obj := range cfg.Objects {
		if obj.ID == "" {
			err = multierr.Append(err, errors.Errorf("object %d has no id", i))
			continue
		}
		if seen[obj.ID] {
			err = multierr.Append(err, errors.Errorf("object %q is listed twice", obj.ID))
		}
		seen[obj.ID] = true
		if obj.Size[0] <= 0 || obj.Size[1] <= 0 || obj.Size[2] <= 0 {
			err = multierr.Append(err, errors.Errorf("object %q must have a positive size", obj.ID))
		}
		if obj.Joint != nil && obj.Joint.Lower > obj.Joint.Upper {
			err = multierr.Append(err, errors.Errorf("object %q joint limits are reversed", obj.ID))
		}
	}
	return err
}

func (cfg *Config) withDefaults() RobotConfig {
	rc := cfg.Robot
	rc.Name = lo.Ternary(rc.Name == "", ModelName, rc.Name)
	rc.Reach = lo.Ternary(rc.Reach <= 0, defaultReach, rc.Reach)
	rc.MaxHeight = lo.Ternary(rc.MaxHeight <= 0, defaultMaxHeight, rc.MaxHeight)
	rc.FingerLength = lo.Ternary(rc.FingerLength <= 0, defaultFingerLength, rc.FingerLength)
	rc.HandRadius = lo.Ternary(rc.HandRadius <= 0, defaultHandRadius, rc.HandRadius)
	rc.BaseSize = lo.Ternary(rc.BaseSize <= 0, defaultBaseSize, rc.BaseSize)
	return rc
}

type object struct {
	id        string
	position  r3.Vector
	yaw       float64
	size      r3.Vector
	center    r3.Vector
	graspable bool
	joint     *JointConfig
}

func (o *object) pose() spatialmath.Pose {
	return spatialmath.NewPose(o.position, spatialmath.NewYawOrientation(o.yaw))
}

func (o *object) geometry() (spatialmath.Geometry, error) {
	return spatialmath.NewBox(spatialmath.Compose(o.pose(), spatialmath.NewPoseFromPoint(o.center)), o.size, o.id)
}

// World is a kinematic world with one robot. It is safe for concurrent use.
type World struct {
	mu     sync.Mutex
	cfg    RobotConfig
	xLimit referenceframe.Limit
	yLimit referenceframe.Limit
	logger logging.Logger

	objects map[string]*object
	order   []string

	base    referenceframe.BaseWaypoint
	arm     r3.Vector
	open    bool
	camera  float64
	held    string
	pending *host.Command
	ticks   int
}

// NewWorld builds a world from its description.
func NewWorld(cfg *Config, logger logging.Logger) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid world")
	}
	rc := cfg.withDefaults()
	w := &World{
		cfg:     rc,
		xLimit:  referenceframe.Limit{Min: cfg.XLimits[0], Max: cfg.XLimits[1]},
		yLimit:  referenceframe.Limit{Min: cfg.YLimits[0], Max: cfg.YLimits[1]},
		logger:  logger,
		objects: map[string]*object{},
		base:    referenceframe.BaseWaypoint{X: rc.Base[0], Y: rc.Base[1], Yaw: rc.Base[2]},
		arm:     vec(rc.Tucked),
		open:    true,
	}
	for _, oc := range cfg.Objects {
		var joint *JointConfig
		if oc.Joint != nil {
			j := *oc.Joint
			joint = &j
		}
		w.objects[oc.ID] = &object{
			id:        oc.ID,
			position:  vec(oc.Position),
			yaw:       oc.Yaw,
			size:      vec(oc.Size),
			center:    vec(oc.CenterOffset),
			graspable: oc.Graspable,
			joint:     joint,
		}
		w.order = append(w.order, oc.ID)
	}
	return w, nil
}

func vec(v [3]float64) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// BaseFrame is the planning frame of the base, bounded by the world limits.
func (w *World) BaseFrame() referenceframe.Frame {
	return referenceframe.NewBaseFrame(host.BaseGroup, w.xLimit, w.yLimit)
}

// Arm returns the name of the robot's arm.
func (w *World) Arm() string {
	return w.cfg.Arm
}

// Ticks returns how many times the world has been stepped.
func (w *World) Ticks() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ticks
}

// ObjectIDs returns the object ids in the order they were configured.
func (w *World) ObjectIDs() []string {
	return slices.Clone(w.order)
}

// MoveObject places an object at a new position.
func (w *World) MoveObject(id string, pos r3.Vector) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	obj, ok := w.objects[id]
	if !ok {
		return errors.Errorf("unknown object %q", id)
	}
	obj.position = pos
	return nil
}

// Pose implements host.PoseSource. The robot's own name returns the base pose.
func (w *World) Pose(ctx context.Context, objectID string) (spatialmath.Pose, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if objectID == w.cfg.Name {
		return w.base.Pose(), nil
	}
	obj, ok := w.objects[objectID]
	if !ok {
		return nil, errors.Errorf("unknown object %q", objectID)
	}
	return obj.pose(), nil
}

// Contacts implements host.ContactQuery. It lists the objects and the hand touching bodyID.
func (w *World) Contacts(ctx context.Context, bodyID string) ([]collision.Contact, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	obj, ok := w.objects[bodyID]
	if !ok {
		return nil, errors.Errorf("unknown object %q", bodyID)
	}
	g, err := obj.geometry()
	if err != nil {
		return nil, err
	}
	var out []collision.Contact
	for _, id := range w.order {
		if id == bodyID {
			continue
		}
		other := w.objects[id]
		og, err := other.geometry()
		if err != nil {
			return nil, err
		}
		touching, err := g.CollidesWith(og, contactBuffer)
		if err != nil {
			return nil, err
		}
		if touching {
			out = append(out, collision.Contact{BodyA: bodyID, BodyB: id, Position: other.position})
		}
	}
	if bodyID != w.held {
		hand, err := w.handGeometry(w.base, w.arm)
		if err != nil {
			return nil, err
		}
		touching, err := hand.CollidesWith(g, contactBuffer)
		if err != nil {
			return nil, err
		}
		if touching {
			out = append(out, collision.Contact{BodyA: bodyID, BodyB: w.fingerBody(), Position: hand.Pose().Point()})
		}
	}
	return out, nil
}

// EndEffectorContacts implements host.ContactQuery. The held object is attached to the hand and is
// never reported.
func (w *World) EndEffectorContacts(ctx context.Context, arm string) ([]collision.Contact, error) {
	if err := w.checkArm(arm); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handContacts()
}

func (w *World) handContacts() ([]collision.Contact, error) {
	hand, err := w.handGeometry(w.base, w.arm)
	if err != nil {
		return nil, err
	}
	var out []collision.Contact
	for _, id := range w.order {
		if id == w.held {
			continue
		}
		g, err := w.objects[id].geometry()
		if err != nil {
			return nil, err
		}
		touching, err := hand.CollidesWith(g, contactBuffer)
		if err != nil {
			return nil, err
		}
		if touching {
			out = append(out, collision.Contact{BodyA: w.fingerBody(), BodyB: id, Position: hand.Pose().Point()})
		}
	}
	return out, nil
}

func (w *World) fingerBody() string {
	return w.cfg.Name + "_" + host.GripperGroup(w.cfg.Arm)
}

// Apply implements host.CommandSink. The command takes effect on the next Step.
func (w *World) Apply(ctx context.Context, cmd host.Command) error {
	if len(cmd.Action) != actionDim {
		return errors.Errorf("command has %d actions, expected %d", len(cmd.Action), actionDim)
	}
	if !utils.IsFinite(cmd.Action...) {
		return errors.New("command has non-finite actions")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	c := host.Command{Action: slices.Clone(cmd.Action)}
	w.pending = &c
	return nil
}

// Step implements host.Stepper. It applies the pending command, runs the gripper and carries the
// held object along with the hand.
func (w *World) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ticks++
	if w.pending != nil {
		a := w.pending.Action
		w.pending = nil
		if w.cfg.VelocityBase {
			w.base = referenceframe.BaseWaypoint{
				X:   w.base.X + a[0]*defaultTimeStep,
				Y:   w.base.Y + a[1]*defaultTimeStep,
				Yaw: w.base.Yaw + a[2]*defaultTimeStep,
			}
		} else {
			w.base = referenceframe.BaseWaypoint{X: a[0], Y: a[1], Yaw: a[2]}
		}
		w.arm = r3.Vector{X: a[3], Y: a[4], Z: a[5]}
		w.camera += a[7] * defaultTimeStep
		if err := w.actuateGripper(a[6]); err != nil {
			return err
		}
	}
	return w.carryHeld()
}

func (w *World) carryHeld() error {
	if w.held == "" {
		return nil
	}
	hand, err := w.handPose(w.base, w.arm)
	if err != nil {
		return err
	}
	obj := w.objects[w.held]
	obj.position = hand.Point()
	return nil
}

// Robot implements host.Host.
func (w *World) Robot() host.Robot {
	return &robot{w: w}
}

// Proxy implements host.Host.
func (w *World) Proxy() collision.Proxy {
	return &proxy{w: w}
}

// JointLimits implements host.Articulation.
func (w *World) JointLimits(ctx context.Context, objectID string) (referenceframe.Limit, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	j, err := w.joint(objectID)
	if err != nil {
		return referenceframe.Limit{}, err
	}
	return referenceframe.Limit{Min: j.Lower, Max: j.Upper}, nil
}

// SetJointPosition implements host.Articulation.
func (w *World) SetJointPosition(ctx context.Context, objectID string, value float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	j, err := w.joint(objectID)
	if err != nil {
		return err
	}
	if value < j.Lower || value > j.Upper {
		return errors.Errorf("joint position %v of %q is outside [%v, %v]", value, objectID, j.Lower, j.Upper)
	}
	j.Position = value
	return nil
}

// JointPosition returns the position of an object's articulated joint.
func (w *World) JointPosition(objectID string) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	j, err := w.joint(objectID)
	if err != nil {
		return 0, err
	}
	return j.Position, nil
}

func (w *World) joint(objectID string) (*JointConfig, error) {
	obj, ok := w.objects[objectID]
	if !ok {
		return nil, errors.Errorf("unknown object %q", objectID)
	}
	if obj.joint == nil {
		return nil, errors.Errorf("object %q has no articulated joint", objectID)
	}
	return obj.joint, nil
}

func (w *World) checkArm(arm string) error {
	if arm != w.cfg.Arm {
		return errors.Errorf("robot %q has no arm %q", w.cfg.Name, arm)
	}
	return nil
}
