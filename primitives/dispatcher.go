package primitives

import (
	"context"
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"go.viam.com/primitives/config"
	"go.viam.com/primitives/execution"
	"go.viam.com/primitives/failure"
	"go.viam.com/primitives/host"
	"go.viam.com/primitives/logging"
)

// request is one dispatched primitive with its offsets.
type request struct {
	prim    Primitive
	object  string
	variant int
	params  []float64
}

type handler func(d *Dispatcher, ctx context.Context, s *execution.Stream, req request) error

var handlers = map[Primitive]handler{
	NavigateTo: (*Dispatcher).navigateTo,
	Pick:       (*Dispatcher).pick,
	Place:      (*Dispatcher).place,
	Toggle:     (*Dispatcher).toggle,
	Pull:       (*Dispatcher).snapJoint,
	Push:       (*Dispatcher).snapJoint,
	PullOpen:   (*Dispatcher).pullOpen,
	Dummy:      (*Dispatcher).dummy,
}

// Dispatcher turns primitives into command streams for one arm of a robot. Only one stream may be
// drained at a time.
type Dispatcher struct {
	cfg    *config.Config
	host   host.Host
	robot  host.Robot
	base   BasePlanner
	arm    ArmPlanner
	exec   *execution.Executor
	logger logging.Logger

	// where each object was when it was first navigated to
	navigated map[string]r3.Vector
}

// NewDispatcher returns a dispatcher driving cfg.Arm of h. The arm must be commanded with absolute
// joint positions.
func NewDispatcher(cfg *config.Config, h host.Host, planners Planners, logger logging.Logger) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if planners.Base == nil || planners.Arm == nil {
		return nil, errors.New("dispatcher needs a base and an arm planner")
	}
	robot := h.Robot()
	c, err := host.FindController(robot, host.ArmGroup(cfg.Arm))
	if err != nil {
		return nil, err
	}
	if !c.HoldsAbsolutePosition() {
		return nil, failure.NewPreConditionError("", "", failure.PhaseDispatch, fmt.Sprintf(
			"arm controller %q must be an absolute position joint controller, got %v %v control (delta %v)",
			c.Name, c.Kind, c.Mode, c.Delta))
	}
	exec, err := execution.NewExecutor(h, cfg.Arm, cfg.Executor, logger.Sublogger("execution"))
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		cfg:       cfg,
		host:      h,
		robot:     robot,
		base:      planners.Base,
		arm:       planners.Arm,
		exec:      exec,
		logger:    logger,
		navigated: map[string]r3.Vector{},
	}, nil
}

// Executor returns the executor streams are built with.
func (d *Dispatcher) Executor() *execution.Executor {
	return d.exec
}

// Action returns the action at index in the configured task's action list. The index of Dummy always
// means Dummy.
func (d *Dispatcher) Action(index int) (config.Action, error) {
	if index == int(Dummy) {
		return config.Action{Primitive: Dummy.String()}, nil
	}
	actions, err := d.cfg.Actions()
	if err != nil {
		return config.Action{}, err
	}
	if index < 0 || index >= len(actions) {
		return config.Action{}, errors.Errorf("action index %d is out of range for task %q with %d actions", index, d.cfg.Task, len(actions))
	}
	return actions[index], nil
}

// Apply dispatches the action at index in the configured task's action list.
func (d *Dispatcher) Apply(ctx context.Context, index int) (*execution.Stream, error) {
	a, err := d.Action(index)
	if err != nil {
		return nil, err
	}
	prim, err := ParsePrimitive(a.Primitive)
	if err != nil {
		return nil, err
	}
	return d.ApplyPrimitive(ctx, prim, a.Object, a.Variant)
}

// ApplyPrimitive plans prim on object and returns the stream of commands executing it. Planning
// happens before ApplyPrimitive returns; the stream only executes. variant selects among the offset
// sets configured for the pair.
func (d *Dispatcher) ApplyPrimitive(ctx context.Context, prim Primitive, object string, variant int) (*execution.Stream, error) {
	h, ok := handlers[prim]
	if !ok {
		return nil, errors.Errorf("no handler for %v", prim)
	}
	id := uuid.New()
	d.logger.Infow("applying primitive", "execution_id", id, "primitive", prim, "object", object, "variant", variant)

	req := request{prim: prim, object: object, variant: variant}
	if prim != Dummy {
		params, err := d.cfg.Offsets.Lookup(prim.OffsetTable(), object, variant)
		if err != nil {
			return nil, failure.NewPreConditionError(prim.String(), object, failure.PhaseDispatch, err.Error())
		}
		req.params = params
	}
	if err := d.exec.SyncGraspState(ctx); err != nil {
		return nil, err
	}

	s := d.exec.NewStream(id, prim.String(), object)
	if err := h(d, ctx, s, req); err != nil {
		d.logger.Warnw("primitive failed", "execution_id", id, "primitive", prim, "object", object, "error", err)
		return nil, err
	}
	return s, nil
}

// Result summarizes one executed action.
type Result struct {
	ExecutionID uuid.UUID
	Action      config.Action
	Commands    int
	State       execution.State
}

// Run dispatches the action at index and drains its stream into the host, stepping once per command.
func (d *Dispatcher) Run(ctx context.Context, index int) (Result, error) {
	a, err := d.Action(index)
	if err != nil {
		return Result{}, err
	}
	res := Result{Action: a, State: execution.StateError}
	s, err := d.Apply(ctx, index)
	if err != nil {
		return res, err
	}
	res.ExecutionID = s.ID()
	res.Commands, err = execution.Drain(ctx, s, d.host, d.host)
	res.State = s.State()
	return res, err
}

// hostFailure attaches the request's primitive and object to an error from a host query, so an object
// the host does not know fails the action as a precondition. Errors already classified pass through.
func hostFailure(req request, phase failure.Phase, err error) error {
	if failure.ReasonOf(err) != failure.ReasonUnknown {
		return err
	}
	return failure.NewPreConditionError(req.prim.String(), req.object, phase, err.Error())
}
