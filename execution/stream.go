package execution

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"go.viam.com/primitives/collision"
	"go.viam.com/primitives/failure"
	"go.viam.com/primitives/host"
	"go.viam.com/primitives/logging"
	"go.viam.com/primitives/motionplan"
	"go.viam.com/primitives/referenceframe"
)

// ErrStreamDone is returned by Next once a stream has no more commands.
var ErrStreamDone = errors.New("no more commands in stream")

// State is the phase a stream is executing.
type State int

// Stream states. Settling between phases is reported as the phase it follows.
const (
	StateIdle State = iota
	StateNavigating
	StatePreApproach
	StateInteracting
	StateGrasping
	StateUngrasping
	StatePulling
	StateRetreating
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateNavigating:
		return "NAVIGATING"
	case StatePreApproach:
		return "PRE_APPROACH"
	case StateInteracting:
		return "INTERACTING"
	case StateGrasping:
		return "GRASPING"
	case StateUngrasping:
		return "UNGRASPING"
	case StatePulling:
		return "PULLING"
	case StateRetreating:
		return "RETREATING"
	case StateDone:
		return "DONE"
	case StateError:
		return "ERROR"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transitions can happen from s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateError
}

// phase produces the commands of one step of a primitive. next returns done once the phase has no
// more commands; a done phase's command is ignored.
type phase interface {
	next(ctx context.Context, s *Stream) (cmd host.Command, done bool, err error)
}

type stagedPhase struct {
	state State
	phase
}

// Stream is an explicit iterator over the commands of one primitive. The caller pulls one command
// per tick with Next, applies it and steps the host before pulling the next. A Stream is not safe
// for concurrent use.
type Stream struct {
	id        uuid.UUID
	exec      *Executor
	primitive string
	object    string
	logger    logging.Logger

	phases []stagedPhase
	cur    int
	state  State
	err    error
	closed bool
}

// NewStream starts an empty stream. Phases are appended with the builder methods and run in order.
func (e *Executor) NewStream(id uuid.UUID, primitive, object string) *Stream {
	return &Stream{
		id:        id,
		exec:      e,
		primitive: primitive,
		object:    object,
		logger:    e.logger,
		state:     StateIdle,
	}
}

// ID returns the execution id of the stream.
func (s *Stream) ID() uuid.UUID {
	return s.id
}

// State returns the phase the stream is in.
func (s *Stream) State() State {
	return s.state
}

// Err returns the error the stream ended with, if any.
func (s *Stream) Err() error {
	return s.err
}

// Close stops the stream. Commands already applied are not rolled back, so the robot stays wherever
// the last one left it, holding whatever it held.
func (s *Stream) Close() {
	if !s.closed && !s.state.Terminal() {
		s.logger.Debugw("stream closed early", "execution_id", s.id, "primitive", s.primitive, "state", s.state)
	}
	s.closed = true
}

// Next returns the next command. It returns ErrStreamDone when the stream finished or was closed, and
// the stream's error, every time, once a phase failed.
func (s *Stream) Next(ctx context.Context) (host.Command, error) {
	if s.state == StateError {
		return host.Command{}, s.err
	}
	if s.closed || s.state == StateDone {
		return host.Command{}, ErrStreamDone
	}
	for s.cur < len(s.phases) {
		staged := s.phases[s.cur]
		if staged.state != StateIdle && staged.state != s.state {
			s.logger.CDebugw(ctx, "stream state", "execution_id", s.id, "from", s.state, "to", staged.state)
			s.state = staged.state
		}
		cmd, done, err := staged.next(ctx, s)
		if err != nil {
			s.state = StateError
			s.err = err
			s.logger.Warnw("stream failed", "execution_id", s.id, "primitive", s.primitive, "object", s.object, "error", err)
			return host.Command{}, err
		}
		if !done {
			return cmd, nil
		}
		s.cur++
	}
	s.state = StateDone
	return host.Command{}, ErrStreamDone
}

func (s *Stream) add(state State, p phase) *Stream {
	s.phases = append(s.phases, stagedPhase{state: state, phase: p})
	return s
}

// PathOptions control how an arm path is streamed.
type PathOptions struct {
	// StopOnContact ends the path early once the hand touches something, and fails the stream if
	// the path ends without a touch.
	StopOnContact bool
	// WhileGrasping keeps the gripper closing on every command.
	WhileGrasping bool
	// Ignore drops contacts with these bodies from the contact check.
	Ignore collision.IgnoreSet
}

// ArmPath streams one command per waypoint of path in the given state.
func (s *Stream) ArmPath(state State, path motionplan.ArmPath, opts PathOptions) *Stream {
	return s.add(state, &armPathPhase{path: path, opts: opts, failPhase: failurePhase(state)})
}

// Grasp closes the gripper for the configured number of ticks, then requires the hand to hold an
// object.
func (s *Stream) Grasp() *Stream {
	return s.add(StateGrasping, &gripPhase{closing: true})
}

// Ungrasp opens the gripper for the configured number of ticks, then requires the hand to be empty.
func (s *Stream) Ungrasp() *Stream {
	return s.add(StateUngrasping, &gripPhase{closing: false})
}

// Settle steps the host n times without emitting commands.
func (s *Stream) Settle(n int) *Stream {
	return s.add(StateIdle, &settlePhase{steps: n})
}

// Still emits n still commands.
func (s *Stream) Still(n int) *Stream {
	return s.add(StateIdle, &stillPhase{count: n})
}

// Navigate moves the base along path. Bases commanded with absolute positions get one command per
// waypoint; any other base is placed at the end of the path directly and held with a single still
// command.
func (s *Stream) Navigate(path motionplan.BasePath) *Stream {
	return s.add(StateNavigating, &basePathPhase{path: path})
}

// Call runs fn once, in order with the other phases, without emitting a command.
func (s *Stream) Call(state State, fn func(ctx context.Context) error) *Stream {
	return s.add(state, callPhase(fn))
}

// TeleportArm sets the arm's joints directly.
func (s *Stream) TeleportArm(state State, inputs []referenceframe.Input) *Stream {
	return s.Call(state, func(ctx context.Context) error {
		return s.exec.host.SetArmInputs(ctx, s.exec.arm, inputs)
	})
}

func failurePhase(state State) failure.Phase {
	switch state {
	case StateNavigating:
		return failure.PhaseNavigate
	case StatePreApproach:
		return failure.PhasePreApproach
	case StateGrasping:
		return failure.PhaseGrasp
	case StateUngrasping:
		return failure.PhaseUngrasp
	case StatePulling:
		return failure.PhasePull
	case StateRetreating:
		return failure.PhaseRetreat
	case StateIdle, StateInteracting, StateDone, StateError:
	}
	return failure.PhaseInteraction
}

type armPathPhase struct {
	path      motionplan.ArmPath
	opts      PathOptions
	failPhase failure.Phase

	started bool
	base    host.Command
	i       int
}

func (p *armPathPhase) next(ctx context.Context, s *Stream) (host.Command, bool, error) {
	if !p.started {
		still, err := s.exec.StillAction(ctx)
		if err != nil {
			return host.Command{}, false, err
		}
		p.base, p.started = still, true
	}
	if p.opts.StopOnContact {
		contacts, err := s.exec.endEffectorContacts(ctx, p.opts.Ignore)
		if err != nil {
			return host.Command{}, false, err
		}
		if len(contacts) > 0 {
			s.logger.CDebugw(ctx, "contact detected, stopping motion",
				"execution_id", s.id, "after", p.i, "of", len(p.path), "body", contacts[0].BodyB)
			return host.Command{}, true, nil
		}
	}
	if p.i == len(p.path) {
		if p.opts.StopOnContact {
			return host.Command{}, false, failure.NewExecutionError(s.primitive, s.object, p.failPhase, "no contact was made", nil)
		}
		return host.Command{}, true, nil
	}
	cmd := copyCommand(p.base)
	if err := s.exec.setGroup(cmd, host.ArmGroup(s.exec.arm), p.path[p.i].Inputs); err != nil {
		return host.Command{}, false, err
	}
	if p.opts.WhileGrasping {
		if err := s.exec.setGripper(cmd, -1); err != nil {
			return host.Command{}, false, err
		}
	}
	p.i++
	return cmd, false, nil
}

type gripPhase struct {
	closing bool

	started bool
	cmd     host.Command
	emitted int
}

func (p *gripPhase) next(ctx context.Context, s *Stream) (host.Command, bool, error) {
	if !p.started {
		still, err := s.exec.StillAction(ctx)
		if err != nil {
			return host.Command{}, false, err
		}
		value := 1.
		if p.closing {
			value = -1
		}
		if err := s.exec.setGripper(still, value); err != nil {
			return host.Command{}, false, err
		}
		p.cmd, p.started = still, true
	}
	if p.emitted < s.exec.opts.graspSteps() {
		p.emitted++
		return copyCommand(p.cmd), false, nil
	}

	if err := s.exec.SyncGraspState(ctx); err != nil {
		return host.Command{}, false, err
	}
	switch {
	case p.closing && !s.exec.grasping:
		return host.Command{}, false, failure.NewExecutionError(
			s.primitive, s.object, failure.PhaseGrasp, "no object detected in hand after executing grasp", nil)
	case !p.closing && s.exec.grasping:
		return host.Command{}, false, failure.NewExecutionError(
			s.primitive, s.object, failure.PhaseUngrasp, "object "+s.exec.held+" detected in hand after executing ungrasp", nil)
	case p.closing:
		s.logger.Infow("grasped object", "execution_id", s.id, "object", s.exec.held)
	default:
		s.logger.Infow("released object", "execution_id", s.id)
	}
	return host.Command{}, true, nil
}

type settlePhase struct {
	steps int
}

func (p *settlePhase) next(ctx context.Context, s *Stream) (host.Command, bool, error) {
	for i := 0; i < p.steps; i++ {
		if err := s.exec.host.Step(ctx); err != nil {
			return host.Command{}, false, errors.Wrap(err, "stepping host")
		}
	}
	return host.Command{}, true, nil
}

type stillPhase struct {
	count   int
	emitted int
}

func (p *stillPhase) next(ctx context.Context, s *Stream) (host.Command, bool, error) {
	if p.emitted >= p.count {
		return host.Command{}, true, nil
	}
	cmd, err := s.exec.StillAction(ctx)
	if err != nil {
		return host.Command{}, false, err
	}
	p.emitted++
	return cmd, false, nil
}

type basePathPhase struct {
	path motionplan.BasePath

	started bool
	base    host.Command
	i       int
}

func (p *basePathPhase) next(ctx context.Context, s *Stream) (host.Command, bool, error) {
	if !p.started {
		if len(p.path) == 0 {
			return host.Command{}, false, failure.NewPlanningError(s.primitive, s.object, failure.PhaseNavigate, errors.New("empty base path"))
		}
		p.started = true
		if !s.exec.canStreamBase() {
			if err := s.exec.host.SetBasePose(ctx, p.path[len(p.path)-1]); err != nil {
				return host.Command{}, false, err
			}
			p.i = len(p.path)
			// read after the move so the base holds its new position
			still, err := s.exec.StillAction(ctx)
			return still, err != nil, err
		}
		still, err := s.exec.StillAction(ctx)
		if err != nil {
			return host.Command{}, false, err
		}
		p.base = still
	}
	if p.i == len(p.path) {
		return host.Command{}, true, nil
	}
	cmd := copyCommand(p.base)
	if err := s.exec.setGroup(cmd, host.BaseGroup, p.path[p.i].Inputs()); err != nil {
		return host.Command{}, false, err
	}
	p.i++
	return cmd, false, nil
}

type callPhase func(ctx context.Context) error

func (p callPhase) next(ctx context.Context, s *Stream) (host.Command, bool, error) {
	return host.Command{}, true, p(ctx)
}

// Drain pulls every command from stream, applying each to sink and stepping stepper once after it.
// It returns the number of commands applied.
func Drain(ctx context.Context, stream *Stream, sink host.CommandSink, stepper host.Stepper) (int, error) {
	defer stream.Close()
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		cmd, err := stream.Next(ctx)
		if errors.Is(err, ErrStreamDone) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := sink.Apply(ctx, cmd); err != nil {
			return n, errors.Wrap(err, "applying command")
		}
		n++
		if err := stepper.Step(ctx); err != nil {
			return n, errors.Wrap(err, "stepping host")
		}
	}
}
