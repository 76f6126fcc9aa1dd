// Package failure defines the error taxonomy shared by the planners, the executor and the
// dispatcher. Each error records the primitive, object and phase it arose in, where known.
package failure

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/primitives/spatialmath"
)

// Phase names the step of a primitive an error arose in.
type Phase string

// Phases reported on errors.
const (
	PhaseDispatch    Phase = "dispatch"
	PhaseNavigate    Phase = "navigate"
	PhasePreApproach Phase = "pre-approach"
	PhaseInteraction Phase = "interaction"
	PhaseGrasp       Phase = "grasp"
	PhaseUngrasp     Phase = "ungrasp"
	PhaseRetreat     Phase = "retreat"
	PhasePull        Phase = "pull"
)

// Reason classifies an error for callers that branch on the kind of failure.
type Reason int

// Reasons returned by ReasonOf.
const (
	ReasonNone Reason = iota
	ReasonPlanning
	ReasonPreCondition
	ReasonExecution
	ReasonInvalidPose
	ReasonUnknown
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonPlanning:
		return "planning"
	case ReasonPreCondition:
		return "precondition"
	case ReasonExecution:
		return "execution"
	case ReasonInvalidPose:
		return "invalid_pose"
	case ReasonUnknown:
		return "unknown"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Context is the location of a failure within a primitive.
type Context struct {
	Primitive string
	Object    string
	Phase     Phase
}

func (c Context) describe(kind string) string {
	var sb strings.Builder
	sb.WriteString(kind)
	if c.Primitive != "" {
		fmt.Fprintf(&sb, " for %s", c.Primitive)
	}
	if c.Object != "" {
		fmt.Fprintf(&sb, " on %s", c.Object)
	}
	if c.Phase != "" {
		fmt.Fprintf(&sb, " (%s)", c.Phase)
	}
	return sb.String()
}

// PlanningError is returned when no path could be found for a required phase.
type PlanningError struct {
	Context
	Cause error
}

// NewPlanningError returns a PlanningError. cause may be nil.
func NewPlanningError(primitive, object string, phase Phase, cause error) *PlanningError {
	return &PlanningError{Context: Context{primitive, object, phase}, Cause: cause}
}

func (e *PlanningError) Error() string {
	msg := e.describe("planning failed")
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *PlanningError) Unwrap() error {
	return e.Cause
}

// PreConditionError is returned when the robot or world state does not allow the primitive to start.
type PreConditionError struct {
	Context
	Detail string
}

// NewPreConditionError returns a PreConditionError.
func NewPreConditionError(primitive, object string, phase Phase, detail string) *PreConditionError {
	return &PreConditionError{Context: Context{primitive, object, phase}, Detail: detail}
}

func (e *PreConditionError) Error() string {
	return e.describe("precondition failed") + ": " + e.Detail
}

// ExecutionError is returned when a phase ran but did not reach its expected outcome, e.g. no
// contact was made or the grasp did not hold an object.
type ExecutionError struct {
	Context
	Detail string
	Cause  error
}

// NewExecutionError returns an ExecutionError. cause may be nil.
func NewExecutionError(primitive, object string, phase Phase, detail string, cause error) *ExecutionError {
	return &ExecutionError{Context: Context{primitive, object, phase}, Detail: detail, Cause: cause}
}

func (e *ExecutionError) Error() string {
	msg := e.describe("execution failed") + ": " + e.Detail
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// ReasonOf classifies err, looking through any wrapping.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonNone
	}
	var invalidPose *spatialmath.InvalidPoseError
	var planning *PlanningError
	var precondition *PreConditionError
	var execution *ExecutionError
	switch {
	// A bad pose is a defect even when it surfaced while planning.
	case errors.As(err, &invalidPose):
		return ReasonInvalidPose
	case errors.As(err, &precondition):
		return ReasonPreCondition
	case errors.As(err, &planning):
		return ReasonPlanning
	case errors.As(err, &execution):
		return ReasonExecution
	default:
		return ReasonUnknown
	}
}

// Recoverable reports whether the caller may reasonably retry or choose another action after err.
// Invalid poses and unclassified faults are not recoverable.
func Recoverable(err error) bool {
	switch ReasonOf(err) {
	case ReasonPlanning, ReasonPreCondition, ReasonExecution:
		return true
	default:
		return false
	}
}

// ContextOf returns the primitive/object/phase recorded on a taxonomy error, if any.
func ContextOf(err error) (Context, bool) {
	var planning *PlanningError
	var precondition *PreConditionError
	var execution *ExecutionError
	switch {
	case errors.As(err, &planning):
		return planning.Context, true
	case errors.As(err, &precondition):
		return precondition.Context, true
	case errors.As(err, &execution):
		return execution.Context, true
	}
	return Context{}, false
}
