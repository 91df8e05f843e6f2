package graph

import "errors"

var (
	// ErrDuplicateStep is returned when a step name is registered twice or
	// collides with the Start/End markers.
	ErrDuplicateStep = errors.New("graph: duplicate step")

	// ErrStepNotFound is returned when an edge or route references a step
	// that was never registered.
	ErrStepNotFound = errors.New("graph: step not found")

	// ErrValidation is returned by Compile when the graph is not executable,
	// e.g. a registered step has no outgoing edge or Start is unwired.
	ErrValidation = errors.New("graph: validation failed")

	// ErrUnknownRoute is returned at run time when a router produces a label
	// that is absent from its route map.
	ErrUnknownRoute = errors.New("graph: unknown route label")

	// ErrMaxStepsExceeded is returned when a run executes more steps than the
	// limit configured via WithMaxSteps. The engine itself never loop-detects;
	// the limit is a deployment safety net against mis-wired cycles.
	ErrMaxStepsExceeded = errors.New("graph: max steps exceeded")
)
