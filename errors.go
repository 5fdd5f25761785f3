package sentinell

import "errors"

var (
	// ErrInvalidTool is returned when a tool specification is malformed.
	ErrInvalidTool = errors.New("invalid tool specification")

	// ErrToolNameConflict is returned when a tool name is registered twice.
	ErrToolNameConflict = errors.New("tool name conflict")

	// ErrUnknownTool is returned when a tool call refers to an unregistered tool.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArgument is returned when a tool argument is missing or can not be coerced to its declared type.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrModelAccess wraps any failure while talking to the model. It is never absorbed by the loop.
	ErrModelAccess = errors.New("model access failed")

	// ErrNoSubTask is returned by a supervisor without sub-tasks.
	ErrNoSubTask = errors.New("no sub-task configured")
)
