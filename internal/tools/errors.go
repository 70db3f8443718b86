package tools

import "fmt"

// ErrToolUnavailable is returned by [Registry.Lookup] when the requested
// name is not a known tool or no capability is registered for it.
type ErrToolUnavailable struct {
	ToolName string
}

// Error implements the error interface.
func (e *ErrToolUnavailable) Error() string {
	return fmt.Sprintf("tool %q is not registered", e.ToolName)
}
