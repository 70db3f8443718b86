// Package tools defines the tools available to the agent and the
// dispatcher that runs them on the model's behalf.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// ToolID names a tool the model may request. The set is closed.
type ToolID string

const (
	GoogleSearch ToolID = "google_search"
	FileTool     ToolID = "file_tool"
)

// toolOrder is the order tools are listed in prompts.
var toolOrder = []ToolID{GoogleSearch, FileTool}

// ParseToolID maps a wire name to a ToolID. Matching is exact.
func ParseToolID(name string) (ToolID, bool) {
	for _, id := range toolOrder {
		if string(id) == name {
			return id, true
		}
	}
	return "", false
}

// Capability is a single tool implementation.
//
// Run returns text for the model. Problems the model can fix (a missing
// argument, a file that does not exist) come back as text with a nil
// error; a non-nil error means the tool itself failed.
type Capability interface {
	ID() ToolID
	Description() string
	Run(ctx context.Context, args map[string]any) (string, error)
}

// Description is a tool's name and help text as shown to the model.
type Description struct {
	Name string
	Text string
}

// Registry holds the capabilities available for this session.
type Registry struct {
	caps map[ToolID]Capability
}

// NewRegistry creates a registry holding caps. A later capability with
// the same ID replaces an earlier one.
func NewRegistry(caps ...Capability) *Registry {
	r := &Registry{caps: make(map[ToolID]Capability, len(caps))}
	for _, c := range caps {
		r.Register(c)
	}
	return r
}

// Register adds a capability to the registry.
func (r *Registry) Register(c Capability) {
	r.caps[c.ID()] = c
}

// Get retrieves a capability by wire name.
func (r *Registry) Get(name string) (Capability, bool) {
	id, ok := ParseToolID(name)
	if !ok {
		return nil, false
	}
	c, ok := r.caps[id]
	return c, ok
}

// Lookup is like Get but reports a miss as *ErrToolUnavailable.
func (r *Registry) Lookup(name string) (Capability, error) {
	c, ok := r.Get(name)
	if !ok {
		return nil, &ErrToolUnavailable{ToolName: name}
	}
	return c, nil
}

// Descriptions lists the registered tools in a stable order.
func (r *Registry) Descriptions() []Description {
	var out []Description
	for _, id := range toolOrder {
		if c, ok := r.caps[id]; ok {
			out = append(out, Description{Name: string(id), Text: c.Description()})
		}
	}
	return out
}

// Dispatcher executes tool calls and converts every outcome to text.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Execute runs the named tool with args. It never returns an error and
// never panics: unknown tools, capability errors and panics all come
// back as text.
func (d *Dispatcher) Execute(ctx context.Context, name string, args map[string]any) (result string) {
	c, err := d.registry.Lookup(name)
	if err != nil {
		var unavailable *ErrToolUnavailable
		if errors.As(err, &unavailable) {
			d.logger.Warn("model requested unknown tool", "tool", name)
		}
		return fmt.Sprintf("Error: Tool '%s' not recognized.", name)
	}

	if args == nil {
		args = map[string]any{}
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked",
				"tool", name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			result = failure(name, fmt.Errorf("%v", r))
		}
	}()

	d.logger.Debug("executing tool", "tool", name, "args", args)
	out, err := c.Run(ctx, args)
	if err != nil {
		d.logger.Warn("tool failed", "tool", name, "error", err)
		return failure(name, err)
	}
	return out
}

func failure(name string, err error) string {
	return fmt.Sprintf("An error occurred while executing the tool '%s': %v", name, err)
}

// stringArg returns args[key] as a string. Non-string scalars are
// formatted; a missing or null value reports false.
func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}
