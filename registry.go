package sentinell

import (
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

type registeredTool struct {
	tool      Tool
	spec      ToolSpec
	validator *argValidator
}

// ToolRegistry maps tool names to tools. Registration normally happens once at process start;
// lookups are safe for concurrent use.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]*registeredTool
	order []string
}

// NewToolRegistry creates a registry populated with tools. It fails on the first invalid or
// conflicting tool.
func NewToolRegistry(tools ...Tool) (*ToolRegistry, error) {
	r := &ToolRegistry{
		tools: make(map[string]*registeredTool),
	}
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds tool to the registry. Registering a name twice is a programmer error and
// fails with ErrToolNameConflict.
func (r *ToolRegistry) Register(tool Tool) error {
	spec := tool.Spec().clone()
	if err := spec.Validate(); err != nil {
		return err
	}

	validator, err := compileArgValidator(&spec)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[spec.Name]; ok {
		return goerr.Wrap(ErrToolNameConflict, "tool is already registered", goerr.V("tool_name", spec.Name))
	}

	r.tools[spec.Name] = &registeredTool{
		tool:      tool,
		spec:      spec,
		validator: validator,
	}
	r.order = append(r.order, spec.Name)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *ToolRegistry) MustRegister(tools ...Tool) {
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the tool registered with name.
func (r *ToolRegistry) Lookup(name string) (Tool, bool) {
	entry, ok := r.lookup(name)
	if !ok {
		return nil, false
	}
	return entry.tool, true
}

func (r *ToolRegistry) lookup(name string) (*registeredTool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.tools[name]
	return entry, ok
}

// Specs returns copies of the registered specs in registration order.
func (r *ToolRegistry) Specs() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].spec.clone())
	}
	return specs
}

// Len returns the number of registered tools.
func (r *ToolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Tools returns the registered tools in registration order.
func (r *ToolRegistry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name].tool)
	}
	return tools
}
