package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"weather-workers/internal/common/errors"
	"weather-workers/internal/common/metrics"
)

// Registry holds the tools a process exposes, keyed by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds t. Names are unique per registry.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("register: nil tool")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("register: tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns one descriptor per tool, sorted by name.
func (r *Registry) Definitions() []Definition {
	names := r.Names()
	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		t, _ := r.Get(name)
		defs = append(defs, Definition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// Invoke routes raw to the named tool.
func (r *Registry) Invoke(ctx context.Context, name string, raw map[string]interface{}, ec ExecContext) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		metrics.ToolInvocations.WithLabelValues("unknown", string(errors.ErrCodeToolNotFound)).Inc()
		return "", errors.NewToolNotFoundError(name, r.Names())
	}
	return t.Invoke(ctx, raw, ec)
}
