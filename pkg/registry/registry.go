// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"weather-workers/internal/common/validation"
)

const ManifestVersion = "1.0.0"

func LoadManifest(path string) (*ToolManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m ToolManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// SaveManifest writes m as indented JSON, creating the directory if needed.
func SaveManifest(m *ToolManifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}

// NewManifest returns a manifest holding entries sorted by name.
func NewManifest(entries []ToolEntry, now time.Time) *ToolManifest {
	tools := append([]ToolEntry(nil), entries...)
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return &ToolManifest{
		Version:     ManifestVersion,
		LastUpdated: now.UTC().Format(time.RFC3339),
		Tools:       tools,
	}
}

// Find returns the entry named name.
func (m *ToolManifest) Find(name string) (*ToolEntry, bool) {
	for i := range m.Tools {
		if m.Tools[i].Name == name {
			return &m.Tools[i], true
		}
	}
	return nil, false
}

// Validate checks every entry and recompiles its input schema.
func (m *ToolManifest) Validate() error {
	if len(m.Tools) == 0 {
		return fmt.Errorf("manifest contains no tools")
	}

	names := make(map[string]bool, len(m.Tools))
	for _, entry := range m.Tools {
		if names[entry.Name] {
			return fmt.Errorf("duplicate tool name: %s", entry.Name)
		}
		names[entry.Name] = true

		if err := entry.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (e ToolEntry) validate() error {
	if err := validation.ValidateToolName(e.Name); err != nil {
		return err
	}
	if e.Description == "" {
		return fmt.Errorf("tool %s missing required field: description", e.Name)
	}
	if e.TaskType == "" {
		return fmt.Errorf("tool %s missing required field: taskType", e.Name)
	}
	if e.InputSchema == nil {
		return fmt.Errorf("tool %s missing required field: inputSchema", e.Name)
	}
	if _, err := validation.CompileMap(e.InputSchema); err != nil {
		return fmt.Errorf("tool %s: %w", e.Name, err)
	}
	if e.Timeout != "" {
		if d, err := time.ParseDuration(e.Timeout); err != nil || d <= 0 {
			return fmt.Errorf("tool %s: invalid timeout %q", e.Name, e.Timeout)
		}
	}
	if e.Retries < 0 {
		return fmt.Errorf("tool %s: retries must not be negative", e.Name)
	}
	return nil
}
