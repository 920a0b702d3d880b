package main

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-workers/pkg/registry"
)

func notifyEntry() registry.ToolEntry {
	return registry.ToolEntry{
		Name:        "weatherNotify",
		Description: "Send a forecast by email or SMS",
		Category:    "communication",
		TaskType:    "weatherNotify",
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"zipcode", "daysAhead"},
			"properties": map[string]interface{}{
				"zipcode":   map[string]interface{}{"type": "string", "description": "5-digit US zipcode"},
				"daysAhead": map[string]interface{}{"type": "integer"},
				"email":     map[string]interface{}{"type": "string"},
			},
		},
		Timeout: "20s",
	}
}

func TestWorkerData(t *testing.T) {
	data := workerData(notifyEntry())

	assert.Equal(t, "weathernotify", data.PackageName)
	assert.Equal(t, []string{"zipcode", "daysAhead"}, data.Required)
	require.Len(t, data.Fields, 3)

	// properties come out sorted
	assert.Equal(t, "DaysAhead", data.Fields[0].GoName)
	assert.Equal(t, "int", data.Fields[0].GoType)
	assert.True(t, data.Fields[0].Required)
	assert.Equal(t, "Email", data.Fields[1].GoName)
	assert.False(t, data.Fields[1].Required)
	assert.Equal(t, "Zipcode", data.Fields[2].GoName)
	assert.Equal(t, "5-digit US zipcode", data.Fields[2].Description)
}

func TestWorkerData_BadTimeoutFallsBack(t *testing.T) {
	entry := notifyEntry()
	entry.Timeout = "soon"
	assert.Equal(t, "30s", workerData(entry).Timeout)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "PostCode", exportedName("post-code"))
	assert.Equal(t, "DaysAhead", exportedName("daysAhead"))
	assert.Equal(t, "Field", exportedName("--"))
	assert.Equal(t, "weather-notify", dirName("weatherNotify"))
	assert.Equal(t, "send-sms", dirName("send_sms"))
	assert.Equal(t, "weatherforcasting", packageName("weatherForcasting"))
}

func TestGenerate_ParsesAsGo(t *testing.T) {
	dir := t.TempDir()

	written, err := generate(notifyEntry(), dir)
	require.NoError(t, err)
	require.Len(t, written, 4)

	fset := token.NewFileSet()
	for _, path := range written {
		f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		require.NoError(t, err, path)
		assert.Equal(t, "weathernotify", f.Name.Name)
	}

	models, err := parser.ParseFile(fset, filepath.Join(dir, "models.go"), nil, 0)
	require.NoError(t, err)
	var fields []string
	ast.Inspect(models, func(n ast.Node) bool {
		ts, ok := n.(*ast.TypeSpec)
		if !ok || ts.Name.Name != "Params" {
			return true
		}
		for _, f := range ts.Type.(*ast.StructType).Fields.List {
			fields = append(fields, f.Names[0].Name)
		}
		return false
	})
	assert.Equal(t, []string{"DaysAhead", "Email", "Zipcode"}, fields)

	cfg, err := os.ReadFile(filepath.Join(dir, "config.go"))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "20000 * time.Millisecond")

	handler, err := os.ReadFile(filepath.Join(dir, "handler.go"))
	require.NoError(t, err)
	assert.Contains(t, string(handler), `TaskType    = "weatherNotify"`)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "tool-registry.json")
	m := registry.NewManifest([]registry.ToolEntry{notifyEntry()}, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, registry.SaveManifest(m, manifestPath))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-manifest", manifestPath, "-tool", "weatherNotify", "-output", dir}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.FileExists(t, filepath.Join(dir, "communication", "weather-notify", "handler.go"))
	assert.Contains(t, stdout.String(), "Next steps")
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "tool-registry.json")
	m := registry.NewManifest([]registry.ToolEntry{notifyEntry()}, time.Now())
	require.NoError(t, registry.SaveManifest(m, manifestPath))

	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{"missing tool flag", []string{"-manifest", manifestPath}, "Usage"},
		{"unknown tool", []string{"-manifest", manifestPath, "-tool", "nope"}, "not found"},
		{"missing manifest", []string{"-manifest", filepath.Join(dir, "absent.json"), "-tool", "weatherNotify"}, "Error loading manifest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, 1, run(tt.args, &stdout, &stderr))
			assert.Contains(t, stderr.String(), tt.contains)
		})
	}
}
