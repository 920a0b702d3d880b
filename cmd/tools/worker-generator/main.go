// cmd/tools/worker-generator/main.go
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
	"unicode"

	"weather-workers/pkg/registry"
)

// WorkerData holds data for templates
type WorkerData struct {
	Name        string
	PackageName string
	TaskType    string
	Description string
	Timeout     string
	Fields      []Field
	Required    []string
}

// Field is one tool parameter.
type Field struct {
	GoName      string
	GoType      string
	JSONName    string
	JSONType    string
	Description string
	Required    bool
}

// goTypeFromJSONType maps JSON schema types to Go types
func goTypeFromJSONType(jsonType interface{}) string {
	jt, _ := jsonType.(string)
	switch jt {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

// exportedName turns a parameter name such as "daysAhead" or "post-code" into a Go field name.
func exportedName(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if r == '-' || r == '_' || r == '.' || r == ' ' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "Field"
	}
	return b.String()
}

func packageName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// dirName turns "weatherNotify" into "weather-notify".
func dirName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || r == '.':
			b.WriteRune('-')
		case unicode.IsUpper(r):
			if i > 0 {
				b.WriteRune('-')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// workerData extracts template data from a manifest entry. Properties are
// sorted so regenerating a worker gives the same files.
func workerData(entry registry.ToolEntry) WorkerData {
	required := map[string]bool{}
	var requiredList []string
	if req, ok := entry.InputSchema["required"].([]interface{}); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				required[s] = true
				requiredList = append(requiredList, s)
			}
		}
	}

	props, _ := entry.InputSchema["properties"].(map[string]interface{})
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		details, _ := props[name].(map[string]interface{})
		jsonType, _ := details["type"].(string)
		desc, _ := details["description"].(string)
		fields = append(fields, Field{
			GoName:      exportedName(name),
			GoType:      goTypeFromJSONType(details["type"]),
			JSONName:    name,
			JSONType:    jsonType,
			Description: desc,
			Required:    required[name],
		})
	}

	timeout := entry.Timeout
	if _, err := time.ParseDuration(timeout); err != nil {
		timeout = "30s"
	}

	return WorkerData{
		Name:        entry.Name,
		PackageName: packageName(entry.Name),
		TaskType:    entry.TaskType,
		Description: entry.Description,
		Timeout:     timeout,
		Fields:      fields,
		Required:    requiredList,
	}
}

var funcMap = template.FuncMap{
	"quote": strconv.Quote,
	"durationExpr": func(s string) string {
		d, _ := time.ParseDuration(s)
		return fmt.Sprintf("%d * time.Millisecond", d.Milliseconds())
	},
}

const configTemplate = `package {{ .PackageName }}

import (
	"fmt"
	"time"

	"weather-workers/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       {{ durationExpr .Timeout }},
	}
}

func ConfigFrom(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	c := DefaultConfig()
	c.Enabled = wc.Enabled
	if wc.MaxJobsActive > 0 {
		c.MaxJobsActive = wc.MaxJobsActive
	}
	if wc.Timeout > 0 {
		c.Timeout = config.GetDuration(wc.Timeout)
	}
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	return nil
}
`

const modelsTemplate = `package {{ .PackageName }}

type Params struct {
{{- range .Fields }}
	{{ .GoName }} {{ .GoType }} ` + "`json:\"{{ .JSONName }}{{ if not .Required }},omitempty{{ end }}\"`" + `{{ if .Description }} // {{ .Description }}{{ end }}
{{- end }}
}

type Output struct {
	Result string ` + "`json:\"result\"`" + `
}
`

const validationTemplate = `package {{ .PackageName }}

import "weather-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{ {{- range $i, $r := .Required }}{{ if $i }}, {{ end }}{{ quote $r }}{{ end -}} },
		Properties: map[string]validation.Property{
{{- range .Fields }}
			{{ quote .JSONName }}: {
				Type:        {{ quote .JSONType }},
				Description: {{ quote .Description }},
			},
{{- end }}
		},
		AdditionalProperties: true,
	}
}
`

const handlerTemplate = `package {{ .PackageName }}

import (
	"context"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"weather-workers/internal/common/camunda"
	"weather-workers/internal/common/errors"
	"weather-workers/internal/common/logger"
	"weather-workers/internal/common/metrics"
	"weather-workers/internal/tool"
)

const (
	TaskType    = {{ quote .TaskType }}
	Description = {{ quote .Description }}
)

func NewTool() (*tool.SchemaTool[Params], error) {
	return tool.Register({{ quote .Name }}, Description, GetInputSchema(),
		func(ctx context.Context, p Params, ec tool.ExecContext) (string, error) {
			// TODO: implement {{ .Name }}
			return "", errors.NewBusinessRuleError("Tool not implemented", TaskType)
		})
}

type Handler struct {
	config       *Config
	tool         tool.Tool
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, t tool.Tool, log logger.Logger) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{config: config, tool: t, errorHandler: errors.NewErrorHandler(log), logger: log}
}

func (h *Handler) Handle(ctx context.Context, client worker.JobClient, job entities.Job) {
	start := time.Now()
	// Reporting back to the gateway must outlive the job timeout.
	reportCtx := context.WithoutCancel(ctx)
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, job)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	if err != nil {
		stdErr := errors.Normalize(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errorHandler.HandleJobError(reportCtx, client, job, stdErr)
		return
	}

	if err := camunda.CompleteJob(reportCtx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.GetKey(), "error": err.Error()})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(ctx context.Context, job entities.Job) (*Output, error) {
	vars, err := camunda.JobVariables(job)
	if err != nil {
		return nil, err
	}
	result, err := h.tool.Invoke(ctx, vars, tool.ExecContext{
		InvocationID: strconv.FormatInt(job.GetKey(), 10),
		Logger:       h.logger,
		Variables:    vars,
	})
	if err != nil {
		return nil, err
	}
	return &Output{Result: result}, nil
}
`

var templates = []struct {
	filename string
	body     string
}{
	{"config.go", configTemplate},
	{"models.go", modelsTemplate},
	{"validation.go", validationTemplate},
	{"handler.go", handlerTemplate},
}

// generate renders every template for entry into dir and returns the written paths.
func generate(entry registry.ToolEntry, dir string) ([]string, error) {
	data := workerData(entry)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	var written []string
	for _, t := range templates {
		tmpl, err := template.New(t.filename).Funcs(funcMap).Parse(t.body)
		if err != nil {
			return written, fmt.Errorf("parse template %s: %w", t.filename, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return written, fmt.Errorf("execute template %s: %w", t.filename, err)
		}
		src, err := format.Source(buf.Bytes())
		if err != nil {
			return written, fmt.Errorf("format %s: %w", t.filename, err)
		}

		path := filepath.Join(dir, t.filename)
		if err := os.WriteFile(path, src, 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("worker-generator", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("tool", "", "Tool name from the manifest (e.g., weatherNotify)")
	outputDir := fs.String("output", "./internal/workers/", "Root directory for generated workers")
	manifestPath := fs.String("manifest", "configs/tool-registry.json", "Path to the tool manifest")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *name == "" {
		fmt.Fprintln(stderr, "Usage: worker-generator -tool <name> [-output <dir>] [-manifest <path>]")
		return 1
	}

	m, err := registry.LoadManifest(*manifestPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading manifest from %s: %v\n", *manifestPath, err)
		return 1
	}
	entry, ok := m.Find(*name)
	if !ok {
		fmt.Fprintf(stderr, "Tool '%s' not found in manifest %s\n", *name, *manifestPath)
		return 1
	}

	category := entry.Category
	if category == "" {
		category = "misc"
	}
	dir := filepath.Join(*outputDir, strings.ToLower(category), dirName(entry.Name))

	written, err := generate(*entry, dir)
	for _, path := range written {
		fmt.Fprintf(stdout, "Generated %s\n", path)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "\nNext steps:\n")
	fmt.Fprintf(stdout, "  1. Implement the tool body in %s\n", filepath.Join(dir, "handler.go"))
	fmt.Fprintf(stdout, "  2. Bind it in internal/toolset\n")
	fmt.Fprintf(stdout, "  3. Add a workers.%s section to configs/config.yaml\n", entry.TaskType)
	return 0
}
